package worker

import (
	"github.com/sirupsen/logrus"

	"github.com/tomvoet/imgconv/internal/protocol"
)

// DefaultQueueDepth is the number of jobs a Worker accepts while busy.
const DefaultQueueDepth = 4

// Option configures executors, workers and processes.
type Option func(*options)

type options struct {
	logger      logrus.FieldLogger
	classifiers []protocol.Classifier
	queueDepth  int
}

func buildOptions(opts []Option) options {
	o := options{
		logger:     logrus.StandardLogger(),
		queueDepth: DefaultQueueDepth,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClassifiers adds error classifiers used to type codec failures.
func WithClassifiers(c ...protocol.Classifier) Option {
	return func(o *options) { o.classifiers = append(o.classifiers, c...) }
}

// WithQueueDepth sets how many jobs may wait behind the running one. Zero
// means a busy worker rejects every new job.
func WithQueueDepth(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.queueDepth = n
		}
	}
}
