package worker

import (
	"context"
	"errors"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/tomvoet/imgconv/internal/protocol"
)

// Serve is the child side of a Process. It reads one request per line from
// r, runs it to its terminal envelope and writes every envelope to w before
// reading the next request. It returns nil when r is exhausted.
func Serve(ctx context.Context, r io.Reader, w io.Writer, exec *Executor, log logrus.FieldLogger) error {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("component", "serve")
	in := protocol.NewReader(r)
	out := protocol.NewWriter(w)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		req, err := in.ReadRequest()
		switch {
		case errors.Is(err, io.EOF):
			log.Debug("input closed")
			return nil
		case protocol.IsFrameError(err):
			log.WithError(err).Warn("rejecting malformed request")
			if werr := out.Write(protocol.NewError(req.JobID, protocol.Classify(err, protocol.KindInvalidRequest))); werr != nil {
				return werr
			}
			continue
		case err != nil:
			return err
		}

		var writeErr error
		exec.Execute(req, func(env protocol.Envelope) {
			if writeErr != nil {
				return
			}
			writeErr = out.Write(env)
		})
		if writeErr != nil {
			return writeErr
		}
	}
}
