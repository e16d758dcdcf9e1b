package protocol

import "fmt"

// Sequence checks the ordering contract for one job: any number of PROGRESS
// envelopes, then exactly one terminal envelope, then nothing.
type Sequence struct {
	JobID    string
	progress int
	terminal *Envelope
}

// Observe records e and returns an error if it breaks the contract.
func (s *Sequence) Observe(e Envelope) error {
	if s.JobID != "" && e.JobID != "" && e.JobID != s.JobID {
		return fmt.Errorf("envelope for job %s in sequence of job %s", e.JobID, s.JobID)
	}
	if s.terminal != nil {
		return fmt.Errorf("%s envelope after terminal %s", e.Type, s.terminal.Type)
	}
	switch e.Type {
	case MessageProgress:
		s.progress++
	case MessageDone, MessageError:
		s.terminal = &e
	default:
		return fmt.Errorf("unknown message type %q", e.Type)
	}
	return nil
}

// Complete reports whether the terminal envelope has been seen.
func (s *Sequence) Complete() bool { return s.terminal != nil }

// ProgressCount returns how many PROGRESS envelopes were observed.
func (s *Sequence) ProgressCount() int { return s.progress }

// Terminal returns the terminal envelope, if seen.
func (s *Sequence) Terminal() (Envelope, bool) {
	if s.terminal == nil {
		return Envelope{}, false
	}
	return *s.terminal, true
}
