package protocol

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
)

// maxLineBytes bounds one framed message. Image payloads are base64 in the
// JSON form, so this is roughly 192 MiB of raw image data.
const maxLineBytes = 256 << 20

// Writer frames messages as newline-delimited JSON. It is safe for
// concurrent use.
type Writer struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: json.NewEncoder(w)}
}

// Write encodes v followed by a newline.
func (w *Writer) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(v)
}

// Reader reads newline-delimited JSON messages.
type Reader struct {
	sc *bufio.Scanner
}

func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Reader{sc: sc}
}

// ReadRequest reads the next request. It returns io.EOF at end of stream.
func (r *Reader) ReadRequest() (Request, error) {
	var req Request
	err := r.next(&req)
	return req, err
}

// ReadEnvelope reads the next envelope. It returns io.EOF at end of stream.
func (r *Reader) ReadEnvelope() (Envelope, error) {
	var env Envelope
	err := r.next(&env)
	return env, err
}

func (r *Reader) next(v any) error {
	for r.sc.Scan() {
		line := r.sc.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := json.Unmarshal(line, v); err != nil {
			return &FrameError{Err: err}
		}
		return nil
	}
	if err := r.sc.Err(); err != nil {
		return err
	}
	return io.EOF
}

// FrameError reports a line that was read but could not be decoded. The
// stream itself is still usable.
type FrameError struct {
	Err error
}

func (e *FrameError) Error() string { return fmt.Sprintf("malformed message: %v", e.Err) }
func (e *FrameError) Unwrap() error { return e.Err }

// IsFrameError reports whether err is a recoverable decoding error.
func IsFrameError(err error) bool {
	var fe *FrameError
	return errors.As(err, &fe)
}
