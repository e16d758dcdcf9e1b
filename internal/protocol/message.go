// Package protocol defines the messages exchanged between the orchestrator
// and a worker: one Request in, zero or more PROGRESS envelopes and exactly
// one DONE or ERROR envelope out.
//
// The messages are plain values with a JSON form so that the same contract
// works over an in-process channel and over a subprocess pipe.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/tomvoet/imgconv/internal/settings"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Request asks a worker to convert InputFile from InputType to OutputType.
//
// Once dispatched, InputFile belongs to the worker; the caller must not
// modify it.
type Request struct {
	JobID      string            `json:"jobId,omitempty"`
	InputFile  []byte            `json:"inputFile" validate:"required,min=1"`
	InputType  string            `json:"inputType" validate:"required"`
	OutputType string            `json:"outputType" validate:"required"`
	Settings   settings.Settings `json:"-"`
}

// NewRequest builds a request with a fresh job id.
func NewRequest(input []byte, inputType, outputType string, s settings.Settings) Request {
	return Request{
		JobID:      uuid.NewString(),
		InputFile:  input,
		InputType:  inputType,
		OutputType: outputType,
		Settings:   s,
	}
}

// Validate checks required fields and the settings variant.
func (r Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("request: %w", err)
	}
	return settings.Validate(r.Settings)
}

type requestJSON struct {
	JobID      string          `json:"jobId,omitempty"`
	InputFile  []byte          `json:"inputFile"`
	InputType  string          `json:"inputType"`
	OutputType string          `json:"outputType"`
	Settings   json.RawMessage `json:"settings,omitempty"`
}

func (r Request) MarshalJSON() ([]byte, error) {
	out := requestJSON{
		JobID:      r.JobID,
		InputFile:  r.InputFile,
		InputType:  r.InputType,
		OutputType: r.OutputType,
	}
	if r.Settings != nil {
		raw, err := settings.Marshal(r.Settings)
		if err != nil {
			return nil, err
		}
		out.Settings = raw
	}
	return json.Marshal(out)
}

func (r *Request) UnmarshalJSON(data []byte) error {
	var in requestJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	s, err := settings.Decode(in.Settings)
	if err != nil {
		return err
	}
	*r = Request{
		JobID:      in.JobID,
		InputFile:  in.InputFile,
		InputType:  in.InputType,
		OutputType: in.OutputType,
		Settings:   s,
	}
	return nil
}

// MessageType is the envelope discriminant.
type MessageType string

const (
	MessageProgress MessageType = "PROGRESS"
	MessageDone     MessageType = "DONE"
	MessageError    MessageType = "ERROR"
)

// Progress is the payload of a PROGRESS envelope.
type Progress struct {
	Progress float64 `json:"progress"`
	Message  string  `json:"message"`
}

// Response is the payload of a terminal envelope. Success is true for DONE.
type Response struct {
	Success bool   `json:"success"`
	Data    []byte `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Kind    Kind   `json:"kind,omitempty"`
}

// Envelope is one message from a worker. Exactly one of Progress and
// Response is set, according to Type.
type Envelope struct {
	Type     MessageType
	JobID    string
	Progress *Progress
	Response *Response
}

func NewProgress(jobID string, percent float64, message string) Envelope {
	return Envelope{
		Type:     MessageProgress,
		JobID:    jobID,
		Progress: &Progress{Progress: percent, Message: message},
	}
}

func NewDone(jobID string, data []byte) Envelope {
	return Envelope{
		Type:     MessageDone,
		JobID:    jobID,
		Response: &Response{Success: true, Data: data},
	}
}

func NewError(jobID string, err *Error) Envelope {
	return Envelope{
		Type:     MessageError,
		JobID:    jobID,
		Response: &Response{Success: false, Error: err.Error(), Kind: err.Kind},
	}
}

// Terminal reports whether e ends its job's message sequence.
func (e Envelope) Terminal() bool {
	return e.Type == MessageDone || e.Type == MessageError
}

// Err returns the failure carried by an ERROR envelope, or nil.
func (e Envelope) Err() *Error {
	if e.Type != MessageError || e.Response == nil {
		return nil
	}
	return &Error{Kind: e.Response.Kind, Detail: e.Response.Error}
}

type envelopeJSON struct {
	Type    MessageType     `json:"type"`
	JobID   string          `json:"jobId,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	var payload any
	switch e.Type {
	case MessageProgress:
		payload = e.Progress
	case MessageDone, MessageError:
		payload = e.Response
	default:
		return nil, fmt.Errorf("unknown message type %q", e.Type)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelopeJSON{Type: e.Type, JobID: e.JobID, Payload: raw})
}

func (e *Envelope) UnmarshalJSON(data []byte) error {
	var in envelopeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	out := Envelope{Type: in.Type, JobID: in.JobID}
	switch in.Type {
	case MessageProgress:
		out.Progress = &Progress{}
		if err := json.Unmarshal(in.Payload, out.Progress); err != nil {
			return fmt.Errorf("progress payload: %w", err)
		}
	case MessageDone, MessageError:
		out.Response = &Response{}
		if err := json.Unmarshal(in.Payload, out.Response); err != nil {
			return fmt.Errorf("%s payload: %w", in.Type, err)
		}
	default:
		return fmt.Errorf("unknown message type %q", in.Type)
	}
	*e = out
	return nil
}
