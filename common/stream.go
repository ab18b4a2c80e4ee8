package common

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

const MaxStreamsPerRequest = 64

var (
	ErrBadLevel   = errors.New("level must be \"jump\" or \"long\"")
	ErrBadRequest = errors.New("malformed request")
)

// JumpLevel selects how far apart dispensed streams are: JumpLevelJump streams
// are 2^128 steps apart, JumpLevelLong streams are 2^192 steps apart and can be
// split further with jumps.
type JumpLevel string

const (
	JumpLevelJump JumpLevel = "jump"
	JumpLevelLong JumpLevel = "long"
)

func ParseJumpLevel(s string) (JumpLevel, error) {
	switch JumpLevel(s) {
	case "", JumpLevelJump:
		return JumpLevelJump, nil
	case JumpLevelLong:
		return JumpLevelLong, nil
	}

	return "", fmt.Errorf("%w (got %q)", ErrBadLevel, s)
}

// Stream is a starting state handed out by a dispenser.
type Stream struct {
	Session uint      `json:"session" mapstructure:"session"`
	Index   uint64    `json:"index" mapstructure:"index"`
	Level   JumpLevel `json:"level" mapstructure:"level"`
	State   string    `json:"state" mapstructure:"state"`
}

type StreamEvent struct {
	Stream    Stream `json:"stream"`
	Allocated int64  `json:"allocated"`
}

type StreamRequest struct {
	Level string `json:"level" mapstructure:"level"`
	Count int    `json:"count" mapstructure:"count"`
}

type VerifyRequest struct {
	State string `json:"state" mapstructure:"state"`
	Index uint64 `json:"index" mapstructure:"index"`
	Value string `json:"value" mapstructure:"value"`
}

type ReseedRequest struct {
	Seed string `json:"seed" mapstructure:"seed"`
}

func init() {
	gob.Register(StreamEvent{})
}

// decodeBody unmarshals a JSON object into a generic map first and then into
// out, so that numbers sent as strings ("count": "3") are accepted too.
func decodeBody(body []byte, out interface{}) error {
	var raw map[string]interface{}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, &raw); err != nil {
		return errors.Join(ErrBadRequest, err)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}

	if err = decoder.Decode(raw); err != nil {
		return errors.Join(ErrBadRequest, err)
	}

	return nil
}

// ParseStreamRequest decodes a request for new streams. An empty body asks for
// one jump stream.
func ParseStreamRequest(body []byte) (request StreamRequest, err error) {
	if err = decodeBody(body, &request); err != nil {
		return
	}

	if _, err = ParseJumpLevel(request.Level); err != nil {
		return
	}

	if request.Count == 0 {
		request.Count = 1
	}

	if request.Count < 0 || request.Count > MaxStreamsPerRequest {
		err = fmt.Errorf("%w: count must be between 1 and %d (got %d)", ErrBadRequest, MaxStreamsPerRequest, request.Count)
	}

	return
}

func ParseVerifyRequest(body []byte) (request VerifyRequest, err error) {
	if err = decodeBody(body, &request); err != nil {
		return
	}

	if request.State == "" || request.Value == "" {
		err = fmt.Errorf("%w: state and value are required", ErrBadRequest)
	}

	return
}

func ParseReseedRequest(body []byte) (request ReseedRequest, err error) {
	err = decodeBody(body, &request)
	return
}

func EncodeEvent(event StreamEvent) ([]byte, error) {
	var buffer bytes.Buffer

	if err := gob.NewEncoder(&buffer).Encode(event); err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}

func DecodeEvent(body []byte) (event StreamEvent, err error) {
	err = gob.NewDecoder(bytes.NewReader(body)).Decode(&event)
	return
}
