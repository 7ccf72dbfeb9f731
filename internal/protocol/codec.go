package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed is returned for envelopes that cannot be decoded
var ErrMalformed = errors.New("malformed envelope")

// New builds an envelope with an encoded payload
func New(t, sender, gameID string, payload any) (*Envelope, error) {
	if t == "" {
		return nil, fmt.Errorf("%w: empty type", ErrMalformed)
	}
	if payload == nil {
		return nil, fmt.Errorf("%w: nil payload for type %q", ErrMalformed, t)
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", t, err)
	}

	return &Envelope{Type: t, Sender: sender, GameID: gameID, Payload: pb}, nil
}

// Encode builds an envelope and marshals it for the wire
func Encode(t, sender, gameID string, payload any) ([]byte, error) {
	env, err := New(t, sender, gameID, payload)
	if err != nil {
		return nil, err
	}
	return Marshal(env)
}

// Marshal encodes an existing envelope
func Marshal(env *Envelope) ([]byte, error) {
	if env == nil || env.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	return json.Marshal(env)
}

// Decode parses an envelope from the wire
func Decode(b []byte) (*Envelope, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty frame", ErrMalformed)
	}
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	return &env, nil
}

// DecodePayload unmarshals the payload of an envelope into T
func DecodePayload[T any](env *Envelope) (T, error) {
	var out T
	if env == nil || len(env.Payload) == 0 {
		return out, fmt.Errorf("%w: empty payload", ErrMalformed)
	}
	if err := json.Unmarshal(env.Payload, &out); err != nil {
		return out, fmt.Errorf("%w: %s payload: %v", ErrMalformed, env.Type, err)
	}
	return out, nil
}
