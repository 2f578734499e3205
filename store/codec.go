package store

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorCodec converts request errors to and from their wire form so state
// can round-trip between a server render and a client. Implementations that
// need typed errors on the client (status codes, validation details) encode
// them however they like; the engine treats the encoded form as opaque.
type ErrorCodec interface {
	EncodeError(err error) (string, error)
	DecodeError(enc string) (error, error)
}

// StringCodec is the default ErrorCodec: errors serialize as their message
// and hydrate as plain errors carrying that message. Type information does
// not survive the round trip.
type StringCodec struct{}

func (StringCodec) EncodeError(err error) (string, error) {
	return err.Error(), nil
}

func (StringCodec) DecodeError(enc string) (error, error) {
	return errors.New(enc), nil
}

type wireRequest struct {
	Data    json.RawMessage `json:"data,omitempty"`
	Loading bool            `json:"loading"`
	Error   *string         `json:"error,omitempty"`
}

type wireState struct {
	Requests map[string]wireRequest `json:"requestStates"`
	Shared   any                    `json:"sharedData,omitempty"`
}

// Marshal encodes a snapshot for transport. Loading flags are dropped: a
// request still loading at extraction time serializes as settled without
// data, so the receiving side refetches it. A nil codec uses StringCodec.
func Marshal(st State, codec ErrorCodec) ([]byte, error) {
	if codec == nil {
		codec = StringCodec{}
	}
	w := wireState{Requests: make(map[string]wireRequest, len(st.Requests)), Shared: st.Shared}
	for id, rs := range st.Requests {
		var wr wireRequest
		if rs.HasData {
			raw, err := json.Marshal(rs.Data)
			if err != nil {
				return nil, fmt.Errorf("store: marshal data for %q: %w", id, err)
			}
			wr.Data = raw
		}
		if rs.Err != nil {
			enc, err := codec.EncodeError(rs.Err)
			if err != nil {
				return nil, fmt.Errorf("store: encode error for %q: %w", id, err)
			}
			wr.Error = &enc
		}
		w.Requests[id] = wr
	}
	return json.Marshal(w)
}

// Unmarshal decodes state produced by Marshal. Hydrated entries are never
// loading. A nil codec uses StringCodec.
func Unmarshal(data []byte, codec ErrorCodec) (State, error) {
	if codec == nil {
		codec = StringCodec{}
	}
	var w wireState
	if err := json.Unmarshal(data, &w); err != nil {
		return State{}, fmt.Errorf("store: unmarshal state: %w", err)
	}
	st := State{Requests: make(map[string]RequestState, len(w.Requests)), Shared: w.Shared}
	for id, wr := range w.Requests {
		var rs RequestState
		if wr.Data != nil {
			var v any
			if err := json.Unmarshal(wr.Data, &v); err != nil {
				return State{}, fmt.Errorf("store: unmarshal data for %q: %w", id, err)
			}
			rs.Data = v
			rs.HasData = true
		}
		if wr.Error != nil {
			e, err := codec.DecodeError(*wr.Error)
			if err != nil {
				return State{}, fmt.Errorf("store: decode error for %q: %w", id, err)
			}
			rs.Err = e
		}
		st.Requests[id] = rs
	}
	return st, nil
}
