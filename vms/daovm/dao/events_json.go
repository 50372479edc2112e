// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package dao

import (
	"encoding/json"
	"errors"
	"fmt"
)

var errUnknownEventType = errors.New("unknown event type")

type eventEnvelopeJSON struct {
	Seq    uint64          `json:"seq"`
	Height uint64          `json:"height"`
	Type   string          `json:"type"`
	Event  json.RawMessage `json:"event"`
}

// MarshalJSON adds the event name, so that the event can be decoded again.
func (e *EventEnvelope) MarshalJSON() ([]byte, error) {
	if e.Event == nil {
		return nil, errUnknownEventType
	}
	eventBytes, err := json.Marshal(e.Event)
	if err != nil {
		return nil, err
	}
	return json.Marshal(eventEnvelopeJSON{
		Seq:    e.Seq,
		Height: e.Height,
		Type:   e.Event.EventName(),
		Event:  eventBytes,
	})
}

func (e *EventEnvelope) UnmarshalJSON(b []byte) error {
	envelope := eventEnvelopeJSON{}
	if err := json.Unmarshal(b, &envelope); err != nil {
		return err
	}
	event, err := newEvent(envelope.Type)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(envelope.Event, event); err != nil {
		return err
	}
	e.Seq = envelope.Seq
	e.Height = envelope.Height
	e.Event = event
	return nil
}

func newEvent(name string) (Event, error) {
	switch name {
	case (*ProposalCreated)(nil).EventName():
		return &ProposalCreated{}, nil
	case (*VoteCast)(nil).EventName():
		return &VoteCast{}, nil
	case (*ProposalStatusChanged)(nil).EventName():
		return &ProposalStatusChanged{}, nil
	case (*ProposalClosed)(nil).EventName():
		return &ProposalClosed{}, nil
	case (*VotingEnded)(nil).EventName():
		return &VotingEnded{}, nil
	case (*ProposalExecuted)(nil).EventName():
		return &ProposalExecuted{}, nil
	}
	return nil, fmt.Errorf("%w: %q", errUnknownEventType, name)
}
