// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package dao

import (
	"encoding/json"
	"errors"
	"fmt"
)

var errUnknownStatus = errors.New("unknown proposal status")

// Status is the lifecycle state of a proposal.
type Status byte

const (
	// Active proposals accept votes until their voting period ends.
	Active Status = iota
	// Approved proposals passed and can be executed.
	Approved
	Rejected
	Executed
	Cancelled
	// Expired is reserved for a future explicit expiry operation, nothing
	// moves a proposal into it yet.
	Expired
)

var statusStrings = map[Status]string{
	Active:    "Active",
	Approved:  "Approved",
	Rejected:  "Rejected",
	Executed:  "Executed",
	Cancelled: "Cancelled",
	Expired:   "Expired",
}

func (s Status) String() string {
	str, ok := statusStrings[s]
	if !ok {
		return fmt.Sprintf("unknownStatus(%d)", s)
	}
	return str
}

func (s Status) Verify() error {
	if s > Expired {
		return errUnknownStatus
	}
	return nil
}

// IsTerminal returns true if no transition leaves this status.
func (s Status) IsTerminal() bool {
	switch s {
	case Executed, Rejected, Cancelled, Expired:
		return true
	}
	return false
}

func (s Status) MarshalJSON() ([]byte, error) {
	if err := s.Verify(); err != nil {
		return nil, err
	}
	return []byte(`"` + s.String() + `"`), nil
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	parsed, err := ParseStatus(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus is the inverse of String.
func ParseStatus(str string) (Status, error) {
	for status, name := range statusStrings {
		if name == str {
			return status, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", errUnknownStatus, str)
}
