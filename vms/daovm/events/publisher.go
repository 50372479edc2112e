// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package events

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/chain4travel/caminodao/vms/daovm/dao"
)

var (
	_ Publisher = NoPublisher{}
	_ Publisher = Publishers(nil)
)

// Publisher delivers committed events to the outside world. Events are
// passed in sequence order.
type Publisher interface {
	Publish(events []*dao.EventEnvelope) error
}

type NoPublisher struct{}

func (NoPublisher) Publish([]*dao.EventEnvelope) error {
	return nil
}

// Publishers delivers events to every publisher, even if one of them fails.
type Publishers []Publisher

func (p Publishers) Publish(events []*dao.EventEnvelope) error {
	errs := wrappers.Errs{}
	for _, publisher := range p {
		errs.Add(publisher.Publish(events))
	}
	return errs.Err
}
