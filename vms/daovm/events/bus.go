// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package events

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ava-labs/avalanchego/utils/logging"

	"github.com/chain4travel/caminodao/vms/daovm/dao"
)

var _ Publisher = (*Bus)(nil)

// Bus fans events out to in-process subscribers. Slow subscribers miss
// events instead of blocking the publisher.
type Bus struct {
	log logging.Logger

	lock        sync.RWMutex
	nextID      uint64
	subscribers map[uint64]*Subscription
}

type Subscription struct {
	bus *Bus
	id  uint64
	ch  chan *dao.EventEnvelope

	// nil means all events
	filter func(dao.Event) bool

	closeOnce sync.Once
}

func NewBus(log logging.Logger) *Bus {
	return &Bus{
		log:         log,
		subscribers: make(map[uint64]*Subscription),
	}
}

// Subscribe registers a new subscriber with a buffer of [size] events. If
// [filter] is nil, all events are delivered.
func (b *Bus) Subscribe(size int, filter func(dao.Event) bool) *Subscription {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.nextID++
	sub := &Subscription{
		bus:    b,
		id:     b.nextID,
		ch:     make(chan *dao.EventEnvelope, size),
		filter: filter,
	}
	b.subscribers[sub.id] = sub
	return sub
}

func (b *Bus) Publish(events []*dao.EventEnvelope) error {
	b.lock.RLock()
	defer b.lock.RUnlock()

	for _, event := range events {
		for _, sub := range b.subscribers {
			if sub.filter != nil && !sub.filter(event.Event) {
				continue
			}
			select {
			case sub.ch <- event:
			default:
				b.log.Warn("dropping event for slow subscriber",
					zap.Uint64("subscriber", sub.id),
					zap.Uint64("seq", event.Seq),
					zap.String("event", event.Event.EventName()),
				)
			}
		}
	}
	return nil
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.lock.Lock()
	defer b.lock.Unlock()

	delete(b.subscribers, sub.id)
}

// Events returns the channel events are delivered on. It's closed after
// Close.
func (s *Subscription) Events() <-chan *dao.EventEnvelope {
	return s.ch
}

func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.bus.unsubscribe(s)
		close(s.ch)
	})
}

// ForProposal returns a filter matching events of a single proposal.
func ForProposal(proposalID uint64) func(dao.Event) bool {
	return func(event dao.Event) bool {
		return event.AffectedProposal() == proposalID
	}
}
