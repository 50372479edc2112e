// Copyright (C) 2022-2024, Chain4Travel AG. All rights reserved.
// See the file LICENSE for licensing terms.

package events

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/ava-labs/avalanchego/utils/logging"

	"github.com/chain4travel/caminodao/vms/daovm/dao"
)

const (
	DefaultSubjectPrefix = "dao.events"

	// SourceHeader carries the id of the publishing node instance
	SourceHeader = "Caminodao-Source"

	natsClientName    = "caminodao"
	natsMaxReconnects = 5
	natsReconnectWait = time.Second
)

var _ Publisher = (*NATSPublisher)(nil)

type natsConn interface {
	PublishMsg(msg *nats.Msg) error
	Flush() error
	Close()
}

// NATSPublisher publishes every event as JSON on
// <prefix>.<EventName>. The event sequence number is used as message id so a
// JetStream stream drops events replayed after a restart.
type NATSPublisher struct {
	log    logging.Logger
	conn   natsConn
	prefix string
	source string
}

func NewNATSPublisher(url, prefix string, log logging.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name(natsClientName),
		nats.MaxReconnects(natsMaxReconnects),
		nats.ReconnectWait(natsReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("disconnected from NATS", zap.Error(err))
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("reconnected to NATS", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return newNATSPublisher(conn, prefix, log), nil
}

func newNATSPublisher(conn natsConn, prefix string, log logging.Logger) *NATSPublisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATSPublisher{
		log:    log,
		conn:   conn,
		prefix: prefix,
		source: uuid.NewString(),
	}
}

// Source returns the id this publisher stamps on every message.
func (p *NATSPublisher) Source() string {
	return p.source
}

func (p *NATSPublisher) Subject(event dao.Event) string {
	return p.prefix + "." + event.EventName()
}

func (p *NATSPublisher) Publish(events []*dao.EventEnvelope) error {
	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event %d: %w", event.Seq, err)
		}
		subject := p.Subject(event.Event)
		msg := &nats.Msg{
			Subject: subject,
			Data:    data,
			Header: nats.Header{
				nats.MsgIdHdr: []string{strconv.FormatUint(event.Seq, 10)},
				SourceHeader:  []string{p.source},
			},
		}
		if err := p.conn.PublishMsg(msg); err != nil {
			return fmt.Errorf("failed to publish event %d to %s: %w", event.Seq, subject, err)
		}
		p.log.Verbo("published event",
			zap.String("subject", subject),
			zap.Uint64("seq", event.Seq),
		)
	}
	return p.conn.Flush()
}

func (p *NATSPublisher) Close() {
	p.conn.Close()
}
