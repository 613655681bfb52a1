// Package amqp implements the message broker interface for AMQP compliant brokers (ie RabbitMQ)
package amqp

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/tarancss/solview/lib/msg"
)

// Exchange is the topic exchange lookup events are published to. Routing keys are <net>.lookup.<address>.
const Exchange = "al"

// Amqp implements a connection to a broker and a channel for reuse.
type Amqp struct {
	conn *amqp.Connection
	log  *zap.Logger

	mu sync.Mutex // guards ch, an amqp.Channel is not safe for concurrent publishing
	ch *amqp.Channel
}

// New instantiates a new amqp broker.
func New(uri string, log *zap.Logger) (*Amqp, error) {
	if log == nil {
		log = zap.NewNop()
	}

	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("dial amqp broker: %w", err)
	}

	log.Info("connected to message broker", zap.String("uri", uri))

	return &Amqp{conn: conn, log: log}, nil
}

// Setup declares the message broker exchange:
//
// - al ("account lookups"): the explorer publishes lookup events to this exchange
func (r *Amqp) Setup() error {
	// obtain a one-use channel
	channel, err := r.conn.Channel()
	if err != nil {
		return err
	}
	defer channel.Close()

	return channel.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil)
}

// Close terminates gracefully the connection to the AMQP message broker
func (r *Amqp) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ch != nil {
		if err := r.ch.Close(); err != nil {
			r.log.Warn("error closing amqp.Channel", zap.Error(err))
		}

		r.ch = nil
	}

	return r.conn.Close()
}

// SendLookup publishes a lookup event to the "al" exchange
func (r *Amqp) SendLookup(net string, e msg.LookupEvent) (err error) {
	// marshal to JSON
	var jsonDoc []byte
	if jsonDoc, err = json.Marshal(e); err != nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// obtain channel if not present
	if r.ch == nil {
		if r.ch, err = r.conn.Channel(); err != nil {
			return
		}
	}
	// build body
	pub := amqp.Publishing{
		Headers:     amqp.Table{"x-lookup-name": net + "." + e.Address},
		Body:        jsonDoc,
		ContentType: "application/json",
		Timestamp:   e.TS,
	}
	// publish
	if err = r.ch.Publish(Exchange, RoutingKey(net, e.Address), false, false, pub); err != nil {
		// a failed publish closes the channel, get a new one next time
		r.ch = nil

		return fmt.Errorf("[%s] sending lookup event to message broker: %w", net, err)
	}

	return nil
}

// RoutingKey returns the key lookup events of address in net are published with.
func RoutingKey(net, address string) string {
	return net + ".lookup." + address
}
