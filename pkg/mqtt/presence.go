package mqtt

import (
	"context"
)

// Presence keeps a retained meta message for a node while it runs
// and clears it on exit. The broker clears it through the will when
// the node disappears.
type Presence struct {
	Queue *Queue
	Topic string
	Meta  []byte
}

// NewPresence creates a queue announcing meta on topic.
func NewPresence(brokerURL, clientID, topic string, meta []byte) (*Presence, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+topic, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID(clientID)
	}
	p := &Presence{Queue: NewQueue(opts, topicPrefix), Topic: topic, Meta: meta}
	p.Queue.OnConnect = func(q *Queue) { q.PubWith(p.Topic, p.Meta, 1, true) }
	return p, nil
}

// Run implements Runnable.
func (p *Presence) Run(ctx context.Context) error {
	p.Queue.Connect()
	<-ctx.Done()
	p.Queue.PubWith(p.Topic, nil, 1, true).Wait()
	return p.Queue.Close()
}
