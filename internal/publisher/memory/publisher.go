// Package memory contains an in-memory event publisher for local runs and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/JakeFAU/naver-rank-tracker/internal/rank"
)

var _ rank.Publisher = (*Publisher)(nil)

// PublishedMessage captures one accepted publish. Data holds the JSON the
// Pub/Sub publisher would have sent for the same payload.
type PublishedMessage struct {
	ID      string
	Event   string
	Payload any
	Data    json.RawMessage
}

// Publisher keeps every accepted event in order.
type Publisher struct {
	mu       sync.Mutex
	messages []PublishedMessage
	failure  error
}

// New returns an empty memory Publisher.
func New() *Publisher {
	return &Publisher{}
}

// FailWith makes every later Publish return err. Pass nil to recover.
func (p *Publisher) FailWith(err error) {
	p.mu.Lock()
	p.failure = err
	p.mu.Unlock()
}

// Publish encodes payload and records it under a sequential id.
func (p *Publisher) Publish(_ context.Context, event string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failure != nil {
		return "", p.failure
	}
	id := fmt.Sprintf("memory-%d", len(p.messages)+1)
	p.messages = append(p.messages, PublishedMessage{ID: id, Event: event, Payload: payload, Data: data})
	return id, nil
}

// Messages returns a snapshot of the recorded events.
func (p *Publisher) Messages() []PublishedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PublishedMessage(nil), p.messages...)
}
