// Package bus forwards SSE messages across backend instances so a batch
// running on one instance reaches clients connected to another. Single
// instance deployments use the noop bus; the in-process hub covers them.
package bus

import (
	"context"

	"github.com/HarshaliWani/ConceptPilot2.0/internal/sse"
)

type Bus interface {
	Publish(ctx context.Context, msg sse.Message) error
	// StartForwarder subscribes and invokes onMsg for every message published
	// by other instances. Messages this instance published are skipped; the
	// publisher already broadcast them to its local hub.
	StartForwarder(ctx context.Context, onMsg func(m sse.Message)) error
	Close() error
}

type noopBus struct{}

// NewNoopBus is the single-instance default.
func NewNoopBus() Bus { return &noopBus{} }

func (noopBus) Publish(ctx context.Context, msg sse.Message) error { return nil }

func (noopBus) StartForwarder(ctx context.Context, onMsg func(m sse.Message)) error { return nil }

func (noopBus) Close() error { return nil }
