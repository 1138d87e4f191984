// Package events provides a lightweight in-process event bus.
// Modules publish domain events; the server fans them out to connected
// clients over SSE and websocket streams.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType identifies a kind of domain event
type EventType string

const (
	// ImportCompleted - a CSV import batch finished (successfully or with rejections)
	ImportCompleted EventType = "import.completed"
	// SymbolRemoved - all price bars for a symbol were deleted
	SymbolRemoved EventType = "symbol.removed"
	// AccountCreated - a new investment account was created
	AccountCreated EventType = "account.created"
	// AccountUpdated - an investment account was renamed or edited
	AccountUpdated EventType = "account.updated"
	// AccountDeleted - an investment account (and its records) was removed
	AccountDeleted EventType = "account.deleted"
	// TransactionRecorded - a deposit or withdrawal was recorded
	TransactionRecorded EventType = "transaction.recorded"
	// TransactionDeleted - a transaction was removed and the balance recomputed
	TransactionDeleted EventType = "transaction.deleted"
	// HoldingChanged - a holding lot was created, updated or deleted
	HoldingChanged EventType = "holding.changed"
	// SnapshotSaved - a portfolio snapshot was captured
	SnapshotSaved EventType = "snapshot.saved"
	// BackupCompleted - a database backup finished
	BackupCompleted EventType = "backup.completed"
)

// AllEventTypes lists every event type the stream endpoints subscribe to.
var AllEventTypes = []EventType{
	ImportCompleted,
	SymbolRemoved,
	AccountCreated,
	AccountUpdated,
	AccountDeleted,
	TransactionRecorded,
	TransactionDeleted,
	HoldingChanged,
	SnapshotSaved,
	BackupCompleted,
}

// Event is a single domain event flowing through the bus
type Event struct {
	Type      EventType   `json:"type"`
	Module    string      `json:"module"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Handler receives published events. Handlers run on the publisher's
// goroutine and must not block; stream handlers buffer into channels
// and drop when full.
type Handler func(*Event)

// Bus is a simple synchronous pub/sub dispatcher
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	log      zerolog.Logger
}

// NewBus creates a new event bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
		log:      log.With().Str("component", "events").Logger(),
	}
}

// Subscribe registers a handler for the given event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish delivers the event to all handlers subscribed to its type.
// A zero timestamp is filled in with the current time.
func (b *Bus) Publish(event *Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	handlers := b.handlers[event.Type]
	b.mu.RUnlock()

	b.log.Debug().
		Str("event_type", string(event.Type)).
		Str("module", event.Module).
		Int("handlers", len(handlers)).
		Msg("Publishing event")

	for _, handler := range handlers {
		handler(event)
	}
}

// PublishData wraps typed event data into an Event and publishes it
func (b *Bus) PublishData(module string, data EventData) {
	b.Publish(&Event{
		Type:   data.EventType(),
		Module: module,
		Data:   data,
	})
}
