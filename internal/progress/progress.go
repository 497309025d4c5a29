// Package progress tracks the stages of a fetch request and fans events
// out to listeners (the CLI progress bar, the bot's status message).
package progress

import (
	"sync"
	"time"
)

// Stage is the current phase of a fetch request.
type Stage string

const (
	StageProbing     Stage = "probing"
	StageDownloading Stage = "downloading"
	StageConverting  Stage = "converting"
	StageComplete    Stage = "complete"
	StageError       Stage = "error"
)

// ItemDetails locates the current item inside a playlist. TotalItems is
// zero for single downloads; positions are explicit per request, never
// shared between requests.
type ItemDetails struct {
	ItemNumber int
	TotalItems int
	Title      string
	ETA        string
	Speed      string
}

// Event is one progress update.
type Event struct {
	Stage     Stage
	Percent   float64
	Message   string
	Item      *ItemDetails
	Error     string
	Timestamp time.Time
}

// Tracker holds the progress state of one request and notifies
// listeners on every update. Safe for concurrent use.
type Tracker struct {
	mu        sync.RWMutex
	stage     Stage
	percent   float64
	message   string
	item      *ItemDetails
	listeners []func(Event)
}

func NewTracker() *Tracker {
	return &Tracker{stage: StageProbing}
}

// AddListener registers a listener for subsequent events.
func (t *Tracker) AddListener(listener func(Event)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, listener)
}

// Update moves the tracker to a new stage and notifies listeners.
func (t *Tracker) Update(stage Stage, percent float64, message string) {
	t.mu.Lock()
	t.stage = stage
	t.percent = percent
	t.message = message
	t.mu.Unlock()

	t.notify(Event{
		Stage:     stage,
		Percent:   percent,
		Message:   message,
		Timestamp: time.Now(),
	})
}

// UpdateItem reports per-item download progress within the current stage.
func (t *Tracker) UpdateItem(details ItemDetails, percent float64) {
	t.mu.Lock()
	t.item = &details
	t.percent = percent
	stage := t.stage
	message := t.message
	t.mu.Unlock()

	t.notify(Event{
		Stage:     stage,
		Percent:   percent,
		Message:   message,
		Item:      &details,
		Timestamp: time.Now(),
	})
}

// Fail moves the tracker to the error stage.
func (t *Tracker) Fail(err error) {
	t.mu.Lock()
	t.stage = StageError
	t.message = err.Error()
	t.mu.Unlock()

	t.notify(Event{
		Stage:     StageError,
		Message:   err.Error(),
		Error:     err.Error(),
		Timestamp: time.Now(),
	})
}

// Snapshot returns the current state as an event.
func (t *Tracker) Snapshot() Event {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return Event{
		Stage:     t.stage,
		Percent:   t.percent,
		Message:   t.message,
		Item:      t.item,
		Timestamp: time.Now(),
	}
}

func (t *Tracker) notify(event Event) {
	t.mu.RLock()
	listeners := make([]func(Event), len(t.listeners))
	copy(listeners, t.listeners)
	t.mu.RUnlock()

	for _, listener := range listeners {
		listener(event)
	}
}
