package analytics

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zeusync/pebble/internal/core/engine"
	"github.com/zeusync/pebble/internal/core/events/bus"
	"github.com/zeusync/pebble/internal/core/observability/log"
)

// Entry is one interference episode.
type Entry struct {
	ID        uuid.UUID     `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Type      string        `json:"type"`
	Package   string        `json:"package"`
	Duration  time.Duration `json:"duration"`
}

// Recorder keeps an in-memory log of episodes fed from the engine's
// events. Entries are kept in timestamp order.
type Recorder struct {
	logger log.Log

	mu      sync.RWMutex
	entries []Entry
	index   map[uuid.UUID]int
	// durations that arrived before their start event
	pending map[uuid.UUID]time.Duration
	subs    []bus.Subscription
}

func NewRecorder(logger log.Log) *Recorder {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Recorder{
		logger:  logger.With(log.String("component", "analytics")),
		index:   make(map[uuid.UUID]int),
		pending: make(map[uuid.UUID]time.Duration),
	}
}

// Attach subscribes the recorder to episode events on b.
func (r *Recorder) Attach(b bus.EventBus) error {
	started, err := bus.On(b, engine.EventEpisodeStarted, func(ev engine.EpisodeStarted) error {
		r.Record(Entry{
			ID:        ev.ID,
			Timestamp: ev.StartedAt,
			Type:      ev.Mode.String(),
			Package:   ev.Package,
		})
		return nil
	})
	if err != nil {
		return err
	}

	finished, err := bus.On(b, engine.EventEpisodeFinished, func(ev engine.EpisodeFinished) error {
		r.Finish(ev.ID, ev.Duration)
		return nil
	})
	if err != nil {
		return errors.Join(err, started.Cancel())
	}

	r.mu.Lock()
	r.subs = append(r.subs, started, finished)
	r.mu.Unlock()
	return nil
}

// Detach cancels every subscription made by Attach.
func (r *Recorder) Detach() error {
	r.mu.Lock()
	subs := r.subs
	r.subs = nil
	r.mu.Unlock()

	var errs []error
	for _, s := range subs {
		errs = append(errs, s.Cancel())
	}
	return errors.Join(errs...)
}

// Record inserts e keeping timestamp order.
func (r *Recorder) Record(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.index[e.ID]; dup {
		return
	}
	if d, ok := r.pending[e.ID]; ok {
		e.Duration = d
		delete(r.pending, e.ID)
	}

	at, _ := slices.BinarySearchFunc(r.entries, e.Timestamp, func(x Entry, t time.Time) int {
		return x.Timestamp.Compare(t)
	})
	// place after entries with an equal timestamp
	for at < len(r.entries) && r.entries[at].Timestamp.Equal(e.Timestamp) {
		at++
	}
	r.entries = slices.Insert(r.entries, at, e)
	r.reindexFrom(at)

	r.logger.Debug("episode recorded", log.String("package", e.Package), log.String("type", e.Type))
}

// Finish sets the duration of a recorded episode.
func (r *Recorder) Finish(id uuid.UUID, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[id]
	if !ok {
		r.pending[id] = d
		return
	}
	r.entries[i].Duration = d
}

// CountSince returns the number of episodes started at or after t.
func (r *Recorder) CountSince(t time.Time) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries) - r.firstAtOrAfter(t)
}

// EntriesSince returns the episodes started at or after t, oldest first.
func (r *Recorder) EntriesSince(t time.Time) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.entries[r.firstAtOrAfter(t):])
}

// TotalDuration sums the durations of episodes started at or after t.
func (r *Recorder) TotalDuration(t time.Time) time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total time.Duration
	for _, e := range r.entries[r.firstAtOrAfter(t):] {
		total += e.Duration
	}
	return total
}

func (r *Recorder) firstAtOrAfter(t time.Time) int {
	i, _ := slices.BinarySearchFunc(r.entries, t, func(x Entry, t time.Time) int {
		return x.Timestamp.Compare(t)
	})
	return i
}

func (r *Recorder) reindexFrom(i int) {
	for ; i < len(r.entries); i++ {
		r.index[r.entries[i].ID] = i
	}
}
