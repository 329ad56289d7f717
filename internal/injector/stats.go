package injector

import (
	"time"

	"github.com/zeusync/pebble/internal/analytics"
	"github.com/zeusync/pebble/internal/core/engine"
	"github.com/zeusync/pebble/internal/core/events/bus"
	"github.com/zeusync/pebble/internal/core/physics"
	"github.com/zeusync/pebble/internal/server"
)

// Stats is the status document served on /stats.
type Stats struct {
	State     string        `json:"state"`
	Mode      string        `json:"mode"`
	Episodes  uint64        `json:"episodes"`
	Today     int           `json:"today"`
	TimeToday time.Duration `json:"time_today"`
	Bodies    int           `json:"bodies"`
	Overlays  int           `json:"overlays"`
	Events    uint64        `json:"events"`
	Failures  uint64        `json:"event_failures"`
}

// CollectStats reads the current numbers. Any argument may be nil.
func CollectStats(e *engine.Engine, rec *analytics.Recorder, world *physics.World, hub *server.Hub, b bus.EventBus) Stats {
	var s Stats
	if e != nil {
		s.State = e.State().String()
		s.Mode = e.Mode().String()
		s.Episodes = e.Episodes()
	}
	if rec != nil {
		midnight := startOfDay(time.Now())
		s.Today = rec.CountSince(midnight)
		s.TimeToday = rec.TotalDuration(midnight)
	}
	if world != nil {
		s.Bodies = world.BodyCount()
	}
	if hub != nil {
		s.Overlays = hub.Clients()
	}
	if b != nil {
		m := b.GetMetrics()
		s.Events, s.Failures = m.Published, m.Errors
	}
	return s
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
