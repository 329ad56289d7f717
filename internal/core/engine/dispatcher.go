package engine

import (
	"sync"
	"time"

	"github.com/zeusync/pebble/internal/core/model"
	"github.com/zeusync/pebble/internal/core/observability/log"
)

type commandKind uint8

const (
	commandFrame commandKind = iota
	commandVisible
)

type command struct {
	kind    commandKind
	visible bool
	payload []model.RenderEntity
}

// dispatcher serializes renderer calls on its own goroutine, preserving
// the order in which commands were posted. Consecutive frames coalesce to
// the newest one; visibility commands are never dropped.
type dispatcher struct {
	renderer Renderer
	logger   log.Log

	mu      sync.Mutex
	queue   []command
	episode uint64
	clears  uint64
	closed  bool

	wake chan struct{}
	done chan struct{}
}

func newDispatcher(renderer Renderer, logger log.Log) *dispatcher {
	return &dispatcher{
		renderer: renderer,
		logger:   logger,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// SetEpisode changes which episode may post frames. Frames stamped with an
// older episode are discarded from then on.
func (d *dispatcher) SetEpisode(episode uint64) {
	d.mu.Lock()
	d.episode = episode
	d.mu.Unlock()
}

// Clears returns the clear generation a frame must be stamped with.
func (d *dispatcher) Clears() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clears
}

// PostFrame queues a render payload produced by the given episode. Frames
// computed before the latest PostClear are discarded.
func (d *dispatcher) PostFrame(episode, clears uint64, payload []model.RenderEntity) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed || episode != d.episode || clears != d.clears {
		return false
	}
	d.pushFrameLocked(payload)
	return true
}

// PostClear queues an empty payload regardless of the current episode.
func (d *dispatcher) PostClear() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.clears++
	d.pushFrameLocked([]model.RenderEntity{})
}

func (d *dispatcher) PostVisible(visible bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.queue = append(d.queue, command{kind: commandVisible, visible: visible})
	d.signal()
}

func (d *dispatcher) pushFrameLocked(payload []model.RenderEntity) {
	if n := len(d.queue); n > 0 && d.queue[n-1].kind == commandFrame {
		d.queue[n-1].payload = payload
		return
	}
	d.queue = append(d.queue, command{kind: commandFrame, payload: payload})
	d.signal()
}

func (d *dispatcher) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Run delivers queued commands until Close. Pending commands are flushed
// before it returns.
func (d *dispatcher) Run() {
	defer close(d.done)

	for range d.wake {
		d.mu.Lock()
		batch := d.queue
		d.queue = nil
		closed := d.closed
		d.mu.Unlock()

		for _, cmd := range batch {
			d.deliver(cmd)
		}
		if closed {
			d.mu.Lock()
			empty := len(d.queue) == 0
			d.mu.Unlock()
			if empty {
				return
			}
		}
	}
}

func (d *dispatcher) deliver(cmd command) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("renderer panicked", log.Any("panic", r))
		}
	}()

	switch cmd.kind {
	case commandFrame:
		d.renderer.OnRenderPayload(cmd.payload)
	case commandVisible:
		d.renderer.SetVisible(cmd.visible)
	}
}

// Close stops accepting commands and waits up to timeout for the queue to
// drain.
func (d *dispatcher) Close(timeout time.Duration) bool {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		d.signal()
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return true
	case <-time.After(timeout):
		return false
	}
}
