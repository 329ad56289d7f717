package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/zeusync/pebble/internal/core/model"
	"github.com/zeusync/pebble/internal/core/observability/log"
)

// loopHandle controls one stepping goroutine. Each Active episode owns
// exactly one.
type loopHandle struct {
	quit chan struct{}
	done chan struct{}
}

// stop signals the loop and waits up to timeout for it to exit.
func (h *loopHandle) stop(timeout time.Duration) bool {
	close(h.quit)
	select {
	case <-h.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (e *Engine) startLoop(episode uint64) *loopHandle {
	h := &loopHandle{quit: make(chan struct{}), done: make(chan struct{})}
	go e.runLoop(episode, e.dispatch, h)
	return h
}

func (e *Engine) runLoop(episode uint64, d *dispatcher, h *loopHandle) {
	defer close(h.done)

	logger := e.logger.With(log.Uint64("episode", episode))
	pacer := time.NewTimer(e.tuning.FrameBudget)
	pacer.Stop()
	defer pacer.Stop()

	var punish time.Duration
	last := time.Now()
	for {
		select {
		case <-h.quit:
			return
		default:
		}

		start := time.Now()
		elapsed := min(start.Sub(last), e.tuning.MaxFrameDelta)
		last = start

		// a clear cannot land between the frame and its stamp
		e.spawnMu.Lock()
		clears := d.Clears()
		payload, err := e.iterate(elapsed, &punish)
		e.spawnMu.Unlock()
		if err != nil {
			logger.Error("frame failed", log.Error(err))
		} else {
			d.PostFrame(episode, clears, payload)
		}

		rest := e.tuning.FrameBudget - time.Since(start)
		if rest <= 0 {
			continue
		}
		pacer.Reset(rest)
		select {
		case <-h.quit:
			return
		case <-pacer.C:
		}
	}
}

// iterate runs one frame and returns the payload to render. A panic inside
// the frame is converted into an error so the episode keeps running.
// Callers hold spawnMu.
func (e *Engine) iterate(elapsed time.Duration, punish *time.Duration) (payload []model.RenderEntity, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrFramePanic, r)
		}
	}()

	mode := e.Mode()
	*punish += elapsed

	if mode == model.KindCrack {
		if *punish >= e.tuning.CrackInterval {
			*punish = 0
			if crack, ok := e.obstacles.CreateStaticCrack(); ok {
				e.addDecoration(crack)
			}
		}
		return e.Decorations(), nil
	}

	gx, gy := e.Gravity()
	payload = e.obstacles.Update(gx, math.Max(gy, e.tuning.MinGravity))
	if *punish >= e.tuning.SpawnInterval {
		*punish = 0
		if !e.obstacles.IsFull() {
			e.obstacles.SpawnObstacle(mode)
		}
	}
	return payload, nil
}
