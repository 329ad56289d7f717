package engine

import (
	"context"

	"github.com/zeusync/pebble/internal/core/model"
	"github.com/zeusync/pebble/pkg/observable"
)

// Sources are the external signals an engine can follow. Nil fields are
// not watched.
type Sources struct {
	Foreground *observable.Value[string]
	Blacklist  *observable.Value[[]string]
	Mode       *observable.Value[model.Kind]
	Phrases    *observable.Value[[]string]
	Image      *observable.Value[ImageRef]
	Gravity    *observable.Value[[2]float64]
}

// Watch binds the engine to src until ctx is done or the engine stops.
func (e *Engine) Watch(ctx context.Context, src Sources) error {
	e.ctrlMu.Lock()
	if !e.running {
		e.ctrlMu.Unlock()
		return ErrNotStarted
	}
	runCtx := e.runCtx
	e.ctrlMu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	context.AfterFunc(runCtx, cancel)

	follow(ctx, src.Foreground, e.ObserveForeground)
	follow(ctx, src.Blacklist, e.UpdateBlacklist)
	follow(ctx, src.Mode, e.ChangeMode)
	follow(ctx, src.Phrases, e.UpdatePhrases)
	follow(ctx, src.Image, e.UpdateCustomImage)
	follow(ctx, src.Gravity, func(g [2]float64) { e.SetGravity(g[0], g[1]) })
	return nil
}

func follow[T any](ctx context.Context, v *observable.Value[T], apply func(T)) {
	if v == nil {
		return
	}
	ch := v.Subscribe(ctx)
	go func() {
		for x := range ch {
			apply(x)
		}
	}()
}
