package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/zeusync/pebble/internal/core/model"
	"github.com/zeusync/pebble/internal/core/observability/log"
)

func TestDispatcherDropsFramesComputedBeforeClear(t *testing.T) {
	r := &recordingRenderer{}
	d := newDispatcher(r, log.NewNop())
	d.SetEpisode(1)

	stamp := d.Clears()
	d.PostClear()
	assert.False(t, d.PostFrame(1, stamp, []model.RenderEntity{{ID: 1, Shape: model.Circle{Radius: 10}}}))

	go d.Run()
	assert.True(t, d.Close(time.Second))
	n, last := r.Frames()
	assert.Equal(t, 1, n)
	assert.NotNil(t, last)
	assert.Empty(t, last)
}

func TestDispatcherCoalescesFramesAndKeepsVisibility(t *testing.T) {
	r := &recordingRenderer{}
	d := newDispatcher(r, log.NewNop())
	d.SetEpisode(1)

	frame := func(id uint64) []model.RenderEntity {
		return []model.RenderEntity{{ID: id, Shape: model.Circle{Radius: 10}}}
	}
	assert.True(t, d.PostFrame(1, d.Clears(), frame(1)))
	assert.True(t, d.PostFrame(1, d.Clears(), frame(2)))
	d.PostVisible(true)
	assert.False(t, d.PostFrame(2, d.Clears(), frame(3)))

	go d.Run()
	assert.True(t, d.Close(time.Second))
	n, last := r.Frames()
	assert.Equal(t, 1, n)
	assert.Equal(t, frame(2), last)
	assert.Equal(t, []bool{true}, r.Visibility())
	assert.False(t, d.PostFrame(1, d.Clears(), frame(4)))
}
