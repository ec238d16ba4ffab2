package session

import (
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-bandscope/dsp/spectrum"
)

// analysisTap forwards the unfiltered signal to the current analyser. The
// analyser can be swapped while audio is rendering.
type analysisTap struct {
	a atomic.Pointer[spectrum.Analyser]
}

func (t *analysisTap) Write(samples []float64) {
	if a := t.a.Load(); a != nil {
		a.Write(samples)
	}
}

// levelTap keeps the level of the most recent output block.
type levelTap struct {
	mu    sync.Mutex
	level spectrum.Level
}

func newLevelTap() *levelTap {
	return &levelTap{level: spectrum.MeasureLevel(nil)}
}

func (t *levelTap) Write(samples []float64) {
	l := spectrum.MeasureLevel(samples)
	t.mu.Lock()
	t.level = l
	t.mu.Unlock()
}

func (t *levelTap) Level() spectrum.Level {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.level
}

func (t *levelTap) reset() {
	t.Write(nil)
}
