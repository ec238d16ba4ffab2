// Package graph wires a playback source into the two signal paths of a
// session: an unfiltered analysis tap and an output path that optionally
// runs through a band-pass chain.
package graph

import (
	"log/slog"

	"github.com/cwbudde/algo-bandscope/dsp/filter/bandpass"
	"github.com/cwbudde/algo-bandscope/internal/audio"
)

// Source produces mono frames; the rest of dst past the returned count is
// expected to be zero.
type Source interface {
	Read(dst []float64) int
}

// Tap consumes a copy of a signal path.
type Tap interface {
	Write(samples []float64)
}

// Graph is the live topology of one playback session.
type Graph struct {
	Source            Source
	AnalysisConnected bool
	OutputConnected   bool
	Chain             *bandpass.Chain
}

// Filtered reports whether the output path runs through a chain.
func (g Graph) Filtered() bool { return g.Chain != nil }

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the router logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithOutputTap observes the signal that reaches the output device, after
// filtering.
func WithOutputTap(t Tap) Option {
	return func(r *Router) { r.output = t }
}

// Router owns the graph of the current session and renders it.
type Router struct {
	ctx      *audio.Context
	analysis Tap
	output   Tap
	logger   *slog.Logger

	graph Graph
}

// NewRouter creates a router rendering into ctx. analysis receives the
// unfiltered source signal. ctx may be nil; Connect then logs and does
// nothing.
func NewRouter(ctx *audio.Context, analysis Tap, opts ...Option) *Router {
	r := &Router{
		ctx:      ctx,
		analysis: analysis,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	if ctx != nil {
		ctx.SetRenderer(r)
	}

	return r
}

// Connect replaces the current graph with src routed to both paths. When
// filterEnabled is set the output path runs through chain. Connect never
// fails: without a usable audio context it logs and leaves the router
// disconnected.
func (r *Router) Connect(src Source, filterEnabled bool, chain *bandpass.Chain) {
	if r.ctx == nil {
		r.logger.Warn("connect skipped", "err", audio.ErrNotReady)
		return
	}
	if r.ctx.State() == audio.StateClosed {
		r.logger.Warn("connect skipped", "err", audio.ErrContextClosed)
		return
	}

	if filterEnabled && chain == nil {
		r.logger.Warn("filtering requested without a chain, connecting unfiltered")
		filterEnabled = false
	}

	r.ctx.Do(func() {
		r.disconnectLocked()

		r.graph = Graph{
			Source:            src,
			AnalysisConnected: r.analysis != nil,
			OutputConnected:   true,
		}
		if filterEnabled {
			r.graph.Chain = chain
		}
	})

	r.logger.Debug("graph connected", "filtered", filterEnabled)
}

// Disconnect tears down both paths and any attached chain. It is safe to
// call repeatedly and when nothing is connected.
func (r *Router) Disconnect() {
	if r.ctx == nil {
		r.disconnectLocked()
		return
	}

	r.ctx.Do(r.disconnectLocked)
}

func (r *Router) disconnectLocked() {
	if r.graph.Chain != nil {
		r.graph.Chain.Teardown()
	}
	r.graph = Graph{}
}

// Retune moves the cutoffs of the live chain in place. It reports whether
// a chain was connected.
func (r *Router) Retune(highPassHz, lowPassHz float64) bool {
	retuned := false
	apply := func() {
		if r.graph.Chain != nil {
			r.graph.Chain.Retune(highPassHz, lowPassHz)
			retuned = true
		}
	}

	if r.ctx == nil {
		apply()
	} else {
		r.ctx.Do(apply)
	}

	return retuned
}

// Graph returns a copy of the live topology.
func (r *Router) Graph() Graph {
	if r.ctx == nil {
		return r.graph
	}

	var g Graph
	r.ctx.Do(func() { g = r.graph })

	return g
}

// Connected reports whether a source is wired to the output.
func (r *Router) Connected() bool {
	return r.Graph().OutputConnected
}

// Render pulls one block through the graph. The audio context calls it
// with its lock held.
func (r *Router) Render(out []float64) {
	g := r.graph
	if g.Source == nil || !g.OutputConnected {
		clear(out)
		return
	}

	g.Source.Read(out)

	if g.AnalysisConnected {
		r.analysis.Write(out)
	}

	if g.Chain != nil {
		g.Chain.ProcessBlock(out)
	}

	if r.output != nil {
		r.output.Write(out)
	}
}
