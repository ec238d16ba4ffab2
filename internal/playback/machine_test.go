package playback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cwbudde/algo-bandscope/dsp/core"
	"github.com/cwbudde/algo-bandscope/dsp/filter/bandpass"
	"github.com/cwbudde/algo-bandscope/internal/audio"
	"github.com/cwbudde/algo-bandscope/internal/graph"
	"github.com/cwbudde/algo-bandscope/internal/testutil"
)

const sr = 48000.0

type nullTap struct{}

func (nullTap) Write([]float64) {}

// countingRouter records every topology change made by the machine.
type countingRouter struct {
	*graph.Router

	connects    int
	disconnects int
}

func (r *countingRouter) Connect(src graph.Source, filterEnabled bool, chain *bandpass.Chain) {
	r.connects++
	r.Router.Connect(src, filterEnabled, chain)
}

func (r *countingRouter) Disconnect() {
	r.disconnects++
	r.Router.Disconnect()
}

type fixture struct {
	ctx     *audio.Context
	router  *countingRouter
	clock   *testutil.Clock
	machine *Machine
	states  []State
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	ctx, err := audio.NewContext(audio.WithProcessorOptions(core.WithSampleRate(sr), core.WithBlockSize(128)))
	if err != nil {
		t.Fatal(err)
	}

	f := &fixture{
		ctx:    ctx,
		router: &countingRouter{Router: graph.NewRouter(ctx, nullTap{})},
		clock:  testutil.NewClock(),
	}

	opts = append([]Option{
		WithClock(f.clock.Now),
		WithStateHook(func(_, to State) { f.states = append(f.states, to) }),
	}, opts...)
	f.machine = New(ctx, f.router, opts...)

	return f
}

func (f *fixture) load(t *testing.T, seconds float64) {
	t.Helper()

	buf, err := audio.NewBuffer(int(sr), testutil.DeterministicSine(440, sr, 0.5, int(seconds*sr)))
	if err != nil {
		t.Fatal(err)
	}
	f.machine.Load(buf)
}

func (f *fixture) render(frames int) {
	f.ctx.Render(make([]float64, frames))
}

func TestPlay_RequiresBuffer(t *testing.T) {
	f := newFixture(t)

	if err := f.machine.Play(context.Background()); !errors.Is(err, ErrNoBuffer) {
		t.Fatalf("Play err = %v, want ErrNoBuffer", err)
	}
	if f.machine.State() != Idle {
		t.Fatalf("State = %v, want idle", f.machine.State())
	}
}

func TestPlay_ConnectsCurrentFilter(t *testing.T) {
	f := newFixture(t, WithFilter(bandpass.Settings{HighPassHz: 200, LowPassHz: 3000, Enabled: true}))
	f.load(t, 1)

	if err := f.machine.Play(context.Background()); err != nil {
		t.Fatal(err)
	}

	g := f.router.Graph()
	if f.machine.State() != Playing || !g.Filtered() || !g.AnalysisConnected {
		t.Fatalf("state %v graph %+v", f.machine.State(), g)
	}
	if g.Chain.HighPassHz() != 200 || g.Chain.LowPassHz() != 3000 {
		t.Fatalf("chain cutoffs %v/%v", g.Chain.HighPassHz(), g.Chain.LowPassHz())
	}
}

func TestPlay_ResumesSuspendedContext(t *testing.T) {
	f := newFixture(t)
	f.load(t, 1)
	_ = f.ctx.Suspend()

	if err := f.machine.Play(context.Background()); err != nil {
		t.Fatal(err)
	}
	if f.ctx.State() != audio.StateRunning {
		t.Fatalf("context %v, want running", f.ctx.State())
	}
}

func TestPlay_ClosedContext(t *testing.T) {
	f := newFixture(t)
	f.load(t, 1)
	_ = f.ctx.Close()

	err := f.machine.Play(context.Background())
	if !errors.Is(err, audio.ErrContextClosed) {
		t.Fatalf("Play err = %v, want ErrContextClosed", err)
	}
	if f.machine.State() != Idle {
		t.Fatalf("State = %v, want idle", f.machine.State())
	}
}

func TestPauseResume_KeepsGraph(t *testing.T) {
	f := newFixture(t)
	f.load(t, 1)
	_ = f.machine.Play(context.Background())
	before := f.router.connects

	f.machine.Pause()
	if f.machine.State() != Paused || f.ctx.State() != audio.StateSuspended {
		t.Fatalf("after pause: %v / %v", f.machine.State(), f.ctx.State())
	}
	if !f.router.Connected() {
		t.Fatal("pause disconnected the graph")
	}

	if err := f.machine.Play(context.Background()); err != nil {
		t.Fatal(err)
	}
	if f.machine.State() != Playing || f.ctx.State() != audio.StateRunning {
		t.Fatalf("after play from pause: %v / %v", f.machine.State(), f.ctx.State())
	}
	if f.router.connects != before {
		t.Fatal("resume rebuilt the graph")
	}
}

func TestInvalidTransitionsIgnored(t *testing.T) {
	f := newFixture(t)

	f.machine.Pause()
	if err := f.machine.Resume(context.Background()); err != nil {
		t.Fatal(err)
	}
	f.machine.Stop()
	f.machine.Stop()

	if f.machine.State() != Idle || len(f.states) != 0 {
		t.Fatalf("state %v transitions %v", f.machine.State(), f.states)
	}
}

func TestStop_TearsDownGraph(t *testing.T) {
	f := newFixture(t, WithFilter(bandpass.Settings{HighPassHz: 200, LowPassHz: 3000, Enabled: true}))
	f.load(t, 1)
	_ = f.machine.Play(context.Background())
	chain := f.router.Graph().Chain

	f.machine.Stop()

	if f.machine.State() != Stopped {
		t.Fatalf("State = %v, want stopped", f.machine.State())
	}
	if f.router.Connected() || !chain.TornDown() {
		t.Fatal("graph survived stop")
	}

	if err := f.machine.Play(context.Background()); err != nil {
		t.Fatal(err)
	}
	if f.machine.State() != Playing {
		t.Fatal("could not play again after stop")
	}
}

func TestSetFilter_RetunesInPlace(t *testing.T) {
	f := newFixture(t, WithFilter(bandpass.Settings{HighPassHz: 200, LowPassHz: 3000, Enabled: true}))
	f.load(t, 1)
	_ = f.machine.Play(context.Background())
	chain := f.router.Graph().Chain
	connects := f.router.connects

	f.machine.SetFilter(bandpass.Settings{HighPassHz: 500, LowPassHz: 2000, Enabled: true})

	if f.router.connects != connects || f.machine.RestartPending() {
		t.Fatal("cutoff change caused a rebuild")
	}
	if f.router.Graph().Chain != chain || chain.HighPassHz() != 500 || chain.LowPassHz() != 2000 {
		t.Fatal("chain not retuned in place")
	}
}

func TestSetFilter_Normalizes(t *testing.T) {
	f := newFixture(t)
	f.machine.SetFilter(bandpass.Settings{HighPassHz: 3000, LowPassHz: 200})

	if !f.machine.Filter().Valid() {
		t.Fatalf("invalid filter accepted: %+v", f.machine.Filter())
	}
}

// Enabling filtering twice inside one restart window rebuilds exactly once.
func TestToggle_SingleRebuild(t *testing.T) {
	f := newFixture(t)
	f.load(t, 1)
	_ = f.machine.Play(context.Background())

	connects, disconnects := f.router.connects, f.router.disconnects

	on := bandpass.Settings{HighPassHz: 200, LowPassHz: 3000, Enabled: true}
	f.machine.SetFilter(on)
	f.machine.SetFilter(on.WithLowPass(2900))

	f.machine.Tick(f.clock.Advance(16 * time.Millisecond))
	if f.router.connects != connects {
		t.Fatal("rebuild ran before the restart delay")
	}

	for range 10 {
		f.machine.Tick(f.clock.Advance(16 * time.Millisecond))
	}

	if got := f.router.connects - connects; got != 1 {
		t.Fatalf("rebuilds = %d, want 1", got)
	}
	if got := f.router.disconnects - disconnects; got != 1 {
		t.Fatalf("teardowns = %d, want 1", got)
	}

	g := f.router.Graph()
	if !g.Filtered() || g.Chain.HighPassHz() != 200 || g.Chain.LowPassHz() != 2900 {
		t.Fatalf("graph after rebuild: %+v", g)
	}
	if f.machine.State() != Playing {
		t.Fatalf("State = %v, want playing", f.machine.State())
	}
}

// Rapid true->false->true toggles leave the original topology alone.
func TestToggle_CoalescesToFinalState(t *testing.T) {
	on := bandpass.Settings{HighPassHz: 200, LowPassHz: 3000, Enabled: true}
	f := newFixture(t, WithFilter(on))
	f.load(t, 1)
	_ = f.machine.Play(context.Background())
	chain := f.router.Graph().Chain
	connects := f.router.connects

	off := on
	off.Enabled = false

	f.machine.SetFilter(off)
	f.machine.Tick(f.clock.Advance(10 * time.Millisecond))
	f.machine.SetFilter(on)
	f.machine.Tick(f.clock.Advance(10 * time.Millisecond))
	f.machine.SetFilter(off)
	f.machine.Tick(f.clock.Advance(10 * time.Millisecond))
	f.machine.SetFilter(on)

	for range 10 {
		f.machine.Tick(f.clock.Advance(16 * time.Millisecond))
	}

	if f.router.connects != connects {
		t.Fatalf("rebuilds = %d, want 0", f.router.connects-connects)
	}
	if g := f.router.Graph(); g.Chain != chain || chain.TornDown() {
		t.Fatal("chain replaced although the final state matches the live one")
	}
	if f.machine.RestartPending() {
		t.Fatal("restart still pending")
	}
}

func TestToggle_WhileStoppedAppliesOnNextPlay(t *testing.T) {
	f := newFixture(t)
	f.load(t, 1)

	f.machine.SetFilter(bandpass.Settings{HighPassHz: 200, LowPassHz: 3000, Enabled: true})
	if f.machine.RestartPending() {
		t.Fatal("restart scheduled while idle")
	}

	_ = f.machine.Play(context.Background())
	if !f.router.Graph().Filtered() {
		t.Fatal("play ignored the enabled filter")
	}
}

// A non-looping session stops by itself at the end of the buffer.
func TestAutoStopAtBufferEnd(t *testing.T) {
	f := newFixture(t, WithLoop(false))
	f.load(t, 0.05)

	if err := f.machine.Play(context.Background()); err != nil {
		t.Fatal(err)
	}

	f.render(1024)
	f.machine.Tick(f.clock.Advance(16 * time.Millisecond))
	if f.machine.State() != Playing {
		t.Fatalf("State = %v before the end", f.machine.State())
	}

	f.render(2048)
	f.machine.Tick(f.clock.Advance(16 * time.Millisecond))

	if f.machine.State() != Stopped {
		t.Fatalf("State = %v, want stopped", f.machine.State())
	}
	if f.router.Connected() {
		t.Fatal("graph still connected after auto stop")
	}

	if len(f.states) != 2 || f.states[0] != Playing || f.states[1] != Stopped {
		t.Fatalf("transitions = %v", f.states)
	}
}

func TestLoopingSessionKeepsPlaying(t *testing.T) {
	f := newFixture(t)
	f.load(t, 0.01)
	_ = f.machine.Play(context.Background())

	f.render(4800)
	f.machine.Tick(f.clock.Advance(16 * time.Millisecond))

	if f.machine.State() != Playing {
		t.Fatalf("State = %v, want playing", f.machine.State())
	}

	f.machine.SetLoop(false)
	f.render(480)
	f.machine.Tick(f.clock.Advance(16 * time.Millisecond))
	if f.machine.State() != Stopped {
		t.Fatalf("State = %v after clearing loop, want stopped", f.machine.State())
	}
}

func TestLoad_StopsRunningSession(t *testing.T) {
	f := newFixture(t)
	f.load(t, 1)
	_ = f.machine.Play(context.Background())

	f.load(t, 1)

	if f.machine.State() != Idle || f.router.Connected() {
		t.Fatalf("State = %v connected = %v", f.machine.State(), f.router.Connected())
	}
}
