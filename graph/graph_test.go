package graph

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-accordion/sample"
	"github.com/cwbudde/algo-accordion/voice"
)

type recorder struct {
	cmds   []Command
	refuse bool
}

func (r *recorder) Submit(c Command) bool {
	if r.refuse {
		return false
	}
	r.cmds = append(r.cmds, c)
	return true
}

func (r *recorder) ops(op Op) []Command {
	var out []Command
	for _, c := range r.cmds {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

type manualClock struct{ t float64 }

func (c *manualClock) Now() float64 { return c.t }

func newTestGraph(t *testing.T) (*Graph, *recorder, *manualClock) {
	t.Helper()
	q := &recorder{}
	c := &manualClock{}
	g, err := New(DefaultConfig(), q, c)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := g.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	// 0.25s attack at 48kHz.
	attack := sample.NewMono(make([]float32, 12000), 48000)
	sustain := sample.NewMono(make([]float32, 4800), 48000)
	if err := g.LoadSamples(attack, sustain); err != nil {
		t.Fatalf("LoadSamples: %v", err)
	}
	q.cmds = nil
	return g, q, c
}

func TestPlaybackRate(t *testing.T) {
	tests := []struct {
		pitch int
		want  float64
	}{
		{66, 1.0},
		{78, 2.0},
		{54, 0.5},
		{69, math.Pow(2, 3.0/12)},
	}
	for _, tt := range tests {
		if got := PlaybackRate(tt.pitch, 66); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("PlaybackRate(%d) = %v, want %v", tt.pitch, got, tt.want)
		}
	}
}

func TestBuildCreatesPersistentTopology(t *testing.T) {
	q := &recorder{}
	g, err := New(DefaultConfig(), q, &manualClock{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := g.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	gains := q.ops(OpCreateGain)
	if len(gains) != 3 {
		t.Fatalf("expected 3 bus gains, got %d", len(gains))
	}
	want := []float64{0.8, 0.7, 0.3}
	for i, c := range gains {
		if c.Value != want[i] {
			t.Fatalf("gain %d: got=%v want=%v", i, c.Value, want[i])
		}
	}
	if len(q.ops(OpCreateConvolver)) != 1 {
		t.Fatalf("expected one convolver")
	}
	var toOutput bool
	for _, c := range q.ops(OpConnect) {
		if c.Target == Output && c.Node == g.master {
			toOutput = true
		}
	}
	if !toOutput {
		t.Fatalf("master not connected to output")
	}
	n := len(q.cmds)
	if err := g.Build(); err != nil || len(q.cmds) != n {
		t.Fatalf("second Build must be a no-op")
	}
}

func TestStartVoiceSchedulesSustainAfterAttack(t *testing.T) {
	g, q, c := newTestGraph(t)
	c.t = 1.0
	h, ok := g.StartVoice(78)
	if !ok {
		t.Fatalf("StartVoice refused")
	}
	ch := h.(*Chain)
	if ch.Rate() != 2.0 || ch.Pitch() != 78 {
		t.Fatalf("unexpected chain: rate=%v pitch=%d", ch.Rate(), ch.Pitch())
	}
	srcs := q.ops(OpCreateSource)
	if len(srcs) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(srcs))
	}
	if srcs[0].Loop || !srcs[1].Loop {
		t.Fatalf("attack must be one-shot and sustain looped")
	}
	starts := q.ops(OpStart)
	if len(starts) != 2 {
		t.Fatalf("expected 2 starts, got %d", len(starts))
	}
	if starts[0].Time != 1.0 {
		t.Fatalf("attack start: %v", starts[0].Time)
	}
	// 0.25s attack played at double speed lasts 0.125s.
	if math.Abs(starts[1].Time-1.125) > 1e-12 {
		t.Fatalf("sustain start: %v", starts[1].Time)
	}
	sends := 0
	for _, cmd := range q.ops(OpConnect) {
		if cmd.Target == g.reverb || cmd.Target == g.dry {
			sends++
		}
	}
	if sends != 4 {
		t.Fatalf("expected each chain to feed dry and reverb, got %d sends", sends)
	}
}

func TestStartVoiceWithoutSamplesIsRefused(t *testing.T) {
	q := &recorder{}
	g, _ := New(DefaultConfig(), q, &manualClock{})
	if err := g.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok := g.StartVoice(60); ok {
		t.Fatalf("voice started without samples")
	}
	if len(q.ops(OpCreateSource)) != 0 {
		t.Fatalf("sources created without samples")
	}
}

func TestStopVoiceFadesThenStops(t *testing.T) {
	g, q, c := newTestGraph(t)
	h, _ := g.StartVoice(66)
	q.cmds = nil
	c.t = 2.0
	g.StopVoice(h)

	targets := q.ops(OpSetTarget)
	stops := q.ops(OpStop)
	if len(targets) != 2 || len(stops) != 2 {
		t.Fatalf("expected 2 fades and 2 stops, got %d/%d", len(targets), len(stops))
	}
	for _, tc := range targets {
		if tc.Value != 0 || tc.Time != 2.0 || tc.TimeConstant != 0.05 {
			t.Fatalf("unexpected fade: %+v", tc)
		}
	}
	for _, s := range stops {
		if math.Abs(s.Time-2.15) > 1e-12 {
			t.Fatalf("unexpected stop time: %v", s.Time)
		}
	}
	if g.Fading() != 2 {
		t.Fatalf("expected 2 fading sources, got %d", g.Fading())
	}
	c.t = 2.2
	if g.Fading() != 0 {
		t.Fatalf("fading entries must expire after stop time")
	}

	q.cmds = nil
	g.StopVoice(h)
	if len(q.cmds) != 0 {
		t.Fatalf("second stop on the same chain emitted commands")
	}
}

func TestChurnNeverStopsTheNewVoice(t *testing.T) {
	g, q, c := newTestGraph(t)
	r := voice.NewRegistry(g)

	r.Press(60)
	r.Release(60)
	c.t = 0.01
	r.Press(60)

	var live []NodeID
	for _, cmd := range q.ops(OpCreateSource) {
		live = append(live, cmd.Node)
	}
	if len(live) != 4 {
		t.Fatalf("expected 4 sources across two voices, got %d", len(live))
	}
	newSources := map[NodeID]bool{live[2]: true, live[3]: true}
	for _, s := range q.ops(OpStop) {
		if newSources[s.Node] {
			t.Fatalf("stale teardown addressed new source %d", s.Node)
		}
	}
	if g.Fading() != 2 {
		t.Fatalf("expected old sources still fading, got %d", g.Fading())
	}
	if r.HoldCount(60) != 1 {
		t.Fatalf("expected the new voice held once")
	}
}

func TestFadingEntriesExpireWithoutPolling(t *testing.T) {
	g, _, c := newTestGraph(t)
	for i := range 1000 {
		h, ok := g.StartVoice(48 + i%24)
		if !ok {
			t.Fatalf("StartVoice failed at cycle %d", i)
		}
		c.t += 0.1
		g.StopVoice(h)
		c.t += 1
		if len(g.fading) > 2 {
			t.Fatalf("cycle %d: %d fading entries retained", i, len(g.fading))
		}
	}
	if g.Fading() != 0 {
		t.Fatalf("expected every fade finished, got %d", g.Fading())
	}
}

func TestSetMasterVolumeClampsAndRamps(t *testing.T) {
	g, q, c := newTestGraph(t)
	c.t = 3.0
	if got := g.SetMasterVolume(1.5); got != 1 {
		t.Fatalf("expected clamp to 1, got %v", got)
	}
	ramps := q.ops(OpLinearRamp)
	holds := q.ops(OpHold)
	if len(ramps) != 1 || len(holds) != 1 {
		t.Fatalf("expected hold+ramp, got %d/%d", len(holds), len(ramps))
	}
	if holds[0].Time != 3.0 || holds[0].Node != g.master {
		t.Fatalf("ramp must start from the current gain now: %+v", holds[0])
	}
	if sets := q.ops(OpSetValue); len(sets) != 0 {
		t.Fatalf("volume change must not jump to a stored value: %+v", sets)
	}
	if ramps[0].Value != 1 || math.Abs(ramps[0].Time-3.01) > 1e-12 {
		t.Fatalf("unexpected ramp: %+v", ramps[0])
	}
	if got := g.SetMasterVolume(-0.2); got != 0 {
		t.Fatalf("expected clamp to 0, got %v", got)
	}
}

func TestSetReverbDurationSwapsConvolver(t *testing.T) {
	var asked []float64
	irf := func(d float64) ([]float32, []float32, error) {
		asked = append(asked, d)
		return []float32{1, 0.5}, []float32{1, 0.25}, nil
	}
	q := &recorder{}
	g, err := New(DefaultConfig(), q, &manualClock{}, WithIRFunc(irf))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := g.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	old := g.reverb
	q.cmds = nil
	if err := g.SetReverbDuration(1.5); err != nil {
		t.Fatalf("SetReverbDuration: %v", err)
	}
	if len(asked) != 2 || asked[1] != 1.5 {
		t.Fatalf("unexpected IR requests: %v", asked)
	}
	if len(q.cmds) < 3 || q.cmds[0].Op != OpDisconnect || q.cmds[0].Node != old {
		t.Fatalf("old reverb must be disconnected first: %+v", q.cmds)
	}
	if g.reverb == old {
		t.Fatalf("reverb node not replaced")
	}
	if err := g.SetReverbDuration(0); err == nil {
		t.Fatalf("expected error for zero duration")
	}
	if err := g.SetReverbDuration(-1); err == nil {
		t.Fatalf("expected error for negative duration")
	}
	if g.ReverbDuration() != 1.5 {
		t.Fatalf("failed update changed duration to %v", g.ReverbDuration())
	}
}

func TestSetReverbDurationKeepsOldOnGeneratorError(t *testing.T) {
	fail := false
	irf := func(d float64) ([]float32, []float32, error) {
		if fail {
			return nil, nil, errors.New("boom")
		}
		return []float32{1}, []float32{1}, nil
	}
	g, _ := New(DefaultConfig(), &recorder{}, &manualClock{}, WithIRFunc(irf))
	if err := g.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	old := g.reverb
	fail = true
	if err := g.SetReverbDuration(2); err == nil {
		t.Fatalf("expected generator error")
	}
	if g.reverb != old || g.ReverbDuration() != 0.5 {
		t.Fatalf("failed regeneration must keep the old reverb")
	}
}

func TestDroppedCommandsAreCounted(t *testing.T) {
	g, q, _ := newTestGraph(t)
	q.refuse = true
	g.SetMasterVolume(0.5)
	if g.Dropped() != 2 {
		t.Fatalf("expected 2 dropped commands, got %d", g.Dropped())
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WetGain = 2
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for wet gain > 1")
	}
	cfg = DefaultConfig()
	cfg.FadeTimeConstant = 0
	if _, err := New(cfg, &recorder{}, &manualClock{}); err == nil {
		t.Fatalf("expected New to reject invalid config")
	}
}
