package performance

import (
	"io"
	"math"

	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-accordion/instrument"
	"github.com/cwbudde/algo-accordion/render"
)

// Player renders a script through a session and its renderer. Events are
// applied at the start of the render quantum that contains their time.
// The session and renderer must not be used elsewhere while playing.
type Player struct {
	session  *instrument.Session
	renderer *render.Renderer
	script   *Script
	log      zerolog.Logger

	next int
	end  int64
}

// NewPlayer prepares sc for playback.
func NewPlayer(s *instrument.Session, r *render.Renderer, sc *Script, log zerolog.Logger) *Player {
	end := int64(math.Ceil(sc.Duration() * float64(r.SampleRate())))
	return &Player{session: s, renderer: r, script: sc, log: log, end: end}
}

// Frames returns the total script length in frames.
func (p *Player) Frames() int64 { return p.end }

// Done reports whether the script has been fully rendered.
func (p *Player) Done() bool { return p.renderer.Frames() >= p.end }

// Read implements io.Reader with float32 little-endian stereo frames,
// returning io.EOF after the script and its tail.
func (p *Player) Read(b []byte) (int, error) {
	const quantumBytes = render.Quantum * 8
	n := 0
	for !p.Done() {
		chunk := min(quantumBytes, len(b)-n) &^ 7
		if chunk == 0 {
			break
		}
		p.applyDue()
		m, err := p.renderer.Read(b[n : n+chunk])
		n += m
		if err != nil {
			return n, err
		}
	}
	if n == 0 && p.Done() {
		return 0, io.EOF
	}
	return n, nil
}

// Render plays the whole script and returns interleaved stereo.
func (p *Player) Render() []float32 {
	remaining := p.end - p.renderer.Frames()
	out := make([]float32, 0, max(remaining, 0)*2)
	buf := make([]float32, render.Quantum*2)
	for !p.Done() {
		p.applyDue()
		p.renderer.ProcessTo(buf)
		out = append(out, buf...)
	}
	return out
}

func (p *Player) applyDue() {
	now := p.renderer.Now()
	for p.next < len(p.script.Events) && p.script.Events[p.next].At <= now {
		e := &p.script.Events[p.next]
		if err := e.Apply(p.session); err != nil {
			p.log.Warn().Err(err).Int("event", p.next).Float64("at", e.At).Msg("event failed")
		}
		p.next++
	}
}
