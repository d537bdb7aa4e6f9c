// Package render turns graph commands into stereo PCM.
//
// The Renderer is the only code that touches nodes. It runs on the audio
// goroutine; the session goroutine reaches it through Submit and Now only.
package render

import (
	"encoding/binary"
	"math"
	"slices"
	"sync/atomic"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-accordion/dsp"
	"github.com/cwbudde/algo-accordion/graph"
	"github.com/cwbudde/algo-accordion/sample"
)

// Quantum is the number of frames rendered between command drains.
const Quantum = 128

// DefaultQueueSize is the command channel capacity.
const DefaultQueueSize = 4096

type nodeKind int

const (
	kindOutput nodeKind = iota
	kindGain
	kindSource
	kindConvolver
)

type node struct {
	id      graph.NodeID
	kind    nodeKind
	outputs []graph.NodeID

	inL, inR   []float32
	outL, outR []float32

	gain *automation

	buf   *sample.Buffer
	step  float64 // buffer frames advanced per output frame
	loop  bool
	pos   float64
	start int64 // -1 until scheduled
	stop  int64
	ended bool

	conv *Convolver
	mono []float32
}

type pendingFree struct {
	id    graph.NodeID
	frame int64
}

// Renderer implements graph.Queue and graph.Clock and renders the graph
// they describe.
type Renderer struct {
	sampleRate int
	dt         float64
	log        zerolog.Logger

	cmds    chan graph.Command
	dropped atomic.Uint64
	frame   atomic.Int64
	sources atomic.Int32

	nodes map[graph.NodeID]*node
	order []*node
	dirty bool
	frees []pendingFree

	quantum []float32
	carry   []float32
	scratch []float32
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the diagnostics logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Renderer) { r.log = l }
}

// WithQueueSize sets the command channel capacity.
func WithQueueSize(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.cmds = make(chan graph.Command, n)
		}
	}
}

// New creates a renderer at sampleRate with only the output node.
func New(sampleRate int, opts ...Option) *Renderer {
	r := &Renderer{
		sampleRate: sampleRate,
		dt:         1 / float64(sampleRate),
		log:        zerolog.Nop(),
		cmds:       make(chan graph.Command, DefaultQueueSize),
		nodes:      make(map[graph.NodeID]*node),
		quantum:    make([]float32, Quantum*2),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.nodes[graph.Output] = r.newNode(graph.Output, kindOutput)
	r.dirty = true
	return r
}

// SampleRate returns the output rate.
func (r *Renderer) SampleRate() int { return r.sampleRate }

// Submit queues c without blocking. It reports false and counts the drop
// when the queue is full.
func (r *Renderer) Submit(c graph.Command) bool {
	select {
	case r.cmds <- c:
		return true
	default:
		r.dropped.Add(1)
		return false
	}
}

// Now returns the transport time of the next frame to be rendered.
func (r *Renderer) Now() float64 {
	return float64(r.frame.Load()) / float64(r.sampleRate)
}

// Frames returns the number of frames rendered so far.
func (r *Renderer) Frames() int64 { return r.frame.Load() }

// Dropped returns the number of commands refused by Submit.
func (r *Renderer) Dropped() uint64 { return r.dropped.Load() }

// Sources returns the number of live sources after the last quantum.
func (r *Renderer) Sources() int { return int(r.sources.Load()) }

// Nodes returns the number of live nodes, output included. Call it from the
// rendering goroutine.
func (r *Renderer) Nodes() int { return len(r.nodes) }

// Process renders numFrames stereo frames, interleaved.
func (r *Renderer) Process(numFrames int) []float32 {
	out := make([]float32, numFrames*2)
	r.ProcessTo(out)
	return out
}

// ProcessTo fills out with interleaved stereo frames. len(out) should be
// even.
func (r *Renderer) ProcessTo(out []float32) {
	filled := 0
	for filled < len(out) {
		if len(r.carry) == 0 {
			r.renderQuantum()
			r.carry = r.quantum
		}
		n := copy(out[filled:], r.carry)
		r.carry = r.carry[n:]
		filled += n
	}
}

// Read implements io.Reader with float32 little-endian stereo frames.
func (r *Renderer) Read(p []byte) (int, error) {
	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	if cap(r.scratch) < frames*2 {
		r.scratch = make([]float32, frames*2)
	}
	buf := r.scratch[:frames*2]
	r.ProcessTo(buf)
	for i, v := range buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	return frames * 8, nil
}

func (r *Renderer) newNode(id graph.NodeID, kind nodeKind) *node {
	return &node{
		id:    id,
		kind:  kind,
		inL:   make([]float32, Quantum),
		inR:   make([]float32, Quantum),
		outL:  make([]float32, Quantum),
		outR:  make([]float32, Quantum),
		start: -1,
		stop:  math.MaxInt64,
	}
}

func (r *Renderer) toFrame(t float64) int64 {
	return int64(math.Round(t * float64(r.sampleRate)))
}

func (r *Renderer) drain() {
	for {
		select {
		case c := <-r.cmds:
			r.apply(c)
		default:
			return
		}
	}
}

func (r *Renderer) apply(c graph.Command) {
	switch c.Op {
	case graph.OpCreateGain:
		n := r.newNode(c.Node, kindGain)
		n.gain = newAutomation(c.Value)
		r.add(n)
		return
	case graph.OpCreateSource:
		if c.Buffer == nil || c.Buffer.Frames() == 0 {
			r.log.Warn().Uint64("node", uint64(c.Node)).Msg("source without buffer")
			return
		}
		n := r.newNode(c.Node, kindSource)
		n.buf = c.Buffer
		n.loop = c.Loop
		n.step = c.Rate * float64(c.Buffer.SampleRate) / float64(r.sampleRate)
		r.add(n)
		return
	case graph.OpCreateConvolver:
		n := r.newNode(c.Node, kindConvolver)
		var left, right []float32
		if c.Buffer != nil {
			left, right = c.Buffer.Left, c.Buffer.Right
		}
		n.conv = NewConvolver(left, right, Quantum)
		n.mono = make([]float32, Quantum)
		r.add(n)
		return
	case graph.OpFree:
		r.frees = append(r.frees, pendingFree{id: c.Node, frame: r.toFrame(c.Time)})
		return
	}

	n, ok := r.nodes[c.Node]
	if !ok {
		r.log.Debug().Stringer("op", c.Op).Uint64("node", uint64(c.Node)).Msg("command for unknown node")
		return
	}
	switch c.Op {
	case graph.OpConnect:
		if !slices.Contains(n.outputs, c.Target) {
			n.outputs = append(n.outputs, c.Target)
			r.dirty = true
		}
	case graph.OpDisconnect:
		n.outputs = nil
		r.dirty = true
		if n.kind == kindConvolver {
			r.remove(n.id)
		}
	case graph.OpStart:
		n.start = r.toFrame(c.Time)
	case graph.OpStop:
		n.stop = r.toFrame(c.Time)
	case graph.OpSetValue:
		if n.gain != nil {
			n.gain.schedule(event{kind: evSet, value: c.Value, time: c.Time})
		}
	case graph.OpLinearRamp:
		if n.gain != nil {
			n.gain.schedule(event{kind: evLinear, value: c.Value, time: c.Time})
		}
	case graph.OpHold:
		if n.gain != nil {
			n.gain.schedule(event{kind: evHold, time: c.Time})
		}
	case graph.OpSetTarget:
		if n.gain != nil && c.TimeConstant > 0 {
			n.gain.schedule(event{kind: evTarget, value: c.Value, time: c.Time, tau: c.TimeConstant})
		}
	}
}

func (r *Renderer) add(n *node) {
	if _, exists := r.nodes[n.id]; exists {
		r.log.Warn().Uint64("node", uint64(n.id)).Msg("node id reused")
	}
	r.nodes[n.id] = n
	r.dirty = true
}

func (r *Renderer) remove(id graph.NodeID) {
	if id == graph.Output {
		return
	}
	delete(r.nodes, id)
	r.dirty = true
}

// sortNodes orders nodes so every node renders after all of its inputs.
func (r *Renderer) sortNodes() {
	ids := make([]graph.NodeID, 0, len(r.nodes))
	for id := range r.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	indeg := make(map[graph.NodeID]int, len(ids))
	for _, id := range ids {
		for _, t := range r.nodes[id].outputs {
			if _, ok := r.nodes[t]; ok {
				indeg[t]++
			}
		}
	}
	r.order = r.order[:0]
	queue := make([]graph.NodeID, 0, len(ids))
	for _, id := range ids {
		if indeg[id] == 0 {
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n := r.nodes[id]
		r.order = append(r.order, n)
		for _, t := range n.outputs {
			if _, ok := r.nodes[t]; !ok {
				continue
			}
			indeg[t]--
			if indeg[t] == 0 {
				queue = append(queue, t)
			}
		}
	}
	if len(r.order) != len(ids) {
		r.log.Warn().Int("nodes", len(ids)).Int("ordered", len(r.order)).Msg("cycle in graph, dropping unordered nodes")
	}
	r.dirty = false
}

func (r *Renderer) renderQuantum() {
	r.drain()
	base := r.frame.Load()

	kept := r.frees[:0]
	for _, f := range r.frees {
		if f.frame <= base {
			r.remove(f.id)
		} else {
			kept = append(kept, f)
		}
	}
	r.frees = kept

	if r.dirty {
		r.sortNodes()
	}
	for _, n := range r.order {
		clear(n.inL)
		clear(n.inR)
	}

	live := 0
	for _, n := range r.order {
		switch n.kind {
		case kindSource:
			r.renderSource(n, base)
		case kindGain:
			for i := 0; i < Quantum; i++ {
				g := float32(n.gain.step(float64(base+int64(i))*r.dt, r.dt))
				n.outL[i] = n.inL[i] * g
				n.outR[i] = n.inR[i] * g
			}
		case kindConvolver:
			for i := 0; i < Quantum; i++ {
				n.mono[i] = 0.5 * (n.inL[i] + n.inR[i])
			}
			n.conv.ProcessTo(n.outL, n.outR, n.mono)
		case kindOutput:
			continue
		}
		for _, t := range n.outputs {
			dst, ok := r.nodes[t]
			if !ok {
				continue
			}
			for i := 0; i < Quantum; i++ {
				dst.inL[i] += n.outL[i]
				dst.inR[i] += n.outR[i]
			}
		}
	}

	out := r.nodes[graph.Output]
	for i := 0; i < Quantum; i++ {
		r.quantum[i*2] = float32(dspcore.FlushDenormals(float64(out.inL[i])))
		r.quantum[i*2+1] = float32(dspcore.FlushDenormals(float64(out.inR[i])))
	}

	end := base + Quantum
	for _, n := range r.order {
		if n.kind != kindSource {
			continue
		}
		if n.ended || n.stop <= end {
			r.remove(n.id)
			continue
		}
		live++
	}
	r.sources.Store(int32(live))
	r.frame.Store(end)
}

func (r *Renderer) renderSource(n *node, base int64) {
	left, right := n.buf.Left, n.buf.Right
	size := float64(len(left))
	for i := 0; i < Quantum; i++ {
		f := base + int64(i)
		if n.ended || n.start < 0 || f < n.start || f >= n.stop {
			n.outL[i], n.outR[i] = 0, 0
			continue
		}
		n.outL[i] = dsp.ReadAt(left, n.pos, n.loop)
		n.outR[i] = dsp.ReadAt(right, n.pos, n.loop)
		n.pos += n.step
		if n.pos >= size {
			if n.loop {
				n.pos = math.Mod(n.pos, size)
			} else {
				n.ended = true
			}
		}
	}
}
