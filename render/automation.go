package render

import (
	"sort"

	"github.com/cwbudde/algo-approx"
)

type eventKind int

const (
	evSet eventKind = iota
	evLinear
	evTarget
	evHold
)

type event struct {
	kind  eventKind
	value float64
	time  float64
	tau   float64
}

// automation is a scheduled gain value: set, linear ramp and exponential
// approach events, evaluated one frame at a time with increasing t.
type automation struct {
	value  float64
	events []event

	lastTime  float64
	lastValue float64

	target   bool
	goal     float64
	coef     float64
	tau      float64
	coefRate float64
}

func newAutomation(v float64) *automation {
	return &automation{value: v, lastValue: v}
}

func (a *automation) schedule(e event) {
	if e.kind == evHold {
		// Drop everything from e.time on; the hold pins the value reached.
		i := sort.Search(len(a.events), func(i int) bool { return a.events[i].time >= e.time })
		a.events = append(a.events[:i], e)
		return
	}
	i := sort.Search(len(a.events), func(i int) bool { return a.events[i].time > e.time })
	a.events = append(a.events, event{})
	copy(a.events[i+1:], a.events[i:])
	a.events[i] = e
}

// step returns the value at time t. dt is the frame period.
func (a *automation) step(t, dt float64) float64 {
	for len(a.events) > 0 {
		e := a.events[0]
		if e.kind == evLinear {
			if a.target {
				a.target = false
			}
			if t >= e.time {
				a.settle(e.time, e.value)
				continue
			}
			span := e.time - a.lastTime
			a.value = a.lastValue + (e.value-a.lastValue)*(t-a.lastTime)/span
			return a.value
		}
		if t < e.time {
			break
		}
		switch e.kind {
		case evSet:
			a.target = false
			a.settle(e.time, e.value)
		case evHold:
			a.target = false
			a.settle(e.time, a.value)
		case evTarget:
			a.events = a.events[1:]
			a.target = true
			a.goal = e.value
			if e.tau != a.tau || dt != a.coefRate {
				a.tau = e.tau
				a.coefRate = dt
				a.coef = 1 - float64(approx.FastExp(float32(-dt/e.tau)))
			}
		}
	}
	if a.target {
		a.value += (a.goal - a.value) * a.coef
		a.lastValue = a.value
		a.lastTime = t
	}
	return a.value
}

func (a *automation) settle(t, v float64) {
	a.events = a.events[1:]
	a.value = v
	a.lastValue = v
	a.lastTime = t
}

// idle reports whether the value can no longer change.
func (a *automation) idle() bool {
	return len(a.events) == 0 && !a.target
}
