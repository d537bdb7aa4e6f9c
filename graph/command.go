package graph

import "github.com/cwbudde/algo-accordion/sample"

// NodeID names a node in the rendered graph. IDs are never reused.
type NodeID uint64

// Output is the audio destination. It always exists.
const Output NodeID = 0

// Op is the kind of a Command.
type Op int

const (
	OpCreateGain      Op = iota // Node, Value
	OpCreateSource              // Node, Buffer, Rate, Loop
	OpCreateConvolver           // Node, Buffer (stereo IR)
	OpConnect                   // Node -> Target
	OpDisconnect                // Node: drop all outputs
	OpStart                     // Node, Time
	OpStop                      // Node, Time
	OpSetValue                  // Node, Value, Time
	OpLinearRamp                // Node, Value reached at Time
	OpSetTarget                 // Node, Value, Time, TimeConstant
	OpFree                      // Node, Time
	OpHold                      // Node, Time: cancel later events, keep the current value
)

var opNames = [...]string{
	"create-gain", "create-source", "create-convolver", "connect", "disconnect",
	"start", "stop", "set-value", "linear-ramp", "set-target", "free", "hold",
}

func (o Op) String() string {
	if o < 0 || int(o) >= len(opNames) {
		return "unknown"
	}
	return opNames[o]
}

// Command is one instruction for the renderer. Times are transport seconds.
type Command struct {
	Op           Op
	Node         NodeID
	Target       NodeID
	Time         float64
	Value        float64
	TimeConstant float64
	Rate         float64
	Loop         bool
	Buffer       *sample.Buffer
}

// Queue accepts commands for the renderer. Submit must not block; it
// reports false when the command was dropped.
type Queue interface {
	Submit(Command) bool
}

// Clock reports the current transport time in seconds.
type Clock interface {
	Now() float64
}

// IRFunc builds a stereo impulse response of the given length.
type IRFunc func(durationS float64) (left, right []float32, err error)
