//go:build js && wasm

package main

import (
	"bytes"
	"encoding/json"
	"syscall/js"
	"unsafe"

	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-accordion/input"
	"github.com/cwbudde/algo-accordion/instrument"
	"github.com/cwbudde/algo-accordion/layout"
	"github.com/cwbudde/algo-accordion/preset"
	"github.com/cwbudde/algo-accordion/render"
	"github.com/cwbudde/algo-accordion/sample"
)

var (
	session      *instrument.Session
	renderer     *render.Renderer
	outputBuffer []float32
)

func main() {
	// Keep program running
	c := make(chan struct{})

	exports := map[string]func(js.Value, []js.Value) any{
		"wasmInit":            wasmInit,
		"wasmLoadSamples":     wasmLoadSamples,
		"wasmKeyDown":         wasmKeyDown,
		"wasmKeyUp":           wasmKeyUp,
		"wasmMouseDown":       wasmMouseDown,
		"wasmMouseUp":         wasmMouseUp,
		"wasmMouseLeave":      wasmMouseLeave,
		"wasmTouchStart":      wasmTouchStart,
		"wasmTouchEnd":        wasmTouchEnd,
		"wasmTouchCancel":     wasmTouchCancel,
		"wasmBlur":            wasmBlur,
		"wasmVisibility":      wasmVisibility,
		"wasmShift":           wasmShift,
		"wasmSetSystem":       wasmSetSystem,
		"wasmSetVolume":       wasmSetVolume,
		"wasmSetReverb":       wasmSetReverb,
		"wasmLayout":          wasmLayout,
		"wasmResume":          wasmResume,
		"wasmProcessBlock":    wasmProcessBlock,
		"wasmGetMemoryBuffer": wasmGetMemoryBuffer,
	}
	for name, f := range exports {
		js.Global().Set(name, js.FuncOf(f))
	}

	println("WASM accordion module loaded")
	<-c
}

func wasmInit(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return nil
	}
	cfg := preset.DefaultConfig()
	cfg.SampleRate = args[0].Int()

	log := zerolog.New(zerolog.ConsoleWriter{Out: consoleWriter{}, NoColor: true}).Level(zerolog.InfoLevel)
	renderer = render.New(cfg.SampleRate, render.WithLogger(log))
	s, err := instrument.New(cfg, renderer, renderer,
		instrument.WithLogger(log),
		instrument.WithLayoutFunc(func() { notify("accordionLayoutChanged") }),
	)
	if err != nil {
		println("Accordion init failed:", err.Error())
		return nil
	}
	s.OnVoiceChange(func(pitch int, active bool) {
		notify("accordionVoiceChanged", pitch, active)
	})
	session = s

	// Pre-allocate output buffer for one render quantum
	outputBuffer = make([]float32, render.Quantum*2)

	println("Accordion initialized at", cfg.SampleRate, "Hz")
	return nil
}

// wasmLoadSamples takes the attack and sustain WAV files as ArrayBuffers.
func wasmLoadSamples(this js.Value, args []js.Value) any {
	if len(args) < 2 || session == nil {
		return false
	}
	rate := session.Config().SampleRate
	attack, err := sample.Decode(bytes.NewReader(copyBytes(args[0])), rate)
	if err != nil {
		println("Failed to decode attack sample:", err.Error())
		return false
	}
	sustain, err := sample.Decode(bytes.NewReader(copyBytes(args[1])), rate)
	if err != nil {
		println("Failed to decode sustain sample:", err.Error())
		return false
	}
	if err := session.LoadSamples(attack, sustain); err != nil {
		println("Failed to load samples:", err.Error())
		return false
	}
	return true
}

func wasmKeyDown(this js.Value, args []js.Value) any {
	if len(args) < 1 || session == nil {
		return nil
	}
	fromControl := len(args) > 1 && args[1].Bool()
	session.Handle(input.KeyDown{Code: args[0].String(), FromControl: fromControl})
	return nil
}

func wasmKeyUp(this js.Value, args []js.Value) any {
	if len(args) < 1 || session == nil {
		return nil
	}
	session.Handle(input.KeyUp{Code: args[0].String()})
	return nil
}

func wasmMouseDown(this js.Value, args []js.Value) any {
	if len(args) < 1 || session == nil {
		return nil
	}
	session.Handle(input.MouseDown{Pitch: args[0].Int()})
	return nil
}

func wasmMouseUp(this js.Value, args []js.Value) any {
	if session == nil {
		return nil
	}
	session.Handle(input.MouseUp{})
	return nil
}

func wasmMouseLeave(this js.Value, args []js.Value) any {
	if len(args) < 1 || session == nil {
		return nil
	}
	session.Handle(input.MouseLeave{Pitch: args[0].Int()})
	return nil
}

func wasmTouchStart(this js.Value, args []js.Value) any {
	if len(args) < 2 || session == nil {
		return nil
	}
	session.Handle(input.TouchStart{ID: input.TouchID(args[0].Int()), Pitch: args[1].Int()})
	return nil
}

func wasmTouchEnd(this js.Value, args []js.Value) any {
	if len(args) < 1 || session == nil {
		return nil
	}
	session.Handle(input.TouchEnd{ID: input.TouchID(args[0].Int())})
	return nil
}

func wasmTouchCancel(this js.Value, args []js.Value) any {
	if len(args) < 1 || session == nil {
		return nil
	}
	session.Handle(input.TouchCancel{ID: input.TouchID(args[0].Int())})
	return nil
}

func wasmBlur(this js.Value, args []js.Value) any {
	if session != nil {
		session.Handle(input.Blur{})
	}
	return nil
}

func wasmVisibility(this js.Value, args []js.Value) any {
	if len(args) < 1 || session == nil {
		return nil
	}
	session.Handle(input.Visibility{Hidden: args[0].Bool()})
	return nil
}

func wasmShift(this js.Value, args []js.Value) any {
	if len(args) < 1 || session == nil {
		return nil
	}
	session.ShiftLayout(args[0].Int())
	return session.Offset()
}

func wasmSetSystem(this js.Value, args []js.Value) any {
	if len(args) < 1 || session == nil {
		return nil
	}
	sys, err := layout.ParseSystem(args[0].String())
	if err != nil {
		println(err.Error())
		return nil
	}
	session.SwitchSystem(sys)
	return nil
}

func wasmSetVolume(this js.Value, args []js.Value) any {
	if len(args) < 1 || session == nil {
		return nil
	}
	return session.SetMasterVolume(args[0].Float())
}

func wasmSetReverb(this js.Value, args []js.Value) any {
	if len(args) < 1 || session == nil {
		return false
	}
	return session.SetReverbDuration(args[0].Float()) == nil
}

type layoutView struct {
	System string              `json:"system"`
	Offset int                 `json:"offset"`
	Rows   [][]layout.KeyPitch `json:"rows"`
	Active []int               `json:"active"`
	Text   string              `json:"text"`
}

// wasmLayout returns the current key map as JSON for the page to draw.
func wasmLayout(this js.Value, args []js.Value) any {
	if session == nil {
		return nil
	}
	rows := session.Rows()
	b, err := json.Marshal(layoutView{
		System: session.System().String(),
		Offset: session.Offset(),
		Rows:   rows,
		Active: session.ActivePitches(),
		Text:   layout.Format(rows),
	})
	if err != nil {
		return nil
	}
	return string(b)
}

// wasmResume is called on the first user gesture. The renderer runs from
// construction, so only the page's AudioContext needs resuming.
func wasmResume(this js.Value, args []js.Value) any {
	return session != nil && session.Ready()
}

func wasmProcessBlock(this js.Value, args []js.Value) any {
	if len(args) < 1 || renderer == nil {
		return 0
	}

	numFrames := min(args[0].Int(), render.Quantum)
	buf := outputBuffer[:numFrames*2]
	renderer.ProcessTo(buf)

	// Return pointer to buffer in WASM linear memory
	ptr := &outputBuffer[0]
	return js.ValueOf(uintptr(unsafe.Pointer(ptr)))
}

func wasmGetMemoryBuffer(this js.Value, args []js.Value) any {
	// Return WASM memory buffer for access from JS
	return js.Global().Get("Go").Get("_inst").Get("exports").Get("mem").Get("buffer")
}

func copyBytes(v js.Value) []byte {
	u8 := js.Global().Get("Uint8Array").New(v)
	b := make([]byte, u8.Get("byteLength").Int())
	js.CopyBytesToGo(b, u8)
	return b
}

func notify(name string, args ...any) {
	if f := js.Global().Get(name); f.Type() == js.TypeFunction {
		f.Invoke(args...)
	}
}

// consoleWriter sends log lines to the browser console.
type consoleWriter struct{}

func (consoleWriter) Write(p []byte) (int, error) {
	js.Global().Get("console").Call("log", string(bytes.TrimRight(p, "\n")))
	return len(p), nil
}
