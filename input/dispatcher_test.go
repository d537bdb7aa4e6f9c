package input

import (
	"testing"

	"github.com/cwbudde/algo-accordion/layout"
)

type fakeTarget struct {
	holds    map[int]int
	presses  []int
	releases []int
	all      int
	refuse   bool
}

func newFakeTarget() *fakeTarget { return &fakeTarget{holds: make(map[int]int)} }

func (f *fakeTarget) Press(p int) bool {
	if f.refuse {
		return false
	}
	f.holds[p]++
	f.presses = append(f.presses, p)
	return true
}

func (f *fakeTarget) Release(p int) bool {
	if f.holds[p] == 0 {
		return false
	}
	f.holds[p]--
	if f.holds[p] == 0 {
		delete(f.holds, p)
	}
	f.releases = append(f.releases, p)
	return true
}

func (f *fakeTarget) ReleaseAll() int {
	f.all++
	n := len(f.holds)
	clear(f.holds)
	return n
}

type fakeCommands struct {
	shifts   []int
	switches []layout.System
}

func (c *fakeCommands) ShiftLayout(d int)            { c.shifts = append(c.shifts, d) }
func (c *fakeCommands) SwitchSystem(s layout.System) { c.switches = append(c.switches, s) }

func newTestDispatcher() (*Dispatcher, *fakeTarget, *fakeCommands) {
	m := layout.NewMapper()
	t := newFakeTarget()
	c := &fakeCommands{}
	d := NewDispatcher(t, func() KeyMap { return m.KeyPitchMap() }, WithCommands(c))
	return d, t, c
}

func TestKeyRepeatIsSuppressed(t *testing.T) {
	d, f, _ := newTestDispatcher()
	for i := 0; i < 5; i++ {
		d.Handle(KeyDown{Code: "Digit2"})
	}
	if len(f.presses) != 1 || f.holds[54] != 1 {
		t.Fatalf("expected one press of 54, got %v", f.presses)
	}
	d.Handle(KeyUp{Code: "Digit2"})
	if len(f.holds) != 0 {
		t.Fatalf("key up did not release: %v", f.holds)
	}
}

func TestKeyUpReleasesPitchRecordedAtPress(t *testing.T) {
	m := layout.NewMapper()
	f := newFakeTarget()
	d := NewDispatcher(f, func() KeyMap { return m.KeyPitchMap() })
	d.Handle(KeyDown{Code: "KeyQ"})
	pressed := f.presses[0]
	m.Shift(1)
	d.Handle(KeyUp{Code: "KeyQ"})
	if len(f.releases) != 1 || f.releases[0] != pressed {
		t.Fatalf("expected release of %d, got %v", pressed, f.releases)
	}
}

func TestUnmappedKeyIsIgnored(t *testing.T) {
	d, f, _ := newTestDispatcher()
	d.Handle(KeyDown{Code: "F5"})
	d.Handle(KeyUp{Code: "F5"})
	d.Handle(KeyUp{Code: "KeyZ"})
	if len(f.presses) != 0 || len(f.releases) != 0 {
		t.Fatalf("unexpected calls: %v %v", f.presses, f.releases)
	}
}

func TestMouseReleasesExactlyOnce(t *testing.T) {
	d, f, _ := newTestDispatcher()
	d.Handle(MouseDown{Pitch: 60})
	d.Handle(MouseLeave{Pitch: 60})
	d.Handle(MouseUp{})
	if len(f.releases) != 1 {
		t.Fatalf("expected a single release, got %v", f.releases)
	}
}

func TestMouseLeaveOtherKeyKeepsNote(t *testing.T) {
	d, f, _ := newTestDispatcher()
	d.Handle(MouseDown{Pitch: 60})
	d.Handle(MouseLeave{Pitch: 63})
	if f.holds[60] != 1 {
		t.Fatalf("leaving another key must not release 60")
	}
	d.Handle(MouseDown{Pitch: 63})
	if f.holds[60] != 0 || f.holds[63] != 1 {
		t.Fatalf("second down must release the first pitch: %v", f.holds)
	}
	d.Handle(MouseDown{Pitch: layout.NoPitch})
	if len(f.holds) != 0 {
		t.Fatalf("down outside a key must release the held pitch: %v", f.holds)
	}
}

func TestTouchesAreIndependent(t *testing.T) {
	d, f, _ := newTestDispatcher()
	d.Handle(TouchStart{ID: 1, Pitch: 60})
	d.Handle(TouchStart{ID: 2, Pitch: 60})
	d.Handle(TouchEnd{ID: 1})
	if f.holds[60] != 1 {
		t.Fatalf("second touch must keep 60 held")
	}
	d.Handle(TouchCancel{ID: 2})
	if len(f.holds) != 0 {
		t.Fatalf("expected all touches released: %v", f.holds)
	}
	d.Handle(TouchEnd{ID: 9})
	if len(f.releases) != 2 {
		t.Fatalf("unknown touch must be ignored: %v", f.releases)
	}
}

func TestReusedTouchIDReleasesOldPitch(t *testing.T) {
	d, f, _ := newTestDispatcher()
	d.Handle(TouchStart{ID: 3, Pitch: 60})
	d.Handle(TouchStart{ID: 3, Pitch: 64})
	if f.holds[60] != 0 || f.holds[64] != 1 {
		t.Fatalf("unexpected holds: %v", f.holds)
	}
}

func TestMouseAndKeyOnSamePitch(t *testing.T) {
	d, f, _ := newTestDispatcher()
	d.Handle(KeyDown{Code: "Digit2"})
	d.Handle(MouseDown{Pitch: 54})
	d.Handle(KeyUp{Code: "Digit2"})
	if f.holds[54] != 1 {
		t.Fatalf("mouse must keep 54 held, holds=%v", f.holds)
	}
	d.Handle(MouseUp{})
	if len(f.holds) != 0 {
		t.Fatalf("expected 54 released")
	}
}

func TestBlurAndHiddenReleaseEverything(t *testing.T) {
	for _, e := range []Event{Blur{}, Visibility{Hidden: true}} {
		d, f, _ := newTestDispatcher()
		d.Handle(KeyDown{Code: "KeyQ"})
		d.Handle(TouchStart{ID: 1, Pitch: 70})
		d.Handle(MouseDown{Pitch: 72})
		d.Handle(e)
		if f.all != 1 || d.Held() != 0 {
			t.Fatalf("%T: release all=%d held=%d", e, f.all, d.Held())
		}
		// the key is no longer held, so a new key-down presses again
		d.Handle(KeyDown{Code: "KeyQ"})
		if len(f.presses) != 4 {
			t.Fatalf("%T: expected fresh press after reset, presses=%v", e, f.presses)
		}
		d.Handle(KeyUp{Code: "KeyQ"})
	}
}

func TestVisibleDoesNotRelease(t *testing.T) {
	d, f, _ := newTestDispatcher()
	d.Handle(KeyDown{Code: "KeyQ"})
	d.Handle(Visibility{Hidden: false})
	if f.all != 0 || d.Held() != 1 {
		t.Fatalf("visible event must not release")
	}
}

func TestArrowShortcuts(t *testing.T) {
	d, f, c := newTestDispatcher()
	d.Handle(KeyDown{Code: "ArrowLeft"})
	d.Handle(KeyDown{Code: "ArrowRight"})
	d.Handle(KeyDown{Code: "ArrowDown"})
	d.Handle(KeyDown{Code: "ArrowUp"})
	d.Handle(KeyDown{Code: "ArrowLeft", FromControl: true})
	if len(c.shifts) != 2 || c.shifts[0] != -1 || c.shifts[1] != 1 {
		t.Fatalf("unexpected shifts: %v", c.shifts)
	}
	if len(c.switches) != 2 || c.switches[0] != layout.SystemB || c.switches[1] != layout.SystemA {
		t.Fatalf("unexpected switches: %v", c.switches)
	}
	if len(f.presses) != 0 {
		t.Fatalf("shortcuts must not play notes")
	}
}

func TestRefusedPressIsNotTracked(t *testing.T) {
	d, f, _ := newTestDispatcher()
	f.refuse = true
	d.Handle(KeyDown{Code: "KeyQ"})
	d.Handle(MouseDown{Pitch: 60})
	d.Handle(TouchStart{ID: 1, Pitch: 60})
	if d.Held() != 0 {
		t.Fatalf("refused presses were tracked: %d", d.Held())
	}
	if _, ok := d.KeyHeld("KeyQ"); ok {
		t.Fatalf("KeyQ tracked without a press")
	}
}
