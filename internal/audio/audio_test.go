package audio

import (
	"testing"
	"time"
)

func TestBufferBytes(t *testing.T) {
	tests := []struct {
		rate int
		d    time.Duration
		want int
	}{
		{48000, 10 * time.Millisecond, 480 * 8},
		{44100, 20 * time.Millisecond, 882 * 8},
		{48000, 0, 8},
	}
	for _, tt := range tests {
		if got := BufferBytes(tt.rate, tt.d); got != tt.want {
			t.Errorf("BufferBytes(%d, %v) = %d, want %d", tt.rate, tt.d, got, tt.want)
		}
	}
}
