package compass

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFramebufferRatio(t *testing.T) {
	tests := []struct {
		name         string
		w, h, fw, fh int
		want         float64
	}{
		{"window in pixels", 800, 600, 800, 600, 1},
		{"window in points on a retina display", 800, 600, 1600, 1200, 2},
		{"fractional scale", 800, 600, 1200, 900, 1.5},
		{"minimized", 0, 0, 0, 0, 1},
		{"no framebuffer yet", 800, 600, 0, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, framebufferRatio(tt.w, tt.h, tt.fw, tt.fh), 1e-9)
		})
	}
}
