package core

// Viewport is the drawing area in container pixels plus the pixel density.
type Viewport struct {
	Width      int
	Height     int
	PixelRatio float64
}

func (v Viewport) Valid() bool { return v.Width > 0 && v.Height > 0 }

func (v Viewport) Aspect() float32 {
	if v.Height == 0 {
		return 0
	}
	return float32(v.Width) / float32(v.Height)
}

// DeviceSize returns the size in device pixels.
func (v Viewport) DeviceSize() (int, int) {
	r := v.PixelRatio
	if r <= 0 {
		r = 1
	}
	return int(float64(v.Width)*r + 0.5), int(float64(v.Height)*r + 0.5)
}
