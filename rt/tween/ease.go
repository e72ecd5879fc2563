package tween

// Ease maps linear progress in [0,1] to eased progress.
type Ease func(t float32) float32

func Linear(t float32) float32 { return t }

// Power2InOut is a quadratic ease-in-out.
func Power2InOut(t float32) float32 {
	if t < 0.5 {
		return 2 * t * t
	}
	u := -2*t + 2
	return 1 - u*u/2
}

func Power2In(t float32) float32 { return t * t }

func Power2Out(t float32) float32 {
	u := 1 - t
	return 1 - u*u
}
