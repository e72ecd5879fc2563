package shaders

import (
	_ "embed"
)

//go:embed fullscreen_vs.wgsl
var FullscreenVS string

//go:embed blit.wgsl
var BlitFS string

//go:embed mesh.wgsl
var MeshWGSL string

//go:embed points.wgsl
var PointsWGSL string

//go:embed bloom_highpass.wgsl
var BloomHighpassFS string

//go:embed bloom_blur.wgsl
var BloomBlurFS string

//go:embed bloom_composite.wgsl
var BloomCompositeFS string

//go:embed distortion.wgsl
var DistortionFS string

//go:embed film.wgsl
var FilmFS string

//go:embed fxaa.wgsl
var FXAAFS string

// Fullscreen prepends the shared fullscreen vertex stage to a fragment
// shader.
func Fullscreen(fragment string) string {
	return FullscreenVS + "\n" + fragment
}
