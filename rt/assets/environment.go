package assets

import (
	"bufio"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"path"
	"strings"

	"github.com/gekko3d/compass/rt/core"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
	"golang.org/x/image/draw"
)

// EnvironmentOptions bounds the decoded map size. Larger maps are
// downsampled so the upload stays cheap.
type EnvironmentOptions struct {
	MaxWidth int
}

func DefaultEnvironmentOptions() EnvironmentOptions {
	return EnvironmentOptions{MaxWidth: 1024}
}

// LoadEnvironment decodes an equirectangular environment map. Radiance .hdr
// files keep their dynamic range; PNG and JPEG maps are converted from sRGB
// to linear.
func LoadEnvironment(ctx context.Context, fsys fs.FS, name string, opts EnvironmentOptions) (*core.Environment, error) {
	env, err := loadEnvironment(ctx, fsys, name, opts)
	if err != nil {
		return nil, &LoadError{Kind: "environment", Path: name, Err: err}
	}
	return env, nil
}

func loadEnvironment(ctx context.Context, fsys fs.FS, name string, opts EnvironmentOptions) (*core.Environment, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var w, h int
	var texels []float32
	switch strings.ToLower(path.Ext(name)) {
	case ".hdr", ".pic":
		img, err := rgbe.Decode(bufio.NewReader(f))
		if err != nil {
			return nil, err
		}
		w, h, texels = hdrTexels(img)
	case ".png", ".jpg", ".jpeg":
		img, _, err := image.Decode(bufio.NewReader(f))
		if err != nil {
			return nil, err
		}
		w, h, texels = ldrTexels(img, opts.MaxWidth)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path.Ext(name))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if w == 0 || h == 0 {
		return nil, ErrEmptyImage
	}
	w, h, texels = downsample(w, h, texels, opts.MaxWidth)
	return core.NewEnvironment(name, w, h, texels), nil
}

func hdrTexels(img image.Image) (int, int, []float32) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]float32, w*h*4)
	hi, isHDR := img.(hdr.Image)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			if isHDR {
				r, g, bl, _ := hi.HDRAt(b.Min.X+x, b.Min.Y+y).HDRRGBA()
				out[i], out[i+1], out[i+2] = float32(r), float32(g), float32(bl)
			} else {
				r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				out[i], out[i+1], out[i+2] = float32(r)/0xffff, float32(g)/0xffff, float32(bl)/0xffff
			}
			out[i+3] = 1
		}
	}
	return w, h, out
}

func ldrTexels(img image.Image, maxWidth int) (int, int, []float32) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxWidth > 0 && w > maxWidth {
		h = max(1, h*maxWidth/w)
		w = maxWidth
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)

	out := make([]float32, w*h*4)
	for i := 0; i < w*h; i++ {
		p := dst.Pix[i*4 : i*4+4]
		c := colorful.Color{R: float64(p[0]) / 255, G: float64(p[1]) / 255, B: float64(p[2]) / 255}
		r, g, bl := c.LinearRgb()
		out[i*4+0] = float32(r)
		out[i*4+1] = float32(g)
		out[i*4+2] = float32(bl)
		out[i*4+3] = 1
	}
	return w, h, out
}

// downsample box-filters float texels by powers of two until the width fits.
func downsample(w, h int, texels []float32, maxWidth int) (int, int, []float32) {
	for maxWidth > 0 && w > maxWidth && w >= 2 && h >= 2 {
		nw, nh := w/2, h/2
		next := make([]float32, nw*nh*4)
		for y := 0; y < nh; y++ {
			for x := 0; x < nw; x++ {
				for c := 0; c < 4; c++ {
					s := texels[((2*y)*w+2*x)*4+c] +
						texels[((2*y)*w+2*x+1)*4+c] +
						texels[((2*y+1)*w+2*x)*4+c] +
						texels[((2*y+1)*w+2*x+1)*4+c]
					next[(y*nw+x)*4+c] = s / 4
				}
			}
		}
		w, h, texels = nw, nh, next
	}
	return w, h, texels
}
