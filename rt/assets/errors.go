package assets

import (
	"errors"
	"fmt"
)

var (
	ErrAssetLoad         = errors.New("assets: load failed")
	ErrModelDecode       = errors.New("assets: model decode failed")
	ErrUnsupportedFormat = errors.New("assets: unsupported format")
	ErrEmptyImage        = errors.New("assets: empty image")
)

// LoadError reports which asset failed. It matches ErrAssetLoad with
// errors.Is and unwraps to the cause.
type LoadError struct {
	Kind string // "model" or "environment"
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("assets: load %s %q: %v", e.Kind, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrAssetLoad }
