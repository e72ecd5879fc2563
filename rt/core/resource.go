package core

// Resource carries the upload version and the release hooks of anything that
// has a GPU-side mirror. GPU memory is never reclaimed implicitly: whoever
// uploads registers a hook with OnDispose and Dispose runs them exactly once.
type Resource struct {
	version  uint64
	disposed bool
	hooks    []func()
}

// Version increases every time the CPU-side data changes and needs re-upload.
func (r *Resource) Version() uint64 { return r.version }

// MarkDirty flags the resource for re-upload on the next frame.
func (r *Resource) MarkDirty() { r.version++ }

func (r *Resource) Disposed() bool { return r.disposed }

func (r *Resource) OnDispose(fn func()) {
	if r.disposed {
		fn()
		return
	}
	r.hooks = append(r.hooks, fn)
}

func (r *Resource) Dispose() {
	if r.disposed {
		return
	}
	r.disposed = true
	hooks := r.hooks
	r.hooks = nil
	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}
}
