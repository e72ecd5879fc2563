package compass

import (
	"sync"
	"time"
)

type FrameID uint64

// FrameLoop is the host side of the render loop: one pending frame
// callback per requester and a mailbox of tasks posted from other
// goroutines. Pump runs on the render thread once per display refresh.
type FrameLoop struct {
	mu        sync.Mutex
	tasks     []func()
	callbacks map[FrameID]func(now time.Duration)
	order     []FrameID
	nextID    FrameID
	requested int
}

func NewFrameLoop() *FrameLoop {
	return &FrameLoop{callbacks: make(map[FrameID]func(time.Duration))}
}

// RequestFrame schedules cb for the next Pump.
func (l *FrameLoop) RequestFrame(cb func(now time.Duration)) FrameID {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	id := l.nextID
	l.callbacks[id] = cb
	l.order = append(l.order, id)
	l.requested++
	return id
}

func (l *FrameLoop) CancelFrame(id FrameID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.callbacks, id)
}

// Post queues task for the render thread. Safe from any goroutine.
func (l *FrameLoop) Post(task func()) {
	l.mu.Lock()
	l.tasks = append(l.tasks, task)
	l.mu.Unlock()
}

// RequestedFrames counts every frame ever requested.
func (l *FrameLoop) RequestedFrames() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.requested
}

// Pending reports whether a frame callback or task is waiting.
func (l *FrameLoop) Pending() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.callbacks) > 0 || len(l.tasks) > 0
}

// Pump runs the posted tasks, then the frame callbacks that were pending
// when it was called. Frames requested during Pump, including from tasks,
// run on the next call.
func (l *FrameLoop) Pump(now time.Duration) {
	l.mu.Lock()
	tasks := l.tasks
	order := l.order
	l.tasks = nil
	l.order = nil
	l.mu.Unlock()

	for _, task := range tasks {
		task()
	}
	for _, id := range order {
		l.mu.Lock()
		cb, ok := l.callbacks[id]
		delete(l.callbacks, id)
		l.mu.Unlock()
		if ok {
			cb(now)
		}
	}
}
