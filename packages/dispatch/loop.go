package dispatch

import "sync"

// loopBuffer is the number of completions a loop can hold before
// Dispatch blocks the caller.
const loopBuffer = 64

// Loop is a serial executor. Functions submitted with Dispatch run one
// at a time, in submission order, on a single long-lived goroutine.
// Handlers dispatched to the same loop therefore never observe each
// other mid-run.
type Loop struct {
	mu     sync.Mutex
	tasks  chan func()
	closed bool
	done   chan struct{}
}

// NewLoop creates a loop and starts its goroutine.
func NewLoop() *Loop {
	l := &Loop{
		tasks: make(chan func(), loopBuffer),
		done:  make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)
	for fn := range l.tasks {
		fn()
	}
}

// Dispatch submits fn for execution. It blocks only when the loop's
// buffer is full. Dispatch after Stop drops fn.
func (l *Loop) Dispatch(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.tasks <- fn
}

// Stop drains outstanding work and stops the loop goroutine. It returns
// once every previously dispatched function has run.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.done
		return
	}
	l.closed = true
	close(l.tasks)
	l.mu.Unlock()
	<-l.done
}

var (
	mainLoop *Loop
	mainOnce sync.Once
)

// Main returns the process-wide completion loop. Resources that are not
// pinned to a loop of their own deliver their results here, giving all
// handlers in the process a single consistent context.
func Main() *Loop {
	mainOnce.Do(func() {
		mainLoop = NewLoop()
	})
	return mainLoop
}
