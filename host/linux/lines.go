//go:build linux

package linux

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"sumobot/core"
)

// edgePoll bounds each wait so a disarmed watcher exits promptly
const edgePoll = 50 * time.Millisecond

var (
	errUnknownLine = errors.New("line not registered")
	errNoHandler   = errors.New("no handler bound")
)

// waitFunc blocks up to timeout for a falling edge and reports whether one
// arrived
type waitFunc func(timeout time.Duration) bool

type watcher struct {
	stop chan struct{}
	done chan struct{}
}

// lines tracks modes, handlers and edge watcher goroutines shared by the
// GPIO backends. Handlers run on the watcher goroutine, which stands in for
// interrupt context on the host.
type lines struct {
	mu       sync.Mutex
	modes    map[core.GPIOPin]core.PinMode
	handlers map[core.GPIOPin]func()
	watchers map[core.GPIOPin]*watcher
}

func newLines() lines {
	return lines{
		modes:    make(map[core.GPIOPin]core.PinMode),
		handlers: make(map[core.GPIOPin]func()),
		watchers: make(map[core.GPIOPin]*watcher),
	}
}

func (l *lines) setMode(pin core.GPIOPin, mode core.PinMode) {
	l.mu.Lock()
	l.modes[pin] = mode
	l.mu.Unlock()
}

func (l *lines) mode(pin core.GPIOPin) core.PinMode {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.modes[pin]
}

func (l *lines) bind(pin core.GPIOPin, handler func()) {
	l.mu.Lock()
	l.handlers[pin] = handler
	l.mu.Unlock()
}

// arm starts a watcher calling the pin's handler on every edge wait reports
func (l *lines) arm(pin core.GPIOPin, wait waitFunc) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	h := l.handlers[pin]
	if h == nil {
		return fmt.Errorf("gpio %d: %w", pin, errNoHandler)
	}
	if _, running := l.watchers[pin]; running {
		return nil
	}
	w := &watcher{stop: make(chan struct{}), done: make(chan struct{})}
	l.watchers[pin] = w

	go func() {
		defer close(w.done)
		for {
			select {
			case <-w.stop:
				return
			default:
			}
			if wait(edgePoll) {
				h()
			}
		}
	}()
	return nil
}

// disarm stops the pin's watcher and waits for it to exit
func (l *lines) disarm(pin core.GPIOPin) {
	l.mu.Lock()
	w := l.watchers[pin]
	delete(l.watchers, pin)
	l.mu.Unlock()

	if w != nil {
		close(w.stop)
		<-w.done
	}
}

func (l *lines) disarmAll() {
	l.mu.Lock()
	pins := make([]core.GPIOPin, 0, len(l.watchers))
	for pin := range l.watchers {
		pins = append(pins, pin)
	}
	l.mu.Unlock()

	for _, pin := range pins {
		l.disarm(pin)
	}
}
