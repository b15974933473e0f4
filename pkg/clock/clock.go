package clock

import (
	"sync"
	"time"
)

// Clock reads wall time and waits on real timers.
type Clock struct {
	loc *time.Location
}

func New() *Clock {
	return &Clock{}
}

func NewWithLocation(loc *time.Location) *Clock {
	return &Clock{loc: loc}
}

func (c *Clock) Now() time.Time {
	now := time.Now()
	if c.loc != nil {
		now = now.In(c.loc)
	}
	return now
}

func (c *Clock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Mock is a manually driven clock. After never blocks: it advances the mock
// time by the requested duration and fires at once, recording every wait.
type Mock struct {
	mx    sync.Mutex
	now   time.Time
	waits []time.Duration
}

func NewMock(value time.Time) *Mock {
	return &Mock{now: value}
}

func (m *Mock) Now() time.Time {
	m.mx.Lock()
	defer m.mx.Unlock()
	return m.now
}

func (m *Mock) Set(t time.Time) {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.now = t
}

func (m *Mock) Add(d time.Duration) {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.now = m.now.Add(d)
}

func (m *Mock) After(d time.Duration) <-chan time.Time {
	m.mx.Lock()
	m.now = m.now.Add(d)
	m.waits = append(m.waits, d)
	now := m.now
	m.mx.Unlock()

	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

// Waits returns the durations passed to After, oldest first.
func (m *Mock) Waits() []time.Duration {
	m.mx.Lock()
	defer m.mx.Unlock()
	res := make([]time.Duration, len(m.waits))
	copy(res, m.waits)
	return res
}
