package clock

import "time"

// Clock abstrae la hora actual para poder fijarla en tests.
type Clock interface {
	Now() time.Time
}

// RealClock usa la hora del sistema.
type RealClock struct{}

// NewRealClock crea un RealClock.
func NewRealClock() Clock {
	return RealClock{}
}

// Now retorna la hora actual en UTC.
func (RealClock) Now() time.Time {
	return time.Now().UTC()
}

// MockClock retorna siempre la hora configurada.
type MockClock struct {
	current time.Time
}

// NewMockClock crea un MockClock en start.
func NewMockClock(start time.Time) *MockClock {
	return &MockClock{current: start}
}

func (m *MockClock) Now() time.Time {
	return m.current
}

// Advance mueve el reloj d hacia adelante.
func (m *MockClock) Advance(d time.Duration) {
	m.current = m.current.Add(d)
}
