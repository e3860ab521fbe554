package canvas

import (
	"sync"

	"layercanvas/internal/app"
)

// Guard serialises access to a session. Fyne delivers input and paints
// frames on different goroutines, and background jobs finish on their own,
// so every session call from the UI goes through Do.
type Guard struct {
	mu sync.Mutex
	s  *app.Session
}

// NewGuard wraps s.
func NewGuard(s *app.Session) *Guard {
	return &Guard{s: s}
}

// Do runs fn with exclusive access to the session. Session listeners run
// inside fn and must not call Do again.
func (g *Guard) Do(fn func(s *app.Session)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g.s)
}
