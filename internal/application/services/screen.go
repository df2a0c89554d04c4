package services

import (
	"context"
	"sync"
	"time"

	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/entities"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/infrastructure/observability"
)

// Screen is the live state of one dashboard for one session: the last applied
// view, the fetch generation, and the single open modal.
type Screen struct {
	SessionID string
	Role      entities.Role

	mu       sync.Mutex
	view     *entities.DashboardView
	issued   uint64
	modal    entities.ModalState
	lastSeen time.Time
}

// NewScreen creates an empty screen
func NewScreen(sessionID string, role entities.Role) *Screen {
	return &Screen{
		SessionID: sessionID,
		Role:      role,
		modal:     entities.NoModal{},
		lastSeen:  time.Now(),
	}
}

// BeginFetch issues the next generation number
func (s *Screen) BeginFetch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	s.lastSeen = time.Now()
	return s.issued
}

// Apply installs view if gen is still the newest issued generation
func (s *Screen) Apply(gen uint64, view *entities.DashboardView) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.issued {
		return false
	}
	s.view = view
	return true
}

// View returns the last applied view, or nil before the first fetch
func (s *Screen) View() *entities.DashboardView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Modal returns the open modal
func (s *Screen) Modal() entities.ModalState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modal
}

// OpenModal replaces whatever modal is open
func (s *Screen) OpenModal(m entities.ModalState) {
	if m == nil {
		m = entities.NoModal{}
	}
	s.mu.Lock()
	s.modal = m
	s.mu.Unlock()
}

// CloseModal closes the open modal and drops its draft
func (s *Screen) CloseModal() {
	s.OpenModal(entities.NoModal{})
}

// UpdateModal applies fn to the open modal atomically
func (s *Screen) UpdateModal(fn func(entities.ModalState) entities.ModalState) entities.ModalState {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := fn(s.modal)
	if next == nil {
		next = entities.NoModal{}
	}
	s.modal = next
	return next
}

// Touch marks the screen as used
func (s *Screen) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *Screen) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

type screenKey struct {
	session string
	role    entities.Role
}

// ScreenRegistry holds screens per session and role
type ScreenRegistry struct {
	mu      sync.Mutex
	screens map[screenKey]*Screen
}

// NewScreenRegistry creates an empty registry
func NewScreenRegistry() *ScreenRegistry {
	return &ScreenRegistry{screens: make(map[screenKey]*Screen)}
}

// Get returns the screen for the session and role, creating it on first use
func (r *ScreenRegistry) Get(sessionID string, role entities.Role) *Screen {
	key := screenKey{session: sessionID, role: role}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.screens[key]
	if !ok {
		s = NewScreen(sessionID, role)
		r.screens[key] = s
	}
	s.Touch()
	return s
}

// Len returns the number of live screens
func (r *ScreenRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.screens)
}

// Prune drops screens idle for longer than ttl and returns how many were removed
func (r *ScreenRegistry) Prune(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for k, s := range r.screens {
		if s.idleSince().Before(cutoff) {
			delete(r.screens, k)
			removed++
		}
	}
	return removed
}

// Run prunes idle screens every interval until ctx is done
func (r *ScreenRegistry) Run(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Prune(ttl); n > 0 {
				observability.GetLogger().Debug().Int("pruned", n).Int("live", r.Len()).Msg("pruned idle screens")
			}
		}
	}
}
