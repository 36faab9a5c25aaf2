package monitor

import (
	"sync"

	"github.com/bobmcallan/mystock/internal/models"
)

// DefaultMaxAlerts bounds the alert store when no size is configured
const DefaultMaxAlerts = 50

// AlertStore is a bounded, newest-first alert list shared by the monitor
// and the outer surfaces
type AlertStore struct {
	mu     sync.Mutex
	alerts []models.Alert
	max    int
}

// NewAlertStore creates a store holding at most max alerts
func NewAlertStore(max int) *AlertStore {
	if max <= 0 {
		max = DefaultMaxAlerts
	}
	return &AlertStore{max: max}
}

// Add prepends an alert, dropping the oldest beyond capacity
func (s *AlertStore) Add(alert models.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.alerts = append([]models.Alert{alert}, s.alerts...)
	if len(s.alerts) > s.max {
		s.alerts = s.alerts[:s.max]
	}
}

// Active returns the undismissed alerts, newest first
func (s *AlertStore) Active() []models.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Alert{}
	for _, a := range s.alerts {
		if !a.Dismissed {
			out = append(out, a)
		}
	}
	return out
}

// All returns every retained alert, newest first
func (s *AlertStore) All() []models.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Alert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

// Dismiss marks the index-th active alert dismissed. Out of range indexes
// are ignored; the result reports whether an alert was dismissed.
func (s *AlertStore) Dismiss(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 {
		return false
	}
	seen := 0
	for i := range s.alerts {
		if s.alerts[i].Dismissed {
			continue
		}
		if seen == index {
			s.alerts[i].Dismissed = true
			return true
		}
		seen++
	}
	return false
}

// ClearAll dismisses every alert
func (s *AlertStore) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.alerts {
		s.alerts[i].Dismissed = true
	}
}
