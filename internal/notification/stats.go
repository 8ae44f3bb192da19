package notification

import "sync"

// Stats counts orchestration outcomes for the ops endpoint.
type Stats struct {
	mu         sync.Mutex
	notified   int
	suppressed map[Reason]int
	delivered  int
	failures   int
	escalated  int
	digests    int
}

type StatsSnapshot struct {
	Notified         int            `json:"notified"`
	Suppressed       map[Reason]int `json:"suppressed"`
	Delivered        int            `json:"delivered"`
	DeliveryFailures int            `json:"delivery_failures"`
	Escalations      int            `json:"escalations"`
	Digests          int            `json:"digests"`
}

func NewStats() *Stats {
	return &Stats{suppressed: make(map[Reason]int)}
}

func (s *Stats) Decision(r Reason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r == ReasonNotified {
		s.notified++
		return
	}
	s.suppressed[r]++
}

func (s *Stats) Delivered() {
	s.mu.Lock()
	s.delivered++
	s.mu.Unlock()
}

func (s *Stats) Failed() {
	s.mu.Lock()
	s.failures++
	s.mu.Unlock()
}

func (s *Stats) Escalated(n int) {
	s.mu.Lock()
	s.escalated += n
	s.mu.Unlock()
}

func (s *Stats) Digest() {
	s.mu.Lock()
	s.digests++
	s.mu.Unlock()
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	sup := make(map[Reason]int, len(s.suppressed))
	for k, v := range s.suppressed {
		sup[k] = v
	}
	return StatsSnapshot{
		Notified:         s.notified,
		Suppressed:       sup,
		Delivered:        s.delivered,
		DeliveryFailures: s.failures,
		Escalations:      s.escalated,
		Digests:          s.digests,
	}
}
