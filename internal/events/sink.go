// Package events holds the capped, user-facing event stream consumed by the
// presentation layer, along with the latest wallet summary.
package events

import (
	"fmt"
	"sync"
	"time"

	"github.com/AlexZinkM/faucetbot/internal/model"

	"go.uber.org/zap"
)

// DefaultCapacity is the scrollback of the terminal log panel.
const DefaultCapacity = 70

// Sink is an append-only, bounded log. Once full, the oldest entry is evicted.
type Sink struct {
	mu       sync.Mutex
	entries  []model.LogEntry
	capacity int
	summary  model.Summary
	subs     map[int]chan model.LogEntry
	nextSub  int

	logger *zap.Logger
	now    func() time.Time
}

// NewSink creates a sink holding at most capacity entries. Every entry is also
// written to logger.
func NewSink(capacity int, logger *zap.Logger) *Sink {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{
		entries:  make([]model.LogEntry, 0, capacity),
		capacity: capacity,
		subs:     make(map[int]chan model.LogEntry),
		logger:   logger,
		now:      time.Now,
	}
}

// Add appends one entry.
func (s *Sink) Add(severity model.Severity, message string) {
	entry := model.LogEntry{Timestamp: s.now(), Message: message, Severity: severity}

	s.mu.Lock()
	if len(s.entries) == s.capacity {
		copy(s.entries, s.entries[1:])
		s.entries = s.entries[:len(s.entries)-1]
	}
	s.entries = append(s.entries, entry)
	for _, ch := range s.subs {
		select {
		case ch <- entry:
		default: // slow subscriber, it can resync from Entries
		}
	}
	s.mu.Unlock()

	if severity == model.SeverityError {
		s.logger.Error(message, zap.String("severity", string(severity)))
	} else {
		s.logger.Info(message, zap.String("severity", string(severity)))
	}
}

func (s *Sink) Systemf(format string, args ...any) {
	s.Add(model.SeveritySystem, fmt.Sprintf(format, args...))
}

func (s *Sink) Errorf(format string, args ...any) {
	s.Add(model.SeverityError, fmt.Sprintf(format, args...))
}

func (s *Sink) Progressf(format string, args ...any) {
	s.Add(model.SeverityProgress, fmt.Sprintf(format, args...))
}

func (s *Sink) Successf(format string, args ...any) {
	s.Add(model.SeveritySuccess, fmt.Sprintf(format, args...))
}

// Entries returns a copy of the retained entries, oldest first.
func (s *Sink) Entries() []model.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.LogEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Clear drops every retained entry and records that it did so.
func (s *Sink) Clear() {
	s.mu.Lock()
	s.entries = s.entries[:0]
	s.mu.Unlock()
	s.Systemf("Transaction logs cleared.")
}

// Subscribe streams new entries on the returned channel until cancel is called.
// Entries are dropped for a subscriber whose buffer is full.
func (s *Sink) Subscribe(buffer int) (<-chan model.LogEntry, func()) {
	ch := make(chan model.LogEntry, buffer)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// SetSummary replaces the wallet summary shown next to the log.
func (s *Sink) SetSummary(sum model.Summary) {
	s.mu.Lock()
	s.summary = sum
	s.mu.Unlock()
	s.logger.Debug("summary updated",
		zap.Int("wallets", sum.TotalWallets),
		zap.String("balance", sum.TotalBalance),
		zap.String("proxy", sum.ActiveProxy),
	)
}

func (s *Sink) Summary() model.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}
