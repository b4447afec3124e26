package syncer

import (
	"fmt"
	"sync"
	"time"
)

// =============================================================================
// SYNC LOG - structured debug log returned to the caller
// =============================================================================

// SyncLog accumulates structured lines during a sync run. In debug mode the
// lines are returned in the SyncResult instead of living only in server
// logs; the filter tag marks lines explaining why a worklog was dropped.
type SyncLog struct {
	mu      sync.Mutex
	enabled bool
	lines   []SyncLogLine
}

type SyncLogLine struct {
	At      time.Time `json:"at"`
	Level   string    `json:"level"` // info | warn | error | filter
	Message string    `json:"message"`
}

func NewSyncLog(enabled bool) *SyncLog {
	return &SyncLog{enabled: enabled}
}

func (l *SyncLog) add(level, format string, args ...any) {
	if l == nil || !l.enabled {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, SyncLogLine{
		At:      time.Now().UTC(),
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	})
}

func (l *SyncLog) Infof(format string, args ...any)   { l.add("info", format, args...) }
func (l *SyncLog) Warnf(format string, args ...any)   { l.add("warn", format, args...) }
func (l *SyncLog) Errorf(format string, args ...any)  { l.add("error", format, args...) }
func (l *SyncLog) Filterf(format string, args ...any) { l.add("filter", format, args...) }

// Lines returns the accumulated log, nil when debug is off.
func (l *SyncLog) Lines() []SyncLogLine {
	if l == nil || !l.enabled {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]SyncLogLine, len(l.lines))
	copy(out, l.lines)
	return out
}
