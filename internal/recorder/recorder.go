package recorder

import "time"

// Run is one journaled tool invocation
type Run struct {
	ID       string        `json:"id"`
	Tool     string        `json:"tool"`
	Symbol   string        `json:"symbol"`
	At       time.Time     `json:"at"`
	Duration time.Duration `json:"duration"`
	ErrKind  string        `json:"error_kind,omitempty"` // empty on success
	Summary  string        `json:"summary"`              // JSON document of the result
}

// TrendSnapshot is one symbol's trend reading from a scheduled watch
type TrendSnapshot struct {
	RunID       string
	Symbol      string
	At          time.Time
	Price       float64
	RSI         *float64
	AboveSMA50  bool
	AboveSMA200 bool
	RSScore     *float64 // shortest available period
}

// Recorder persists the analysis journal
type Recorder interface {
	RecordRun(run *Run) error
	RecordTrend(snap *TrendSnapshot) error
	Recent(limit int) ([]Run, error)
	Close() error
}
