// Package history keeps a bounded, append-only log of past completion turns
// for assembly continuity.
package history

import (
	"time"

	"github.com/google/uuid"
)

// maxTurns is the FIFO bound on retained turns; the oldest is evicted first.
const maxTurns = 10

// Turn is one completed request/response exchange and the files it touched.
type Turn struct {
	ID            string    `json:"id"`
	Request       string    `json:"request"`
	Response      string    `json:"response"`
	FilesModified []string  `json:"files_modified"`
	Timestamp     time.Time `json:"timestamp"`
}

// Ledger is an in-memory, process-lifetime conversation log. It retains at
// most the last ten turns in chronological order.
type Ledger struct {
	turns []Turn
	now   func() time.Time
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{now: time.Now}
}

// Record appends a turn, evicting from the front past the retention bound.
func (l *Ledger) Record(request, response string, filesModified []string) Turn {
	turn := Turn{
		ID:            uuid.New().String(),
		Request:       request,
		Response:      response,
		FilesModified: append([]string(nil), filesModified...),
		Timestamp:     l.now(),
	}
	l.turns = append(l.turns, turn)
	for len(l.turns) > maxTurns {
		l.turns = l.turns[1:]
	}
	return turn
}

// RecentTurns returns the last n turns in chronological order. n larger than
// the retained count returns everything.
func (l *Ledger) RecentTurns(n int) []Turn {
	if n <= 0 {
		return nil
	}
	if n > len(l.turns) {
		n = len(l.turns)
	}
	out := make([]Turn, n)
	copy(out, l.turns[len(l.turns)-n:])
	return out
}

// Len returns the number of retained turns.
func (l *Ledger) Len() int {
	return len(l.turns)
}

// RecentFiles returns up to limit distinct file paths from the most recent
// turns, newest first.
func (l *Ledger) RecentFiles(limit int) []string {
	var out []string
	seen := make(map[string]bool)
	for i := len(l.turns) - 1; i >= 0; i-- {
		for _, f := range l.turns[i].FilesModified {
			if seen[f] {
				continue
			}
			seen[f] = true
			out = append(out, f)
			if limit > 0 && len(out) >= limit {
				return out
			}
		}
	}
	return out
}
