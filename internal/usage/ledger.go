// Package usage keeps the durable, month-keyed token accounting for the
// external completion API. The ledger is best-effort: it must never
// block or fail a chat request.
package usage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kuba/mat-tutor-server/internal/logger"
)

const monthKeyFormat = "2006-01"

// Entry is one immutable record of a completion call.
type Entry struct {
	Timestamp    time.Time `json:"timestamp"`
	InputTokens  int       `json:"inputTokens"`
	OutputTokens int       `json:"outputTokens"`
	TotalTokens  int       `json:"totalTokens"`
	Model        string    `json:"model"`
	SessionID    string    `json:"sessionId,omitempty"`
}

// MonthlyUsage accumulates entries for one calendar month. Totals only
// ever grow within a month.
type MonthlyUsage struct {
	Month             string    `json:"month"`
	TotalInputTokens  int       `json:"totalInputTokens"`
	TotalOutputTokens int       `json:"totalOutputTokens"`
	TotalTokens       int       `json:"totalTokens"`
	RequestCount      int       `json:"requestCount"`
	Entries           []Entry   `json:"entries"`
	LastUpdated       time.Time `json:"lastUpdated"`
}

// Snapshot is a read-only view of the current month against the cap.
type Snapshot struct {
	Month          string  `json:"month"`
	TotalTokens    int     `json:"totalTokens"`
	Limit          int     `json:"limit"`
	Remaining      int     `json:"remaining"`
	PercentUsed    float64 `json:"percentUsed"`
	RequestCount   int     `json:"requestCount"`
	IsWarning      bool    `json:"isWarning"`
	IsLimitReached bool    `json:"isLimitReached"`
}

// Ledger owns the persisted usage document and its in-memory cache.
// The document holds every month ever seen; unknown months are carried
// through writes untouched. Single-process deployment is assumed: the
// read-modify-write is guarded by a mutex, not by cross-process locking.
type Ledger struct {
	mu        sync.Mutex
	path      string
	limit     int
	threshold float64
	now       func() time.Time
	log       *logger.Logger
	months    map[string]*MonthlyUsage
}

// NewLedger opens the ledger at path with the given monthly token limit
// and warning threshold (fraction of the limit, e.g. 0.8). A missing or
// unreadable document is not an error; the ledger starts empty.
func NewLedger(path string, limit int, threshold float64, log *logger.Logger) *Ledger {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.8
	}
	l := &Ledger{
		path:      path,
		limit:     limit,
		threshold: threshold,
		now:       time.Now,
		log:       log,
		months:    make(map[string]*MonthlyUsage),
	}
	l.load()
	return l
}

func (l *Ledger) load() {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			l.log.Warn("usage ledger unreadable, starting empty", "path", l.path, "error", err)
		}
		return
	}
	months := make(map[string]*MonthlyUsage)
	if err := json.Unmarshal(data, &months); err != nil {
		l.log.Warn("usage ledger corrupt, starting empty", "path", l.path, "error", err)
		return
	}
	l.months = months
}

// Log appends an entry to the current month and persists the document.
// Write failures are logged and swallowed; the in-memory cache is only
// replaced after a successful write, so cache and file cannot diverge.
func (l *Ledger) Log(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e.Timestamp.IsZero() {
		e.Timestamp = now
	}
	key := now.Format(monthKeyFormat)

	next := &MonthlyUsage{Month: key}
	if cur, ok := l.months[key]; ok {
		clone := *cur
		clone.Entries = append([]Entry(nil), cur.Entries...)
		next = &clone
	}
	next.Entries = append(next.Entries, e)
	next.TotalInputTokens += e.InputTokens
	next.TotalOutputTokens += e.OutputTokens
	next.TotalTokens += e.TotalTokens
	next.RequestCount++
	next.LastUpdated = now

	updated := make(map[string]*MonthlyUsage, len(l.months)+1)
	for k, v := range l.months {
		updated[k] = v
	}
	updated[key] = next

	if err := l.save(updated); err != nil {
		l.log.Error("usage ledger write failed, entry dropped from durable log", "error", err)
		return
	}
	l.months = updated
}

func (l *Ledger) save(months map[string]*MonthlyUsage) error {
	data, err := json.MarshalIndent(months, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal usage document: %w", err)
	}
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write usage document: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("failed to replace usage document: %w", err)
	}
	return nil
}

// CurrentMonth returns the snapshot for the running calendar month.
func (l *Ledger) CurrentMonth() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := l.now().Format(monthKeyFormat)
	snap := Snapshot{Month: key, Limit: l.limit, Remaining: l.limit}
	if m, ok := l.months[key]; ok {
		snap.TotalTokens = m.TotalTokens
		snap.RequestCount = m.RequestCount
		snap.Remaining = l.limit - m.TotalTokens
		if snap.Remaining < 0 {
			snap.Remaining = 0
		}
	}
	if l.limit > 0 {
		snap.PercentUsed = float64(snap.TotalTokens) / float64(l.limit) * 100
	}
	snap.IsWarning = snap.PercentUsed >= l.threshold*100
	snap.IsLimitReached = snap.TotalTokens >= l.limit
	return snap
}

// DaysUntilReset returns the number of days until the first day of the
// next calendar month, rounded up.
func (l *Ledger) DaysUntilReset() int {
	now := l.now()
	next := l.nextMonthStart(now)
	days := int(next.Sub(now).Hours() / 24)
	if next.Sub(now)%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// NextMonth returns the month key the counters reset into.
func (l *Ledger) NextMonth() string {
	return l.nextMonthStart(l.now()).Format(monthKeyFormat)
}

func (l *Ledger) nextMonthStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location())
}

// StatusMessage renders the user-facing usage status in one of three
// variants: limit reached, warning, or normal.
func (l *Ledger) StatusMessage() string {
	snap := l.CurrentMonth()
	switch {
	case snap.IsLimitReached:
		return fmt.Sprintf("Miesięczny limit tokenów został wyczerpany. Licznik wyzeruje się za %d dni.", l.DaysUntilReset())
	case snap.IsWarning:
		return fmt.Sprintf("Wykorzystano %.0f%% miesięcznego limitu tokenów. Pozostało %d tokenów.", snap.PercentUsed, snap.Remaining)
	default:
		return fmt.Sprintf("Wykorzystano %d z %d tokenów w tym miesiącu.", snap.TotalTokens, snap.Limit)
	}
}
