// Package controller holds the per-screen state machines that compose the
// gateway client and the live event channel into view-ready state. Each
// controller owns its collections exclusively; views read snapshots.
package controller

import (
	"context"
	"sync"

	"minishield-dashboard/internal/core"
	"minishield-dashboard/internal/gateway"
	"minishield-dashboard/internal/logger"
	"minishield-dashboard/internal/notify"
)

// DefaultPerPage is the fixed page size unless the caller chooses another.
const DefaultPerPage = 50

// LogFilters is the recognized filter set for the logs screen. Zero values
// mean "no filter" and are never sent to the gateway.
type LogFilters struct {
	IP            string
	Action        string
	Source        string
	Path          string
	DomainID      string
	MinScore      int
	MinConfidence float64
}

// Logs drives the attack-log screen: a paginated, filtered window over the
// historical log plus an optional live feed merged in for display.
type Logs struct {
	client   *gateway.Client
	stream   *gateway.Stream
	notifier notify.Notifier
	log      *logger.Logger

	mu         sync.Mutex
	filters    LogFilters
	page       int64
	perPage    int64
	entries    []core.AttackLog
	pagination core.Pagination
	seen       map[string]bool
	live       bool

	// seq discards responses from superseded requests: only the response
	// whose token matches the latest issued is applied.
	seq    uint64
	latest uint64
}

// NewLogs builds the logs controller. stream may be shared with nothing
// else; the controller owns enabling and disabling it.
func NewLogs(client *gateway.Client, stream *gateway.Stream, notifier notify.Notifier, log *logger.Logger) *Logs {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	if log == nil {
		log = logger.New("logs")
	}
	return &Logs{
		client:   client,
		stream:   stream,
		notifier: notifier,
		log:      log,
		page:     1,
		perPage:  DefaultPerPage,
		seen:     make(map[string]bool),
	}
}

// Snapshot is the view-ready state of the screen.
type LogsSnapshot struct {
	Entries    []core.AttackLog
	Pagination core.Pagination
	Filters    LogFilters
	Page       int64
	PerPage    int64
	Live       bool
}

func (l *Logs) Snapshot() LogsSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries := make([]core.AttackLog, len(l.entries))
	copy(entries, l.entries)
	return LogsSnapshot{
		Entries:    entries,
		Pagination: l.pagination,
		Filters:    l.filters,
		Page:       l.page,
		PerPage:    l.perPage,
		Live:       l.live,
	}
}

// SetFilters commits a new filter set, resets the page to 1 and re-fetches.
func (l *Logs) SetFilters(ctx context.Context, f LogFilters) error {
	l.mu.Lock()
	l.filters = f
	l.page = 1
	l.mu.Unlock()
	return l.Refresh(ctx)
}

// SetPage moves to the given page and re-fetches. Pages are 1-based.
func (l *Logs) SetPage(ctx context.Context, page int64) error {
	if page < 1 {
		page = 1
	}
	l.mu.Lock()
	l.page = page
	l.mu.Unlock()
	return l.Refresh(ctx)
}

// SetPerPage changes the page size and re-fetches from page 1.
func (l *Logs) SetPerPage(ctx context.Context, n int64) error {
	if n < 1 {
		n = DefaultPerPage
	}
	l.mu.Lock()
	l.perPage = n
	l.page = 1
	l.mu.Unlock()
	return l.Refresh(ctx)
}

// Refresh re-issues the fetch for the current page and committed filters.
// A response that arrives after a newer request was issued is discarded.
func (l *Logs) Refresh(ctx context.Context) error {
	l.mu.Lock()
	l.seq++
	token := l.seq
	l.latest = token
	q := gateway.LogsQuery{
		Page:          l.page,
		Limit:         l.perPage,
		DomainID:      l.filters.DomainID,
		IP:            l.filters.IP,
		Action:        l.filters.Action,
		Source:        l.filters.Source,
		Path:          l.filters.Path,
		MinScore:      l.filters.MinScore,
		MinConfidence: l.filters.MinConfidence,
	}
	l.mu.Unlock()

	page, err := l.client.Logs(ctx, q)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if token != l.latest {
		// A newer request has been issued since; this response is stale.
		return nil
	}
	l.entries = page.Data
	l.pagination = page.Pagination
	l.seen = make(map[string]bool, len(page.Data))
	for _, ev := range page.Data {
		l.seen[ev.Key()] = true
	}
	return nil
}

// EnableLive opens the live channel. Enabling while already enabled is a
// no-op. Live delivery is independent of the fetch path: it only adjusts
// the displayed window, never the authoritative pagination counts.
func (l *Logs) EnableLive(ctx context.Context) error {
	l.mu.Lock()
	if l.live {
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()

	if err := l.stream.Open(ctx, l.onEvent); err != nil {
		return err
	}

	l.mu.Lock()
	l.live = true
	l.mu.Unlock()
	return nil
}

// DisableLive closes the live channel. Disabling while already disabled is
// a no-op.
func (l *Logs) DisableLive() {
	l.mu.Lock()
	if !l.live {
		l.mu.Unlock()
		return
	}
	l.live = false
	l.mu.Unlock()
	l.stream.Close()
}

// onEvent prepends a live event to the displayed page and trims the tail
// so the display keeps its size. An event already on screen (seen in a
// fetch or an earlier push) is dropped rather than shown twice.
func (l *Logs) onEvent(ev core.AttackLog) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.live {
		return
	}
	key := ev.Key()
	if l.seen[key] {
		return
	}
	l.seen[key] = true

	l.entries = append([]core.AttackLog{ev}, l.entries...)
	if int64(len(l.entries)) > l.perPage {
		for _, dropped := range l.entries[l.perPage:] {
			delete(l.seen, dropped.Key())
		}
		l.entries = l.entries[:l.perPage]
	}
}

// Live reports whether the live feed is currently enabled.
func (l *Logs) Live() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.live
}

// Close tears the screen down, closing the live channel.
func (l *Logs) Close() {
	l.DisableLive()
}
