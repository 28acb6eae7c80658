package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"minishield-dashboard/internal/config"
	"minishield-dashboard/internal/core"
	"minishield-dashboard/internal/gateway"
	"minishield-dashboard/internal/logger"
	"minishield-dashboard/internal/notify"
)

// domainsBackend fakes the domain and DNS endpoints with call counters so
// tests can assert on fetch behavior, not just results.
type domainsBackend struct {
	mu           sync.Mutex
	domains      []core.Domain
	records      map[string][]core.DNSRecord
	verify       core.VerifyResult
	listFetches  int
	recordFetches map[string]int
}

func newDomainsBackend() *domainsBackend {
	return &domainsBackend{
		records:       make(map[string][]core.DNSRecord),
		recordFetches: make(map[string]int),
	}
}

func (b *domainsBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/domains", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.listFetches++
		list := append([]core.Domain(nil), b.domains...)
		b.mu.Unlock()
		json.NewEncoder(w).Encode(list)
	})
	mux.HandleFunc("/api/domains/add", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Name string `json:"name"`
		}
		json.NewDecoder(r.Body).Decode(&in)
		d := core.Domain{
			ID:          "d-" + in.Name,
			Name:        in.Name,
			Status:      core.DomainStatusPending,
			Nameservers: []string{"ns1.minishield.io", "ns2.minishield.io"},
		}
		b.mu.Lock()
		b.domains = append(b.domains, d)
		b.mu.Unlock()
		json.NewEncoder(w).Encode(d)
	})
	mux.HandleFunc("/api/domains/verify", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		res := b.verify
		if res.Status == core.DomainStatusActive {
			id := r.URL.Query().Get("id")
			for i := range b.domains {
				if b.domains[i].ID == id {
					b.domains[i].Status = core.DomainStatusActive
				}
			}
		}
		b.mu.Unlock()
		json.NewEncoder(w).Encode(res)
	})
	mux.HandleFunc("/api/dns/records", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("domain_id")
		switch r.Method {
		case http.MethodGet:
			b.mu.Lock()
			b.recordFetches[id]++
			list := append([]core.DNSRecord(nil), b.records[id]...)
			b.mu.Unlock()
			json.NewEncoder(w).Encode(list)
		case http.MethodPost:
			var in core.DNSRecordInput
			json.NewDecoder(r.Body).Decode(&in)
			b.mu.Lock()
			b.records[in.DomainID] = append(b.records[in.DomainID], core.DNSRecord{
				ID:       "r-new",
				DomainID: in.DomainID,
				Name:     in.Name,
				Type:     in.Type,
				Content:  in.Content,
				TTL:      300,
			})
			b.mu.Unlock()
			io.WriteString(w, `{"status":"success","message":"Record created"}`)
		case http.MethodDelete:
			rid := r.URL.Query().Get("record_id")
			b.mu.Lock()
			kept := b.records[id][:0]
			for _, rec := range b.records[id] {
				if rec.ID != rid {
					kept = append(kept, rec)
				}
			}
			b.records[id] = kept
			b.mu.Unlock()
			io.WriteString(w, `{"status":"success","message":"Record deleted"}`)
		}
	})
	return mux
}

func (b *domainsBackend) listCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listFetches
}

func (b *domainsBackend) recordCount(id string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.recordFetches[id]
}

func newDomainsController(t *testing.T, b *domainsBackend, toasts notify.Notifier) (*Domains, func()) {
	t.Helper()
	srv := httptest.NewServer(b.handler())
	log := logger.NewWithWriter(io.Discard, "test")
	client := gateway.New(
		config.StaticResolver(srv.URL),
		gateway.NewCredentials(nil),
		notify.Discard{},
		log,
		5*time.Second,
	)
	return NewDomains(client, toasts, log), srv.Close
}

func TestAddDomainPrepends(t *testing.T) {
	b := newDomainsBackend()
	b.domains = []core.Domain{{ID: "d0", Name: "existing.com", Status: core.DomainStatusActive}}
	toasts := notify.NewBuffer(10)
	d, done := newDomainsController(t, b, toasts)
	defer done()
	ctx := context.Background()

	if err := d.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	created, err := d.Add(ctx, "new.example.com")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if created.Status != core.DomainStatusPending {
		t.Fatalf("new domain status = %q, want pending", created.Status)
	}

	list := d.Domains()
	if len(list) != 2 || list[0].Name != "new.example.com" {
		t.Fatalf("new domain must be prepended: %+v", list)
	}
	got := toasts.Drain()
	if len(got) != 1 || got[0].Message != "Domain added successfully!" {
		t.Fatalf("expected the add toast, got %+v", got)
	}
}

func TestAddDomainRejectsBadName(t *testing.T) {
	b := newDomainsBackend()
	d, done := newDomainsController(t, b, nil)
	defer done()

	if _, err := d.Add(context.Background(), "not a domain"); err == nil {
		t.Fatal("expected validation error")
	}
	if b.listCount() != 0 {
		t.Fatal("invalid name must not reach the backend")
	}
}

func TestVerifyActiveRefreshes(t *testing.T) {
	b := newDomainsBackend()
	b.domains = []core.Domain{{ID: "d1", Name: "example.com", Status: core.DomainStatusPending}}
	b.verify = core.VerifyResult{Status: core.DomainStatusActive, Message: "Verified"}
	toasts := notify.NewBuffer(10)
	d, done := newDomainsController(t, b, toasts)
	defer done()
	ctx := context.Background()

	if err := d.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	before := b.listCount()

	res, err := d.Verify(ctx, "d1")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Status != core.DomainStatusActive {
		t.Fatalf("status = %q", res.Status)
	}
	if b.listCount() != before+1 {
		t.Fatal("successful verification must refresh the list")
	}
	if list := d.Domains(); !list[0].Active() {
		t.Fatalf("refreshed list still pending: %+v", list)
	}
	got := toasts.Drain()
	if len(got) != 1 || got[0].Level != notify.LevelSuccess || got[0].Message != "Verified" {
		t.Fatalf("expected success toast \"Verified\", got %+v", got)
	}
}

func TestVerifyPendingLeavesStateAlone(t *testing.T) {
	b := newDomainsBackend()
	b.domains = []core.Domain{{ID: "d1", Name: "example.com", Status: core.DomainStatusPending}}
	b.verify = core.VerifyResult{
		Status:       core.DomainStatusPending,
		Message:      "Nameservers not yet propagated. Found: ns9.other.net",
		FoundRecords: []string{"ns9.other.net"},
	}
	toasts := notify.NewBuffer(10)
	d, done := newDomainsController(t, b, toasts)
	defer done()
	ctx := context.Background()

	if err := d.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	before := b.listCount()

	res, err := d.Verify(ctx, "d1")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if b.listCount() != before {
		t.Fatal("failed verification must not refresh the list")
	}
	if list := d.Domains(); list[0].Active() {
		t.Fatal("local state mutated on failed verification")
	}
	got := toasts.Drain()
	if len(got) != 1 || got[0].Level != notify.LevelError || got[0].Message != res.Message {
		t.Fatalf("backend message must be surfaced verbatim, got %+v", got)
	}
}

func TestRecordsFetchedOncePerSession(t *testing.T) {
	b := newDomainsBackend()
	b.domains = []core.Domain{{ID: "d1", Name: "example.com", Status: core.DomainStatusActive}}
	b.records["d1"] = []core.DNSRecord{{ID: "r1", DomainID: "d1", Type: "A", Content: "1.2.3.4"}}
	d, done := newDomainsController(t, b, nil)
	defer done()
	ctx := context.Background()

	if err := d.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	// Expand, collapse, expand again: one backend fetch.
	for i := 0; i < 3; i++ {
		recs, err := d.Records(ctx, "d1")
		if err != nil {
			t.Fatalf("Records %d: %v", i, err)
		}
		if len(recs) != 1 || recs[0].ID != "r1" {
			t.Fatalf("unexpected records: %+v", recs)
		}
	}
	if got := b.recordCount("d1"); got != 1 {
		t.Fatalf("records fetched %d times, want 1", got)
	}

	// Invalidate forces the next expansion to re-fetch.
	d.Invalidate("d1")
	if _, err := d.Records(ctx, "d1"); err != nil {
		t.Fatalf("Records after invalidate: %v", err)
	}
	if got := b.recordCount("d1"); got != 2 {
		t.Fatalf("invalidate must force a re-fetch, got %d fetches", got)
	}
}

func TestRecordsPendingDomainBlocked(t *testing.T) {
	b := newDomainsBackend()
	b.domains = []core.Domain{{ID: "d1", Name: "example.com", Status: core.DomainStatusPending}}
	d, done := newDomainsController(t, b, nil)
	defer done()
	ctx := context.Background()

	if err := d.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	_, err := d.Records(ctx, "d1")
	if err == nil || !strings.Contains(err.Error(), "pending") {
		t.Fatalf("expected pending-domain error, got %v", err)
	}
	if b.recordCount("d1") != 0 {
		t.Fatal("pending domain must not trigger a round trip")
	}

	if _, err := d.Records(ctx, "nope"); err == nil {
		t.Fatal("unknown domain must error")
	}
}

func TestAddRecordRefreshesCache(t *testing.T) {
	b := newDomainsBackend()
	b.domains = []core.Domain{{ID: "d1", Name: "example.com", Status: core.DomainStatusActive}}
	toasts := notify.NewBuffer(10)
	d, done := newDomainsController(t, b, toasts)
	defer done()
	ctx := context.Background()

	if err := d.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	err := d.AddRecord(ctx, core.DNSRecordInput{DomainID: "d1", Type: "A", Content: "5.6.7.8"})
	if err != nil {
		t.Fatalf("AddRecord: %v", err)
	}

	recs, err := d.Records(ctx, "d1")
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(recs) != 1 || recs[0].TTL != 300 {
		t.Fatalf("server-assigned fields missing from cache: %+v", recs)
	}
	// The post-add re-fetch filled the cache; Records must not fetch again.
	if got := b.recordCount("d1"); got != 1 {
		t.Fatalf("expected exactly the post-add fetch, got %d", got)
	}
	got := toasts.Drain()
	if len(got) != 1 || got[0].Message != "DNS record added" {
		t.Fatalf("expected the add toast, got %+v", got)
	}
}

func TestDeleteRecordDropsFromCache(t *testing.T) {
	b := newDomainsBackend()
	b.domains = []core.Domain{{ID: "d1", Name: "example.com", Status: core.DomainStatusActive}}
	b.records["d1"] = []core.DNSRecord{
		{ID: "r1", DomainID: "d1", Type: "A", Content: "1.2.3.4"},
		{ID: "r2", DomainID: "d1", Type: "TXT", Content: "v=spf1 -all"},
	}
	d, done := newDomainsController(t, b, nil)
	defer done()
	ctx := context.Background()

	if err := d.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if _, err := d.Records(ctx, "d1"); err != nil {
		t.Fatalf("Records: %v", err)
	}
	if err := d.DeleteRecord(ctx, "d1", "r1"); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}

	recs, err := d.Records(ctx, "d1")
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != "r2" {
		t.Fatalf("cache not updated in place: %+v", recs)
	}
	if got := b.recordCount("d1"); got != 1 {
		t.Fatalf("delete must not re-fetch, got %d fetches", got)
	}
}

func TestAddRecordRejectsBadInput(t *testing.T) {
	b := newDomainsBackend()
	d, done := newDomainsController(t, b, nil)
	defer done()

	err := d.AddRecord(context.Background(), core.DNSRecordInput{DomainID: "d1", Type: "A", Content: "not-an-ip"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if b.recordCount("d1") != 0 {
		t.Fatal("invalid record must not reach the backend")
	}
}
