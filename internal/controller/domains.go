package controller

import (
	"context"
	"fmt"
	"sync"

	"minishield-dashboard/internal/core"
	"minishield-dashboard/internal/gateway"
	"minishield-dashboard/internal/logger"
	"minishield-dashboard/internal/notify"
)

// Domains drives the domain screen: the server-ordered domain list plus a
// per-domain DNS record cache filled lazily on first expansion.
type Domains struct {
	client   *gateway.Client
	notifier notify.Notifier
	log      *logger.Logger

	mu      sync.Mutex
	domains []core.Domain
	records map[string][]core.DNSRecord

	seq    uint64
	latest uint64
}

func NewDomains(client *gateway.Client, notifier notify.Notifier, log *logger.Logger) *Domains {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	if log == nil {
		log = logger.New("domains")
	}
	return &Domains{
		client:   client,
		notifier: notifier,
		log:      log,
		records:  make(map[string][]core.DNSRecord),
	}
}

// Domains returns a copy of the current list, in server order except for
// client-side prepends from Add.
func (d *Domains) Domains() []core.Domain {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]core.Domain, len(d.domains))
	copy(out, d.domains)
	return out
}

// Refresh re-fetches the domain list. Stale responses are discarded.
func (d *Domains) Refresh(ctx context.Context) error {
	d.mu.Lock()
	d.seq++
	token := d.seq
	d.latest = token
	d.mu.Unlock()

	list, err := d.client.Domains(ctx)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if token != d.latest {
		return nil
	}
	d.domains = list
	return nil
}

// Add submits a new domain. On success the created domain (which starts in
// pending_verification) is prepended to the in-memory list.
func (d *Domains) Add(ctx context.Context, name string) (*core.Domain, error) {
	if err := core.ValidateDomainName(name); err != nil {
		return nil, err
	}

	created, err := d.client.AddDomain(ctx, name)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.domains = append([]core.Domain{*created}, d.domains...)
	d.mu.Unlock()

	d.notifier.Notify(notify.LevelSuccess, "Domain added successfully!")
	return created, nil
}

// Verify triggers the nameserver verification check. When the check
// resolves the domain to active, the whole list is refreshed to pick up
// updated status and nameserver data; otherwise the backend's message is
// surfaced verbatim and local state is left alone.
func (d *Domains) Verify(ctx context.Context, domainID string) (*core.VerifyResult, error) {
	res, err := d.client.VerifyDomain(ctx, domainID)
	if err != nil {
		return nil, err
	}

	if res.Status == core.DomainStatusActive {
		d.notifier.Notify(notify.LevelSuccess, res.Message)
		if err := d.Refresh(ctx); err != nil {
			d.log.Errorf("refreshing domains after verification: %v", err)
		}
	} else {
		d.notifier.Notify(notify.LevelError, res.Message)
	}
	return res, nil
}

// Records returns the DNS records for a domain, fetching them on first use
// and serving the cached list afterwards. Record editing is only legal on
// active domains; pending ones fail here without a round trip.
func (d *Domains) Records(ctx context.Context, domainID string) ([]core.DNSRecord, error) {
	domain, ok := d.domain(domainID)
	if !ok {
		return nil, fmt.Errorf("unknown domain %q", domainID)
	}
	if !domain.Active() {
		return nil, fmt.Errorf("domain %s is pending verification", domain.Name)
	}

	d.mu.Lock()
	cached, ok := d.records[domainID]
	d.mu.Unlock()
	if ok {
		return copyRecords(cached), nil
	}

	return d.fetchRecords(ctx, domainID)
}

func (d *Domains) fetchRecords(ctx context.Context, domainID string) ([]core.DNSRecord, error) {
	list, err := d.client.DNSRecords(ctx, domainID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []core.DNSRecord{}
	}

	d.mu.Lock()
	d.records[domainID] = list
	d.mu.Unlock()
	return copyRecords(list), nil
}

// AddRecord creates a record and re-fetches that domain's list so
// server-assigned defaults (TTL, record id) land in the cache.
func (d *Domains) AddRecord(ctx context.Context, in core.DNSRecordInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	if in.Name == "" {
		in.Name = "@"
	}

	if err := d.client.AddDNSRecord(ctx, in); err != nil {
		return err
	}

	if _, err := d.fetchRecords(ctx, in.DomainID); err != nil {
		d.log.Errorf("refreshing records for %s: %v", in.DomainID, err)
	}
	d.notifier.Notify(notify.LevelSuccess, "DNS record added")
	return nil
}

// DeleteRecord removes a record and drops it from the cached list in
// place; no full re-fetch is needed for a delete.
func (d *Domains) DeleteRecord(ctx context.Context, domainID, recordID string) error {
	if err := d.client.DeleteDNSRecord(ctx, domainID, recordID); err != nil {
		return err
	}

	d.mu.Lock()
	if cached, ok := d.records[domainID]; ok {
		kept := cached[:0]
		for _, r := range cached {
			if r.ID != recordID {
				kept = append(kept, r)
			}
		}
		d.records[domainID] = kept
	}
	d.mu.Unlock()

	d.notifier.Notify(notify.LevelSuccess, "DNS record deleted")
	return nil
}

// Invalidate drops the cached record list for a domain so the next
// expansion re-fetches it.
func (d *Domains) Invalidate(domainID string) {
	d.mu.Lock()
	delete(d.records, domainID)
	d.mu.Unlock()
}

func (d *Domains) domain(id string) (core.Domain, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, dom := range d.domains {
		if dom.ID == id {
			return dom, true
		}
	}
	return core.Domain{}, false
}

func copyRecords(in []core.DNSRecord) []core.DNSRecord {
	out := make([]core.DNSRecord, len(in))
	copy(out, in)
	return out
}
