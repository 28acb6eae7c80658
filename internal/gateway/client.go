// Package gateway is the single chokepoint for all traffic between the
// dashboard and the WAF backend. Every REST call goes through Client.do,
// which normalizes success and failure shapes so controllers never branch
// on transport details.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"minishield-dashboard/internal/config"
	"minishield-dashboard/internal/core"
	"minishield-dashboard/internal/logger"
	"minishield-dashboard/internal/notify"
)

// envelope is the gateway's standard response wrapper. Some endpoints
// answer raw JSON instead; do() tells the shapes apart by the status field.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func (e *envelope) isEnvelope() bool {
	return e.Status == "success" || e.Status == "error"
}

func (e *envelope) message() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// Client is the typed API gateway client.
type Client struct {
	httpClient *http.Client
	resolve    config.Resolver
	creds      *Credentials
	notifier   notify.Notifier
	log        *logger.Logger
}

// New builds a client. The resolver runs on every call, so the backend
// address may change mid-session without rebuilding the client.
func New(resolve config.Resolver, creds *Credentials, notifier notify.Notifier, log *logger.Logger, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if notifier == nil {
		notifier = notify.Discard{}
	}
	if log == nil {
		log = logger.New("gateway")
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		resolve:    resolve,
		creds:      creds,
		notifier:   notifier,
		log:        log,
	}
}

// Credentials exposes the session credential holder, e.g. for expiry
// introspection by the session store.
func (c *Client) Credentials() *Credentials { return c.creds }

// BaseURL returns the currently resolved backend address, empty when
// unconfigured. Display only; do() resolves again per call.
func (c *Client) BaseURL(ctx context.Context) string {
	return c.resolve(ctx)
}

// do issues one request and decodes the response into out (when non-nil).
//
// Outcomes, in order of precedence:
//   - no base address: ErrNotConfigured, nothing sent;
//   - transport failure: generic error, plus a user-visible notification;
//   - HTTP 401: ErrUnauthenticated, silent;
//   - non-2xx with a recognizable error body: *APIError, silent (the
//     caller owns the message);
//   - non-2xx otherwise: generic error plus notification;
//   - 2xx: out filled from the envelope data or the raw body.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	base := c.resolve(ctx)
	if base == "" {
		return ErrNotConfigured
	}

	var body io.Reader
	if in != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, base+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.creds.Token(ctx); token != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: token})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Errorf("%s %s failed: %v", method, path, err)
		c.notifier.Notify(notify.LevelError, "Something went wrong. Please try again.")
		return fmt.Errorf("calling %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.captureSession(ctx, resp)

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthenticated
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		c.notifier.Notify(notify.LevelError, "Something went wrong. Please try again.")
		return fmt.Errorf("reading response: %w", err)
	}

	var env envelope
	structured := len(payload) > 0 && json.Unmarshal(payload, &env) == nil

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if structured && (env.isEnvelope() || env.message() != "") {
			return &APIError{
				HTTPStatus: resp.StatusCode,
				Status:     env.Status,
				Message:    env.message(),
			}
		}
		c.log.Errorf("%s %s: unexpected HTTP %d", method, path, resp.StatusCode)
		c.notifier.Notify(notify.LevelError, "Something went wrong. Please try again.")
		return fmt.Errorf("%s %s: HTTP %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	// Enveloped success payloads carry the value under data; everything
	// else (arrays, paginated logs, verify results) is the body itself.
	if structured && env.isEnvelope() && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decoding response data: %w", err)
		}
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// captureSession persists the session cookie the gateway sets on login and
// drops it when the gateway expires it on logout.
func (c *Client) captureSession(ctx context.Context, resp *http.Response) {
	for _, ck := range resp.Cookies() {
		if ck.Name != sessionCookie {
			continue
		}
		if ck.Value == "" || (!ck.Expires.IsZero() && ck.Expires.Before(time.Now())) {
			c.creds.SetToken(ctx, "")
		} else {
			c.creds.SetToken(ctx, ck.Value)
		}
	}
}

// --- Auth ---

func (c *Client) Register(ctx context.Context, in core.Credentials) error {
	return c.do(ctx, http.MethodPost, "/api/auth/register", in, nil)
}

func (c *Client) Login(ctx context.Context, email, password string) (*core.LoginResult, error) {
	in := core.Credentials{Email: email, Password: password}
	var out core.LoginResult
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckAuth resolves the current session. ErrUnauthenticated means there
// is none, which is a normal outcome for a fresh start.
func (c *Client) CheckAuth(ctx context.Context) (*core.AuthCheck, error) {
	var out core.AuthCheck
	if err := c.do(ctx, http.MethodGet, "/api/auth/check", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	// The session is gone locally regardless of what the gateway said.
	c.creds.SetToken(ctx, "")
	return err
}

// --- System status ---

func (c *Client) SystemStatus(ctx context.Context) (*core.SystemStatus, error) {
	var out core.SystemStatus
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Domains ---

func (c *Client) Domains(ctx context.Context) ([]core.Domain, error) {
	var out []core.Domain
	if err := c.do(ctx, http.MethodGet, "/api/domains", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddDomain(ctx context.Context, name string) (*core.Domain, error) {
	in := map[string]string{"name": name}
	var out core.Domain
	if err := c.do(ctx, http.MethodPost, "/api/domains/add", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VerifyDomain(ctx context.Context, domainID string) (*core.VerifyResult, error) {
	path := "/api/domains/verify?id=" + url.QueryEscape(domainID)
	var out core.VerifyResult
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- DNS records ---

func (c *Client) DNSRecords(ctx context.Context, domainID string) ([]core.DNSRecord, error) {
	path := "/api/dns/records?domain_id=" + url.QueryEscape(domainID)
	var out []core.DNSRecord
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddDNSRecord(ctx context.Context, in core.DNSRecordInput) error {
	return c.do(ctx, http.MethodPost, "/api/dns/records", in, nil)
}

func (c *Client) DeleteDNSRecord(ctx context.Context, domainID, recordID string) error {
	q := url.Values{}
	q.Set("domain_id", domainID)
	q.Set("record_id", recordID)
	return c.do(ctx, http.MethodDelete, "/api/dns/records?"+q.Encode(), nil, nil)
}

// --- Rules ---

func (c *Client) GlobalRules(ctx context.Context, domainID string) ([]core.Rule, error) {
	return c.rules(ctx, "/api/rules/global", domainID)
}

func (c *Client) CustomRules(ctx context.Context, domainID string) ([]core.Rule, error) {
	return c.rules(ctx, "/api/rules/custom", domainID)
}

func (c *Client) rules(ctx context.Context, path, domainID string) ([]core.Rule, error) {
	if domainID != "" {
		path += "?domain_id=" + url.QueryEscape(domainID)
	}
	var out []core.Rule
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddCustomRule(ctx context.Context, in core.RuleInput) error {
	if err := in.Validate(); err != nil {
		return &APIError{HTTPStatus: http.StatusBadRequest, Status: "error", Message: err.Error()}
	}
	return c.do(ctx, http.MethodPost, "/api/rules/custom/add", in, nil)
}

func (c *Client) DeleteCustomRule(ctx context.Context, ruleID string) error {
	path := "/api/rules/custom/delete?id=" + url.QueryEscape(ruleID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) ToggleRule(ctx context.Context, in core.ToggleInput) error {
	return c.do(ctx, http.MethodPost, "/api/rules/toggle", in, nil)
}

// --- Logs ---

// LogsQuery is the filter/pagination set for GET /api/logs/secure. Zero
// values are omitted from the request entirely.
type LogsQuery struct {
	Page          int64
	Limit         int64
	DomainID      string
	IP            string
	Action        string
	Source        string
	Path          string
	MinScore      int
	MinConfidence float64
}

// Values encodes only the populated filters.
func (q LogsQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.FormatInt(q.Page, 10))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.FormatInt(q.Limit, 10))
	}
	if q.DomainID != "" {
		v.Set("domain_id", q.DomainID)
	}
	if q.IP != "" {
		v.Set("ip", q.IP)
	}
	if q.Action != "" {
		v.Set("action", q.Action)
	}
	if q.Source != "" {
		v.Set("source", q.Source)
	}
	if q.Path != "" {
		v.Set("path", q.Path)
	}
	if q.MinScore > 0 {
		v.Set("min_score", strconv.Itoa(q.MinScore))
	}
	if q.MinConfidence > 0 {
		v.Set("min_confidence", strconv.FormatFloat(q.MinConfidence, 'f', -1, 64))
	}
	return v
}

func (c *Client) Logs(ctx context.Context, q LogsQuery) (*core.LogPage, error) {
	path := "/api/logs/secure"
	if enc := q.Values().Encode(); enc != "" {
		path += "?" + enc
	}
	var out core.LogPage
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// streamURL builds the SSE endpoint address for the live channel.
func (c *Client) streamURL(ctx context.Context) (string, error) {
	base := c.resolve(ctx)
	if base == "" {
		return "", ErrNotConfigured
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return "", fmt.Errorf("invalid backend address %q", base)
	}
	return base + "/api/stream", nil
}
