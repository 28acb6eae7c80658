package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"minishield-dashboard/internal/app"
	"minishield-dashboard/internal/config"
	"minishield-dashboard/internal/controller"
	"minishield-dashboard/internal/core"
	"minishield-dashboard/internal/gateway"
	"minishield-dashboard/internal/logger"
	"minishield-dashboard/internal/notify"
	"minishield-dashboard/internal/session"
)

// newTestServer wires a facade against a fake upstream, skipping the
// settings store since no test here persists anything.
func newTestServer(t *testing.T, upstreamURL string) (*Server, *notify.Buffer) {
	t.Helper()
	log := logger.NewWithWriter(io.Discard, "test")
	toasts := notify.NewBuffer(50)
	notifier := notify.NewSwitchable(toasts)
	client := gateway.New(
		config.StaticResolver(upstreamURL),
		gateway.NewCredentials(nil),
		notifier,
		log,
		5*time.Second,
	)
	stream := gateway.NewStream(client, log)
	a := &app.App{
		Config:   &config.Config{},
		Client:   client,
		Stream:   stream,
		Session:  session.NewStore(),
		Notifier: notifier,
		Log:      log,
		Domains:  controller.NewDomains(client, notifier, log),
		Rules:    controller.NewRules(client, notifier, log),
		Logs:     controller.NewLogs(client, stream, notifier, log),
		Status:   controller.NewStatus(client),
	}
	t.Cleanup(func() {
		a.Logs.Close()
		a.Stream.Close()
	})
	return NewServer(a, toasts, log), toasts
}

func decodeEnvelope(t *testing.T, body io.Reader) response {
	t.Helper()
	var env response
	if err := json.NewDecoder(body).Decode(&env); err != nil {
		t.Fatalf("decoding facade response: %v", err)
	}
	return env
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, "")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec.Body); env.Status != "success" {
		t.Fatalf("unexpected body: %+v", env)
	}
}

func TestNotConfiguredIsServiceUnavailable(t *testing.T) {
	s, _ := newTestServer(t, "")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/domains", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	env := decodeEnvelope(t, rec.Body)
	if env.Status != "error" || !strings.Contains(env.Message, "not configured") {
		t.Fatalf("unexpected body: %+v", env)
	}
}

func TestListDomains(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/domains" {
			t.Errorf("unexpected upstream path %s", r.URL.Path)
		}
		io.WriteString(w, `[{"id":"d1","name":"example.com","status":"active"}]`)
	}))
	defer upstream.Close()

	s, _ := newTestServer(t, upstream.URL)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/domains", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	var env struct {
		Status string        `json:"status"`
		Data   []core.Domain `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if env.Status != "success" || len(env.Data) != 1 || env.Data[0].ID != "d1" {
		t.Fatalf("unexpected body: %+v", env)
	}
}

func TestUnauthenticatedSessionSurfaces401(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer upstream.Close()

	s, _ := newTestServer(t, upstream.URL)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rules", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestSessionRefreshWithoutToken(t *testing.T) {
	// No stored token resolves straight to unauthenticated without a
	// round trip, so the facade answers even with a dead upstream.
	s, _ := newTestServer(t, "http://127.0.0.1:1")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	var env struct {
		Data struct {
			State         string `json:"state"`
			Authenticated bool   `json:"authenticated"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if env.Data.State != "unauthenticated" || env.Data.Authenticated {
		t.Fatalf("unexpected session: %+v", env.Data)
	}
}

func TestStructuredUpstreamErrorKeepsMessage(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		io.WriteString(w, `{"status":"error","message":"Domain already exists"}`)
	}))
	defer upstream.Close()

	s, _ := newTestServer(t, upstream.URL)
	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"name":"example.com"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/domains", body)
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	env := decodeEnvelope(t, rec.Body)
	if env.Message != "Domain already exists" {
		t.Fatalf("upstream message lost: %+v", env)
	}
}

func TestNotificationsDrain(t *testing.T) {
	s, toasts := newTestServer(t, "")
	toasts.Notify(notify.LevelSuccess, "Domain added successfully!")

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notifications", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var env struct {
		Data []notify.Notification `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(env.Data) != 1 || env.Data[0].Message != "Domain added successfully!" {
		t.Fatalf("unexpected notifications: %+v", env.Data)
	}

	// Second poll finds an empty buffer.
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notifications", nil))
	var again struct {
		Data []notify.Notification `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&again); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(again.Data) != 0 {
		t.Fatalf("drain must clear the buffer, got %+v", again.Data)
	}
}

func TestMetricsExposed(t *testing.T) {
	s, _ := newTestServer(t, "")
	// One request to have something counted.
	s.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "minishield_dashboard_http_requests_total") {
		t.Fatal("request counter missing from exposition")
	}
}

func TestParseLogQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr bool
		check   func(t *testing.T, f controller.LogFilters, page, perPage int64)
	}{
		{
			name:  "empty",
			query: "",
			check: func(t *testing.T, f controller.LogFilters, page, perPage int64) {
				if f != (controller.LogFilters{}) || page != 0 || perPage != 0 {
					t.Errorf("empty query must parse to zero values: %+v %d %d", f, page, perPage)
				}
			},
		},
		{
			name:  "full set",
			query: "ip=1.2.3.4&action=Blocked&source=ML+Engine&path=/admin&min_score=40&min_confidence=0.8&page=2&limit=25",
			check: func(t *testing.T, f controller.LogFilters, page, perPage int64) {
				if f.IP != "1.2.3.4" || f.Action != core.ActionBlocked || f.Source != core.SourceMLEngine {
					t.Errorf("filters wrong: %+v", f)
				}
				if f.MinScore != 40 || f.MinConfidence != 0.8 || page != 2 || perPage != 25 {
					t.Errorf("numeric filters wrong: %+v %d %d", f, page, perPage)
				}
			},
		},
		{name: "bad action", query: "action=exploded", wantErr: true},
		{name: "bad source", query: "source=Oracle", wantErr: true},
		{name: "score too high", query: "min_score=101", wantErr: true},
		{name: "confidence too high", query: "min_confidence=1.5", wantErr: true},
		{name: "zero page", query: "page=0", wantErr: true},
		{name: "negative limit", query: "limit=-5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("bad test query: %v", err)
			}
			f, page, perPage, err := parseLogQuery(q)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.check != nil {
				tt.check(t, f, page, perPage)
			}
		})
	}
}
