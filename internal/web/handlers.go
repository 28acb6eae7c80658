package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"minishield-dashboard/internal/core"
	"minishield-dashboard/internal/gateway"
)

// writeGatewayError maps the client error taxonomy onto facade responses.
// 401 stays a quiet "no session"; structured backend errors keep their
// message; everything else is a generic upstream failure.
func (s *Server) writeGatewayError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gateway.ErrNotConfigured):
		writeError(w, "Backend address not configured. Set it with `dashboard config set api-url <url>`.", http.StatusServiceUnavailable)
	case errors.Is(err, gateway.ErrUnauthenticated):
		writeError(w, "Not logged in", http.StatusUnauthorized)
	default:
		if apiErr, ok := gateway.AsAPIError(err); ok {
			code := apiErr.HTTPStatus
			if code < 400 {
				code = http.StatusBadGateway
			}
			writeError(w, apiErr.Message, code)
			return
		}
		s.log.Errorf("upstream failure: %v", err)
		writeError(w, "Upstream request failed", http.StatusBadGateway)
	}
}

// --- Session ---

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Session.Refresh(r.Context(), s.app.Client); err != nil {
		s.writeGatewayError(w, err)
		return
	}
	writeSuccess(w, map[string]any{
		"state":         s.app.Session.State().String(),
		"authenticated": s.app.Session.State().String() == "authenticated",
		"user":          s.app.Session.User(),
	}, http.StatusOK)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in core.Credentials
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, "Invalid input", http.StatusBadRequest)
		return
	}
	res, err := s.app.Session.Login(r.Context(), s.app.Client, in.Email, in.Password)
	if err != nil {
		s.writeGatewayError(w, err)
		return
	}
	writeSuccess(w, map[string]any{"message": res.Message, "user": res.User}, http.StatusOK)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Session.Logout(r.Context(), s.app.Client); err != nil {
		s.writeGatewayError(w, err)
		return
	}
	writeMessage(w, "Logged out", http.StatusOK)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in core.Credentials
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, "Invalid input", http.StatusBadRequest)
		return
	}
	if err := s.app.Client.Register(r.Context(), in); err != nil {
		s.app.Session.SetUnauthenticated()
		s.writeGatewayError(w, err)
		return
	}
	writeMessage(w, "User registered successfully", http.StatusCreated)
}

// --- Config ---

func (s *Server) getConfig(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, map[string]any{
		"api_url":    s.app.Client.BaseURL(r.Context()),
		"configured": s.app.Client.BaseURL(r.Context()) != "",
	}, http.StatusOK)
}

func (s *Server) setConfig(w http.ResponseWriter, r *http.Request) {
	var in struct {
		APIURL string `json:"api_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.APIURL == "" {
		writeError(w, "api_url is required", http.StatusBadRequest)
		return
	}
	if err := s.app.SetAPIURL(r.Context(), in.APIURL); err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeMessage(w, "Backend address saved", http.StatusOK)
}

// --- Status ---

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.app.Status.Fetch(r.Context())
	if err != nil {
		s.writeGatewayError(w, err)
		return
	}
	writeSuccess(w, status, http.StatusOK)
}

// --- Domains & DNS ---

func (s *Server) listDomains(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Domains.Refresh(r.Context()); err != nil {
		s.writeGatewayError(w, err)
		return
	}
	writeSuccess(w, s.app.Domains.Domains(), http.StatusOK)
}

func (s *Server) addDomain(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, "Invalid input", http.StatusBadRequest)
		return
	}
	created, err := s.app.Domains.Add(r.Context(), in.Name)
	if err != nil {
		s.writeGatewayError(w, err)
		return
	}
	writeSuccess(w, created, http.StatusCreated)
}

func (s *Server) verifyDomain(w http.ResponseWriter, r *http.Request) {
	res, err := s.app.Domains.Verify(r.Context(), chi.URLParam(r, "domainID"))
	if err != nil {
		s.writeGatewayError(w, err)
		return
	}
	writeSuccess(w, res, http.StatusOK)
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.app.Domains.Records(r.Context(), chi.URLParam(r, "domainID"))
	if err != nil {
		s.writeGatewayError(w, err)
		return
	}
	writeSuccess(w, records, http.StatusOK)
}

func (s *Server) addRecord(w http.ResponseWriter, r *http.Request) {
	var in core.DNSRecordInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, "Invalid input", http.StatusBadRequest)
		return
	}
	in.DomainID = chi.URLParam(r, "domainID")
	if err := s.app.Domains.AddRecord(r.Context(), in); err != nil {
		s.writeGatewayError(w, err)
		return
	}
	writeMessage(w, "DNS record added", http.StatusCreated)
}

func (s *Server) deleteRecord(w http.ResponseWriter, r *http.Request) {
	err := s.app.Domains.DeleteRecord(r.Context(), chi.URLParam(r, "domainID"), chi.URLParam(r, "recordID"))
	if err != nil {
		s.writeGatewayError(w, err)
		return
	}
	writeMessage(w, "DNS record deleted", http.StatusOK)
}

// --- Rules ---

func (s *Server) listRules(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Rules.Refresh(r.Context(), r.URL.Query().Get("domain_id")); err != nil {
		s.writeGatewayError(w, err)
		return
	}
	writeSuccess(w, map[string]any{
		"global": s.app.Rules.Global(),
		"custom": s.app.Rules.Custom(),
	}, http.StatusOK)
}

func (s *Server) addRule(w http.ResponseWriter, r *http.Request) {
	var in core.RuleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, "Invalid input", http.StatusBadRequest)
		return
	}
	if err := s.app.Rules.AddCustom(r.Context(), in); err != nil {
		s.writeGatewayError(w, err)
		return
	}
	writeMessage(w, "Rule added", http.StatusCreated)
}

func (s *Server) deleteRule(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Rules.DeleteCustom(r.Context(), chi.URLParam(r, "ruleID")); err != nil {
		s.writeGatewayError(w, err)
		return
	}
	writeMessage(w, "Rule deleted", http.StatusOK)
}

func (s *Server) toggleRule(w http.ResponseWriter, r *http.Request) {
	var in core.ToggleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.RuleID == "" {
		writeError(w, "Rule ID required", http.StatusBadRequest)
		return
	}
	if err := s.app.Rules.Toggle(r.Context(), in); err != nil {
		s.writeGatewayError(w, err)
		return
	}
	writeMessage(w, "Rule updated", http.StatusOK)
}

// --- Logs ---

func (s *Server) getLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters, page, perPage, err := parseLogQuery(q)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if perPage > 0 {
		_ = s.app.Logs.SetPerPage(r.Context(), perPage)
	}
	if err := s.app.Logs.SetFilters(r.Context(), filters); err != nil {
		s.writeGatewayError(w, err)
		return
	}
	if page > 1 {
		if err := s.app.Logs.SetPage(r.Context(), page); err != nil {
			s.writeGatewayError(w, err)
			return
		}
	}

	snap := s.app.Logs.Snapshot()
	writeSuccess(w, map[string]any{
		"data":       snap.Entries,
		"pagination": snap.Pagination,
		"live":       snap.Live,
	}, http.StatusOK)
}

// streamLogs relays the live attack feed to the browser as SSE. Each
// connected client gets its own upstream channel; closing the request
// closes it.
func (s *Server) streamLogs(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	events := make(chan core.AttackLog, 100)
	relay := gateway.NewStream(s.app.Client, s.log.WithPrefix("relay"))
	err := relay.Open(r.Context(), func(ev core.AttackLog) {
		select {
		case events <- ev:
		default:
			// Slow consumer; drop rather than stall the channel.
		}
	})
	if err != nil {
		s.writeGatewayError(w, err)
		return
	}
	defer relay.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	for {
		select {
		case ev := <-events:
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
			s.metrics.streamEvents.Inc()
		case <-r.Context().Done():
			return
		}
	}
}

// --- Notifications ---

func (s *Server) getNotifications(w http.ResponseWriter, _ *http.Request) {
	if s.toasts == nil {
		writeSuccess(w, []any{}, http.StatusOK)
		return
	}
	writeSuccess(w, s.toasts.Drain(), http.StatusOK)
}
