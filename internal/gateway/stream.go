package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"minishield-dashboard/internal/core"
	"minishield-dashboard/internal/logger"
)

// EventSink receives live attack events in arrival order.
type EventSink func(core.AttackLog)

// Stream maintains the single long-lived server-push connection to
// GET /api/stream. At most one connection is open at a time; a failed
// connection closes itself and stays closed until Open is called again.
type Stream struct {
	client *Client
	http   *http.Client
	log    *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	open   bool
}

// NewStream builds the live channel on top of the gateway client's address
// resolver and credentials. The stream's own HTTP client carries no
// timeout; the connection is meant to stay up.
func NewStream(client *Client, log *logger.Logger) *Stream {
	if log == nil {
		log = logger.New("stream")
	}
	return &Stream{
		client: client,
		http:   &http.Client{},
		log:    log,
	}
}

// Open starts the connection and delivers events to sink until the
// transport fails or Close is called. Calling Open while the stream is
// already open is a no-op.
func (s *Stream) Open(ctx context.Context, sink EventSink) error {
	s.mu.Lock()
	if s.open {
		s.mu.Unlock()
		return nil
	}

	streamURL, err := s.client.streamURL(ctx)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		cancel()
		s.mu.Unlock()
		return fmt.Errorf("building stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if token := s.client.creds.Token(ctx); token != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: token})
	}

	resp, err := s.http.Do(req)
	if err != nil {
		cancel()
		s.mu.Unlock()
		return fmt.Errorf("opening stream: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		cancel()
		s.mu.Unlock()
		return ErrUnauthenticated
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		s.mu.Unlock()
		return fmt.Errorf("opening stream: HTTP %d", resp.StatusCode)
	}

	s.cancel = cancel
	s.open = true
	s.mu.Unlock()

	go s.consume(resp, sink)
	return nil
}

// consume reads SSE frames until the connection dies. No reconnects here:
// re-opening after a failure is the caller's decision.
func (s *Stream) consume(resp *http.Response, sink EventSink) {
	defer resp.Body.Close()
	defer s.markClosed()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()

		// Blank line terminates one SSE frame.
		if line == "" {
			if data.Len() > 0 {
				s.dispatch(data.String(), sink)
				data.Reset()
			}
			continue
		}
		if strings.HasPrefix(line, "data:") {
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
		// Comment and id/event fields are ignored; the gateway only
		// sends data frames.
	}

	if err := scanner.Err(); err != nil && !errIsCanceled(err) {
		s.log.Errorf("stream connection lost: %v", err)
	}
}

func (s *Stream) dispatch(payload string, sink EventSink) {
	var ev core.AttackLog
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		s.log.Warnf("discarding malformed stream payload: %v", err)
		return
	}
	sink(ev)
}

func (s *Stream) markClosed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.open = false
}

// Close tears the connection down. Safe to call any number of times.
func (s *Stream) Close() {
	s.markClosed()
}

// Active reports whether a connection is currently open.
func (s *Stream) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func errIsCanceled(err error) bool {
	return err == context.Canceled || strings.Contains(err.Error(), "context canceled") ||
		strings.Contains(err.Error(), "use of closed network connection")
}
