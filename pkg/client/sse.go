package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/samsirama/windows-explorer-clone/internal/logging"
	"github.com/samsirama/windows-explorer-clone/pkg/protocol"
)

// Watcher follows the node change stream at GET /folders/events and
// reconnects with backoff when the stream drops.
type Watcher struct {
	baseURL      string
	httpClient   *http.Client
	reconnectMin time.Duration
	reconnectMax time.Duration
}

// NewWatcher creates a watcher for the server at baseURL.
func NewWatcher(baseURL string) *Watcher {
	return &Watcher{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 0, // No timeout for SSE
		},
		reconnectMin: 1 * time.Second,
		reconnectMax: 30 * time.Second,
	}
}

// Subscribe connects to the stream and returns a channel of events.
// Both channels close when ctx is done.
func (w *Watcher) Subscribe(ctx context.Context) (<-chan protocol.NodeEvent, <-chan error) {
	events := make(chan protocol.NodeEvent, 100)
	errs := make(chan error, 1)

	go w.subscribeLoop(ctx, events, errs)

	return events, errs
}

func (w *Watcher) subscribeLoop(ctx context.Context, events chan<- protocol.NodeEvent, errs chan<- error) {
	defer close(events)
	defer close(errs)

	reconnectDelay := w.reconnectMin

	for {
		err := w.connect(ctx, events)
		if ctx.Err() != nil {
			return
		}

		logging.Warn("event stream error, reconnecting",
			logging.Err(err),
			logging.Duration("delay", reconnectDelay))
		select {
		case errs <- err:
		default:
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}

		reconnectDelay *= 2
		if reconnectDelay > w.reconnectMax {
			reconnectDelay = w.reconnectMax
		}
	}
}

func (w *Watcher) connect(ctx context.Context, events chan<- protocol.NodeEvent) error {
	url := w.baseURL + "/folders/events"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode}
	}

	logging.Debug("event stream connected", logging.String("url", url))

	scanner := bufio.NewScanner(resp.Body)
	var eventType, data string

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			if data != "" {
				var event protocol.NodeEvent
				if err := json.Unmarshal([]byte(data), &event); err == nil {
					if event.Type == "" {
						event.Type = eventType
					}
					select {
					case events <- event:
					case <-ctx.Done():
						return ctx.Err()
					}
				}
			}
			eventType, data = "", ""
			continue
		}

		switch {
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read: %w", err)
	}
	return fmt.Errorf("connection closed")
}
