package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fruitsalade/fruitshell/internal/logging"
	"github.com/fruitsalade/fruitshell/pkg/protocol"
)

// SSEClient subscribes to server change events.
type SSEClient struct {
	baseURL      string
	httpClient   *http.Client
	reconnectMin time.Duration
	reconnectMax time.Duration

	mu        sync.RWMutex
	authToken string
}

// NewSSEClient creates a new SSE client.
func NewSSEClient(baseURL string) *SSEClient {
	return &SSEClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 0, // no timeout for the event stream
		},
		reconnectMin: 1 * time.Second,
		reconnectMax: 30 * time.Second,
	}
}

// SetAuthToken sets the JWT auth token for SSE requests.
func (c *SSEClient) SetAuthToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authToken = token
}

// Subscribe connects to the events endpoint and returns a channel of
// events. The channel closes when ctx is cancelled.
func (c *SSEClient) Subscribe(ctx context.Context) <-chan protocol.SSEEvent {
	events := make(chan protocol.SSEEvent, 100)
	go c.subscribeLoop(ctx, events)
	return events
}

func (c *SSEClient) subscribeLoop(ctx context.Context, events chan<- protocol.SSEEvent) {
	defer close(events)

	reconnectDelay := c.reconnectMin

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		err := c.connect(ctx, events)
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			logging.Warn("event stream error",
				logging.Err(err), logging.Duration("reconnect_in", reconnectDelay))

			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectDelay):
			}

			reconnectDelay *= 2
			if reconnectDelay > c.reconnectMax {
				reconnectDelay = c.reconnectMax
			}
			continue
		}

		reconnectDelay = c.reconnectMin
	}
}

func (c *SSEClient) connect(ctx context.Context, events chan<- protocol.SSEEvent) error {
	url := c.baseURL + "/api/v1/events"

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	c.mu.RLock()
	token := c.authToken
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	logging.Debug("event stream connected", logging.String("url", url))

	scanner := bufio.NewScanner(resp.Body)
	var eventType string
	var data string

	for scanner.Scan() {
		line := scanner.Text()

		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if line == "" {
			if data != "" {
				var event protocol.SSEEvent
				json.Unmarshal([]byte(data), &event)
				if event.Type == "" {
					event.Type = eventType
				}

				select {
				case events <- event:
				default:
					logging.Debug("event dropped, channel full")
				}
			}
			eventType = ""
			data = ""
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		if strings.HasPrefix(line, "event:") {
			eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		} else if strings.HasPrefix(line, "data:") {
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read: %w", err)
	}

	return fmt.Errorf("connection closed")
}
