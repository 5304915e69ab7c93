package ecsprojectionclient

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Event is one decoded projection result: Status is "loading", "ok",
// or "error"; Value holds Ok's raw payload, left undecoded since the
// client does not know the projection's result type statically — call
// Decode to unmarshal it into one.
type Event struct {
	Status string          `json:"status"`
	Value  json.RawMessage `json:"value,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func (e Event) IsOk() bool      { return e.Status == "ok" }
func (e Event) IsError() bool   { return e.Status == "error" }
func (e Event) IsLoading() bool { return e.Status == "loading" }

// Decode unmarshals an Ok event's Value into v.
func (e Event) Decode(v any) error {
	if !e.IsOk() {
		return fmt.Errorf("ecsprojectionclient: event is %q, not ok", e.Status)
	}
	return json.Unmarshal(e.Value, v)
}

// Client wraps an *http.Client bound to a projection server's base URL.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient builds a Client for the server at baseURL (e.g.
// "http://127.0.0.1:9090"). Pass nil for httpClient to use
// http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Stream connects to projection name's stream and returns a channel of
// decoded events. The channel closes when ctx is canceled, the
// connection ends, or a line fails to decode as an Event; no Event
// reports the read or decode error.
func (c *Client) Stream(ctx context.Context, name string) (<-chan Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/projections/"+name+"/stream", nil)
	if err != nil {
		return nil, fmt.Errorf("ecsprojectionclient: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ecsprojectionclient: connect: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("ecsprojectionclient: server returned %s", resp.Status)
	}

	ch := make(chan Event)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var ev Event
			if err := json.Unmarshal(line, &ev); err != nil {
				return
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}
