package alexa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	domain "alexa-smarthome-bridge/internal/domain/alexa"
	"alexa-smarthome-bridge/internal/ports"
)

// DefaultEventsURL is the Alexa event gateway for North America. Europe
// uses api.eu.amazonalexa.com and the Far East api.fe.amazonalexa.com.
const DefaultEventsURL = "https://api.amazonalexa.com/v3/events"

// Client posts proactive events to the Alexa event gateway.
type Client struct {
	url        string
	httpClient *http.Client
	mu         sync.RWMutex
}

func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{httpClient: &http.Client{Timeout: timeout}}
	c.Configure(url)
	return c
}

func (c *Client) Configure(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if url == "" {
		url = DefaultEventsURL
	}
	c.url = strings.TrimSuffix(url, "/")
}

// Send posts msg with the given access token. The gateway answers 202 on
// success; 401 and 403 are reported as ports.ErrUnauthorized.
func (c *Client) Send(ctx context.Context, accessToken string, msg domain.Message) error {
	c.mu.RLock()
	url := c.url
	c.mu.RUnlock()

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: event gateway returned %d", ports.ErrUnauthorized, resp.StatusCode)
	}
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("event gateway error: %d %s", resp.StatusCode, strings.TrimSpace(string(detail)))
}
