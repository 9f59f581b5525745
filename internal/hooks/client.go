package hooks

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const defaultServerURL = "http://127.0.0.1:37778"

var httpTimeout = 5 * time.Second

// SetTimeout bounds every request made by clients created afterwards.
// Non-positive values are ignored.
func SetTimeout(d time.Duration) {
	if d > 0 {
		httpTimeout = d
	}
}

// Client talks to the sable server.
type Client struct {
	http      *http.Client
	serverURL string
}

// NewClient creates a new hook HTTP client.
// Respects SABLE_URL, falls back to http://127.0.0.1:37778.
func NewClient() *Client {
	url := os.Getenv("SABLE_URL")
	if url == "" {
		url = defaultServerURL
	}
	return &Client{
		http:      &http.Client{Timeout: httpTimeout},
		serverURL: url,
	}
}

// Post sends a POST request with JSON body. Returns response body.
func (c *Client) Post(path string, body []byte) ([]byte, error) {
	resp, err := c.http.Post(c.serverURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	return readBody(resp, "POST", path)
}

// Get sends a GET request. Returns response body.
func (c *Client) Get(path string) ([]byte, error) {
	resp, err := c.http.Get(c.serverURL + path)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	return readBody(resp, "GET", path)
}

func readBody(resp *http.Response, method, path string) ([]byte, error) {
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response %s: %w", path, err)
	}
	if resp.StatusCode >= 400 {
		return data, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	return data, nil
}

// Healthy checks if the server is reachable.
func (c *Client) Healthy() bool {
	resp, err := c.http.Get(c.serverURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
