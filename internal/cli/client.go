package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client is an HTTP client for the planfox API.
type Client struct {
	baseURL  string
	client   *http.Client
	user     string
	password string
}

// NewClient creates a new API client. Analyses can take a while, so the
// timeout is generous.
func NewClient() *Client {
	return &Client{
		baseURL: GetServerURL(),
		client: &http.Client{
			Timeout: 5 * time.Minute,
		},
		user:     user,
		password: password,
	}
}

// RemoteError is a non-2xx response from the server.
type RemoteError struct {
	Status  int
	Message string
	Kind    string
	Reasons []string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.Status)
	}
	return fmt.Sprintf("server returned status %d: %s", e.Status, e.Message)
}

// ExitCode maps the response status to a process exit code.
func (e *RemoteError) ExitCode() int {
	switch e.Status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return exitUsage
	case http.StatusServiceUnavailable, http.StatusTooManyRequests:
		return exitTempFail
	default:
		return exitFailure
	}
}

func newRemoteError(status int, data []byte) *RemoteError {
	e := &RemoteError{Status: status}
	var body struct {
		Error   string   `json:"error"`
		Kind    string   `json:"kind"`
		Reasons []string `json:"reasons"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		e.Message, e.Kind, e.Reasons = body.Error, body.Kind, body.Reasons
	} else {
		e.Message = string(bytes.TrimSpace(data))
	}
	return e
}

// Get performs a GET request
func (c *Client) Get(path string) ([]byte, int, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, 0, err
	}

	return c.do(req)
}

// GetJSON performs a GET request and decodes a 200 response into out.
func (c *Client) GetJSON(path string, out any) ([]byte, error) {
	data, status, err := c.Get(path)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return data, newRemoteError(status, data)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return data, fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return data, nil
}

// PostCSV uploads a CSV table and decodes a 200 response into out.
func (c *Client) PostCSV(path string, query url.Values, csv []byte, out any) ([]byte, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequest(http.MethodPost, target, bytes.NewReader(csv))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/csv")

	data, status, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return data, newRemoteError(status, data)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return data, fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return data, nil
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	if c.user != "" && c.password != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	return data, resp.StatusCode, nil
}

// Health checks if server is running
func (c *Client) Health() error {
	_, status, err := c.Get("/health")
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("server returned status %d", status)
	}
	return nil
}
