package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/haskel/planfox/internal/analysis"
	"github.com/haskel/planfox/internal/monitor"
)

// Messages for tea.Cmd
type analysisMsg struct {
	result *analysis.Result
	err    error
}

type statusMsg struct {
	data *monitor.SystemState
	err  error
}

type tickMsg time.Time

type apiClient struct {
	baseURL  string
	client   *http.Client
	user     string
	password string
}

func newAPIClient(cfg Config, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL:  cfg.ServerURL,
		client:   &http.Client{Timeout: timeout},
		user:     cfg.User,
		password: cfg.Password,
	}
}

func (c *apiClient) do(req *http.Request) ([]byte, error) {
	if c.user != "" && c.password != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &body) == nil && body.Error != "" {
			return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, body.Error)
		}
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	return data, nil
}

// runAnalysis posts the CSV to /analyze as tea.Cmd
func runAnalysis(cfg Config) tea.Cmd {
	return func() tea.Msg {
		q := url.Values{}
		if cfg.Trials > 0 {
			q.Set("num_simulations", strconv.Itoa(cfg.Trials))
		}
		if cfg.Seed != 0 {
			q.Set("seed", strconv.FormatUint(cfg.Seed, 10))
		}

		u := cfg.ServerURL + "/analyze"
		if len(q) > 0 {
			u += "?" + q.Encode()
		}

		req, err := http.NewRequest(http.MethodPost, u, bytes.NewReader(cfg.CSV))
		if err != nil {
			return analysisMsg{err: err}
		}
		req.Header.Set("Content-Type", "text/csv")

		data, err := newAPIClient(cfg, 5*time.Minute).do(req)
		if err != nil {
			return analysisMsg{err: err}
		}

		var result analysis.Result
		if err := json.Unmarshal(data, &result); err != nil {
			return analysisMsg{err: fmt.Errorf("failed to parse analysis: %w", err)}
		}
		return analysisMsg{result: &result}
	}
}

// fetchStatus fetches the host sample as tea.Cmd
func fetchStatus(cfg Config) tea.Cmd {
	return func() tea.Msg {
		req, err := http.NewRequest(http.MethodGet, cfg.ServerURL+"/status", nil)
		if err != nil {
			return statusMsg{err: err}
		}

		data, err := newAPIClient(cfg, 5*time.Second).do(req)
		if err != nil {
			return statusMsg{err: err}
		}

		var status monitor.SystemState
		if err := json.Unmarshal(data, &status); err != nil {
			return statusMsg{err: fmt.Errorf("failed to parse status: %w", err)}
		}
		return statusMsg{data: &status}
	}
}

func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
