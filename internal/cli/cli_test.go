package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/haskel/planfox/internal/analysis"
	"github.com/haskel/planfox/internal/apperr"
	"github.com/haskel/planfox/internal/capacity"
	"github.com/haskel/planfox/internal/project"
	"github.com/haskel/planfox/internal/storage"
)

const sampleCSV = `Task_ID,Task_Name,Duration_Days,Resource_Name,Cost_Per_Day,Predecessors,Risk_Level
1,Task A,10,Alice,500,,High
2,Task B,15,Bob,600,1,Med
3,Task C,8,Alice,500,1,Low
4,Task D,12,Charlie,550,"2,3",High
5,Task E,20,Bob,600,,Med
`

// pointAt directs the CLI client at ts for the duration of the test.
func pointAt(t *testing.T, ts *httptest.Server) {
	t.Helper()
	u, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	h, p, err := net.SplitHostPort(u.Host)
	if err != nil {
		t.Fatal(err)
	}
	oldHost, oldPort := host, port
	host = h
	port, _ = strconv.Atoi(p)
	t.Cleanup(func() { host, port = oldHost, oldPort })
}

func writeCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		jsonOut, remote, record, styled = false, false, false, false
		trials, seed = 0, 0
		withOptimize, withSimulate = true, true
		cfgFile = ""
		validateOnly = false
		historyLimit = 20
	})

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestGetServerURL(t *testing.T) {
	host = "localhost"
	port = 8080

	if got := GetServerURL(); got != "http://localhost:8080" {
		t.Errorf("expected http://localhost:8080, got %s", got)
	}
}

func TestGetServerURL_CustomHostPort(t *testing.T) {
	host = "192.168.1.100"
	port = 9000
	defer func() { host, port = "localhost", 8080 }()

	if got := GetServerURL(); got != "http://192.168.1.100:9000" {
		t.Errorf("expected http://192.168.1.100:9000, got %s", got)
	}
}

func TestFlagAccessors(t *testing.T) {
	jsonOut, verbose = true, true
	user, password = "admin", "secret"
	cfgFile = "/path/to/config.yaml"
	defer func() {
		jsonOut, verbose = false, false
		user, password = "", ""
		cfgFile = ""
	}()

	if !IsJSON() || !IsVerbose() {
		t.Error("expected json and verbose")
	}
	if u, p := GetAuth(); u != "admin" || p != "secret" {
		t.Errorf("expected admin:secret, got %s:%s", u, p)
	}
	if GetConfigFile() != "/path/to/config.yaml" {
		t.Errorf("expected /path/to/config.yaml, got %s", GetConfigFile())
	}
}

func TestSetVersion(t *testing.T) {
	SetVersion("1.2.3")
	defer SetVersion("0.1.0")

	if Version != "1.2.3" || rootCmd.Version != "1.2.3" {
		t.Errorf("expected version 1.2.3, got %s", Version)
	}
}

func TestNewClient_WithAuth(t *testing.T) {
	user = "admin"
	password = "secret"
	defer func() { user, password = "", "" }()

	client := NewClient()
	if client.user != "admin" || client.password != "secret" {
		t.Errorf("expected admin:secret, got %s:%s", client.user, client.password)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"input", apperr.Input("parse csv", "Risk_Level", "unknown level"), exitUsage},
		{"rejected", &capacity.RejectedError{Reasons: []string{"cpu_overload"}}, exitTempFail},
		{"wrapped rejected", errors.Join(errors.New("x"), &capacity.RejectedError{}), exitTempFail},
		{"solver", apperr.Solver("optimize", errors.New("no solution")), exitFailure},
		{"remote 400", &RemoteError{Status: http.StatusBadRequest}, exitUsage},
		{"remote 413", &RemoteError{Status: http.StatusRequestEntityTooLarge}, exitUsage},
		{"remote 503", &RemoteError{Status: http.StatusServiceUnavailable}, exitTempFail},
		{"remote 429", &RemoteError{Status: http.StatusTooManyRequests}, exitTempFail},
		{"remote 500", &RemoteError{Status: http.StatusInternalServerError}, exitFailure},
		{"plain", errors.New("boom"), exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewRemoteError(t *testing.T) {
	e := newRemoteError(http.StatusServiceUnavailable,
		[]byte(`{"error":"capacity exceeded: cpu_overload","kind":"capacity","reasons":["cpu_overload"]}`))

	if e.Kind != "capacity" || len(e.Reasons) != 1 || e.Reasons[0] != "cpu_overload" {
		t.Errorf("unexpected error fields: %+v", e)
	}
	if !strings.Contains(e.Error(), "503") || !strings.Contains(e.Error(), "cpu_overload") {
		t.Errorf("Error() = %q", e.Error())
	}

	raw := newRemoteError(http.StatusBadGateway, []byte("  upstream down\n"))
	if raw.Message != "upstream down" {
		t.Errorf("Message = %q, want plain body", raw.Message)
	}

	empty := newRemoteError(http.StatusInternalServerError, nil)
	if empty.Error() != "server returned status 500" {
		t.Errorf("Error() = %q", empty.Error())
	}
}

func TestClient_PostCSV(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/analyze" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "text/csv" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		if r.URL.Query().Get("seed") != "7" {
			t.Errorf("seed = %q", r.URL.Query().Get("seed"))
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != sampleCSV {
			t.Error("body not forwarded")
		}
		json.NewEncoder(w).Encode(analysis.Result{RunID: "abc", Status: "success"})
	}))
	defer ts.Close()
	pointAt(t, ts)

	var res analysis.Result
	if _, err := NewClient().PostCSV("/analyze", url.Values{"seed": {"7"}}, []byte(sampleCSV), &res); err != nil {
		t.Fatalf("PostCSV() error = %v", err)
	}
	if res.RunID != "abc" {
		t.Errorf("RunID = %q, want abc", res.RunID)
	}
}

func TestClient_GetJSON_Error(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"run not found"}`))
	}))
	defer ts.Close()
	pointAt(t, ts)

	_, err := NewClient().GetJSON("/runs/nope", nil)
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if remoteErr.Status != http.StatusNotFound || remoteErr.Message != "run not found" {
		t.Errorf("unexpected error: %+v", remoteErr)
	}
}

func TestAnalyzeLocal(t *testing.T) {
	path := writeCSV(t)

	out, err := execute(t, "analyze", path, "--json", "--trials", "200", "--seed", "3")
	if err != nil {
		t.Fatalf("analyze error = %v", err)
	}

	var res analysis.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if res.Metrics == nil || res.Metrics.TotalTasks != 5 {
		t.Errorf("metrics = %+v", res.Metrics)
	}
	if res.Optimization == nil || res.Simulation == nil {
		t.Fatal("expected optimization and simulation")
	}
	if res.Simulation.Trials != 200 || res.Simulation.Seed != 3 {
		t.Errorf("simulation trials/seed = %d/%d", res.Simulation.Trials, res.Simulation.Seed)
	}
}

func TestOptimizeLocal_Plain(t *testing.T) {
	path := writeCSV(t)

	out, err := execute(t, "optimize", path)
	if err != nil {
		t.Fatalf("optimize error = %v", err)
	}
	if out == "" {
		t.Fatal("expected report output")
	}
	if strings.Contains(out, "Project Metrics") {
		t.Error("optimize should not print metrics")
	}
}

func TestAnalyzeLocal_MissingFile(t *testing.T) {
	_, err := execute(t, "analyze", filepath.Join(t.TempDir(), "missing.csv"))
	if !apperr.IsInput(err) {
		t.Fatalf("expected input error, got %v", err)
	}
	if exitCode(err) != exitUsage {
		t.Errorf("exitCode = %d, want %d", exitCode(err), exitUsage)
	}
}

func TestAnalyzeLocal_BadTrials(t *testing.T) {
	path := writeCSV(t)

	_, err := execute(t, "simulate", path, "--trials", "5")
	if !apperr.IsInput(err) {
		t.Fatalf("expected input error, got %v", err)
	}
}

func TestAnalyzeRemote(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("enable_optimization") != "false" || q.Get("enable_simulation") != "true" {
			t.Errorf("unexpected flags %v", q)
		}
		table, err := project.ParseCSV(r.Body)
		if err != nil {
			t.Fatalf("server got bad CSV: %v", err)
		}
		json.NewEncoder(w).Encode(analysis.Result{
			RunID:   "remote-1",
			Metrics: project.ComputeMetrics(table),
		})
	}))
	defer ts.Close()
	pointAt(t, ts)

	out, err := execute(t, "analyze", writeCSV(t), "--remote", "--optimize=false", "--json")
	if err != nil {
		t.Fatalf("analyze --remote error = %v", err)
	}
	if !strings.Contains(out, "remote-1") {
		t.Errorf("output missing run id:\n%s", out)
	}
}

func TestAnalyzeRemote_Rejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"capacity exceeded: memory_overload","kind":"capacity","reasons":["memory_overload"]}`))
	}))
	defer ts.Close()
	pointAt(t, ts)

	_, err := execute(t, "simulate", writeCSV(t), "--remote")
	if exitCode(err) != exitTempFail {
		t.Errorf("exitCode = %d, want %d (err %v)", exitCode(err), exitTempFail, err)
	}
}

func TestHistoryCommand(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/runs" || r.URL.Query().Get("limit") != "5" {
			t.Errorf("unexpected request %s", r.URL)
		}
		json.NewEncoder(w).Encode([]storage.Run{
			{ID: "run-2", Kind: "simulate", CreatedAt: created, Tasks: 5, ElapsedMS: 40, Status: "success", Summary: "simulation: P50 56.7 days"},
		})
	}))
	defer ts.Close()
	pointAt(t, ts)

	out, err := execute(t, "history", "--limit", "5")
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	for _, want := range []string{"ID", "run-2", "simulate", "P50 56.7"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestStatusCommand(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"cpu":{"usage_percent":12.5,"logical_cores":8},"memory":{"usage_percent":40,"used_bytes":1073741824,"total_bytes":4294967296},"storage":{"/":{"free_bytes":10737418240,"total_bytes":21474836480}},"process":{"processes":120,"goroutines":9}}`))
	}))
	defer ts.Close()
	pointAt(t, ts)

	out, err := execute(t, "status")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	for _, want := range []string{"12.5%", "8 logical cores", "1.0 GiB of 4.0 GiB", "/: 10 GiB free", "Goroutines: 9"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigCommand_Validate(t *testing.T) {
	out, err := execute(t, "config", "--validate")
	if err != nil {
		t.Fatalf("config error = %v", err)
	}
	if !strings.Contains(out, "Configuration is valid") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestConfigCommand_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "config", "--config", path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(out, "Configuration invalid") {
		t.Errorf("unexpected output %q", out)
	}
}
