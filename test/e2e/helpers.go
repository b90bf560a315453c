//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

// E2ETestEnv holds the built binaries and the daemon started from them
type E2ETestEnv struct {
	T          *testing.T
	Ctx        context.Context
	BinaryDir  string
	ServerURL  string
	Daemon     *exec.Cmd
	APIToken   string
	HTTPClient *http.Client
}

// NewE2EEnv builds the binaries into a temporary directory
func NewE2EEnv(t *testing.T) *E2ETestEnv {
	env := &E2ETestEnv{
		T:          t,
		Ctx:        context.Background(),
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
	env.BuildBinaries()
	return env
}

// Cleanup stops the daemon and removes the binaries
func (e *E2ETestEnv) Cleanup() {
	if e.Daemon != nil && e.Daemon.Process != nil {
		_ = e.Daemon.Process.Signal(os.Interrupt)
		done := make(chan struct{})
		go func() {
			_ = e.Daemon.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			_ = e.Daemon.Process.Kill()
		}
	}
	if e.BinaryDir != "" {
		os.RemoveAll(e.BinaryDir)
	}
}

// BuildBinaries builds the chapterkit and chapterkitd binaries
func (e *E2ETestEnv) BuildBinaries() {
	tmpDir, err := os.MkdirTemp("", "chapterkit-e2e-*")
	if err != nil {
		e.T.Fatalf("failed to create temp dir: %v", err)
	}
	e.BinaryDir = tmpDir

	for _, name := range []string{"chapterkit", "chapterkitd"} {
		cmd := exec.Command("go", "build", "-o", filepath.Join(tmpDir, name), "./cmd/"+name)
		cmd.Dir = "../.."
		if out, err := cmd.CombinedOutput(); err != nil {
			e.T.Fatalf("failed to build %s: %v\n%s", name, err, out)
		}
	}
}

// baseEnv is the process environment with every CHAPTERKIT_ variable the
// tests rely on pinned, so a developer's shell or .env cannot leak in.
func baseEnv(extra ...string) []string {
	env := append(os.Environ(),
		"CHAPTERKIT_DATABASE_URL=",
		"CHAPTERKIT_SENTRY_DSN=",
		"CHAPTERKIT_RULES_FILE=",
		"CHAPTERKIT_CORPUS_BACKEND=dir",
		"CHAPTERKIT_LOG_LEVEL=warn",
		"CHAPTERKIT_LOG_FORMAT=json",
		"CHAPTERKIT_SCHEDULE_INTERVAL=0s",
	)
	return append(env, extra...)
}

// RunChapterkit runs the chapterkit CLI and returns stdout and stderr
func (e *E2ETestEnv) RunChapterkit(env []string, args ...string) (string, string, error) {
	return e.run("chapterkit", env, args...)
}

// RunChapterkitd runs a one-shot chapterkitd command
func (e *E2ETestEnv) RunChapterkitd(env []string, args ...string) (string, string, error) {
	return e.run("chapterkitd", env, args...)
}

func (e *E2ETestEnv) run(binary string, env []string, args ...string) (string, string, error) {
	cmd := exec.Command(filepath.Join(e.BinaryDir, binary), args...)
	cmd.Dir = e.T.TempDir()
	cmd.Env = baseEnv(env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// StartDaemon starts chapterkitd serve and waits for /health
func (e *E2ETestEnv) StartDaemon(env []string, args ...string) {
	port, err := getFreePort()
	if err != nil {
		e.T.Fatalf("failed to get free port: %v", err)
	}

	cmd := exec.Command(filepath.Join(e.BinaryDir, "chapterkitd"), append([]string{"serve"}, args...)...)
	cmd.Env = baseEnv(append(env,
		fmt.Sprintf("CHAPTERKIT_PORT=%d", port),
		"CHAPTERKIT_API_TOKEN="+e.APIToken,
	)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		e.T.Fatalf("failed to start chapterkitd: %v", err)
	}
	e.Daemon = cmd

	e.ServerURL = fmt.Sprintf("http://localhost:%d", port)
	waitForServer(e.T, e.ServerURL, 30*time.Second)
}

// APIResponse represents a standard API response
type APIResponse struct {
	Status int             `json:"-"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path string) (*APIResponse, error) {
	return e.doRequest(http.MethodGet, path, nil)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body interface{}) (*APIResponse, error) {
	return e.doRequest(http.MethodPost, path, body)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}) (*APIResponse, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, e.ServerURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if e.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+e.APIToken)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	apiResp := &APIResponse{Status: resp.StatusCode}
	if err := json.Unmarshal(respBody, apiResp); err != nil {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}
	return apiResp, nil
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(200 * time.Millisecond)
	}
	t.Fatalf("server at %s did not become healthy within %s", url, timeout)
}

func getFreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// writeFixtureCorpus copies the chapters from testdata into a fresh directory
func writeFixtureCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	entries, err := os.ReadDir("testdata/chapters")
	if err != nil {
		t.Fatalf("failed to read fixtures: %v", err)
	}
	for _, entry := range entries {
		data, err := os.ReadFile(filepath.Join("testdata/chapters", entry.Name()))
		if err != nil {
			t.Fatalf("failed to read fixture %s: %v", entry.Name(), err)
		}
		if err := os.WriteFile(filepath.Join(dir, entry.Name()), data, 0o644); err != nil {
			t.Fatalf("failed to write fixture %s: %v", entry.Name(), err)
		}
	}
	return dir
}
