package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type coachServer struct {
	server   *httptest.Server
	messages []string
}

func newCoachServer(t *testing.T, reply string) *coachServer {
	t.Helper()
	cs := &coachServer{}

	cs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/api/interview" {
			var req struct {
				Message string `json:"message"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			cs.messages = append(cs.messages, req.Message)

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"reply": reply})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	t.Cleanup(cs.server.Close)
	return cs
}

// isolate points HOME and the working directory at a temp dir
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("USERPROFILE", dir)
	for _, k := range []string{"COACH_BASE_URL", "COACH_STORAGE_BACKEND", "COACH_STORAGE_PATH", "COACH_TIMEOUT", "COACH_TYPING"} {
		t.Setenv(k, "")
	}
	t.Chdir(dir)
	return dir
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "interview-coach version dev\n", out)
}

func TestHistoryCommand_Empty(t *testing.T) {
	isolate(t)

	out, err := execute(t, "", "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No conversation history yet")
}

func TestAskHistoryClear(t *testing.T) {
	dir := isolate(t)
	cs := newCoachServer(t, "Lead with impact.")

	out, err := execute(t, "", "ask", "--no-typing", "--base-url", cs.server.URL, "Why", "should", "we", "hire", "you?")
	require.NoError(t, err)
	assert.Contains(t, out, "Lead with impact.")
	assert.Equal(t, []string{"Why should we hire you?"}, cs.messages)

	_, err = os.Stat(filepath.Join(dir, ".interview-coach", "storage.json"))
	require.NoError(t, err, "the exchange is persisted")
	_, err = os.Stat(filepath.Join(dir, ".interview-coach", "coach.log"))
	require.NoError(t, err, "logs go to the log file")

	out, err = execute(t, "", "history")
	require.NoError(t, err)
	assert.Contains(t, out, "Conversation History (2 messages)")
	assert.Contains(t, out, "Why should we hire you?")
	assert.Contains(t, out, "Lead with impact.")

	out, err = execute(t, "", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Conversation cleared")

	out, err = execute(t, "", "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No conversation history yet")
}

func TestAskCommand_SQLiteBackend(t *testing.T) {
	dir := isolate(t)
	cs := newCoachServer(t, "Be concise.")
	db := filepath.Join(dir, "coach.db")

	_, err := execute(t, "", "ask", "--no-typing", "--backend", "sqlite", "--storage", db, "--base-url", cs.server.URL, "Any tips?")
	require.NoError(t, err)

	out, err := execute(t, "", "history", "--backend", "sqlite", "--storage", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Be concise.")
}

func TestAskCommand_Unreachable(t *testing.T) {
	isolate(t)
	cs := newCoachServer(t, "unused")
	url := cs.server.URL
	cs.server.Close()

	out, err := execute(t, "", "ask", "--no-typing", "--base-url", url, "hello")
	require.Error(t, err)
	assert.Contains(t, out, "Connection Error")
	assert.Contains(t, out, "Unable to connect to the coaching service")
}

func TestRootCommand_PlainMode(t *testing.T) {
	isolate(t)
	cs := newCoachServer(t, "Use the STAR method.")

	out, err := execute(t, "Tell me about a conflict\n/history\n/exit\n", "--plain", "--no-typing", "--base-url", cs.server.URL)
	require.NoError(t, err)

	assert.Equal(t, []string{"Tell me about a conflict"}, cs.messages)
	assert.Contains(t, out, "AI Interview Coach")
	assert.Contains(t, out, "Use the STAR method.")
	assert.Contains(t, out, "Conversation History (2 messages)")
	assert.NotContains(t, out, "not reachable")
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	isolate(t)

	_, err := execute(t, "", "history", "--backend", "redis")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration error")
}

func TestRootCommand_ConfigFile(t *testing.T) {
	dir := isolate(t)
	cs := newCoachServer(t, "From config.")

	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte("[backend]\nbase_url = \""+cs.server.URL+"\"\n\n[typing]\nenabled = false\n"), 0o644))

	out, err := execute(t, "", "ask", "--config", path, "q")
	require.NoError(t, err)
	assert.Contains(t, out, "From config.")
}
