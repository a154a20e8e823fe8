package cli

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragnote/internal/adapters/driving/mcp"
	"github.com/custodia-labs/ragnote/internal/adapters/driving/tui"
)

func allServices() *Services {
	return &Services{
		Ingestion: &MockIngestionService{},
		Search:    &MockSearchService{},
		Chat:      &MockChatService{},
		Documents: &MockDocumentService{},
		Settings:  &MockSettingsService{},
	}
}

func TestServeCmd_StopsOnCancel(t *testing.T) {
	setupTestServices(t, allServices())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := executeCommandContext(t, ctx, "", "serve", "--addr", "127.0.0.1:0")

	require.NoError(t, err)
	assert.Contains(t, out, "Listening on http://127.0.0.1:")
}

func TestServeCmd_BadAddress(t *testing.T) {
	setupTestServices(t, allServices())

	_, err := executeCommand(t, "", "serve", "--addr", "not-an-address")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen on not-an-address")
}

func TestServeCmd_NotConfigured(t *testing.T) {
	setupTestServices(t, &Services{Search: &MockSearchService{}})

	_, err := executeCommand(t, "", "serve")

	require.EqualError(t, err, "knowledge base service not configured")
}

func TestServeCmd_Flags(t *testing.T) {
	addr := serveCmd.Flags().Lookup("addr")
	require.NotNil(t, addr)
	assert.Equal(t, "127.0.0.1:8080", addr.DefValue)

	upload := serveCmd.Flags().Lookup("max-upload-mb")
	require.NotNil(t, upload)
	assert.Equal(t, "64", upload.DefValue)
}

func TestMCPServeCmd_RequiresSearch(t *testing.T) {
	setupTestServices(t, &Services{})

	_, err := executeCommand(t, "", "mcp", "serve")

	require.ErrorIs(t, err, mcp.ErrMissingSearchService)
}

// freePort returns a loopback port that was free a moment ago.
func freePort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return strconv.Itoa(port)
}

// runMCPHTTP runs "mcp serve" over HTTP with a cancelled context and fails
// the test if the server does not stop.
func runMCPHTTP(t *testing.T) string {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	port := freePort(t)

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := executeCommandContext(t, ctx, "", "mcp", "serve", "--host", "127.0.0.1", "--port", port)
		done <- result{out, err}
	}()

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Contains(t, r.out, "MCP server listening on http://127.0.0.1:"+port)
		return r.out
	case <-time.After(10 * time.Second):
		t.Fatal("mcp serve did not stop after its context was cancelled")
		return ""
	}
}

func TestMCPServeCmd_HTTPStopsOnCancel(t *testing.T) {
	setupTestServices(t, allServices())

	runMCPHTTP(t)
}

func TestMCPServeCmd_HTTPStopsOnCancelAfterEarlierRun(t *testing.T) {
	setupTestServices(t, &Services{})
	_, err := executeCommand(t, "", "mcp", "serve")
	require.ErrorIs(t, err, mcp.ErrMissingSearchService)

	setupTestServices(t, allServices())
	runMCPHTTP(t)
}

func TestMCPServeCmd_Flags(t *testing.T) {
	port := mcpServeCmd.Flags().Lookup("port")
	require.NotNil(t, port)
	assert.Equal(t, "p", port.Shorthand)
	assert.Equal(t, "0", port.DefValue)

	host := mcpServeCmd.Flags().Lookup("host")
	require.NotNil(t, host)
	assert.Equal(t, "localhost", host.DefValue)
}

func TestTUICmd_RunsApp(t *testing.T) {
	setupTestServices(t, allServices())

	ran := false
	prev := runApp
	runApp = func(app *tui.App) error {
		ran = true
		assert.NotNil(t, app)
		return nil
	}
	t.Cleanup(func() { runApp = prev })

	_, err := executeCommand(t, "", "tui")

	require.NoError(t, err)
	assert.True(t, ran)
}

func TestTUICmd_RunError(t *testing.T) {
	setupTestServices(t, allServices())

	prev := runApp
	runApp = func(*tui.App) error { return errors.New("no tty") }
	t.Cleanup(func() { runApp = prev })

	_, err := executeCommand(t, "", "tui")

	require.EqualError(t, err, "TUI error: no tty")
}

func TestTUICmd_MissingServices(t *testing.T) {
	setupTestServices(t, &Services{Chat: &MockChatService{}})

	_, err := executeCommand(t, "", "tui")

	require.ErrorIs(t, err, tui.ErrMissingDocumentService)
}

// fakeSettingsWatcher reports one edit and then returns.
type fakeSettingsWatcher struct {
	paths []string
	err   error
}

func (f *fakeSettingsWatcher) Run(_ context.Context, onChange func([]string)) error {
	onChange(f.paths)
	return f.err
}

func newWatchCommand(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	buf := new(bytes.Buffer)
	cmd := &cobra.Command{}
	cmd.SetErr(buf)
	cmd.SetContext(context.Background())
	return cmd, buf
}

func TestWatchSettings_WarnsOnInvalidEdit(t *testing.T) {
	setupTestServices(t, &Services{
		Settings: &MockSettingsService{ValidateErr: errors.New("retrieval.top_k must be positive")},
		Watcher:  &fakeSettingsWatcher{paths: []string{"/data/config.toml"}},
	})
	cmd, buf := newWatchCommand(t)

	stop := watchSettings(cmd)
	stop()

	assert.Contains(t, buf.String(), "Warning: edited settings are invalid")
	assert.Contains(t, buf.String(), "retrieval.top_k must be positive")
}

func TestWatchSettings_QuietOnValidEdit(t *testing.T) {
	setupTestServices(t, &Services{
		Settings: &MockSettingsService{},
		Watcher:  &fakeSettingsWatcher{paths: []string{"/data/prompts/chat_system.txt"}},
	})
	cmd, buf := newWatchCommand(t)

	stop := watchSettings(cmd)
	stop()

	assert.Empty(t, buf.String())
}

func TestWatchSettings_NoWatcher(t *testing.T) {
	setupTestServices(t, &Services{Settings: &MockSettingsService{}})
	cmd, buf := newWatchCommand(t)

	stop := watchSettings(cmd)
	stop()

	assert.Empty(t, buf.String())
}
