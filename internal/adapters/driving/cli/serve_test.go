package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/codetutor/internal/adapters/driving/handle"
	"github.com/custodia-labs/codetutor/internal/core/domain"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestServeCmd_Flags(t *testing.T) {
	assert.NotNil(t, serveCmd.Flags().Lookup("addr"))
	assert.NotNil(t, serveCmd.Flags().Lookup("location"))
	flag := serveCmd.Flags().Lookup("diagnostics")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}

func TestServeCmd_ServicesNotConfigured(t *testing.T) {
	SetServices(nil)
	_, err := execute(t, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index service not configured")

	_, cleanup := setupTestServices()
	defer cleanup()
	answerService = nil
	_, err = execute(t, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "answer service not configured")
}

func TestResolveServeAddr(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	defer func() { serveAddr = "" }()

	assert.Equal(t, ":8000", resolveServeAddr())

	ts.settings.settings.Server.Addr = "127.0.0.1:9000"
	assert.Equal(t, "127.0.0.1:9000", resolveServeAddr())

	serveAddr = ":7000"
	assert.Equal(t, ":7000", resolveServeAddr())

	serveAddr = ""
	settingsService = nil
	assert.Equal(t, domain.DefaultServerAddr, resolveServeAddr())
}

func TestServeCmd_StopsWhenContextCancelled(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	defer func() { serveAddr = "" }()
	ts.index.loadErr = domain.ErrIndexNotFound

	watched, closed := false, false
	watchPrompts = func(func(string)) (io.Closer, error) {
		watched = true
		return closerFunc(func() error { closed = true; return nil }), nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"serve", "--addr", "127.0.0.1:0"})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.ExecuteContext(ctx)

	require.NoError(t, err)
	assert.True(t, watched)
	assert.True(t, closed)
	assert.Contains(t, buf.String(), "codetutor listening on 127.0.0.1:0")
}

func TestServeCmd_WatchFailureIsNotFatal(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	defer func() { serveAddr = "" }()
	watchPrompts = func(func(string)) (io.Closer, error) {
		return nil, errors.New("inotify limit reached")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"serve", "--addr", "127.0.0.1:0"})
	defer rootCmd.SetArgs(nil)

	assert.NoError(t, rootCmd.ExecuteContext(ctx))
}

func TestReloadOnSignal(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	holder := handle.New(ts.index, "/srv/index")
	signals := make(chan os.Signal, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reloadOnSignal(ctx, holder, signals)
		close(done)
	}()

	assert.Nil(t, holder.Current())
	signals <- syscall.SIGHUP
	assert.Eventually(t, func() bool { return holder.Current() != nil }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reload loop did not stop")
	}
	assert.Equal(t, "/srv/index", ts.index.location)
}
