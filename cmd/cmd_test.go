package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/linkshare/linkshare/backend/session-store/internal/config"
	"github.com/linkshare/linkshare/backend/session-store/internal/schema"
	"github.com/linkshare/linkshare/backend/session-store/internal/tokens"
)

type fakeRunner struct {
	report *schema.Report
	err    error
}

func (f fakeRunner) Apply(context.Context) (*schema.Report, error)  { return f.report, f.err }
func (f fakeRunner) Verify(context.Context) (*schema.Report, error) { return f.report, f.err }

func entries(actions ...schema.Action) *schema.Report {
	r := &schema.Report{Database: schema.DatabaseName}
	for _, a := range actions {
		r.Entries = append(r.Entries, schema.Entry{Collection: schema.RefreshTokenSessions, Index: "refresh_token_1", Action: a})
	}
	return r
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return ExitOK
	}
	var ec cli.ExitCoder
	require.True(t, errors.As(err, &ec), "not an exit error: %v", err)
	return ec.ExitCode()
}

func TestRunProvision(t *testing.T) {
	var out bytes.Buffer
	err := runProvision(context.Background(), fakeRunner{report: entries(schema.ActionCreated, schema.ActionCreated)}, &out)
	require.Equal(t, ExitOK, exitCode(t, err))
	require.Contains(t, out.String(), "refresh_token_sessions.refresh_token_1")
	require.Contains(t, out.String(), "2 change(s)")

	out.Reset()
	conflict := &schema.ConflictError{Collection: schema.RefreshTokenSessions, Index: "refresh_token_1", Reason: "existing index is not unique"}
	err = runProvision(context.Background(), fakeRunner{report: entries(schema.ActionDrifted), err: conflict}, &out)
	require.Equal(t, ExitFailure, exitCode(t, err))
	require.Contains(t, out.String(), "drifted")
}

func TestRunVerify(t *testing.T) {
	var out bytes.Buffer
	require.Equal(t, ExitOK, exitCode(t, runVerify(context.Background(), fakeRunner{report: entries(schema.ActionUnchanged)}, &out)))
	require.Equal(t, ExitDrift, exitCode(t, runVerify(context.Background(), fakeRunner{report: entries(schema.ActionMissing)}, &out)))
	require.Equal(t, ExitFailure, exitCode(t, runVerify(context.Background(), fakeRunner{err: errors.New("no reachable servers")}, &out)))
}

func TestApp_VerifyWithoutMongoURI(t *testing.T) {
	t.Setenv("MONGODB_URI", "")
	app := NewApp()
	var got error
	app.ExitErrHandler = func(_ *cli.Context, err error) { got = err }
	app.Writer = &bytes.Buffer{}

	_ = app.Run([]string{"sessionstore", "--env-file", "does-not-exist.env", "verify"})
	require.Equal(t, ExitFailure, exitCode(t, got))
	require.Contains(t, got.Error(), "MONGODB_URI")
}

func TestApp_Commands(t *testing.T) {
	app := NewApp()
	var names []string
	for _, c := range app.Commands {
		names = append(names, c.Name)
	}
	require.Equal(t, []string{"provision", "verify", "serve"}, names)
}

func serveConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: "0", ShutdownTimeout: time.Second},
		JWT: config.JWTConfig{
			AccessSecret:    "a",
			RefreshSecret:   "r",
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: 2 * time.Hour,
		},
	}
}

func TestServe_RequiresSecrets(t *testing.T) {
	cfg := serveConfig()
	cfg.JWT.RefreshSecret = ""
	err := serve(context.Background(), cfg, storeMemory, false, nil)
	require.ErrorIs(t, err, tokens.ErrNoSecret)
}

func TestServe_UnknownStore(t *testing.T) {
	err := serve(context.Background(), serveConfig(), "sqlite", false, nil)
	require.Equal(t, ExitFailure, exitCode(t, err))
}

func TestServe_MemoryStoreShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, serveConfig(), storeMemory, false, nil) }()

	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}
