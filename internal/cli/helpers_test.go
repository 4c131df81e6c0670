package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/taskflow/internal/clock"
	"github.com/mrz1836/taskflow/internal/config"
	"github.com/mrz1836/taskflow/internal/directory"
	"github.com/mrz1836/taskflow/internal/lease"
	"github.com/mrz1836/taskflow/internal/task"
	"github.com/mrz1836/taskflow/internal/template"
	"github.com/mrz1836/taskflow/internal/workflow"
)

// cliNow is the frozen instant every command test runs at.
var cliNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) //nolint:gochecknoglobals // test fixture

// cliEnv runs commands against one shared in-memory engine.
type cliEnv struct {
	app        *App
	clock      *clock.Manual
	lease      *lease.Local
	configPath string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()

	home := t.TempDir()
	configPath := filepath.Join(home, "config.yaml")
	yaml := fmt.Sprintf(`store:
  backend: memory
  home: %s
events:
  log: false
logging:
  file: false
`, home)
	require.NoError(t, os.WriteFile(configPath, []byte(yaml), 0o600))

	clk := clock.NewManual(cliNow)
	dir := directory.NewStatic([]directory.User{
		{ID: "agent-1", Name: "Asha", Manager: "lead-1"},
		{ID: "agent-2", Name: "Ravi", Manager: "lead-1"},
		{ID: "lead-1", Name: "Meera"},
	})
	svc := workflow.NewService(task.NewMemoryStore(), zerolog.Nop(),
		workflow.WithClock(clk),
		workflow.WithDirectory(dir),
	)
	local := lease.NewLocal()

	env := &cliEnv{
		clock:      clk,
		lease:      local,
		configPath: configPath,
		app: &App{
			Config:      config.DefaultConfig(),
			Service:     svc,
			Coordinator: workflow.NewCoordinator(svc, 4),
			Sweeper:     workflow.NewSweeper(svc, local, time.Minute, time.Minute, zerolog.Nop()),
			Templates:   template.NewDefaultRegistry(),
			Clock:       clk,
			Registry:    prometheus.NewRegistry(),
		},
	}
	return env
}

func (e *cliEnv) factory(context.Context, *config.Config, zerolog.Logger) (*App, error) {
	return e.app, nil
}

// run executes one command line and returns what it wrote.
func (e *cliEnv) run(args ...string) (string, error) {
	flags := &GlobalFlags{}
	cmd, _ := newRootCmd(flags, BuildInfo{Version: "test"}, e.factory)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// mustRun fails the test when the command fails.
func (e *cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(args...)
	require.NoError(t, err, out)
	return out
}

// runJSON executes args with --output json and decodes the result into v.
func (e *cliEnv) runJSON(t *testing.T, v any, args ...string) {
	t.Helper()
	out := e.mustRun(t, append([]string{"--output", "json"}, args...)...)
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}
