package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"skipintro/internal/config"
	"skipintro/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	binDir     string
	mediaDir   string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	configPath := filepath.Join(homeDir, ".config", "skipintro", "config.toml")
	writeTestConfig(t, configPath, cfg)

	restore := stdinIsTerminal
	stdinIsTerminal = func() bool { return false }
	t.Cleanup(func() { stdinIsTerminal = restore })

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		binDir:     filepath.Join(testsupport.BaseDir(cfg), "bin"),
		mediaDir:   filepath.Join(base, "media"),
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q
database_path = %q

[player]
socket_path = %q

[logging]
level = "warn"
`,
		cfg.Paths.DataDir,
		cfg.Paths.LogDir,
		cfg.Paths.DatabasePath,
		cfg.Player.SocketPath,
	)
	testsupport.WriteFile(t, path, content)
}

// stubFFprobe replaces the ffprobe stub with one that prints payload.
func (e *cliTestEnv) stubFFprobe(t *testing.T, payload string) {
	t.Helper()
	testsupport.WriteStubBinary(t, e.binDir, "ffprobe", "cat <<'JSON'\n"+payload+"\nJSON")
}

// mediaFile creates an empty file named name for commands that stat it.
func (e *cliTestEnv) mediaFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(e.mediaDir, name)
	testsupport.WriteFile(t, path, "")
	return path
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

const numberedChaptersJSON = `{"chapters":[` +
	`{"id":0,"start_time":"0.000000","end_time":"90.000000","tags":{"title":"Chapter 1"}},` +
	`{"id":1,"start_time":"90.000000","end_time":"300.000000","tags":{"title":"Chapter 2"}},` +
	`{"id":2,"start_time":"300.000000","end_time":"1200.000000","tags":{"title":"Chapter 3"}},` +
	`{"id":3,"start_time":"1200.000000","end_time":"1300.000000","tags":{"title":"Chapter 4"}}],` +
	`"format":{"filename":"ep.mkv","duration":"1300.0"}}`

const namedChaptersJSON = `{"chapters":[` +
	`{"id":0,"start_time":"0.000000","end_time":"400.000000","tags":{"title":"Cold Open"}},` +
	`{"id":1,"start_time":"400.000000","end_time":"1300.000000","tags":{"title":"Act One"}}],` +
	`"format":{"filename":"ep.mkv","duration":"1300.0"}}`
