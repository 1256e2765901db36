package main

import (
	"path/filepath"
	"strings"
	"testing"

	"skipintro/internal/testsupport"
)

func TestLogsPrintsLatestRunLog(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteFile(t, filepath.Join(env.cfg.Paths.LogDir, "skipintro-20260101T000000.log"),
		`{"level":"info","msg":"watcher started","component":"watcher"}`+"\n"+
			`{"level":"info","msg":"intro window resolved","component":"session","episode_label":"Severance S01E04","decision_type":"skip_window"}`+"\n"+
			`{"level":"warn","msg":"episode not identified","component":"session"}`+"\n")

	out, _, err := runCLI(t, env, "logs", "--lines", "2")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.Contains(out, "watcher started") {
		t.Fatalf("expected only the last two lines, got %s", out)
	}
	requireContains(t, out, "intro window resolved")
	requireContains(t, out, "episode not identified")

	out, _, err = runCLI(t, env, "logs", "--episode", "severance")
	if err != nil {
		t.Fatalf("logs --episode: %v", err)
	}
	requireContains(t, out, "intro window resolved")
	if strings.Contains(out, "not identified") {
		t.Fatalf("filter leaked lines: %s", out)
	}
}

func TestLogsWithoutRunLogs(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env, "logs")
	if err == nil {
		t.Fatal("expected error without run logs")
	}
	requireContains(t, err.Error(), "no run logs")
}
