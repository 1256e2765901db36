package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"skipintro/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Detection waits are zeroed so session tests run without sleeping.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.DatabasePath = filepath.Join(base, "data", "shows.db")
	cfgVal.Player.SocketPath = filepath.Join(base, "mpv.sock")
	cfgVal.Detection.MetadataDelayMS = 0
	cfgVal.Detection.ChapterDelayMS = 0
	cfgVal.Detection.PollIntervalMS = 5
	cfgVal.Detection.MetadataTimeoutMS = 200
	cfgVal.Chapters.RetryBackoffMS = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSkip overrides the default delay and skip duration in seconds.
func WithSkip(defaultDelay, skipDuration int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Skip.DefaultDelay = defaultDelay
		b.cfg.Skip.SkipDuration = skipDuration
	}
}

// WithoutSaveTimes disables persistence of resolved windows.
func WithoutSaveTimes() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Skip.SaveTimes = false
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffprobe and mpv are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffprobe", "mpv"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		for _, name := range names {
			WriteStubBinary(b.t, binDir, name, "exit 0")
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
