package config

const (
	defaultConfigPath       = "~/.config/skipintro/config.toml"
	defaultDataDir          = "~/.local/share/skipintro"
	defaultLogDir           = "~/.local/share/skipintro/logs"
	defaultDatabaseName     = "shows.db"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30

	defaultDelay          = 30
	maxDefaultDelay       = 300
	defaultSkipDuration   = 60
	minSkipDuration       = 10
	maxSkipDuration       = 300
	defaultPromptTimeout  = 10
	defaultMetadataDelay  = 1000
	defaultChapterDelay   = 500
	defaultMetadataWait   = 5000
	defaultPollInterval   = 250
	defaultChapterRetries = 3
	defaultRetryBackoff   = 200
	defaultFFprobeBinary  = "ffprobe"

	defaultPlayerBackend  = "mpv"
	defaultPlayerBinary   = "mpv"
	defaultSocketPath     = "/tmp/mpvsocket"
	defaultCommandTimeout = 1000

	defaultFuzzyThreshold = 0.92
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Skip: Skip{
			DefaultDelay:         defaultDelay,
			SkipDuration:         defaultSkipDuration,
			UseChapters:          true,
			SaveTimes:            true,
			PromptTimeoutSeconds: defaultPromptTimeout,
			Prompt:               PromptOSD,
		},
		Detection: Detection{
			MetadataDelayMS:   defaultMetadataDelay,
			ChapterDelayMS:    defaultChapterDelay,
			MetadataTimeoutMS: defaultMetadataWait,
			PollIntervalMS:    defaultPollInterval,
		},
		Chapters: Chapters{
			Backends:       []string{BackendPlayer, BackendFFprobe},
			Retries:        defaultChapterRetries,
			RetryBackoffMS: defaultRetryBackoff,
			FFprobeBinary:  defaultFFprobeBinary,
		},
		Player: Player{
			Backend:          defaultPlayerBackend,
			SocketPath:       defaultSocketPath,
			Binary:           defaultPlayerBinary,
			CommandTimeoutMS: defaultCommandTimeout,
		},
		Identify: Identify{
			FuzzyThreshold: defaultFuzzyThreshold,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

// Prompt locations accepted in skip.prompt.
const (
	PromptOSD      = "osd"
	PromptTerminal = "terminal"
)

// Chapter backend names accepted in chapters.backends.
const (
	BackendPlayer  = "player"
	BackendFFprobe = "ffprobe"
)
