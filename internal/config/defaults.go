package config

const (
	defaultVideoDir       = "~/videos"
	defaultDataDir        = "~/anthology/data/xml"
	defaultLogDir         = "~/.local/share/anthingest/logs"
	defaultOnMissingPaper = OnMissingFail
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// OnMissingPaper values.
const (
	OnMissingFail = "fail"
	OnMissingSkip = "skip"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			VideoDir: defaultVideoDir,
			DataDir:  defaultDataDir,
			LogDir:   defaultLogDir,
		},
		Ingest: Ingest{
			OnMissingPaper: defaultOnMissingPaper,
			SkipExisting:   false,
			Extensions:     []string{".mp4"},
		},
		Ledger: Ledger{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
