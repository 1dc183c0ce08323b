package config

import (
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.VideoDir) == "" {
		return fmt.Errorf("paths.video_dir must be set")
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return fmt.Errorf("paths.data_dir must be set")
	}

	switch c.Ingest.OnMissingPaper {
	case OnMissingFail, OnMissingSkip:
	default:
		return fmt.Errorf("ingest.on_missing_paper: unsupported value %q (use %q or %q)",
			c.Ingest.OnMissingPaper, OnMissingFail, OnMissingSkip)
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
