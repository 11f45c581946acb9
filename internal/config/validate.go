package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks cross-field constraints after normalization.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.DataDir) == "" {
		problems = append(problems, "paths.data_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		problems = append(problems, "paths.log_dir must not be empty")
	}
	if c.Vertical.SplitExitScore >= c.Vertical.SplitEnterScore {
		problems = append(problems, fmt.Sprintf(
			"vertical.split_exit_score (%.2f) must be below vertical.split_enter_score (%.2f)",
			c.Vertical.SplitExitScore, c.Vertical.SplitEnterScore))
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not supported (console|json)", c.Logging.Format))
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New("invalid configuration: " + strings.Join(problems, "; "))
}
