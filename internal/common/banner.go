package common

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and logs the resolved browser settings
func PrintBanner(config *Config, logger arbor.ILogger) {
	banner.PrintSimple("BlogAdmin", GetVersion())

	logger.Info().
		Str("engine", config.Browser.Engine).
		Bool("headless", config.Browser.Headless).
		Str("dashboard", config.URLs.BlogDashboard).
		Str("admin", config.URLs.BlogAdmin).
		Str("results_dir", config.Browser.ResultsDir).
		Msg("Acceptance run configuration")
}
