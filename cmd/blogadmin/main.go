package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/blogadmin/internal/actions"
	"github.com/ternarybob/blogadmin/internal/browser"
	"github.com/ternarybob/blogadmin/internal/common"
	"github.com/ternarybob/blogadmin/internal/report"
	"github.com/ternarybob/blogadmin/internal/scenario"
)

// multiFlag is a custom flag type that collects repeated values
type multiFlag []string

func (m *multiFlag) String() string {
	return fmt.Sprintf("%v", *m)
}

func (m *multiFlag) Set(value string) error {
	*m = append(*m, value)
	return nil
}

var (
	// Command-line flags
	configFiles   multiFlag // Multiple -config flags supported
	scenarioPaths multiFlag // Files or directories
	tags          multiFlag
	engine        = flag.String("engine", "", "Browser engine: chromedp or playwright (overrides config)")
	headless      = flag.String("headless", "", "Run the browser headless: true or false (overrides config)")
	listActions   = flag.Bool("list-actions", false, "Print the scenario step actions and exit")
	showVersion   = flag.Bool("version", false, "Print version information")
	showVersionV  = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
	flag.Var(&scenarioPaths, "scenario", "Scenario file or directory (can be specified multiple times)")
	flag.Var(&scenarioPaths, "s", "Scenario file or directory (shorthand)")
	flag.Var(&tags, "tag", "Only run scenarios carrying this tag (can be specified multiple times)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("BlogAdmin version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	if *listActions {
		for _, name := range scenario.Actions() {
			fmt.Println(name)
		}
		os.Exit(0)
	}

	os.Exit(run())
}

// run returns the process exit code.
func run() int {
	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Validate
	// 4. Initialize logger
	// 5. Print banner
	if len(configFiles) == 0 {
		if _, err := os.Stat("blogadmin.toml"); err == nil {
			configFiles = append(configFiles, "blogadmin.toml")
		} else if _, err := os.Stat("deployments/local/blogadmin.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/blogadmin.toml")
		}
	}
	if len(scenarioPaths) == 0 {
		scenarioPaths = append(scenarioPaths, "scenarios")
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		common.GetLogger().Error().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration files")
		return 1
	}

	common.ApplyFlagOverrides(config, *engine, *headless)

	if err := config.Validate(); err != nil {
		common.GetLogger().Error().Err(err).Msg("Configuration is invalid")
		return 1
	}

	common.InstallCrashHandler(config.Browser.ResultsDir)
	defer common.RecoverWithCrashFile()

	logger := common.InitLogger(config)
	common.PrintBanner(config, logger)

	logger.Debug().
		Strs("config_files", configFiles).
		Strs("scenario_paths", scenarioPaths).
		Strs("tags", tags).
		Str("log_level", config.Logging.Level).
		Msg("Resolved configuration")

	scenarios, err := scenario.LoadPaths(logger, scenarioPaths...)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load scenarios")
		return 1
	}
	scenarios = scenario.Filter(scenarios, tags)
	if len(scenarios) == 0 {
		logger.Warn().Strs("tags", tags).Msg("No scenarios to run")
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	page, err := browser.Open(config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open browser")
		return 1
	}
	defer func() {
		if err := page.Close(); err != nil {
			logger.Warn().Err(err).Msg("Browser did not close cleanly")
		}
	}()

	blog := actions.New(page, config, logger)
	runner := scenario.NewRunner(blog, report.NewWriter(config.Browser.ResultsDir, logger), logger)

	results, err := runner.RunAll(ctx, scenarios)

	passed := 0
	for _, result := range results {
		if result.Passed() {
			passed++
			continue
		}
		event := logger.Error().
			Str("scenario", result.Scenario).
			Str("run_id", result.RunID).
			Str("error", result.Err.Error())
		if result.Artifacts != nil {
			event = event.Str("screenshot", result.Artifacts.Screenshot).Str("html", result.Artifacts.HTML)
		}
		event.Msg("Scenario failed")
	}

	logger.Info().
		Int("passed", passed).
		Int("failed", len(results)-passed).
		Int("total", len(scenarios)).
		Msg("Acceptance run complete")

	if err != nil {
		return 1
	}
	return 0
}
