package browser

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/blogadmin/internal/common"
	"github.com/ternarybob/blogadmin/internal/interfaces"
)

// Open starts the browser engine named in config.Browser.Engine.
func Open(config *common.Config, logger arbor.ILogger) (interfaces.Page, error) {
	logger.Info().
		Str("engine", config.Browser.Engine).
		Bool("headless", config.Browser.Headless).
		Msg("Opening browser")

	var (
		page interfaces.Page
		err  error
	)
	switch config.Browser.Engine {
	case common.EngineChromeDP:
		page, err = NewChromeDPPage(config, logger)
	case common.EnginePlaywright:
		page, err = NewPlaywrightPage(config, logger)
	default:
		return nil, fmt.Errorf("unknown browser engine %q (want %s or %s)",
			config.Browser.Engine, common.EngineChromeDP, common.EnginePlaywright)
	}
	if err != nil {
		return nil, err
	}
	return page, nil
}
