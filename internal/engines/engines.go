package engines

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/probo/internal/common"
	"github.com/ternarybob/probo/internal/interfaces"
	"github.com/ternarybob/probo/internal/models"
)

// Config holds the settings an engine needs to drive a browser session
type Config struct {
	Headless           bool
	NoSandbox          bool
	DisableGPU         bool
	UserAgent          string
	ScreenshotInterval time.Duration
	FillTimeout        time.Duration
	UploadTimeout      time.Duration
	SubmitTimeout      time.Duration
	UploadsDir         string
	AgentAPIKey        string
	AgentModel         string
}

// ConfigFromCommon builds engine settings from application configuration
func ConfigFromCommon(cfg *common.Config) Config {
	return Config{
		Headless:           cfg.Engine.Headless,
		NoSandbox:          cfg.Engine.NoSandbox,
		DisableGPU:         cfg.Engine.DisableGPU,
		UserAgent:          cfg.Engine.UserAgent,
		ScreenshotInterval: common.ParseDuration(cfg.Engine.ScreenshotInterval, 2*time.Second),
		FillTimeout:        common.ParseDuration(cfg.Engine.FillTimeout, 90*time.Second),
		UploadTimeout:      common.ParseDuration(cfg.Engine.UploadTimeout, 30*time.Second),
		SubmitTimeout:      common.ParseDuration(cfg.Engine.SubmitTimeout, 30*time.Second),
		UploadsDir:         cfg.Uploads.Dir,
		AgentAPIKey:        cfg.Agent.APIKey,
		AgentModel:         cfg.Agent.Model,
	}
}

// New constructs the engine for the requested type. This is the single place
// engine names are dispatched; everything downstream works on the interface.
func New(engineType models.EngineType, config Config, logger arbor.ILogger) (interfaces.Engine, error) {
	switch engineType {
	case models.EngineChromedp:
		return NewChromedpEngine(config, logger), nil
	case models.EngineAgent:
		return NewAgentEngine(config, logger), nil
	default:
		return nil, fmt.Errorf("unknown engine type: %s", engineType)
	}
}
