package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"animelists/internal/config"
	"animelists/internal/logging"
	"animelists/internal/mapping"
	"animelists/internal/services/mal"
)

const userAgent = "animelists/1.0"

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		loadDotenv()

		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil {
			if level := strings.TrimSpace(*c.logLevelFlag); level != "" {
				cfg.Logging.Level = strings.ToLower(level)
			}
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// logger builds a logger writing to the command's stderr.
func (c *commandContext) logger(cmd *cobra.Command) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

func newCatalogClient(cfg *config.Config) (*mal.Client, error) {
	return mal.New(cfg.MAL.ClientID, cfg.MAL.BaseURL,
		mal.WithTimeout(time.Duration(cfg.MAL.TimeoutSeconds)*time.Second),
		mal.WithUserAgent(userAgent),
	)
}

func newMappingClient(cfg *config.Config) (*mapping.Client, error) {
	format, err := mapping.ParseFormat(cfg.Mapping.Format)
	if err != nil {
		return nil, fmt.Errorf("mapping.format: %w", err)
	}
	return mapping.New(cfg.Mapping.URL, format,
		mapping.WithTimeout(time.Duration(cfg.Mapping.TimeoutSeconds)*time.Second),
		mapping.WithUserAgent(userAgent),
	), nil
}

// loadDotenv reads ./.env without overriding variables already set. A missing
// file is the common case and not an error.
func loadDotenv() {
	_ = godotenv.Load()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
