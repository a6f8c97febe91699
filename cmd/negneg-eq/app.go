package main

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/negneg-eq-submitter/internal/config"
	"github.com/negneg-eq-submitter/internal/domain"
	"github.com/negneg-eq-submitter/internal/logging"
)

// app holds what every subcommand needs: validated configuration and a logger
type app struct {
	cfg       *domain.Config
	logger    *logrus.Logger
	logCloser io.Closer
}

func loadApp(configFile string, bindings ...config.FlagBinding) (*app, error) {
	manager, err := config.NewManager(configFile, bindings...)
	if err != nil {
		return nil, err
	}
	if err := manager.Validate(); err != nil {
		return nil, err
	}

	cfg := manager.GetConfig()
	logger, closer, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return nil, domain.NewConfigError("failed to set up logging", err)
	}

	if used := manager.ConfigFileUsed(); used != "" {
		logger.WithField("config_file", used).Debug("Loaded configuration file")
	}

	return &app{cfg: cfg, logger: logger, logCloser: closer}, nil
}

func (a *app) Close() error {
	return a.logCloser.Close()
}
