package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/linkshare/linkshare/backend/session-store/internal/config"
	"github.com/linkshare/linkshare/backend/session-store/pkg/logger"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitDrift   = 2
)

const configKey = "config"

func NewApp() *cli.App {
	return &cli.App{
		Name:  "sessionstore",
		Usage: "Provision and serve the token session store",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "dotenv files to load before reading the environment",
				Value: cli.NewStringSlice(".env"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "override LOG_LEVEL",
			},
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.StringSlice("env-file")...)
			if err != nil {
				return cli.Exit(err.Error(), ExitFailure)
			}
			if lvl := c.String("log-level"); lvl != "" {
				cfg.LogLevel = lvl
			}
			logger.Init(cfg.LogLevel)
			c.App.Metadata = map[string]interface{}{configKey: cfg}
			return nil
		},
		Commands: []*cli.Command{
			newProvisionCommand(),
			newVerifyCommand(),
			newServeCommand(),
		},
	}
}

func configFrom(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configKey].(*config.Config); ok {
		return cfg
	}
	return &config.Config{}
}
