package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/config"
	"github.com/Thiwanka-Sandakalum/VidSage-sub000/internal/logging"
)

var cfgPath string

func main() {
	root := &cobra.Command{
		Use:           "vidsage",
		Short:         "VidSage video caption ingestion pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file")

	root.AddCommand(serveCmd(), transcriptWorkerCmd(), embeddingWorkerCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(service string) (config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logging.New(service, cfg.LogLevel), nil
}
