package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/skypro1111/voicecapture/internal/config"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "voicecapture"
	serviceVersion    = "1.0.0"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   serviceName,
	Short: "Press-and-hold voice capture client for a local speech recognition service",
	Long: "voicecapture records the microphone while a hotkey is held, sends the audio to a " +
		"speech recognition service and delivers the recognized text to the clipboard, " +
		"the focused window or stdout.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}
		logger = initLogger(cfg.Logging)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", defaultConfigPath, "path to configuration file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(transcribeCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig reads the configuration file. The default path may be absent,
// in which case built-in defaults are used.
func loadConfig(explicit bool) (*config.Config, error) {
	c, err := config.Load(cfgFile)
	if err == nil {
		return c, nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return nil, fmt.Errorf("failed to load configuration: %w", err)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
