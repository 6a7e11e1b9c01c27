package main

import (
	"io"
	"os"

	"github.com/coreos/go-systemd/daemon"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/utils/logging"
)

// Logging configuration, mirroring cmd/rv's lumberjack rotation settings.
const (
	logMaxSize   = 100 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
)

var (
	configPath    string
	logFilePath   string
	notifySystemd bool

	log logging.Logger
	cfg fileConfig
)

var rootCmd = &cobra.Command{
	Use:   "aribvtt",
	Short: "Convert ARIB STD-B24 captions from an MPEG-TS stream into WebVTT",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log = newLogger()

		c, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = c

		if notifySystemd {
			ok, err := daemon.SdNotify(false, daemon.SdNotifyReady)
			if err != nil {
				log.Warning("systemd notify failed", "error", err.Error())
			} else if !ok {
				log.Debug("systemd notification socket not available")
			}
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a JSON config file")
	rootCmd.PersistentFlags().StringVar(&logFilePath, "log-file", "", "rotate logs through this file instead of stderr")
	rootCmd.PersistentFlags().BoolVar(&notifySystemd, "notify-systemd", false, "notify systemd readiness once the config is loaded, before the subcommand starts")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(watchCmd)
}

// newLogger builds a logging.Logger writing to stderr, or to a
// lumberjack-rotated file when --log-file is set.
func newLogger() logging.Logger {
	var w io.Writer = os.Stderr
	if logFilePath != "" {
		w = &lumberjack.Logger{
			Filename:   logFilePath,
			MaxSize:    logMaxSize,
			MaxBackups: logMaxBackup,
			MaxAge:     logMaxAge,
		}
	}
	return logging.New(logging.Info, w, true)
}
