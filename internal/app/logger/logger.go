package logger

import (
	"os"

	"github.com/rs/zerolog"
)

var Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Init sets the minimum level of Logger, e.g. "debug", "info", "warn".
func Init(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	Logger = Logger.Level(lvl)
	return nil
}
