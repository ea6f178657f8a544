package utils

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Log is the logger every step writes to. SetLogger has to run first.
var Log zerolog.Logger

func SetLogger() {
	Log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).With().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("SWISSINSTALL_DEBUG") != "" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// DebugLogs drops the global level to debug. Wired to --verbose.
func DebugLogs() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}
