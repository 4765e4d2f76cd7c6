/*
Package logger
File: logger.go
Description:
    Process-wide structured logger.
    Every package logs through logger.Log so that level and format are
    controlled in one place (LOG_LEVEL, LOG_FORMAT).
*/

package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the shared logger. It is usable before Init with logrus defaults.
var Log = logrus.New()

// Init configures the shared logger from the environment.
// Call once from main before the server starts.
func Init() {
	InitWith(os.Stdout, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}

// InitWith is Init with explicit inputs.
func InitWith(out io.Writer, level, format string) {
	// 1. Level: default "info", "debug" shows every rejected player action.
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	// 2. Format: "json" for log shipping, text otherwise.
	if strings.ToLower(format) == "json" {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	Log.SetOutput(out)
}
