// Package logging holds the process logger.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

var Log = logrus.New()

func init() {
	Log.SetOutput(os.Stdout)
	Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// Configure switches to JSON outside development and applies the level.
// Unknown levels fall back to info.
func Configure(env, level string) {
	if env != "" && env != "development" {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)
}

// WithUser is the common entry for per-user log lines.
func WithUser(userID string) *logrus.Entry {
	return Log.WithField("user_id", userID)
}
