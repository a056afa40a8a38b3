// internal/logging/logging.go

// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"

	log "github.com/sirupsen/logrus"
)

// Setup sets level and format ("json" or text with full timestamps) and
// directs output to out. Unknown levels fall back to info.
func Setup(level, format string, out io.Writer) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)

	if format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	if out != nil {
		log.SetOutput(out)
	}
}
