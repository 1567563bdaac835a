package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger. Console output is human-readable;
// pass json=true for one JSON object per line.
func Init(level zerolog.Level, json bool) {
	InitWithWriter(os.Stderr, level, json)
}

func InitWithWriter(w io.Writer, level zerolog.Level, json bool) {
	out := w
	if !json {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(out).With().Timestamp().Caller().Str("service", "accounts").Logger()
}
