package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	LoggerName  string = "logger_name"
	TableIDKey  string = "tableID"
	RoundNumKey string = "roundNo"
	SeatNumKey  string = "seatNo"
	PlayerIDKey string = "playerID"
	ConnIDKey   string = "connID"
	MsgTypeKey  string = "msgType"
	EventKey    string = "event"
)

// Setup configures the global zerolog logger. level is a zerolog level name;
// an unknown name falls back to info.
func Setup(level string, console bool, out io.Writer) {
	if out == nil {
		out = os.Stdout
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	w := out
	if console {
		w = zerolog.ConsoleWriter{Out: out, NoColor: !colorEnabled(), TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

// Component returns a child of the global logger tagged with name. Call it
// after Setup; package-level loggers built before Setup keep the default
// writer.
func Component(name string) zerolog.Logger {
	return log.With().Str(LoggerName, name).Logger()
}

func colorEnabled() bool {
	v := os.Getenv("COLORIZE_LOG")
	if v == "" {
		return true
	}
	return v == "1" || strings.ToLower(v) == "true"
}
