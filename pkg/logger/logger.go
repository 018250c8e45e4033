package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config opciones para el logger.
type Config struct {
	Env    string    // development -> consola legible; otro -> JSON
	Level  string    // trace, debug, info, warn, error
	Output io.Writer // opcional; por defecto os.Stdout
}

// Logger wrapper sobre zerolog para inyección y consistencia.
type Logger struct {
	zl zerolog.Logger
}

// New crea un logger estructurado y lo instala como logger global de zerolog.
func New(cfg Config) *Logger {
	w := cfg.Output
	if w == nil {
		w = os.Stdout
	}
	if cfg.Env == "development" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	zl := zerolog.New(w).Level(ParseLevel(cfg.Level)).With().Timestamp().Logger()
	log.Logger = zl

	return &Logger{zl: zl}
}

// Nop devuelve un logger que descarta todo (tests).
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// ParseLevel convierte el nivel textual; desconocido -> info.
func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }
func (l *Logger) Fatal() *zerolog.Event { return l.zl.Fatal() }

// Component devuelve un sublogger con el campo "component" fijo; es lo que reciben los adaptadores.
func (l *Logger) Component(name string) zerolog.Logger {
	return l.zl.With().Str("component", name).Logger()
}

// Zerolog devuelve el logger interno por si se necesita la API directa.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zl
}
