package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/ethereum/go-ethereum/log"
)

const (
	LevelFlagName  = "log.level"
	FormatFlagName = "log.format"
	ColorFlagName  = "log.color"
)

// FormatType defines the type of log format.
type FormatType string

const (
	FormatText     FormatType = "text"
	FormatTerminal FormatType = "terminal"
	FormatLogFmt   FormatType = "logfmt"
	FormatJSON     FormatType = "json"
)

// formatTypes is used for flag usage and validation
var formatTypes = []FormatType{FormatText, FormatTerminal, FormatLogFmt, FormatJSON}

func (f FormatType) String() string {
	return string(f)
}

// Set implements cli.Generic, so the format can be validated at flag-parse time.
func (f *FormatType) Set(value string) error {
	for _, t := range formatTypes {
		if string(t) == value {
			*f = t
			return nil
		}
	}
	return fmt.Errorf("unrecognized log format: %q", value)
}

func (f *FormatType) Clone() any {
	cpy := *f
	return &cpy
}

var levelNames = map[string]slog.Level{
	"trace": log.LevelTrace,
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
	"crit":  log.LevelCrit,
}

// LevelFromString parses a case-insensitive level name.
func LevelFromString(s string) (slog.Level, error) {
	lvl, ok := levelNames[strings.ToLower(s)]
	if !ok {
		return 0, fmt.Errorf("unknown log level: %q", s)
	}
	return lvl, nil
}

func CLIFlags(envPrefix string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     LevelFlagName,
			Usage:    "The lowest log level that will be output",
			Value:    "info",
			EnvVars:  []string{envPrefix + "_LOG_LEVEL"},
			Category: "Logging",
		},
		&cli.GenericFlag{
			Name:     FormatFlagName,
			Usage:    "Format the log output. Supported formats: 'text', 'terminal', 'logfmt', 'json'",
			Value:    func() *FormatType { f := FormatText; return &f }(),
			EnvVars:  []string{envPrefix + "_LOG_FORMAT"},
			Category: "Logging",
		},
		&cli.BoolFlag{
			Name:     ColorFlagName,
			Usage:    "Color the log output if in terminal mode",
			EnvVars:  []string{envPrefix + "_LOG_COLOR"},
			Category: "Logging",
		},
	}
}

type CLIConfig struct {
	Level  slog.Level
	Color  bool
	Format FormatType
}

func DefaultCLIConfig() CLIConfig {
	return CLIConfig{
		Level:  log.LevelInfo,
		Format: FormatText,
	}
}

// ReadCLIConfig reads the logging flags. An unparseable level falls back to info.
// Without an explicit color flag, terminal output is colored when stdout is a terminal.
func ReadCLIConfig(ctx *cli.Context) CLIConfig {
	cfg := DefaultCLIConfig()
	if lvl, err := LevelFromString(ctx.String(LevelFlagName)); err == nil {
		cfg.Level = lvl
	}
	if ctx.IsSet(ColorFlagName) {
		cfg.Color = ctx.Bool(ColorFlagName)
	} else {
		cfg.Color = isatty.IsTerminal(os.Stdout.Fd())
	}
	if f, ok := ctx.Generic(FormatFlagName).(*FormatType); ok && f != nil {
		cfg.Format = *f
	}
	return cfg
}

// NewLogHandler creates a slog handler for the given output and config.
func NewLogHandler(wr io.Writer, cfg CLIConfig) slog.Handler {
	switch cfg.Format {
	case FormatJSON:
		return JSONMsHandler(wr, cfg.Level)
	case FormatLogFmt:
		return LogfmtMsHandler(wr, cfg.Level)
	case FormatTerminal:
		return log.NewTerminalHandlerWithLevel(wr, cfg.Level, cfg.Color)
	default:
		return log.NewTerminalHandlerWithLevel(wr, cfg.Level, false)
	}
}

// NewLogger creates a logger and installs it as the global root logger.
func NewLogger(wr io.Writer, cfg CLIConfig) log.Logger {
	h := NewLogHandler(wr, cfg)
	l := log.NewLogger(h)
	log.SetDefault(l)
	return l
}

// SetGlobalLogHandler sets the log handler of the root logger.
func SetGlobalLogHandler(h slog.Handler) {
	log.SetDefault(log.NewLogger(h))
}

// SetupDefaults sets up a terminal logger on stdout until the CLI flags are parsed.
func SetupDefaults() {
	SetGlobalLogHandler(log.NewTerminalHandlerWithLevel(os.Stdout, log.LevelInfo, false))
}
