// Package log holds the wallet's zerolog loggers: one root logger plus a
// tagged child per subsystem (rpc, wallet, storage, cli).
package log

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the root logger. Init replaces it.
var Logger zerolog.Logger

// Subsystem loggers, rebuilt from Logger by Init.
var (
	RPC     zerolog.Logger
	Wallet  zerolog.Logger
	Storage zerolog.Logger
	CLI     zerolog.Logger
)

const consoleTimeFormat = "15:04:05"

func init() {
	Logger = NewConsoleLogger(os.Stderr, "info")
	tagSubsystems()
}

// Init sets up the root logger. Console output goes to stderr so command
// output on stdout stays machine readable. A non-empty file additionally
// receives JSON lines.
func Init(level string, jsonOutput bool, file string) error {
	var console io.Writer = os.Stderr
	if !jsonOutput {
		console = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: consoleTimeFormat}
	}

	out := console
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return err
		}
		out = zerolog.MultiLevelWriter(console, f)
	}

	Logger = newLogger(out, level)
	tagSubsystems()
	return nil
}

// NewConsoleLogger creates a colored console logger.
func NewConsoleLogger(w io.Writer, level string) zerolog.Logger {
	return newLogger(zerolog.ConsoleWriter{Out: w, TimeFormat: consoleTimeFormat}, level)
}

// NewJSONLogger creates a JSON-lines logger.
func NewJSONLogger(w io.Writer, level string) zerolog.Logger {
	return newLogger(w, level)
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// Levels lists the level names accepted in configuration.
var Levels = []string{"debug", "info", "warn", "error"}

// ParseLevel maps a configured level name to zerolog. Unknown names mean info.
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func tagSubsystems() {
	RPC = WithComponent("rpc")
	Wallet = WithComponent("wallet")
	Storage = WithComponent("storage")
	CLI = WithComponent("cli")
}

// WithComponent returns a child of the root logger tagged with name.
func WithComponent(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

// WithNetwork tags l with the network key that scopes cached data, so log
// lines from wallets on different networks can be told apart.
func WithNetwork(l zerolog.Logger, network string) zerolog.Logger {
	if network == "" {
		return l
	}
	return l.With().Str("network", network).Logger()
}
