// Command bandscope plays audio through a steep band-pass filter while
// drawing a live spectrogram, and records takes from an input device.
//
// Usage:
//
//	bandscope play [flags] <file>
//	bandscope record [flags]
//	bandscope windows [flags]
//
// Examples:
//
//	bandscope play --preset vocal --filter on speech.wav
//	bandscope play --hp 80 --lp 250 --snapshot bass.png song.mp3
//	bandscope record --device 2 --out takes/
//	bandscope record --duration 10s
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
)

var version = "0.1.0"

// Globals are the flags shared by every command.
type Globals struct {
	Settings string           `short:"c" type:"path" default:"${settings}" help:"Path to the JSON settings file"`
	Verbose  bool             `short:"v" help:"Log at debug level"`
	LogFile  string           `type:"path" help:"Write logs to this file instead of stderr"`
	Version  kong.VersionFlag `help:"Show version information"`
}

// CLI defines the command-line interface.
type CLI struct {
	Globals

	Play    PlayCmd    `cmd:"" help:"Play a WAV or MP3 file through the band-pass filter"`
	Record  RecordCmd  `cmd:"" help:"Record takes from an input device"`
	Windows WindowsCmd `cmd:"" help:"Show the spectral properties of the analyser windows"`
}

var errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A40000"))

func main() {
	cli := &CLI{}
	kctx := kong.Parse(cli,
		kong.Name("bandscope"),
		kong.Description("Band-pass filtered playback with a live spectrogram"),
		kong.UsageOnError(),
		kong.Vars{
			"version":  version,
			"settings": defaultSettingsPath(),
		},
	)

	logger, closeLog, err := newLogger(cli.Verbose, cli.LogFile)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := &env{Globals: cli.Globals, ctx: ctx, logger: logger}
	if err := kctx.Run(env); err != nil {
		printError(err)
		closeLog()
		os.Exit(1)
	}
}

// env is handed to every command's Run method.
type env struct {
	Globals
	ctx    context.Context
	logger *slog.Logger
}

// newLogger installs a text handler on stderr, or on path when set, and
// makes it the slog default.
func newLogger(debug bool, path string) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	closeFn := func() {}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeFn = func() { _ = f.Close() }
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	}))
	slog.SetDefault(logger)

	return logger, closeFn, nil
}

func defaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "bandscope.json"
	}
	return filepath.Join(dir, "bandscope", "settings.json")
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("Error:"), err)
}
