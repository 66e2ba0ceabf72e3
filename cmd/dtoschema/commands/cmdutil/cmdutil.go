// Package cmdutil provides shared CLI utilities for all command groups.
package cmdutil

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// StdinIndicator is the conventional Unix indicator to read from stdin.
const StdinIndicator = "-"

// IsStdin returns true if the given path indicates stdin should be used.
func IsStdin(path string) bool {
	return path == StdinIndicator
}

// StdinIsPiped returns true when stdin is connected to a pipe (not a terminal),
// meaning data is being piped in from another command or a file redirect.
func StdinIsPiped() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) == 0
}

// InputFileFromArgs returns the input file from args, or "-" if stdin should
// be used. It extracts the first positional arg or detects piped stdin.
func InputFileFromArgs(args []string) string {
	return ArgAt(args, 0, StdinIndicator)
}

// ArgAt returns the positional arg at index, or defaultVal when there is none.
func ArgAt(args []string, index int, defaultVal string) string {
	if index < 0 || index >= len(args) {
		return defaultVal
	}
	return args[index]
}

// StdinOrFileArgs returns a cobra arg validator that accepts minArgs..maxArgs
// when a file is given, but also allows zero args when stdin is piped.
func StdinOrFileArgs(minArgs, maxArgs int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			if minArgs == 0 || StdinIsPiped() {
				return nil
			}
			return fmt.Errorf("requires at least %d arg(s), or pipe data to stdin", minArgs)
		}
		if len(args) < minArgs {
			return fmt.Errorf("requires at least %d arg(s), only received %d", minArgs, len(args))
		}
		if maxArgs >= 0 && len(args) > maxArgs {
			return fmt.Errorf("accepts at most %d arg(s), received %d", maxArgs, len(args))
		}
		return nil
	}
}

// OpenInput opens the file at path, or stdin for "-".
func OpenInput(path string) (io.ReadCloser, error) {
	if IsStdin(path) {
		return io.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

// Logger returns a logger writing to stderr, at debug level when the persistent verbose flag is set.
func Logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if verbose, err := cmd.Flags().GetBool("verbose"); err == nil && verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// FormatErrors numbers errors one per line, aligning the index column.
func FormatErrors(errs []error) string {
	var sb strings.Builder
	indexWidth := len(strconv.Itoa(len(errs)))

	for i, err := range errs {
		fmt.Fprintf(&sb, "%*d. %s\n", indexWidth, i+1, err.Error())
	}

	return sb.String()
}

// Dief prints a formatted message to stderr and exits with code 1.
func Dief(f string, args ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", args...)
	os.Exit(1)
}

// Die prints an error to stderr and exits with code 1.
func Die(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
