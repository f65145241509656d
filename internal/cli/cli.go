package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/specialistvlad/hdlforge/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("hdlforge", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
hdlforge - Elaborates declarative hardware designs into structural netlists.

Usage:
  hdlforge [options] [DESIGN_PATH]

Arguments:
  DESIGN_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	designFlag := flagSet.String("design", "", "Path to the design file or directory.")
	dFlag := flagSet.String("d", "", "Path to the design file or directory (shorthand).")
	topFlag := flagSet.String("top", "", "Name of the top module. Defaults to the only module nothing instantiates.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	drcFlag := flagSet.Bool("drc", false, "Run the built-in design rules and report findings.")
	validateFlag := flagSet.Bool("validate", false, "Validate the exported design against its schema.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *designFlag != "" {
		path = *designFlag
	} else if *dFlag != "" {
		path = *dFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Design path determined.", "path", path)

	if path == "" {
		slog.Debug("No design path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	config, err := app.NewConfig(app.Config{
		DesignPath: path,
		Top:        *topFlag,
		LogFormat:  *logFormatFlag,
		LogLevel:   *logLevelFlag,
		CheckRules: *drcFlag,
		Validate:   *validateFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
