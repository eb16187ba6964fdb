package config

import (
	"flag"
	"fmt"
	"io"
	"time"
)

// ExitError is a custom error type that includes a specific exit code,
// mirroring the teacher's cli.ExitError.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string { return e.Message }

// Parse processes command-line arguments. It returns a populated Config, a
// boolean indicating the program should exit cleanly (help was printed, or
// no path was given), or an ExitError.
func Parse(args []string, output io.Writer) (*Config, bool, error) {
	flagSet := flag.NewFlagSet("sequenceengine", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
sequenceengine - a control-flow graph runner.

Usage:
  sequenceengine [options] [SEQUENCE_PATH]

Arguments:
  SEQUENCE_PATH
    Path to a single .seq.hcl file or a directory containing them.

Options:
`)
		flagSet.PrintDefaults()
	}

	seqFlag := flagSet.String("sequence", "", "Path to the sequence file or directory.")
	sFlag := flagSet.String("s", "", "Path to the sequence file or directory (shorthand).")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health/metrics server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", 10, "Number of concurrent workers for the scheduler.")
	timeoutFlag := flagSet.Duration("default-timeout", 0, "Default per-node timeout applied when a function node declares none. 0 disables it.")
	drainDeadlineFlag := flagSet.Duration("drain-deadline", 30*time.Second, "How long a cancelled run waits for in-flight nodes to finish before giving up. 0 waits indefinitely.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := ""
	switch {
	case *seqFlag != "":
		path = *seqFlag
	case *sFlag != "":
		path = *sFlag
	case flagSet.NArg() > 0:
		path = flagSet.Arg(0)
	}

	if path == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	cfg, err := New(Config{
		SequencePath:    path,
		LogFormat:       *logFormatFlag,
		LogLevel:        *logLevelFlag,
		HealthcheckPort: *healthPortFlag,
		Workers:         *workersFlag,
		DefaultTimeout:  time.Duration(*timeoutFlag),
		DrainDeadline:   time.Duration(*drainDeadlineFlag),
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return cfg, false, nil
}
