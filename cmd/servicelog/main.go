package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/orgoj/servicelog/internal/config"
	"github.com/orgoj/servicelog/internal/logger"
	"github.com/orgoj/servicelog/internal/queue"
	"github.com/orgoj/servicelog/internal/record"
	"github.com/orgoj/servicelog/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run ships one batch and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("servicelog", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "config/config.yaml", "Path to the configuration file")
	destName := flags.String("dest", "", "Destination name (defaults to default_destination)")
	severityName := flags.String("severity", "info", "Severity of records built from arguments or missing in input")
	fromStdin := flags.Bool("stdin", false, `Read JSON lines {"severity":"...","fields":{...}} from stdin`)
	timeout := flags.Duration("timeout", 30*time.Second, "Maximum time to wait for delivery")
	showVersion := flags.Bool("version", false, "Show version information and exit")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: servicelog [flags] key=value ...\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *showVersion {
		fmt.Fprintln(stdout, version.VersionInfo())
		return 0
	}

	sev, err := record.ParseSeverity(*severityName)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	q := queue.New()
	if *fromStdin {
		if err := readRecords(stdin, sev, q); err != nil {
			fmt.Fprintf(stderr, "Error: reading stdin: %v\n", err)
			return 2
		}
	} else {
		fields, err := parseFieldArgs(flags.Args())
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
		if len(fields) == 0 {
			flags.Usage()
			return 2
		}
		q.Append(record.New(sev, fields...))
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "[CRITICAL] Failed to load configuration from '%s': %v\n", *configPath, err)
		return 1
	}

	appLogger := logger.GetAppLogger()
	appLogger.SetOutput(stderr)
	if err := appLogger.SetLogLevelFromString(cfg.AppLog.Level); err != nil {
		fmt.Fprintf(stderr, "[WARN] Invalid log level '%s', using default: %v\n", cfg.AppLog.Level, err)
	}

	dest, err := selectDestination(cfg, *destName)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	manager := logger.NewManager()
	if err := manager.InitLoggers([]config.Destination{dest}); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer manager.CloseAll()

	sendCtx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	count := q.Len()
	if err := logger.Flush(sendCtx, q, manager.GetLogger(dest.Name)); err != nil {
		fmt.Fprintf(stderr, "send failed (%s): %v\n", logger.Kind(err), err)
		return 1
	}
	appLogger.Debug("Sent %d record(s) to '%s'", count, dest.Name)
	return 0
}

// selectDestination returns the named destination, or the default one.
func selectDestination(cfg *config.Config, name string) (config.Destination, error) {
	if name == "" {
		name = cfg.DefaultDestination
	}
	if name == "" {
		return config.Destination{}, fmt.Errorf("no destination given and no default_destination configured")
	}
	dest, ok := cfg.FindDestination(name)
	if !ok {
		return config.Destination{}, fmt.Errorf("destination '%s' not found", name)
	}
	if !dest.Enabled {
		return config.Destination{}, fmt.Errorf("destination '%s' is disabled", name)
	}
	return *dest, nil
}
