package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ramr/go-reaper"
	"go.senan.xyz/flagconf"

	"greeter/internal/app"
	"greeter/internal/shared/config"
	"greeter/internal/shared/logger"
	"greeter/internal/shared/types"
)

// options holds command line values. Only flags that were set on the command
// line or through GREETER_* environment variables override the ini file.
type options struct {
	configPath string
	host       string
	port       int
	network    string
	backlog    int
	logLevel   string
	set        map[string]bool
}

func main() {
	flag.CommandLine.Init("greeter", flag.ExitOnError)

	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: %v\n", err)
		os.Exit(1)
	}

	// Running as PID 1 in a container we may inherit orphans.
	if os.Getpid() == 1 {
		go reaper.Reap()
	}

	if err := run(context.Background(), opts); err != nil {
		logger.Error().Err(err).Msg("server: fatal")
		os.Exit(1)
	}
}

// parseOptions defines the flags on flag.CommandLine, parses args and then
// applies GREETER_* environment overrides.
func parseOptions(args []string) (options, error) {
	fs := flag.CommandLine
	opts := options{}
	fs.StringVar(&opts.configPath, "config", "configs/greeter.ini", "path to the ini config file")
	fs.StringVar(&opts.host, "host", "", "bind host, empty for all interfaces")
	fs.IntVar(&opts.port, "port", types.DefaultPort, "listen port")
	fs.StringVar(&opts.network, "network", types.DefaultNetwork, "tcp, tcp4 or tcp6")
	fs.IntVar(&opts.backlog, "backlog", types.DefaultBacklog, "pending connection queue depth")
	fs.StringVar(&opts.logLevel, "log-level", "info", "log level")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if err := flagconf.ParseEnv(); err != nil {
		return opts, fmt.Errorf("invalid environment override: %w", err)
	}

	opts.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, nil
}

func loadConfig(opts options) (*types.Config, error) {
	cfg := types.DefaultConfig()
	if err := config.LoadIni(cfg, opts.configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", opts.configPath, err)
	}
	if opts.set["host"] {
		cfg.Host = opts.host
	}
	if opts.set["port"] {
		cfg.Port = opts.port
	}
	if opts.set["network"] {
		cfg.Network = opts.network
	}
	if opts.set["backlog"] {
		cfg.Backlog = opts.backlog
	}
	if opts.set["log-level"] {
		cfg.Level = opts.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// run returns only on a fatal setup error; otherwise the server runs until
// the process is killed.
func run(ctx context.Context, opts options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		// Use standard fmt before logger is initialized.
		fmt.Fprintf(os.Stderr, "Fatal: %v\n", err)
		return err
	}

	if err := logger.Init(cfg.LogConf); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: Failed to initialize logger: %v\n", err)
		return err
	}

	return app.New(cfg).Run(ctx)
}
