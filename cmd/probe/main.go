package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.senan.xyz/flagconf"

	"greeter/internal/probe"
	"greeter/internal/shared/logger"
	"greeter/internal/shared/types"
)

// 用于手动验证 greeter: 并发建立连接并校验收到的字节。
func main() {
	flag.CommandLine.Init("greeter_probe", flag.ExitOnError)

	addr := flag.String("addr", "127.0.0.1:80", "server address")
	network := flag.String("network", "tcp", "tcp, tcp4 or tcp6")
	n := flag.Int("n", 1, "number of concurrent connections")
	expect := flag.String("expect", types.DefaultPayload, "expected payload")
	timeout := flag.Duration("timeout", 5*time.Second, "per-connection timeout")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()
	if err := flagconf.ParseEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: invalid environment override: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(types.LogConf{Level: *level}); err != nil {
		os.Exit(1)
	}

	report, err := probe.Run(context.Background(), *network, *addr, *n, []byte(*expect), *timeout)
	logger.Info().
		Str("addr", *addr).
		Int("attempts", report.Attempts).
		Int64("matched", report.Matched).
		Int64("mismatched", report.Mismatched).
		Int64("failed", report.Failed).
		Int64("elapsed_ms", report.Elapsed.Milliseconds()).
		Msg("Probe finished")
	if err != nil {
		logger.Error().Err(err).Msg("Probe failed")
		os.Exit(1)
	}
}
