// Package mobile exposes a small in-process API for embedding the greeter,
// e.g. through gomobile bindings. Panics are converted into errors at this
// boundary.
package mobile

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"

	"greeter/internal/app"
	"greeter/internal/shared/config"
	"greeter/internal/shared/logger"
	"greeter/internal/shared/types"
)

var (
	// 当前进程内唯一运行的 AppServer 实例
	activeAppServer *app.AppServer
	instanceMutex   sync.Mutex
)

// Start starts the server from ini content held in memory. Keys missing from
// iniContent keep their defaults; port 0 picks a free port.
// It returns the port actually bound.
func Start(iniContent string) (port int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("go core panic: %v\n\n%s", r, debug.Stack())
			port = 0
		}
	}()

	instanceMutex.Lock()
	defer instanceMutex.Unlock()

	if activeAppServer != nil {
		return 0, fmt.Errorf("service is already running")
	}

	cfg := types.DefaultConfig()
	if err := config.Parse(cfg, []byte(iniContent)); err != nil {
		return 0, err
	}

	if err := logger.Init(cfg.LogConf); err != nil {
		return 0, fmt.Errorf("failed to initialize logger: %w", err)
	}

	appServer := app.New(cfg)
	port, err = appServer.Start(context.Background())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to start app server in embedded mode")
		appServer.Stop()
		return 0, err
	}

	activeAppServer = appServer
	logger.Debug().Int("port", port).Msg("Greeter started in embedded mode")
	return port, nil
}

// Stop stops the running server, if any, and waits for in-flight workers.
func Stop() {
	instanceMutex.Lock()
	defer instanceMutex.Unlock()

	if activeAppServer != nil {
		activeAppServer.Stop()
		activeAppServer.Wait()
		activeAppServer = nil
	}
}

func IsRunning() bool {
	instanceMutex.Lock()
	defer instanceMutex.Unlock()
	return activeAppServer != nil
}

// QueryStats returns the connection counters as a JSON object.
func QueryStats() (statsJson string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("go core panic in QueryStats: %v\n\n%s", r, debug.Stack())
			statsJson = "{}"
		}
	}()

	instanceMutex.Lock()
	defer instanceMutex.Unlock()

	if activeAppServer == nil {
		return "{}", nil
	}

	statsBytes, err := json.Marshal(activeAppServer.Metrics())
	if err != nil {
		return "", fmt.Errorf("failed to marshal stats: %w", err)
	}
	return string(statsBytes), nil
}
