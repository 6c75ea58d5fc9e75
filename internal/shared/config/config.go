package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"

	"greeter/internal/shared/types"
)

// LoadIni 将 ini 文件映射到 cfg 上。cfg 中已有的值作为默认值保留。
// 文件不存在时不视为错误, 直接使用默认值。
func LoadIni(cfg *types.Config, fileName string) error {
	iniFile, err := ini.Load(fileName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := iniFile.MapTo(cfg); err != nil {
		return err
	}
	return Validate(cfg)
}

// Parse maps in-memory ini content onto cfg.
func Parse(cfg *types.Config, content []byte) error {
	iniFile, err := ini.Load(content)
	if err != nil {
		return fmt.Errorf("failed to parse ini content: %w", err)
	}
	if err := iniFile.MapTo(cfg); err != nil {
		return fmt.Errorf("failed to map ini content to config struct: %w", err)
	}
	return Validate(cfg)
}

// Validate checks the server section and normalizes the network name.
func Validate(cfg *types.Config) error {
	sc := &cfg.ServerConf
	sc.Network = strings.ToLower(strings.TrimSpace(sc.Network))
	if sc.Network == "" {
		sc.Network = types.DefaultNetwork
	}
	switch sc.Network {
	case "tcp", "tcp4", "tcp6":
	default:
		return fmt.Errorf("unsupported network %q (want tcp, tcp4 or tcp6)", sc.Network)
	}
	if sc.Port < 0 || sc.Port > 65535 {
		return fmt.Errorf("port %d out of range", sc.Port)
	}
	if sc.Backlog <= 0 {
		return fmt.Errorf("backlog must be positive, got %d", sc.Backlog)
	}
	if sc.Payload == "" {
		return errors.New("payload must not be empty")
	}
	if sc.WriteTimeout < 0 {
		return fmt.Errorf("write_timeout must not be negative, got %d", sc.WriteTimeout)
	}
	return nil
}
