package types

import "time"

// ServerConf 描述监听端点和每个连接的响应。
type ServerConf struct {
	Host         string `ini:"host"`    // 为空表示绑定所有本地接口
	Port         int    `ini:"port"`    // 0 表示由内核分配
	Network      string `ini:"network"` // "tcp" (双栈), "tcp4" 或 "tcp6"
	Backlog      int    `ini:"backlog"`
	Payload      string `ini:"payload"`
	WriteTimeout int    `ini:"write_timeout"` // 秒, 0 表示不设置写超时
}

// WriteDeadline returns the per-connection write budget, zero when disabled.
func (c ServerConf) WriteDeadline() time.Duration {
	if c.WriteTimeout <= 0 {
		return 0
	}
	return time.Duration(c.WriteTimeout) * time.Second
}

// LogConf contains logging specific configuration
type LogConf struct {
	Level string `ini:"level"`
}

// Config 是统一配置结构体
type Config struct {
	ServerConf `ini:"server"`
	LogConf    `ini:"log"`
}

const (
	DefaultPort    = 80
	DefaultBacklog = 10
	DefaultPayload = "Hello, world!"
	DefaultNetwork = "tcp"
)

// DefaultConfig returns the configuration used when no ini file is present.
func DefaultConfig() *Config {
	return &Config{
		ServerConf: ServerConf{
			Port:    DefaultPort,
			Network: DefaultNetwork,
			Backlog: DefaultBacklog,
			Payload: DefaultPayload,
		},
		LogConf: LogConf{Level: "info"},
	}
}
