package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"OpenEmployee/internal/events"
	"OpenEmployee/internal/observability/tracing"
	"OpenEmployee/pkg/logger"
)

// EnvPath 指定配置文件路径的环境变量。
const EnvPath = "STUDIO_CONFIG"

// Config 描述了 studiod 在启动阶段需要加载的全部配置。
type Config struct {
	Server   ServerConfig   `json:"server"`
	Pipeline PipelineConfig `json:"pipeline"`
	Sessions SessionsConfig `json:"sessions"`
	Events   EventsConfig   `json:"events"`
	Alerting AlertingConfig `json:"alerting"`
	Tracing  tracing.Config `json:"tracing"`
	Log      logger.Config  `json:"log"`
}

// ServerConfig 控制 API 服务的监听地址与限流参数。
type ServerConfig struct {
	Address   string          `json:"address"`
	RateLimit RateLimitConfig `json:"rate_limit"`
}

// RateLimitConfig 按客户端限流，RequestsPerSecond 为 0 时不限流。
type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second"`
	Burst             int     `json:"burst"`
}

// PipelineConfig 控制生成流水线的行为。Validate 为空时默认开启校验。
type PipelineConfig struct {
	ConfidenceThreshold   float64 `json:"confidence_threshold"`
	Validate              *bool   `json:"validate"`
	ValidationPolicy      string  `json:"validation_policy"`
	SimulatedLatency      bool    `json:"simulated_latency"`
	ReasoningLatencyMS    int     `json:"reasoning_latency_ms"`
	ActingLatencyMS       int     `json:"acting_latency_ms"`
	StageTimeoutSeconds   int     `json:"stage_timeout_seconds"`
	SessionTimeoutSeconds int     `json:"session_timeout_seconds"`
	LexiconDir            string  `json:"lexicon_dir"`
}

// SessionsConfig 控制空闲会话清理。
type SessionsConfig struct {
	IdleTTLMinutes int    `json:"idle_ttl_minutes"`
	SweepSchedule  string `json:"sweep_schedule"`
}

// EventsConfig 描述生命周期事件总线。
type EventsConfig struct {
	Driver   string                `json:"driver"`
	Buffer   int                   `json:"buffer"`
	Workers  int                   `json:"workers"`
	Redis    RedisConfig           `json:"redis"`
	RabbitMQ events.RabbitMQConfig `json:"rabbitmq"`
}

// RedisConfig 描述 Redis 事件队列的连接信息。
type RedisConfig struct {
	Address   string `json:"address"`
	Password  string `json:"password"`
	DB        int    `json:"db"`
	Queue     string `json:"queue"`
	BlockWait int    `json:"block_wait_seconds"`
}

// AlertingConfig 描述告警渠道。
type AlertingConfig struct {
	Slack SlackConfig `json:"slack"`
}

// SlackConfig 为空 token 时不启用 Slack 告警。
type SlackConfig struct {
	Token   string `json:"token"`
	Channel string `json:"channel"`
	APIURL  string `json:"api_url"`
}

// Enabled 判断 Slack 告警是否可用。
func (s SlackConfig) Enabled() bool {
	return s.Token != "" && s.Channel != ""
}

// ValidationEnabled 返回是否执行校验阶段。
func (p PipelineConfig) ValidationEnabled() bool {
	return p.Validate == nil || *p.Validate
}

// StageTimeout 返回单阶段超时，0 表示不限制。
func (p PipelineConfig) StageTimeout() time.Duration {
	return time.Duration(p.StageTimeoutSeconds) * time.Second
}

// SessionTimeout 返回单轮处理超时，0 表示不限制。
func (p PipelineConfig) SessionTimeout() time.Duration {
	return time.Duration(p.SessionTimeoutSeconds) * time.Second
}

// Latencies 返回推理与执行步骤的模拟延迟。
func (p PipelineConfig) Latencies() (reasoning, acting time.Duration) {
	return time.Duration(p.ReasoningLatencyMS) * time.Millisecond, time.Duration(p.ActingLatencyMS) * time.Millisecond
}

// IdleTTL 返回会话空闲过期时长。
func (s SessionsConfig) IdleTTL() time.Duration {
	return time.Duration(s.IdleTTLMinutes) * time.Minute
}

// Bus 转换为事件总线配置。
func (e EventsConfig) Bus() events.Config {
	return events.Config{
		Driver:  e.Driver,
		Buffer:  e.Buffer,
		Workers: e.Workers,
		Redis: events.RedisConfig{
			Address:   e.Redis.Address,
			Password:  e.Redis.Password,
			DB:        e.Redis.DB,
			Queue:     e.Redis.Queue,
			BlockWait: time.Duration(e.Redis.BlockWait) * time.Second,
		},
		RabbitMQ: e.RabbitMQ,
	}
}

// ResolvePath 返回环境变量指定的配置路径，未设置时使用 configs/studio.json。
func ResolvePath() string {
	if path := os.Getenv(EnvPath); path != "" {
		return path
	}
	return filepath.Join("configs", "studio.json")
}

// Default 返回仅包含默认值的配置。
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults(".")
	return cfg
}

// Load 负责解析指定路径的 JSON 配置文件。
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("配置文件路径为空")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开配置文件失败: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	cfg.applyDefaults(filepath.Dir(path))
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults 在用户未填写部分字段时设置合理的默认值。
func (c *Config) applyDefaults(baseDir string) {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.RateLimit.RequestsPerSecond > 0 && c.Server.RateLimit.Burst <= 0 {
		c.Server.RateLimit.Burst = max(1, int(c.Server.RateLimit.RequestsPerSecond))
	}

	if c.Pipeline.ConfidenceThreshold == 0 {
		c.Pipeline.ConfidenceThreshold = 0.7
	}
	if c.Pipeline.ValidationPolicy == "" {
		c.Pipeline.ValidationPolicy = "lenient"
	}
	c.Pipeline.ValidationPolicy = strings.ToLower(c.Pipeline.ValidationPolicy)
	if c.Pipeline.SimulatedLatency {
		if c.Pipeline.ReasoningLatencyMS == 0 {
			c.Pipeline.ReasoningLatencyMS = 500
		}
		if c.Pipeline.ActingLatencyMS == 0 {
			c.Pipeline.ActingLatencyMS = 300
		}
	}
	if c.Pipeline.StageTimeoutSeconds == 0 {
		c.Pipeline.StageTimeoutSeconds = 30
	}
	if c.Pipeline.LexiconDir != "" && !filepath.IsAbs(c.Pipeline.LexiconDir) {
		c.Pipeline.LexiconDir = filepath.Join(baseDir, c.Pipeline.LexiconDir)
	}

	if c.Sessions.IdleTTLMinutes == 0 {
		c.Sessions.IdleTTLMinutes = 60
	}
	if c.Sessions.SweepSchedule == "" {
		c.Sessions.SweepSchedule = "@every 1m"
	}

	if c.Events.Driver == "" {
		c.Events.Driver = "memory"
	}
	if c.Events.Workers <= 0 {
		c.Events.Workers = 1
	}

	if c.Tracing.Enabled && c.Tracing.Exporter == "" {
		c.Tracing.Exporter = "stdout"
	}

	if c.Log.Audit.Enabled && c.Log.Audit.Path != "" && !filepath.IsAbs(c.Log.Audit.Path) {
		c.Log.Audit.Path = filepath.Join(baseDir, c.Log.Audit.Path)
	}
}

func (c *Config) validate() error {
	if c.Pipeline.ConfidenceThreshold < 0 || c.Pipeline.ConfidenceThreshold > 1 {
		return fmt.Errorf("置信度阈值必须位于 [0,1]: %v", c.Pipeline.ConfidenceThreshold)
	}
	switch c.Pipeline.ValidationPolicy {
	case "lenient", "strict":
	default:
		return fmt.Errorf("未知的校验策略: %s", c.Pipeline.ValidationPolicy)
	}
	if c.Sessions.IdleTTLMinutes < 0 {
		return fmt.Errorf("会话空闲时长不能为负数: %d", c.Sessions.IdleTTLMinutes)
	}
	return nil
}
