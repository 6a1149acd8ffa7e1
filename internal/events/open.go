package events

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	xerrors "OpenEmployee/internal/errors"
	"OpenEmployee/pkg/logger"
)

// Config 描述事件总线的驱动与连接参数。
type Config struct {
	Driver   string         `json:"driver"`
	Buffer   int            `json:"buffer"`
	Workers  int            `json:"workers"`
	Redis    RedisConfig    `json:"redis"`
	RabbitMQ RabbitMQConfig `json:"rabbitmq"`
}

// Open 根据驱动创建事件总线，driver 为空时使用内存实现。
func Open(ctx context.Context, cfg Config) (Bus, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "memory":
		return NewMemoryBus(cfg.Buffer), nil
	case "redis":
		return NewRedisBus(ctx, cfg.Redis)
	case "rabbitmq":
		return NewRabbitMQBus(cfg.RabbitMQ)
	default:
		return nil, xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("不支持的事件驱动: %s", cfg.Driver))
	}
}

// AuditHandler 将事件写入审计日志。
func AuditHandler() Handler {
	return func(_ context.Context, event Event) error {
		attrs := []any{
			slog.String("event_id", event.ID),
			slog.String("event_type", string(event.Type)),
			slog.String("session_id", event.SessionID),
		}
		if event.Status != "" {
			attrs = append(attrs, slog.String("status", event.Status))
		}
		if event.Phase != "" {
			attrs = append(attrs, slog.String("phase", event.Phase))
		}
		if event.StepID != "" {
			attrs = append(attrs, slog.String("step_id", event.StepID))
		}
		if event.Message != "" {
			attrs = append(attrs, slog.String("message", event.Message))
		}
		logger.Audit().Info("session_event", attrs...)
		return nil
	}
}
