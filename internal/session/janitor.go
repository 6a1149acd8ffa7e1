package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	xerrors "OpenEmployee/internal/errors"
	"OpenEmployee/pkg/logger"
)

// Sweeper 清理空闲会话。
type Sweeper interface {
	Sweep(ctx context.Context, idle time.Duration) (int, error)
}

// Janitor 按 cron 表达式周期性清理空闲会话。
type Janitor struct {
	sweeper Sweeper
	idle    time.Duration
	cron    *cron.Cron
	logger  *slog.Logger
}

// NewJanitor 创建清理器。schedule 为空时每分钟执行一次。
func NewJanitor(sweeper Sweeper, idle time.Duration, schedule string) (*Janitor, error) {
	if sweeper == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "未配置会话清理器")
	}
	if idle <= 0 {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "空闲时长必须大于 0")
	}
	if schedule == "" {
		schedule = "@every 1m"
	}
	j := &Janitor{
		sweeper: sweeper,
		idle:    idle,
		cron:    cron.New(),
		logger:  logger.Named("janitor"),
	}
	if _, err := j.cron.AddFunc(schedule, j.SweepOnce); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "清理计划表达式不合法")
	}
	return j, nil
}

// Run 启动调度，直到 ctx 结束。
func (j *Janitor) Run(ctx context.Context) error {
	j.cron.Start()
	<-ctx.Done()
	<-j.cron.Stop().Done()
	return nil
}

// SweepOnce 执行一次清理。
func (j *Janitor) SweepOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	removed, err := j.sweeper.Sweep(ctx, j.idle)
	if err != nil {
		j.logger.Error("清理空闲会话失败", slog.Any("error", err))
		return
	}
	if removed > 0 {
		j.logger.Info("已清理空闲会话", slog.Int("removed", removed), slog.Duration("idle", j.idle))
	}
}

var _ Sweeper = (*Orchestrator)(nil)
