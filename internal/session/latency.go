package session

import (
	"context"
	"time"

	"OpenEmployee/internal/employee"
)

// Latency 在阶段执行前等待，模拟或承载真实的推理耗时。
type Latency interface {
	Wait(ctx context.Context, kind employee.StepKind) error
}

// NoLatency 不做任何等待。
type NoLatency struct{}

// Wait 实现 Latency 接口。
func (NoLatency) Wait(ctx context.Context, _ employee.StepKind) error {
	return ctx.Err()
}

// SimulatedLatency 按步骤类型等待固定时长，用于演示与测试。
type SimulatedLatency struct {
	Reasoning time.Duration
	Acting    time.Duration
}

// DefaultSimulatedLatency 返回推理 500ms、执行 300ms 的模拟延迟。
func DefaultSimulatedLatency() SimulatedLatency {
	return SimulatedLatency{Reasoning: 500 * time.Millisecond, Acting: 300 * time.Millisecond}
}

// Wait 实现 Latency 接口。
func (l SimulatedLatency) Wait(ctx context.Context, kind employee.StepKind) error {
	d := l.Acting
	if kind == employee.StepReasoning {
		d = l.Reasoning
	}
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
