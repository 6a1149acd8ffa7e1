// Package tracing 初始化 OpenTelemetry 并提供生成流水线各阶段 span 的辅助函数。
package tracing

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	xerrors "OpenEmployee/internal/errors"
)

const tracerName = "OpenEmployee"

// Config 描述链路追踪配置。
type Config struct {
	Enabled  bool   `json:"enabled"`
	Exporter string `json:"exporter"`
	// Output 仅用于 stdout 导出器，为空时写到标准输出。
	Output io.Writer `json:"-"`
}

// Setup 初始化全局 TracerProvider 并返回关闭函数。未启用时使用 noop 实现。
func Setup(_ context.Context, cfg Config) (func(context.Context) error, error) {
	noopShutdown := func(context.Context) error { return nil }
	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		return noopShutdown, nil
	}

	switch cfg.Exporter {
	case "stdout":
		out := cfg.Output
		if out == nil {
			out = os.Stdout
		}
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(out))
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeInitializationFailure, err, "创建 stdout 导出器失败")
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
		)
		otel.SetTracerProvider(tp)
		return tp.Shutdown, nil
	case "noop", "":
		otel.SetTracerProvider(noop.NewTracerProvider())
		return noopShutdown, nil
	default:
		return nil, xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("不支持的追踪导出器: %s", cfg.Exporter))
	}
}

// StartSpan 使用全局 TracerProvider 创建 span。
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// RecordError 记录错误并将 span 状态置为失败。
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetOK 将 span 状态置为成功。
func SetOK(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}
