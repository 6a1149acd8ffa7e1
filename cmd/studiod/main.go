package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"OpenEmployee/internal/api"
	"OpenEmployee/internal/config"
	"OpenEmployee/internal/events"
	"OpenEmployee/internal/lexicon"
	"OpenEmployee/internal/observability/alerting"
	"OpenEmployee/internal/observability/metrics"
	"OpenEmployee/internal/observability/tracing"
	"OpenEmployee/internal/session"
	"OpenEmployee/pkg/logger"
)

// main 是数字员工生成服务的入口。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("studiod 运行失败: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.Log); err != nil {
		return err
	}
	defer logger.Sync()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.WithoutCancel(ctx)); err != nil {
			logger.L().Warn("关闭链路追踪失败", slog.Any("error", err))
		}
	}()

	var lex *lexicon.Lexicon
	if cfg.Pipeline.LexiconDir != "" {
		lex, err = lexicon.LoadDir(cfg.Pipeline.LexiconDir)
		if err != nil {
			return err
		}
	}

	bus, err := events.Open(ctx, cfg.Events.Bus())
	if err != nil {
		return err
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logger.L().Warn("关闭事件总线失败", slog.Any("error", err))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	orch := session.NewOrchestrator(lex, session.NewMemoryStore(), orchestratorOptions(cfg, bus, m)...)

	janitor, err := session.NewJanitor(orch, cfg.Sessions.IdleTTL(), cfg.Sessions.SweepSchedule)
	if err != nil {
		return err
	}

	server := api.NewServer(cfg.Server.Address, orch,
		api.WithMetrics(m),
		api.WithRateLimit(cfg.Server.RateLimit.RequestsPerSecond, cfg.Server.RateLimit.Burst),
	)

	logger.L().Info("studiod 启动",
		slog.String("address", cfg.Server.Address),
		slog.String("events", cfg.Events.Driver),
		slog.String("validation_policy", cfg.Pipeline.ValidationPolicy),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx)
	})
	g.Go(func() error {
		err := bus.Consume(gctx, cfg.Events.Workers, events.AuditHandler())
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		return janitor.Run(gctx)
	})
	return g.Wait()
}

func loadConfig() (*config.Config, error) {
	path := config.ResolvePath()
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("未找到配置文件 %s，使用默认配置", path)
		return config.Default(), nil
	}
	return nil, err
}

func orchestratorOptions(cfg *config.Config, bus events.Publisher, m *metrics.Metrics) []session.Option {
	opts := []session.Option{
		session.WithConfidenceThreshold(cfg.Pipeline.ConfidenceThreshold),
		session.WithValidation(cfg.Pipeline.ValidationEnabled()),
		session.WithValidationPolicy(session.ValidationPolicy(cfg.Pipeline.ValidationPolicy)),
		session.WithStageTimeout(cfg.Pipeline.StageTimeout()),
		session.WithSessionTimeout(cfg.Pipeline.SessionTimeout()),
		session.WithPublisher(bus),
		session.WithAlertDispatcher(alertDispatcher(cfg.Alerting)),
		session.WithRecorder(m),
	}
	if cfg.Pipeline.SimulatedLatency {
		reasoning, acting := cfg.Pipeline.Latencies()
		opts = append(opts, session.WithLatency(session.SimulatedLatency{Reasoning: reasoning, Acting: acting}))
	}
	return opts
}

func alertDispatcher(cfg config.AlertingConfig) *alerting.FanoutDispatcher {
	notifiers := []alerting.Notifier{&alerting.LogNotifier{Logger: logger.Named("alert")}}
	if cfg.Slack.Enabled() {
		notifiers = append(notifiers, &alerting.SlackNotifier{
			Sender:    alerting.NewSlackAPISender(cfg.Slack.Token, cfg.Slack.APIURL),
			ChannelID: cfg.Slack.Channel,
		})
	}
	return alerting.NewFanout(notifiers...)
}
