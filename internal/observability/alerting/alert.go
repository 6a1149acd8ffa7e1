// Package alerting 将会话失败等事件派发到告警渠道。
package alerting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	xerrors "OpenEmployee/internal/errors"
	"OpenEmployee/pkg/logger"
)

// Channel 表示通知渠道。
type Channel string

// 支持的通知渠道
const (
	ChannelLog   Channel = "log"
	ChannelSlack Channel = "slack"
)

// Event 描述一次需要告警的事件。
type Event struct {
	Code       xerrors.Code
	Message    string
	Severity   xerrors.Severity
	SessionID  string
	Mode       string
	Phase      string
	Metadata   map[string]string
	OccurredAt time.Time
}

// Notifier 负责将事件发送到指定渠道。
type Notifier interface {
	Channel() Channel
	Notify(ctx context.Context, event Event) error
}

// Dispatcher 将事件广播给多个通知器。
type Dispatcher interface {
	Notify(ctx context.Context, event Event) error
}

// FanoutDispatcher 实现将事件投递到多个通知器的逻辑。
type FanoutDispatcher struct {
	notifiers map[Channel]Notifier
}

// NewFanout 创建一个新的 FanoutDispatcher。同一渠道只保留最后注册的通知器。
func NewFanout(notifiers ...Notifier) *FanoutDispatcher {
	set := make(map[Channel]Notifier, len(notifiers))
	for _, n := range notifiers {
		if n == nil {
			continue
		}
		set[n.Channel()] = n
	}
	return &FanoutDispatcher{notifiers: set}
}

// Channels 返回已注册的渠道，按名称排序。
func (d *FanoutDispatcher) Channels() []Channel {
	if d == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(d.notifiers))
}

// Notify 将事件广播至所有注册渠道。
func (d *FanoutDispatcher) Notify(ctx context.Context, event Event) error {
	if d == nil {
		return nil
	}
	var errs []error
	for _, notifier := range d.notifiers {
		if err := notifier.Notify(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("channel %s: %w", notifier.Channel(), err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// LogNotifier 将告警写入日志。
type LogNotifier struct {
	Logger *slog.Logger
}

// Channel 返回日志渠道。
func (n *LogNotifier) Channel() Channel { return ChannelLog }

// Notify 记录告警日志。
func (n *LogNotifier) Notify(_ context.Context, event Event) error {
	l := logger.L()
	if n != nil && n.Logger != nil {
		l = n.Logger
	}
	attrs := []any{
		slog.String("code", string(event.Code)),
		slog.String("severity", string(event.Severity)),
		slog.String("session_id", event.SessionID),
		slog.String("phase", event.Phase),
	}
	for _, key := range slices.Sorted(maps.Keys(event.Metadata)) {
		attrs = append(attrs, slog.String(key, event.Metadata[key]))
	}
	l.Error(event.Message, attrs...)
	return nil
}

// FormatText 将事件渲染为适合聊天渠道的纯文本。
func FormatText(event Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*[%s]* %s - %s", event.Severity, event.Code, event.Message)
	if event.SessionID != "" {
		fmt.Fprintf(&b, "\n会话: %s", event.SessionID)
	}
	if event.Mode != "" {
		fmt.Fprintf(&b, " (%s)", event.Mode)
	}
	if event.Phase != "" {
		fmt.Fprintf(&b, "\n阶段: %s", event.Phase)
	}
	if !event.OccurredAt.IsZero() {
		fmt.Fprintf(&b, "\n时间: %s", event.OccurredAt.Format(time.RFC3339))
	}
	for _, key := range slices.Sorted(maps.Keys(event.Metadata)) {
		fmt.Fprintf(&b, "\n- %s: %s", key, event.Metadata[key])
	}
	return b.String()
}
