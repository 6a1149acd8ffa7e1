package alerting

import (
	"context"
	"log/slog"

	"github.com/slack-go/slack"

	"OpenEmployee/pkg/logger"
)

// SlackSender 负责向 Slack 渠道发送消息。
type SlackSender interface {
	Send(ctx context.Context, channel, content string) error
}

// SlackNotifier 通过 Slack 发送告警。
type SlackNotifier struct {
	Sender    SlackSender
	ChannelID string
}

// Channel 返回 Slack 渠道。
func (n *SlackNotifier) Channel() Channel { return ChannelSlack }

// Notify 发送 Slack 消息。
func (n *SlackNotifier) Notify(ctx context.Context, event Event) error {
	if n == nil || n.Sender == nil || n.ChannelID == "" {
		logger.L().Warn("SlackNotifier 未正确配置，跳过发送", slog.String("session_id", event.SessionID))
		return nil
	}
	return n.Sender.Send(ctx, n.ChannelID, FormatText(event))
}

// SlackAPISender 使用 Slack Web API 发送消息。
type SlackAPISender struct {
	client *slack.Client
}

// NewSlackAPISender 使用 bot token 创建发送器。apiURL 为空时使用官方地址。
func NewSlackAPISender(token, apiURL string) *SlackAPISender {
	var opts []slack.Option
	if apiURL != "" {
		opts = append(opts, slack.OptionAPIURL(apiURL))
	}
	return &SlackAPISender{client: slack.New(token, opts...)}
}

// Send 实现 SlackSender 接口。
func (s *SlackAPISender) Send(ctx context.Context, channel, content string) error {
	_, _, err := s.client.PostMessageContext(ctx, channel, slack.MsgOptionText(content, false))
	return err
}

var (
	_ Notifier    = (*SlackNotifier)(nil)
	_ Notifier    = (*LogNotifier)(nil)
	_ SlackSender = (*SlackAPISender)(nil)
)
