// Package events 发布与消费会话生命周期事件。
//
// 事件以 JSON 编码，可投递到内存通道、Redis list 或 RabbitMQ 队列，
// 守护进程消费后写入审计日志。
package events

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"

	xerrors "OpenEmployee/internal/errors"
)

// Type 表示事件类型。
type Type string

const (
	TypeSessionCreated Type = "session.created"
	TypeStatusChanged  Type = "session.status_changed"
	TypeStepRecorded   Type = "session.step_recorded"
	TypeSessionCleaned Type = "session.cleaned"
)

// Event 描述一次会话生命周期变化。
type Event struct {
	ID         string            `json:"id"`
	Type       Type              `json:"type"`
	SessionID  string            `json:"session_id"`
	Mode       string            `json:"mode,omitempty"`
	Status     string            `json:"status,omitempty"`
	Phase      string            `json:"phase,omitempty"`
	StepID     string            `json:"step_id,omitempty"`
	Message    string            `json:"message,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// CodeEventDecode 表示事件无法解析。
const CodeEventDecode xerrors.Code = "EVENT_DECODE_FAILED"

func init() {
	xerrors.Register(CodeEventDecode, xerrors.Attributes{
		Message:  "event decode failed",
		Severity: xerrors.SeverityWarning,
	})
}

// Encode 序列化事件，缺失的 ID 与时间会被补齐。
func Encode(event Event) ([]byte, error) {
	if event.ID == "" {
		event.ID = ulid.Make().String()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	return json.Marshal(event)
}

// Decode 反序列化事件。
func Decode(data []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return Event{}, xerrors.Wrap(CodeEventDecode, err, "解析事件失败")
	}
	if event.SessionID == "" || event.Type == "" {
		return Event{}, xerrors.New(CodeEventDecode, "事件缺少 session_id 或 type")
	}
	return event, nil
}
