// Package session 管理数字员工生成会话：状态机、会话注册表与流水线编排。
package session

import (
	"maps"
	"time"

	"OpenEmployee/internal/employee"
)

// Status 表示会话在生命周期中的状态。
type Status string

const (
	StatusInitializing Status = "initializing"
	StatusInput        Status = "input"
	StatusReasoning    Status = "reasoning"
	StatusConfiguring  Status = "configuring"
	StatusValidating   Status = "validating"
	StatusCompleted    Status = "completed"
	StatusError        Status = "error"
)

var statusRank = map[Status]int{
	StatusInitializing: 0,
	StatusInput:        1,
	StatusReasoning:    2,
	StatusConfiguring:  3,
	StatusValidating:   4,
	StatusCompleted:    5,
	StatusError:        6,
}

// IsValidStatus 检查状态是否为支持的枚举值。
func IsValidStatus(status Status) bool {
	_, ok := statusRank[status]
	return ok
}

// IsTerminal 判断状态是否为终态。
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Session 是一次生成尝试的完整记录，包含审计轨迹。
type Session struct {
	ID            string                       `json:"id"`
	Mode          employee.Mode                `json:"mode"`
	Status        Status                       `json:"status"`
	Input         string                       `json:"input"`
	Steps         []employee.Step              `json:"steps"`
	CurrentConfig *employee.ConfigForm         `json:"current_config,omitempty"`
	Analysis      *employee.IntentAnalysis     `json:"analysis,omitempty"`
	Requirements  *employee.ConfigRequirements `json:"requirements,omitempty"`
	Generated     *employee.GeneratedConfig    `json:"generated,omitempty"`
	Validation    *employee.ValidationResult   `json:"validation,omitempty"`
	Questions     []string                     `json:"questions,omitempty"`
	Metadata      map[string]string            `json:"metadata,omitempty"`
	ErrorCode     string                       `json:"error_code,omitempty"`
	LastError     string                       `json:"last_error,omitempty"`
	CreatedAt     time.Time                    `json:"created_at"`
	UpdatedAt     time.Time                    `json:"updated_at"`
}

// Clone 返回会话副本。分析、需求与合成结果生成后只读，副本与原会话共享其内部切片。
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	clone := *s
	clone.Steps = append([]employee.Step(nil), s.Steps...)
	clone.Questions = employee.CloneStrings(s.Questions)
	clone.Metadata = maps.Clone(s.Metadata)
	if s.CurrentConfig != nil {
		form := s.CurrentConfig.Clone()
		clone.CurrentConfig = &form
	}
	if s.Analysis != nil {
		analysis := *s.Analysis
		clone.Analysis = &analysis
	}
	if s.Requirements != nil {
		reqs := *s.Requirements
		clone.Requirements = &reqs
	}
	if s.Generated != nil {
		generated := *s.Generated
		clone.Generated = &generated
	}
	if s.Validation != nil {
		result := *s.Validation
		clone.Validation = &result
	}
	return &clone
}

// LastStep 返回最近一条步骤。
func (s *Session) LastStep() (employee.Step, bool) {
	if s == nil || len(s.Steps) == 0 {
		return employee.Step{}, false
	}
	return s.Steps[len(s.Steps)-1], true
}
