package session

import (
	"time"

	"OpenEmployee/internal/employee"
)

// Analyzer 执行意图分析。
type Analyzer interface {
	Analyze(text string) employee.IntentAnalysis
}

// Deriver 从意图分析推导需求。
type Deriver interface {
	Derive(analysis employee.IntentAnalysis) employee.ConfigRequirements
}

// Synthesizer 将需求合成为配置。
type Synthesizer interface {
	Synthesize(reqs employee.ConfigRequirements) employee.GeneratedConfig
}

// Optimizer 对配置打补丁，返回补丁后的副本与应用的补丁名称。
type Optimizer interface {
	Optimize(mode employee.Mode, form employee.ConfigForm, reqs employee.ConfigRequirements) (employee.ConfigForm, []string)
}

// Repairer 修复校验失败的配置，返回修复后的副本与被修复的字段。
type Repairer interface {
	Repair(form employee.ConfigForm) (employee.ConfigForm, []string)
}

// Recorder 接收流水线指标。
type Recorder interface {
	SessionCreated(mode string)
	SessionFinished(status string)
	StageObserved(phase, status string, duration time.Duration)
	ClarificationRequested()
}

type nopRecorder struct{}

func (nopRecorder) SessionCreated(string)                       {}
func (nopRecorder) SessionFinished(string)                      {}
func (nopRecorder) StageObserved(string, string, time.Duration) {}
func (nopRecorder) ClarificationRequested()                     {}
