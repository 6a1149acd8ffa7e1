package session

import (
	"fmt"

	"OpenEmployee/internal/employee"
	xerrors "OpenEmployee/internal/errors"
)

// Event 是驱动状态机的输入，由调用方请求或阶段执行结果产生。
type Event string

const (
	EventSubmit      Event = "submit"
	EventAmbiguous   Event = "ambiguous"
	EventClarified   Event = "clarified"
	EventAnalyzed    Event = "analyzed"
	EventDerived     Event = "derived"
	EventSynthesized Event = "synthesized"
	EventOptimized   Event = "optimized"
	EventValidated   Event = "validated"
	EventInvalid     Event = "invalid"
	EventRepaired    Event = "repaired"
	EventUnresolved  Event = "unresolved"
	EventFailed      Event = "failed"
)

// Effect 是迁移后需要执行的阶段，EffectNone 表示本轮处理结束。
type Effect string

const (
	EffectNone       Effect = ""
	EffectAnalyze    Effect = "analyze"
	EffectClarify    Effect = "clarify"
	EffectDerive     Effect = "derive"
	EffectSynthesize Effect = "synthesize"
	EffectOptimize   Effect = "optimize"
	EffectValidate   Effect = "validate"
	EffectRepair     Effect = "repair"
)

// ValidationPolicy 决定修复后仍未通过校验时会话如何结束。
type ValidationPolicy string

const (
	// PolicyLenient 在未解决的校验错误下仍完成会话，错误保留在校验报告中。
	PolicyLenient ValidationPolicy = "lenient"
	// PolicyStrict 将未解决的校验错误视为失败。
	PolicyStrict ValidationPolicy = "strict"
)

// Plan 描述一次流水线运行的分支条件。
type Plan struct {
	Mode     employee.Mode
	Validate bool
	Policy   ValidationPolicy
}

// Transition 是纯函数：给定计划、当前状态与事件，返回下一状态与需要执行的阶段。
func Transition(plan Plan, from Status, ev Event) (Status, Effect, error) {
	if ev == EventFailed {
		if from.IsTerminal() {
			return from, EffectNone, invalidTransition(from, ev)
		}
		return StatusError, EffectNone, nil
	}

	switch from {
	case StatusInitializing, StatusInput:
		switch ev {
		case EventSubmit:
			return StatusReasoning, EffectAnalyze, nil
		case EventClarified:
			if from == StatusInput {
				return StatusInput, EffectNone, nil
			}
		}
	case StatusReasoning:
		switch ev {
		case EventAmbiguous:
			return StatusInput, EffectClarify, nil
		case EventAnalyzed:
			return StatusReasoning, EffectDerive, nil
		case EventDerived:
			return StatusReasoning, EffectSynthesize, nil
		case EventSynthesized:
			if plan.Mode != employee.ModeQuick {
				return StatusConfiguring, EffectOptimize, nil
			}
			return afterConfiguration(plan)
		}
	case StatusConfiguring:
		if ev == EventOptimized {
			return afterConfiguration(plan)
		}
	case StatusValidating:
		switch ev {
		case EventValidated, EventRepaired:
			return StatusCompleted, EffectNone, nil
		case EventInvalid:
			return StatusValidating, EffectRepair, nil
		case EventUnresolved:
			if plan.Policy == PolicyStrict {
				return StatusError, EffectNone, nil
			}
			return StatusCompleted, EffectNone, nil
		}
	}
	return from, EffectNone, invalidTransition(from, ev)
}

func afterConfiguration(plan Plan) (Status, Effect, error) {
	if plan.Validate {
		return StatusValidating, EffectValidate, nil
	}
	return StatusCompleted, EffectNone, nil
}

func invalidTransition(from Status, ev Event) error {
	return xerrors.New(CodeInvalidTransition, fmt.Sprintf("状态 %s 不接受事件 %s", from, ev),
		xerrors.WithMetadata("status", string(from)),
		xerrors.WithMetadata("event", string(ev)))
}
