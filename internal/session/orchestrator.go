package session

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"

	"OpenEmployee/internal/employee"
	xerrors "OpenEmployee/internal/errors"
	"OpenEmployee/internal/events"
	"OpenEmployee/internal/intent"
	"OpenEmployee/internal/lexicon"
	"OpenEmployee/internal/observability/alerting"
	"OpenEmployee/internal/observability/tracing"
	"OpenEmployee/internal/optimizer"
	"OpenEmployee/internal/requirement"
	"OpenEmployee/internal/synthesis"
	"OpenEmployee/internal/validation"
	"OpenEmployee/pkg/logger"
)

// DefaultConfidenceThreshold 低于该置信度的输入进入澄清流程。
const DefaultConfidenceThreshold = 0.7

const (
	publishTimeout = 200 * time.Millisecond
	handoffKey     = "handoff"
	handoffManual  = "manual_configuration"
)

// errDiscarded 表示会话在处理过程中被清理，本轮结果需要丢弃。
var errDiscarded = stdErrors.New("session discarded during processing")

// Orchestrator 负责推进会话状态机并维护步骤审计轨迹。
type Orchestrator struct {
	lex   *lexicon.Lexicon
	store Store

	analyzer    Analyzer
	deriver     Deriver
	synthesizer Synthesizer
	optimizer   Optimizer
	repairer    Repairer

	latency        Latency
	now            func() time.Time
	threshold      float64
	validate       bool
	policy         ValidationPolicy
	stageTimeout   time.Duration
	sessionTimeout time.Duration

	publisher events.Publisher
	alerter   alerting.Dispatcher
	recorder  Recorder
	logger    *slog.Logger
}

// Option 定义可选配置。
type Option func(*Orchestrator)

// WithClock 注入时钟。
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLatency 设置阶段执行前的等待策略。
func WithLatency(latency Latency) Option {
	return func(o *Orchestrator) {
		if latency != nil {
			o.latency = latency
		}
	}
}

// WithConfidenceThreshold 设置进入澄清流程的置信度阈值。
func WithConfidenceThreshold(threshold float64) Option {
	return func(o *Orchestrator) {
		if threshold > 0 && threshold <= 1 {
			o.threshold = threshold
		}
	}
}

// WithValidation 开启或关闭合成后的校验阶段。
func WithValidation(enabled bool) Option {
	return func(o *Orchestrator) {
		o.validate = enabled
	}
}

// WithValidationPolicy 设置修复后仍未通过校验时的处理策略。
func WithValidationPolicy(policy ValidationPolicy) Option {
	return func(o *Orchestrator) {
		if policy == PolicyStrict || policy == PolicyLenient {
			o.policy = policy
		}
	}
}

// WithStageTimeout 设置单个阶段的超时时间。
func WithStageTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.stageTimeout = d
	}
}

// WithSessionTimeout 设置一轮输入处理的整体超时时间。
func WithSessionTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.sessionTimeout = d
	}
}

// WithPublisher 配置生命周期事件发布器。
func WithPublisher(publisher events.Publisher) Option {
	return func(o *Orchestrator) {
		if publisher != nil {
			o.publisher = publisher
		}
	}
}

// WithAlertDispatcher 配置告警派发器。
func WithAlertDispatcher(dispatcher alerting.Dispatcher) Option {
	return func(o *Orchestrator) {
		o.alerter = dispatcher
	}
}

// WithRecorder 配置指标记录器。
func WithRecorder(recorder Recorder) Option {
	return func(o *Orchestrator) {
		if recorder != nil {
			o.recorder = recorder
		}
	}
}

// WithLogger 指定日志输出。
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithAnalyzer 替换意图分析阶段。
func WithAnalyzer(a Analyzer) Option {
	return func(o *Orchestrator) { o.analyzer = a }
}

// WithDeriver 替换需求推导阶段。
func WithDeriver(d Deriver) Option {
	return func(o *Orchestrator) { o.deriver = d }
}

// WithSynthesizer 替换配置合成阶段。
func WithSynthesizer(s Synthesizer) Option {
	return func(o *Orchestrator) { o.synthesizer = s }
}

// WithOptimizer 替换配置优化阶段。
func WithOptimizer(opt Optimizer) Option {
	return func(o *Orchestrator) { o.optimizer = opt }
}

// WithRepairer 替换修复阶段。
func WithRepairer(r Repairer) Option {
	return func(o *Orchestrator) { o.repairer = r }
}

// NewOrchestrator 构造 Orchestrator。lex 为 nil 时使用内置词表，store 为 nil 时使用内存注册表。
func NewOrchestrator(lex *lexicon.Lexicon, store Store, opts ...Option) *Orchestrator {
	if lex == nil {
		lex = lexicon.Default()
	}
	if store == nil {
		store = NewMemoryStore()
	}
	o := &Orchestrator{
		lex:       lex,
		store:     store,
		latency:   NoLatency{},
		now:       time.Now,
		threshold: DefaultConfidenceThreshold,
		validate:  true,
		policy:    PolicyLenient,
		publisher: events.NopPublisher{},
		recorder:  nopRecorder{},
		logger:    logger.Named("session"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	clock := func() time.Time { return o.now() }
	if o.analyzer == nil {
		o.analyzer = intent.NewAnalyzer(lex)
	}
	if o.deriver == nil {
		o.deriver = requirement.NewDeriver(lex)
	}
	if o.synthesizer == nil {
		o.synthesizer = synthesis.NewSynthesizer(lex, synthesis.WithClock(clock))
	}
	if o.optimizer == nil {
		o.optimizer = optimizer.New(lex)
	}
	if o.repairer == nil {
		repairOpts := []validation.RepairOption{validation.WithClock(clock)}
		if o.policy == PolicyLenient {
			repairOpts = append(repairOpts, validation.WithDepartmentFallback())
		}
		o.repairer = validation.NewRepairer(lex, repairOpts...)
	}
	return o
}

// Analyze 对文本执行一次独立的意图分析，不创建会话。
func (o *Orchestrator) Analyze(text string) employee.IntentAnalysis {
	return o.analyzer.Analyze(text)
}

// CreateSession 创建会话。seed 非空时立即按输入处理一轮。
func (o *Orchestrator) CreateSession(ctx context.Context, mode employee.Mode, seed string) (*Session, error) {
	if mode == "" {
		mode = employee.ModeStandard
	}
	if !mode.Valid() {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("不支持的生成模式: %s", mode))
	}
	now := o.now()
	sess := &Session{
		ID:        uuid.NewString(),
		Mode:      mode,
		Status:    StatusInitializing,
		Steps:     []employee.Step{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.store.Create(ctx, sess); err != nil {
		return nil, err
	}
	o.recorder.SessionCreated(string(mode))
	o.publish(ctx, sess, events.TypeSessionCreated, "", "")
	logger.Audit().Info("会话已创建",
		slog.String("session_id", sess.ID),
		slog.String("mode", string(mode)),
	)

	if strings.TrimSpace(seed) != "" {
		return o.SubmitInput(ctx, sess.ID, seed)
	}
	return sess.Clone(), nil
}

// SubmitInput 处理一轮用户输入并返回会话快照。
// 阶段失败记录在会话中（status=error），只有调用方错误才作为 error 返回。
func (o *Orchestrator) SubmitInput(ctx context.Context, id, text string) (*Session, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "输入不能为空")
	}
	sess, err := o.store.Claim(ctx, id)
	if err != nil {
		return nil, err
	}
	defer o.release(ctx, id)

	plan := o.plan(sess.Mode)
	status, effect, err := Transition(plan, sess.Status, EventSubmit)
	if err != nil {
		return nil, err
	}

	if sess.Status == StatusInput && sess.Input != "" {
		sess.Input = sess.Input + "\n" + text
	} else {
		sess.Input = text
	}
	sess.Questions = nil

	// 调用方断开或超时不影响本轮处理，只有配置的会话与阶段超时会中止流水线。
	runCtx := context.WithoutCancel(ctx)
	if o.sessionTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, o.sessionTimeout)
		defer cancel()
	}

	if err := o.setStatus(runCtx, sess, status); err != nil {
		return nil, o.discarded(sess, err)
	}
	if err := o.run(runCtx, sess, plan, effect); err != nil {
		return nil, o.discarded(sess, err)
	}
	return sess.Clone(), nil
}

// PatchConfig 以 JSON merge patch 语义修改当前配置，并重新校验。
func (o *Orchestrator) PatchConfig(ctx context.Context, id string, patch map[string]any) (*Session, error) {
	if len(patch) == 0 {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "补丁不能为空")
	}
	sess, err := o.store.Claim(ctx, id)
	if err != nil {
		return nil, err
	}
	defer o.release(ctx, id)

	if sess.CurrentConfig == nil {
		return nil, xerrors.New(CodeInvalidTransition, "会话尚未生成配置",
			xerrors.WithMetadata("status", string(sess.Status)))
	}
	patched, err := applyPatch(*sess.CurrentConfig, patch)
	if err != nil {
		return nil, err
	}
	if missing := missingRequired(&patched); len(missing) > 0 {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "补丁不能清空必填字段: "+strings.Join(missing, ", "))
	}

	var result employee.ValidationResult
	err = o.step(context.WithoutCancel(ctx), sess, employee.StepActing, employee.PhaseManualPatch, "人工修改配置", patchKeys(patch), func() outcome {
		result = validation.Validate(patched)
		return outcome{
			content:    fmt.Sprintf("更新字段 %s，校验得分 %d", strings.Join(patchKeys(patch), "、"), result.Score),
			output:     result,
			confidence: float64(result.Score) / 100,
		}
	})
	if err != nil {
		if stdErrors.Is(err, errDiscarded) {
			return nil, o.discarded(sess, err)
		}
		return nil, err
	}
	sess.CurrentConfig = &patched
	sess.Validation = &result
	sess.UpdatedAt = o.now()
	if err := o.save(ctx, sess); err != nil {
		return nil, o.discarded(sess, err)
	}
	logger.Audit().Info("会话配置已人工修改",
		slog.String("session_id", sess.ID),
		slog.Any("fields", patchKeys(patch)),
		slog.Bool("valid", result.IsValid),
	)
	return sess.Clone(), nil
}

// Cleanup 移除会话。进行中的处理不会被中断，其结果在写回时被丢弃。
func (o *Orchestrator) Cleanup(ctx context.Context, id string) error {
	sess, err := o.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := o.store.Delete(ctx, id); err != nil {
		return err
	}
	o.publish(ctx, sess, events.TypeSessionCleaned, "", "")
	logger.Audit().Info("会话已清理",
		slog.String("session_id", id),
		slog.String("status", string(sess.Status)),
	)
	return nil
}

// Get 返回会话快照。
func (o *Orchestrator) Get(ctx context.Context, id string) (*Session, error) {
	return o.store.Get(ctx, id)
}

// List 返回符合条件的会话快照。
func (o *Orchestrator) List(ctx context.Context, opts ...ListOption) ([]*Session, error) {
	return o.store.List(ctx, BuildListOptions(opts...))
}

// Stats 返回会话统计。
func (o *Orchestrator) Stats(ctx context.Context, opts ...ListOption) (Stats, error) {
	return o.store.Stats(ctx, BuildListOptions(opts...))
}

// Sweep 清理空闲超过 idle 的会话，返回清理数量。
func (o *Orchestrator) Sweep(ctx context.Context, idle time.Duration) (int, error) {
	if idle <= 0 {
		return 0, xerrors.New(xerrors.CodeInvalidArgument, "空闲时长必须大于 0")
	}
	cutoff := o.now().Add(-idle)
	removed := 0
	for {
		batch, err := o.store.List(ctx, ListOptions{Limit: 100, UpdatedUntil: cutoff, Order: SortByUpdatedAsc})
		if err != nil {
			return removed, err
		}
		progressed := false
		for _, sess := range batch {
			if err := o.Cleanup(ctx, sess.ID); err == nil {
				removed++
				progressed = true
			}
		}
		if len(batch) < 100 || !progressed {
			return removed, nil
		}
	}
}

func (o *Orchestrator) plan(mode employee.Mode) Plan {
	return Plan{Mode: mode, Validate: o.validate, Policy: o.policy}
}

// run 执行状态机给出的阶段，并把阶段结果作为事件反馈给状态机，直到没有待执行阶段。
func (o *Orchestrator) run(ctx context.Context, sess *Session, plan Plan, effect Effect) error {
	for effect != EffectNone {
		ev, err := o.execute(ctx, sess, plan, effect)
		if err != nil {
			if stdErrors.Is(err, errDiscarded) {
				return err
			}
			return o.fail(ctx, sess, plan, err)
		}
		status, next, err := Transition(plan, sess.Status, ev)
		if err != nil {
			return o.fail(ctx, sess, plan, err)
		}
		if status == StatusError && ev == EventUnresolved {
			o.markError(sess, xerrors.New(CodeValidationFailed, "修复后配置仍未通过校验"))
		}
		if status == StatusCompleted {
			if missing := missingRequired(sess.CurrentConfig); len(missing) > 0 {
				status, next = StatusError, EffectNone
				o.markError(sess, xerrors.New(CodeValidationFailed, "配置缺少必填字段: "+strings.Join(missing, ", ")))
			} else if sess.Mode == employee.ModeAdvanced {
				if sess.Metadata == nil {
					sess.Metadata = make(map[string]string)
				}
				sess.Metadata[handoffKey] = handoffManual
			}
		}
		if err := o.setStatus(ctx, sess, status); err != nil {
			return err
		}
		effect = next
	}
	return o.finish(ctx, sess)
}

func (o *Orchestrator) execute(ctx context.Context, sess *Session, plan Plan, effect Effect) (Event, error) {
	switch effect {
	case EffectAnalyze:
		var analysis employee.IntentAnalysis
		text := sess.Input
		err := o.step(ctx, sess, employee.StepReasoning, employee.PhaseAnalysis, "分析用户意图", text, func() outcome {
			analysis = o.analyzer.Analyze(text)
			return outcome{
				content:    fmt.Sprintf("识别意图 %s，置信度 %.2f，领域 %s", analysis.Intent, analysis.Confidence, analysis.Context.Domain),
				output:     analysis,
				confidence: analysis.Confidence,
			}
		})
		if err != nil {
			return "", err
		}
		sess.Analysis = &analysis
		if analysis.Intent == employee.IntentUnclear || analysis.Confidence < o.threshold {
			return EventAmbiguous, nil
		}
		return EventAnalyzed, nil

	case EffectClarify:
		analysis := *sess.Analysis
		var questions []string
		err := o.step(ctx, sess, employee.StepReasoning, employee.PhaseClarification, "需要补充信息", nil, func() outcome {
			questions = clarifyingQuestions(analysis)
			return outcome{
				content:    strings.Join(questions, "\n"),
				output:     questions,
				confidence: analysis.Confidence,
			}
		})
		if err != nil {
			return "", err
		}
		sess.Questions = questions
		o.recorder.ClarificationRequested()
		return EventClarified, nil

	case EffectDerive:
		analysis := *sess.Analysis
		var reqs employee.ConfigRequirements
		err := o.step(ctx, sess, employee.StepReasoning, employee.PhaseDerivation, "推导配置需求", nil, func() outcome {
			reqs = o.deriver.Derive(analysis)
			return outcome{
				content: fmt.Sprintf("员工 %s（%s），工具 %d 个，权限 %d 项",
					reqs.Basic.Name, reqs.Basic.Department, len(reqs.Capabilities.AllowedTools), len(reqs.Capabilities.Permissions)),
				output:     reqs,
				confidence: analysis.Confidence,
			}
		})
		if err != nil {
			return "", err
		}
		sess.Requirements = &reqs
		return EventDerived, nil

	case EffectSynthesize:
		reqs := *sess.Requirements
		var generated employee.GeneratedConfig
		err := o.step(ctx, sess, employee.StepActing, employee.PhaseSynthesis, "生成员工配置", nil, func() outcome {
			generated = o.synthesizer.Synthesize(reqs)
			return outcome{
				content: fmt.Sprintf("生成配置 %s，完整度 %.2f，质量 %.2f",
					generated.Form.EmployeeID, generated.Metrics.Completeness, generated.Metrics.Quality),
				output:     generated.Metrics,
				confidence: generated.Metrics.Confidence,
			}
		})
		if err != nil {
			return "", err
		}
		form := generated.Form.Clone()
		report := generated.Validation
		sess.Generated = &generated
		sess.CurrentConfig = &form
		sess.Validation = &report
		return EventSynthesized, nil

	case EffectOptimize:
		current := sess.CurrentConfig.Clone()
		reqs := *sess.Requirements
		var (
			optimized employee.ConfigForm
			applied   []string
		)
		err := o.step(ctx, sess, employee.StepActing, employee.PhaseOptimization, "优化员工配置", nil, func() outcome {
			optimized, applied = o.optimizer.Optimize(plan.Mode, current, reqs)
			content := "配置无需优化"
			if len(applied) > 0 {
				content = "已应用优化: " + strings.Join(applied, ", ")
			}
			return outcome{content: content, output: applied, confidence: 1}
		})
		if err != nil {
			return "", err
		}
		sess.CurrentConfig = &optimized
		return EventOptimized, nil

	case EffectValidate:
		current := sess.CurrentConfig.Clone()
		var result employee.ValidationResult
		err := o.step(ctx, sess, employee.StepReasoning, employee.PhaseValidation, "校验员工配置", nil, func() outcome {
			result = validation.Validate(current)
			return outcome{
				content:    fmt.Sprintf("校验得分 %d，错误 %d 项，警告 %d 项", result.Score, len(result.Errors), len(result.Warnings)),
				output:     result,
				confidence: float64(result.Score) / 100,
			}
		})
		if err != nil {
			return "", err
		}
		sess.Validation = &result
		if result.IsValid {
			return EventValidated, nil
		}
		return EventInvalid, nil

	case EffectRepair:
		current := sess.CurrentConfig.Clone()
		var (
			repaired employee.ConfigForm
			result   employee.ValidationResult
		)
		err := o.step(ctx, sess, employee.StepActing, employee.PhaseRepair, "自动修复配置", nil, func() outcome {
			var fields []string
			repaired, fields = o.repairer.Repair(current)
			result = validation.Validate(repaired)
			if len(fields) == 0 {
				return outcome{
					content: "没有可自动修复的字段",
					output:  result,
					problem: "自动修复未能修正任何字段: " + describeErrors(result.Errors),
				}
			}
			return outcome{
				content:    "已修复字段: " + strings.Join(fields, ", "),
				output:     fields,
				confidence: float64(result.Score) / 100,
			}
		})
		if err != nil {
			return "", err
		}
		sess.CurrentConfig = &repaired
		sess.Validation = &result
		if result.IsValid {
			return EventRepaired, nil
		}
		return EventUnresolved, nil
	}
	return "", xerrors.New(CodeStageFailed, fmt.Sprintf("未知阶段: %s", effect))
}

// outcome 是阶段函数的结果。problem 非空时步骤记为失败，但流程继续。
type outcome struct {
	content    string
	output     any
	confidence float64
	problem    string
}

// step 追加一条步骤并执行阶段函数。步骤在执行前创建，执行后只会被标记为 completed 或 error。
func (o *Orchestrator) step(ctx context.Context, sess *Session, kind employee.StepKind, phase employee.Phase, title string, input any, fn func() outcome) error {
	sess.Steps = append(sess.Steps, employee.Step{
		ID:        ulid.Make().String(),
		Kind:      kind,
		Phase:     phase,
		Title:     title,
		Input:     input,
		Timestamp: o.now(),
		Status:    employee.StepPending,
	})
	st := &sess.Steps[len(sess.Steps)-1]

	stageCtx := ctx
	if o.stageTimeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, o.stageTimeout)
		defer cancel()
	}
	stageCtx, span := tracing.StartSpan(stageCtx, "session."+string(phase),
		attribute.String("session.id", sess.ID),
		attribute.String("session.mode", string(sess.Mode)),
		attribute.String("step.kind", string(kind)),
	)
	defer span.End()

	st.Status = employee.StepProcessing
	st.StartedAt = o.now()
	res, err := o.invoke(stageCtx, kind, fn)
	finished := o.now()
	st.Duration = finished.Sub(st.StartedAt)
	sess.UpdatedAt = finished

	switch {
	case err != nil:
		st.Status = employee.StepError
		st.Error = err.Error()
		tracing.RecordError(span, err)
	default:
		st.Status = employee.StepCompleted
		st.Content = res.content
		st.Output = res.output
		st.Confidence = employee.Clamp01(res.confidence)
		if res.problem != "" {
			st.Status = employee.StepError
			st.Error = res.problem
		}
		tracing.SetOK(span)
	}

	o.recorder.StageObserved(string(phase), string(st.Status), st.Duration)
	o.logger.Debug("步骤结束",
		slog.String("session_id", sess.ID),
		slog.String("phase", string(phase)),
		slog.String("status", string(st.Status)),
		slog.Duration("duration", st.Duration),
	)
	o.publish(ctx, sess, events.TypeStepRecorded, st.ID, st.Title)
	if saveErr := o.save(ctx, sess); saveErr != nil {
		return saveErr
	}
	return err
}

func (o *Orchestrator) invoke(ctx context.Context, kind employee.StepKind, fn func() outcome) (res outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = xerrors.New(CodeStageFailed, fmt.Sprintf("阶段执行异常: %v", r))
		}
	}()
	if waitErr := o.latency.Wait(ctx, kind); waitErr != nil {
		return outcome{}, stageContextError(waitErr)
	}
	res = fn()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return outcome{}, stageContextError(ctxErr)
	}
	return res, nil
}

func stageContextError(err error) error {
	if stdErrors.Is(err, context.DeadlineExceeded) {
		return xerrors.Wrap(xerrors.CodeTimeout, err, "阶段执行超时")
	}
	return xerrors.Wrap(CodeStageFailed, err, "阶段执行被取消")
}

func (o *Orchestrator) fail(ctx context.Context, sess *Session, plan Plan, cause error) error {
	o.markError(sess, cause)
	status, _, err := Transition(plan, sess.Status, EventFailed)
	if err != nil {
		status = StatusError
	}
	if err := o.setStatus(ctx, sess, status); err != nil {
		return err
	}
	return o.finish(ctx, sess)
}

func (o *Orchestrator) markError(sess *Session, cause error) {
	code := xerrors.CodeOf(cause)
	if code == xerrors.CodeUnknown {
		code = CodeStageFailed
	}
	sess.ErrorCode = string(code)
	sess.LastError = cause.Error()
}

// finish 在一轮处理结束时记录指标、审计与告警。
func (o *Orchestrator) finish(ctx context.Context, sess *Session) error {
	o.recorder.SessionFinished(string(sess.Status))
	attrs := []any{
		slog.String("session_id", sess.ID),
		slog.String("mode", string(sess.Mode)),
		slog.Int("steps", len(sess.Steps)),
	}
	switch sess.Status {
	case StatusCompleted:
		if sess.CurrentConfig != nil {
			attrs = append(attrs, slog.String("employee_id", sess.CurrentConfig.EmployeeID))
		}
		logger.Audit().Info("会话生成完成", attrs...)
	case StatusInput:
		logger.Audit().Info("会话需要澄清", append(attrs, slog.Int("questions", len(sess.Questions)))...)
	case StatusError:
		logger.Audit().Warn("会话处理失败", append(attrs,
			slog.String("error_code", sess.ErrorCode),
			slog.String("error", sess.LastError))...)
		o.emitAlert(ctx, sess)
	}
	return nil
}

func (o *Orchestrator) setStatus(ctx context.Context, sess *Session, status Status) error {
	if sess.Status == status {
		return nil
	}
	from := sess.Status
	sess.Status = status
	sess.UpdatedAt = o.now()
	if err := o.save(ctx, sess); err != nil {
		return err
	}
	o.publish(ctx, sess, events.TypeStatusChanged, "", string(from)+" -> "+string(status))
	return nil
}

func (o *Orchestrator) save(ctx context.Context, sess *Session) error {
	err := o.store.Save(context.WithoutCancel(ctx), sess)
	if err == nil {
		return nil
	}
	if stdErrors.Is(err, ErrSessionNotFound) {
		return errDiscarded
	}
	return err
}

func (o *Orchestrator) release(ctx context.Context, id string) {
	if err := o.store.Release(context.WithoutCancel(ctx), id); err != nil {
		o.logger.Warn("释放会话失败", slog.String("session_id", id), slog.Any("error", err))
	}
}

// discarded 将会话已被清理的情况转换为调用方可见的 not found。
func (o *Orchestrator) discarded(sess *Session, err error) error {
	if stdErrors.Is(err, errDiscarded) {
		o.logger.Debug("会话已被清理，丢弃处理结果", slog.String("session_id", sess.ID))
		return ErrSessionNotFound
	}
	return err
}

func (o *Orchestrator) publish(ctx context.Context, sess *Session, typ events.Type, stepID, message string) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	event := events.Event{
		ID:         ulid.Make().String(),
		Type:       typ,
		SessionID:  sess.ID,
		Mode:       string(sess.Mode),
		Status:     string(sess.Status),
		StepID:     stepID,
		Message:    message,
		OccurredAt: o.now(),
	}
	if last, ok := sess.LastStep(); ok {
		event.Phase = string(last.Phase)
	}
	if err := o.publisher.Publish(pubCtx, event); err != nil {
		o.logger.Warn("发布会话事件失败",
			slog.String("session_id", sess.ID),
			slog.String("type", string(typ)),
			slog.Any("error", err),
		)
	}
}

func (o *Orchestrator) emitAlert(ctx context.Context, sess *Session) {
	if o.alerter == nil {
		return
	}
	code := xerrors.Code(sess.ErrorCode)
	attrs := xerrors.AttributesOf(code)
	event := alerting.Event{
		Code:       code,
		Message:    sess.LastError,
		Severity:   attrs.Severity,
		SessionID:  sess.ID,
		Mode:       string(sess.Mode),
		OccurredAt: o.now(),
	}
	if last, ok := sess.LastStep(); ok {
		event.Phase = string(last.Phase)
		event.Metadata = map[string]string{"step_id": last.ID}
	}
	if err := o.alerter.Notify(context.WithoutCancel(ctx), event); err != nil {
		o.logger.Error("告警通知失败", slog.Any("error", err), slog.String("session_id", sess.ID))
	}
}

func missingRequired(form *employee.ConfigForm) []string {
	if form == nil {
		return []string{"name", "department", "system_prompt"}
	}
	var missing []string
	if strings.TrimSpace(form.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(form.Department) == "" {
		missing = append(missing, "department")
	}
	if strings.TrimSpace(form.SystemPrompt) == "" {
		missing = append(missing, "system_prompt")
	}
	return missing
}

func describeErrors(errs []employee.ValidationError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Field)
	}
	return strings.Join(parts, ", ")
}
