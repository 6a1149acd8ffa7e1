package session

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OpenEmployee/internal/employee"
	xerrors "OpenEmployee/internal/errors"
	"OpenEmployee/internal/events"
	"OpenEmployee/internal/observability/alerting"
	"OpenEmployee/internal/observability/metrics"
)

const exampleInput = "我需要一个客服助手，能够回答订单问题，要求友好耐心"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(1700000000000)}
}

// Now 每次调用前进 1ms，保证时间戳严格递增。
func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count(typ events.Type) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

type recordingAlerter struct {
	mu     sync.Mutex
	events []alerting.Event
}

func (a *recordingAlerter) Notify(_ context.Context, event alerting.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
	return nil
}

type synthFunc func(employee.ConfigRequirements) employee.GeneratedConfig

func (f synthFunc) Synthesize(reqs employee.ConfigRequirements) employee.GeneratedConfig { return f(reqs) }

type deriveFunc func(employee.IntentAnalysis) employee.ConfigRequirements

func (f deriveFunc) Derive(a employee.IntentAnalysis) employee.ConfigRequirements { return f(a) }

func fixedForm(form employee.ConfigForm) synthFunc {
	return func(employee.ConfigRequirements) employee.GeneratedConfig {
		return employee.GeneratedConfig{Form: form}
	}
}

func newTestOrchestrator(opts ...Option) (*Orchestrator, *fakeClock) {
	clock := newFakeClock()
	o := NewOrchestrator(nil, NewMemoryStore(), append([]Option{WithClock(clock.Now)}, opts...)...)
	return o, clock
}

func phases(s *Session) []employee.Phase {
	out := make([]employee.Phase, 0, len(s.Steps))
	for _, st := range s.Steps {
		out = append(out, st.Phase)
	}
	return out
}

func assertStepTrail(t *testing.T, s *Session) {
	t.Helper()
	for i, st := range s.Steps {
		assert.NotEmpty(t, st.ID)
		assert.False(t, st.StartedAt.Before(st.Timestamp), "step %d started before it was created", i)
		assert.Contains(t, []employee.StepStatus{employee.StepCompleted, employee.StepError}, st.Status)
		if i > 0 {
			assert.False(t, st.Timestamp.Before(s.Steps[i-1].Timestamp), "step %d timestamp went backwards", i)
		}
	}
}

func assertRequiredFields(t *testing.T, s *Session) {
	t.Helper()
	require.NotNil(t, s.CurrentConfig)
	assert.NotEmpty(t, s.CurrentConfig.Name)
	assert.NotEmpty(t, s.CurrentConfig.Department)
	assert.NotEmpty(t, s.CurrentConfig.SystemPrompt)
}

func TestSubmitCustomerServiceExample(t *testing.T) {
	o, _ := newTestOrchestrator()
	ctx := context.Background()

	created, err := o.CreateSession(ctx, employee.ModeStandard, "")
	require.NoError(t, err)
	assert.Equal(t, StatusInitializing, created.Status)

	got, err := o.SubmitInput(ctx, created.ID, exampleInput)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, []employee.Phase{
		employee.PhaseAnalysis,
		employee.PhaseDerivation,
		employee.PhaseSynthesis,
		employee.PhaseOptimization,
		employee.PhaseValidation,
	}, phases(got))
	for _, st := range got.Steps {
		assert.Equal(t, employee.StepCompleted, st.Status, st.Phase)
	}
	assertStepTrail(t, got)
	assertRequiredFields(t, got)

	require.NotNil(t, got.Analysis)
	assert.Equal(t, employee.IntentCreate, got.Analysis.Intent)
	assert.Subset(t, got.Analysis.Entities.Personality, []string{"友好", "耐心"})
	assert.Contains(t, got.CurrentConfig.AllowedTools, "order_query")
	assert.NotEmpty(t, got.CurrentConfig.SystemPrompt)
	require.NotNil(t, got.Generated)
	require.NotNil(t, got.Validation)
	assert.True(t, got.Validation.IsValid)
	assert.Empty(t, got.Questions)
	assert.Empty(t, got.Metadata[handoffKey])
}

func TestGreetingAsksForClarification(t *testing.T) {
	o, _ := newTestOrchestrator()
	ctx := context.Background()

	got, err := o.CreateSession(ctx, employee.ModeQuick, "你好，在吗")
	require.NoError(t, err)

	assert.Equal(t, StatusInput, got.Status)
	assert.Less(t, got.Analysis.Confidence, DefaultConfidenceThreshold)
	require.GreaterOrEqual(t, len(got.Questions), 3)
	assert.Equal(t, questionDepartment, got.Questions[0])
	assert.Equal(t, questionName, got.Questions[1])
	assert.Equal(t, questionResponsibilities, got.Questions[2])
	assert.Equal(t, []employee.Phase{employee.PhaseAnalysis, employee.PhaseClarification}, phases(got))
	assert.Nil(t, got.CurrentConfig)

	// 补充信息后继续处理，已有步骤保持不变。
	next, err := o.SubmitInput(ctx, got.ID, exampleInput)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, next.Status)
	assert.Equal(t, got.Steps, next.Steps[:len(got.Steps)])
	assert.Empty(t, next.Questions)
	assert.Equal(t, "你好，在吗\n"+exampleInput, next.Input)
	assertStepTrail(t, next)
	assertRequiredFields(t, next)
}

func TestLowConfidenceAlwaysClarifies(t *testing.T) {
	o, _ := newTestOrchestrator()
	ctx := context.Background()
	inputs := []string{"你好", "嗯", "今天天气不错", "hello there", "谢谢", "帮我看看", "如何使用这个系统？", "创建一个"}
	for _, text := range inputs {
		got, err := o.CreateSession(ctx, employee.ModeStandard, text)
		require.NoError(t, err, text)
		require.NotNil(t, got.Analysis, text)
		if got.Analysis.Intent == employee.IntentUnclear || got.Analysis.Confidence < DefaultConfidenceThreshold {
			assert.Equal(t, StatusInput, got.Status, text)
			assert.NotEmpty(t, got.Questions, text)
		}
	}
}

func TestCompletedSessionsCarryRequiredFields(t *testing.T) {
	inputs := []string{
		exampleInput,
		"创建一个叫小美的销售顾问，负责跟进客户订单，要求热情",
		"紧急创建一个客服助手，" + strings.Repeat("负责处理客户的退款、投诉、物流与订单问题，", 12),
		"Create an assistant named Max who handles refunds and must never share customer data",
		"新建一个财务专员，负责报表统计，严谨",
	}
	modes := []employee.Mode{employee.ModeQuick, employee.ModeStandard, employee.ModeAdvanced}
	for _, validate := range []bool{true, false} {
		o, _ := newTestOrchestrator(WithValidation(validate))
		for _, mode := range modes {
			for _, text := range inputs {
				got, err := o.CreateSession(context.Background(), mode, text)
				require.NoError(t, err)
				assertStepTrail(t, got)
				if got.Status == StatusCompleted {
					assertRequiredFields(t, got)
				}
			}
		}
	}
}

func TestIdenticalInputAcrossSessions(t *testing.T) {
	o, _ := newTestOrchestrator()
	ctx := context.Background()

	a, err := o.CreateSession(ctx, employee.ModeStandard, exampleInput)
	require.NoError(t, err)
	b, err := o.CreateSession(ctx, employee.ModeStandard, exampleInput)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, *a.Requirements, *b.Requirements)

	formA, formB := a.Generated.Form.Clone(), b.Generated.Form.Clone()
	assert.NotEqual(t, formA.EmployeeID, formB.EmployeeID)
	formA.EmployeeID, formB.EmployeeID = "", ""
	assert.Equal(t, formA, formB)

	require.Equal(t, len(a.Steps), len(b.Steps))
	for i := range a.Steps {
		assert.NotEqual(t, a.Steps[i].ID, b.Steps[i].ID)
	}
}

func TestQuickModeSkipsOptimization(t *testing.T) {
	o, _ := newTestOrchestrator()
	got, err := o.CreateSession(context.Background(), employee.ModeQuick, exampleInput)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, got.Status)
	assert.NotContains(t, phases(got), employee.PhaseOptimization)
	assert.Equal(t, got.Generated.Form, *got.CurrentConfig)
}

func TestValidationCanBeDisabled(t *testing.T) {
	o, _ := newTestOrchestrator(WithValidation(false))
	got, err := o.CreateSession(context.Background(), employee.ModeStandard, exampleInput)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, got.Status)
	assert.NotContains(t, phases(got), employee.PhaseValidation)
}

func TestAdvancedModeMarksHandoff(t *testing.T) {
	o, _ := newTestOrchestrator()
	got, err := o.CreateSession(context.Background(), employee.ModeAdvanced, exampleInput)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, handoffManual, got.Metadata[handoffKey])
}

func TestRepairFixesMissingName(t *testing.T) {
	o, _ := newTestOrchestrator(WithSynthesizer(fixedForm(employee.ConfigForm{
		Department:   "客服",
		SystemPrompt: strings.Repeat("长", 120),
		AllowedTools: []string{"a", "b", "c"},
	})))
	got, err := o.CreateSession(context.Background(), employee.ModeQuick, exampleInput)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, got.Status)
	last, ok := got.LastStep()
	require.True(t, ok)
	assert.Equal(t, employee.PhaseRepair, last.Phase)
	assert.Equal(t, employee.StepCompleted, last.Status)
	assert.Equal(t, "AI-客服", got.CurrentConfig.Name)
	assert.True(t, got.Validation.IsValid)
}

func TestStrictPolicyFailsOnUnresolvedErrors(t *testing.T) {
	alerter := &recordingAlerter{}
	o, _ := newTestOrchestrator(
		WithValidationPolicy(PolicyStrict),
		WithAlertDispatcher(alerter),
		WithSynthesizer(fixedForm(employee.ConfigForm{EmployeeID: "X1", Name: "n", SystemPrompt: "p"})),
	)
	got, err := o.CreateSession(context.Background(), employee.ModeQuick, exampleInput)
	require.NoError(t, err)

	assert.Equal(t, StatusError, got.Status)
	assert.Equal(t, string(CodeValidationFailed), got.ErrorCode)
	last, _ := got.LastStep()
	assert.Equal(t, employee.PhaseRepair, last.Phase)
	assert.Equal(t, employee.StepError, last.Status)
	assert.Contains(t, last.Error, "department")

	require.Len(t, alerter.events, 1)
	assert.Equal(t, CodeValidationFailed, alerter.events[0].Code)
	assert.Equal(t, got.ID, alerter.events[0].SessionID)
}

func TestLenientPolicyFallsBackToGenericDepartment(t *testing.T) {
	o, _ := newTestOrchestrator(
		WithSynthesizer(fixedForm(employee.ConfigForm{EmployeeID: "X1", Name: "n", SystemPrompt: "p"})),
	)
	got, err := o.CreateSession(context.Background(), employee.ModeQuick, exampleInput)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, "通用", got.CurrentConfig.Department)
	assertRequiredFields(t, got)
}

func TestCompletionGuardRejectsMissingFields(t *testing.T) {
	o, _ := newTestOrchestrator(
		WithValidation(false),
		WithSynthesizer(fixedForm(employee.ConfigForm{Name: "n"})),
	)
	got, err := o.CreateSession(context.Background(), employee.ModeQuick, exampleInput)
	require.NoError(t, err)

	assert.Equal(t, StatusError, got.Status)
	assert.Equal(t, string(CodeValidationFailed), got.ErrorCode)
}

func TestStagePanicMarksSessionError(t *testing.T) {
	alerter := &recordingAlerter{}
	o, _ := newTestOrchestrator(
		WithAlertDispatcher(alerter),
		WithDeriver(deriveFunc(func(employee.IntentAnalysis) employee.ConfigRequirements {
			panic("boom")
		})),
	)
	got, err := o.CreateSession(context.Background(), employee.ModeStandard, exampleInput)
	require.NoError(t, err, "stage failures are recorded on the session")

	assert.Equal(t, StatusError, got.Status)
	assert.Equal(t, string(CodeStageFailed), got.ErrorCode)
	require.Len(t, got.Steps, 2)
	assert.Equal(t, employee.StepCompleted, got.Steps[0].Status)
	assert.Equal(t, employee.PhaseDerivation, got.Steps[1].Phase)
	assert.Equal(t, employee.StepError, got.Steps[1].Status)
	assert.Contains(t, got.Steps[1].Error, "boom")
	require.Len(t, alerter.events, 1)
	assert.Equal(t, string(employee.PhaseDerivation), alerter.events[0].Phase)

	_, err = o.SubmitInput(context.Background(), got.ID, exampleInput)
	assert.Equal(t, CodeInvalidTransition, xerrors.CodeOf(err))
}

func TestStageTimeoutMapsToTimeout(t *testing.T) {
	o, _ := newTestOrchestrator(
		WithLatency(SimulatedLatency{Reasoning: time.Second, Acting: time.Second}),
		WithStageTimeout(10*time.Millisecond),
	)
	got, err := o.CreateSession(context.Background(), employee.ModeStandard, exampleInput)
	require.NoError(t, err)

	assert.Equal(t, StatusError, got.Status)
	assert.Equal(t, string(xerrors.CodeTimeout), got.ErrorCode)
	require.Len(t, got.Steps, 1)
	assert.Equal(t, employee.StepError, got.Steps[0].Status)
}

func TestSimulatedLatencyDelaysStages(t *testing.T) {
	o, _ := newTestOrchestrator(WithLatency(SimulatedLatency{Reasoning: 5 * time.Millisecond, Acting: 3 * time.Millisecond}))
	start := time.Now()
	got, err := o.CreateSession(context.Background(), employee.ModeQuick, exampleInput)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, got.Status)
	// 快速模式：分析、推导、校验为推理步骤，合成为执行步骤。
	assert.GreaterOrEqual(t, time.Since(start), 18*time.Millisecond)
}

func TestUnknownSession(t *testing.T) {
	o, _ := newTestOrchestrator()
	ctx := context.Background()

	_, err := o.SubmitInput(ctx, "missing", exampleInput)
	assert.Equal(t, CodeSessionNotFound, xerrors.CodeOf(err))
	_, err = o.PatchConfig(ctx, "missing", map[string]any{"name": "x"})
	assert.Equal(t, CodeSessionNotFound, xerrors.CodeOf(err))
	assert.Equal(t, CodeSessionNotFound, xerrors.CodeOf(o.Cleanup(ctx, "missing")))
	_, err = o.Get(ctx, "missing")
	assert.Equal(t, CodeSessionNotFound, xerrors.CodeOf(err))
}

func TestInvalidArguments(t *testing.T) {
	o, _ := newTestOrchestrator()
	ctx := context.Background()

	_, err := o.CreateSession(ctx, "turbo", "")
	assert.Equal(t, xerrors.CodeInvalidArgument, xerrors.CodeOf(err))

	created, err := o.CreateSession(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, employee.ModeStandard, created.Mode)

	_, err = o.SubmitInput(ctx, created.ID, "   ")
	assert.Equal(t, xerrors.CodeInvalidArgument, xerrors.CodeOf(err))
}

func TestBusySessionRejectsConcurrentWriter(t *testing.T) {
	store := NewMemoryStore()
	o := NewOrchestrator(nil, store)
	ctx := context.Background()

	created, err := o.CreateSession(ctx, employee.ModeQuick, "")
	require.NoError(t, err)
	_, err = store.Claim(ctx, created.ID)
	require.NoError(t, err)

	_, err = o.SubmitInput(ctx, created.ID, exampleInput)
	assert.Equal(t, CodeSessionBusy, xerrors.CodeOf(err))

	require.NoError(t, store.Release(ctx, created.ID))
	got, err := o.SubmitInput(ctx, created.ID, exampleInput)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
}

type gateLatency struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gateLatency) Wait(ctx context.Context, _ employee.StepKind) error {
	g.once.Do(func() { close(g.entered) })
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-g.release:
		return nil
	}
}

func TestCleanupDuringProcessingDiscardsResult(t *testing.T) {
	gate := &gateLatency{entered: make(chan struct{}), release: make(chan struct{})}
	o, _ := newTestOrchestrator(WithLatency(gate))
	ctx := context.Background()

	created, err := o.CreateSession(ctx, employee.ModeStandard, "")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, err := o.SubmitInput(ctx, created.ID, exampleInput)
		errCh <- err
	}()

	<-gate.entered
	require.NoError(t, o.Cleanup(ctx, created.ID))
	close(gate.release)

	select {
	case err := <-errCh:
		assert.Equal(t, CodeSessionNotFound, xerrors.CodeOf(err))
	case <-time.After(2 * time.Second):
		t.Fatalf("in-flight submission did not finish")
	}
	_, err = o.Get(ctx, created.ID)
	assert.Equal(t, CodeSessionNotFound, xerrors.CodeOf(err))
}

func TestCallerDeadlineDoesNotFailSession(t *testing.T) {
	o, _ := newTestOrchestrator(WithLatency(SimulatedLatency{Reasoning: 50 * time.Millisecond, Acting: 50 * time.Millisecond}))
	created, err := o.CreateSession(context.Background(), employee.ModeQuick, "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	got, err := o.SubmitInput(ctx, created.ID, exampleInput)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, got.Status)
	assert.Empty(t, got.ErrorCode)
	assertRequiredFields(t, got)
}

func TestCallerCancelMidStageKeepsSessionUsable(t *testing.T) {
	gate := &gateLatency{entered: make(chan struct{}), release: make(chan struct{})}
	o, _ := newTestOrchestrator(WithLatency(gate))
	created, err := o.CreateSession(context.Background(), employee.ModeStandard, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	type result struct {
		sess *Session
		err  error
	}
	resCh := make(chan result, 1)
	go func() {
		sess, err := o.SubmitInput(ctx, created.ID, exampleInput)
		resCh <- result{sess, err}
	}()

	<-gate.entered
	cancel()
	close(gate.release)

	select {
	case res := <-resCh:
		require.NoError(t, res.err)
		assert.Equal(t, StatusCompleted, res.sess.Status)
		assert.Empty(t, res.sess.ErrorCode)
	case <-time.After(2 * time.Second):
		t.Fatalf("submission did not finish")
	}

	patched, err := o.PatchConfig(ctx, created.ID, map[string]any{"name": "小美"})
	require.NoError(t, err)
	assert.Equal(t, "小美", patched.CurrentConfig.Name)
}

func TestSessionTimeoutStillMapsToTimeout(t *testing.T) {
	o, _ := newTestOrchestrator(
		WithLatency(SimulatedLatency{Reasoning: time.Second, Acting: time.Second}),
		WithSessionTimeout(10*time.Millisecond),
	)
	got, err := o.CreateSession(context.Background(), employee.ModeStandard, exampleInput)
	require.NoError(t, err)

	assert.Equal(t, StatusError, got.Status)
	assert.Equal(t, string(xerrors.CodeTimeout), got.ErrorCode)
}

func TestPatchConfig(t *testing.T) {
	o, _ := newTestOrchestrator()
	ctx := context.Background()

	done, err := o.CreateSession(ctx, employee.ModeStandard, exampleInput)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, done.Status)

	patched, err := o.PatchConfig(ctx, done.ID, map[string]any{
		"name":          "小美",
		"allowed_tools": []any{"faq_search"},
		"prompt_config": map[string]any{"mode": "advanced"},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, patched.Status)
	assert.Equal(t, "小美", patched.CurrentConfig.Name)
	assert.Equal(t, []string{"faq_search"}, patched.CurrentConfig.AllowedTools)
	assert.Equal(t, employee.PromptModeAdvanced, patched.CurrentConfig.PromptConfig.Mode)
	assert.Equal(t, done.CurrentConfig.Department, patched.CurrentConfig.Department)
	assert.Equal(t, done.CurrentConfig.PromptConfig.Slots, patched.CurrentConfig.PromptConfig.Slots)
	assert.NotEqual(t, "小美", patched.Generated.Form.Name, "generated form stays untouched")

	require.Len(t, patched.Steps, len(done.Steps)+1)
	assert.Equal(t, done.Steps, patched.Steps[:len(done.Steps)])
	last, _ := patched.LastStep()
	assert.Equal(t, employee.PhaseManualPatch, last.Phase)
	assert.True(t, patched.Validation.IsValid)

	for name, patch := range map[string]map[string]any{
		"blank name":    {"name": ""},
		"removed name":  {"name": nil},
		"unknown field": {"salary": 100},
		"empty patch":   {},
	} {
		_, err := o.PatchConfig(ctx, done.ID, patch)
		assert.Equal(t, xerrors.CodeInvalidArgument, xerrors.CodeOf(err), name)
	}

	fresh, err := o.CreateSession(ctx, employee.ModeStandard, "")
	require.NoError(t, err)
	_, err = o.PatchConfig(ctx, fresh.ID, map[string]any{"name": "x"})
	assert.Equal(t, CodeInvalidTransition, xerrors.CodeOf(err))
}

func TestLifecycleEventsArePublished(t *testing.T) {
	pub := &recordingPublisher{}
	o, _ := newTestOrchestrator(WithPublisher(pub))
	ctx := context.Background()

	got, err := o.CreateSession(ctx, employee.ModeStandard, exampleInput)
	require.NoError(t, err)
	require.NoError(t, o.Cleanup(ctx, got.ID))

	assert.Equal(t, 1, pub.count(events.TypeSessionCreated))
	assert.Equal(t, len(got.Steps), pub.count(events.TypeStepRecorded))
	assert.GreaterOrEqual(t, pub.count(events.TypeStatusChanged), 3)
	assert.Equal(t, 1, pub.count(events.TypeSessionCleaned))
	for _, e := range pub.events {
		assert.Equal(t, got.ID, e.SessionID)
	}
}

func TestMetricsRecorderIsAccepted(t *testing.T) {
	var recorder Recorder = metrics.New(nil)
	o, _ := newTestOrchestrator(WithRecorder(recorder))
	got, err := o.CreateSession(context.Background(), employee.ModeQuick, "你好")
	require.NoError(t, err)
	assert.Equal(t, StatusInput, got.Status)
}

func TestListAndStats(t *testing.T) {
	o, _ := newTestOrchestrator()
	ctx := context.Background()

	_, err := o.CreateSession(ctx, employee.ModeQuick, "你好")
	require.NoError(t, err)
	_, err = o.CreateSession(ctx, employee.ModeStandard, exampleInput)
	require.NoError(t, err)

	completed, err := o.List(ctx, WithStatuses(StatusCompleted))
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, employee.ModeStandard, completed[0].Mode)

	stats, err := o.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[StatusInput])
	assert.Equal(t, 0, stats.Busy)
}

func TestSweepRemovesIdleSessions(t *testing.T) {
	o, clock := newTestOrchestrator()
	ctx := context.Background()

	stale, err := o.CreateSession(ctx, employee.ModeQuick, "")
	require.NoError(t, err)
	clock.Advance(2 * time.Hour)
	fresh, err := o.CreateSession(ctx, employee.ModeQuick, "")
	require.NoError(t, err)

	removed, err := o.Sweep(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = o.Get(ctx, stale.ID)
	assert.Equal(t, CodeSessionNotFound, xerrors.CodeOf(err))
	_, err = o.Get(ctx, fresh.ID)
	assert.NoError(t, err)

	_, err = o.Sweep(ctx, 0)
	assert.Equal(t, xerrors.CodeInvalidArgument, xerrors.CodeOf(err))
}
