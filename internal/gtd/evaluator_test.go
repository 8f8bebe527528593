package gtd

import (
	"context"
	"encoding/json"
	"options-trading/internal/model"
	"options-trading/pkg/logger"
	"options-trading/pkg/utils"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPolicy struct {
	NoState
	name      string
	result    Result
	needsData bool
	panics    bool
	state     json.RawMessage
}

func (s *stubPolicy) Name() string             { return s.name }
func (s *stubPolicy) RequiresMarketData() bool { return s.needsData }
func (s *stubPolicy) ParamSchema() ParamSchema { return ParamSchema{} }
func (s *stubPolicy) ValidateConfig(params map[string]interface{}) error {
	return ValidateParams(s.ParamSchema(), params)
}
func (s *stubPolicy) Evaluate(ctx *Context) (Result, error) {
	if s.panics {
		panic("boom")
	}
	return s.result, nil
}
func (s *stubPolicy) State() (json.RawMessage, error) { return s.state, nil }

func newTestEvaluator(t *testing.T, stubs ...*stubPolicy) *Evaluator {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)

	registry := NewRegistry()
	for _, stub := range stubs {
		stub := stub
		require.NoError(t, registry.Register(stub.name, func() Policy { return stub }))
	}
	return NewEvaluator(registry, log)
}

func playWithPolicies(names ...string) *model.Play {
	instances := make([]model.PolicyInstance, 0, len(names))
	for _, name := range names {
		instances = append(instances, model.PolicyInstance{Name: name, Enabled: true})
	}
	return &model.Play{
		Symbol:     "SPY",
		TradeType:  model.TradeTypeCall,
		Filename:   "spy.json",
		DynamicGTD: &model.DynamicGTD{Enabled: true, Policies: instances},
	}
}

func TestEvaluatePlay_CloseNowWinsWithLowestPriority(t *testing.T) {
	evaluator := newTestEvaluator(t,
		&stubPolicy{name: "a", result: Result{Action: ActionCloseNow, Reason: "late close", Priority: 50}},
		&stubPolicy{name: "b", result: Result{Action: ActionCloseNow, Reason: "urgent close", Priority: 10}},
		&stubPolicy{name: "c", result: Result{Action: ActionShorten, RecommendedDate: testNow.AddDate(0, 0, 1), Priority: 5}},
	)

	eval, err := evaluator.EvaluatePlay(context.Background(), playWithPolicies("a", "b", "c"), testContext())
	require.NoError(t, err)
	assert.True(t, eval.ShouldClose)
	assert.True(t, eval.IsGTDExit)
	assert.Equal(t, "b: urgent close", eval.CloseReason)
}

func TestEvaluatePlay_EarliestShortenWins(t *testing.T) {
	evaluator := newTestEvaluator(t,
		&stubPolicy{name: "a", result: Result{Action: ActionShorten, RecommendedDate: testNow.AddDate(0, 0, 5), Priority: 10}},
		&stubPolicy{name: "b", result: Result{Action: ActionShorten, RecommendedDate: testNow.AddDate(0, 0, 3), Priority: 90}},
	)

	eval, err := evaluator.EvaluatePlay(context.Background(), playWithPolicies("a", "b"), testContext())
	require.NoError(t, err)
	require.NotNil(t, eval.EffectiveDate)
	assert.False(t, eval.ShouldClose)
	assert.True(t, eval.EffectiveDateChanged)
	assert.True(t, eval.EffectiveDate.Equal(utils.DateOnly(testNow).AddDate(0, 0, 3)))
}

func TestEvaluatePlay_ShortenBeatsExtendRegardlessOfPriority(t *testing.T) {
	evaluator := newTestEvaluator(t,
		&stubPolicy{name: "extend", result: Result{Action: ActionExtend, RecommendedDate: testNow.AddDate(0, 0, 11), Priority: 1}},
		&stubPolicy{name: "shorten", result: Result{Action: ActionShorten, RecommendedDate: testNow.AddDate(0, 0, 4), Priority: 99}},
	)

	eval, err := evaluator.EvaluatePlay(context.Background(), playWithPolicies("extend", "shorten"), testContext())
	require.NoError(t, err)
	require.NotNil(t, eval.EffectiveDate)
	assert.True(t, eval.EffectiveDate.Equal(utils.DateOnly(testNow).AddDate(0, 0, 4)))
}

func TestEvaluatePlay_LatestExtendClampedToExpiration(t *testing.T) {
	evaluator := newTestEvaluator(t,
		&stubPolicy{name: "a", result: Result{Action: ActionExtend, RecommendedDate: testNow.AddDate(0, 0, 20), Priority: 10}},
		&stubPolicy{name: "b", result: Result{Action: ActionExtend, RecommendedDate: testNow.AddDate(0, 0, 14), Priority: 10}},
	)

	gctx := testContext() // expiration at +12 days
	eval, err := evaluator.EvaluatePlay(context.Background(), playWithPolicies("a", "b"), gctx)
	require.NoError(t, err)
	require.NotNil(t, eval.EffectiveDate)
	assert.True(t, eval.EffectiveDate.Equal(utils.DateOnly(gctx.ContractExpiration)))
}

func TestEvaluatePlay_NoOpinionLeavesDateUnchanged(t *testing.T) {
	evaluator := newTestEvaluator(t,
		&stubPolicy{name: "a", result: Hold("nothing to say")},
	)

	gctx := testContext()
	eval, err := evaluator.EvaluatePlay(context.Background(), playWithPolicies("a"), gctx)
	require.NoError(t, err)
	assert.False(t, eval.ShouldClose)
	assert.False(t, eval.EffectiveDateChanged)
	require.NotNil(t, eval.EffectiveDate)
	assert.True(t, eval.EffectiveDate.Equal(utils.DateOnly(gctx.EffectiveDate)))
}

func TestEvaluatePlay_ReachedDeadlineIsGTDExit(t *testing.T) {
	evaluator := newTestEvaluator(t,
		&stubPolicy{name: "a", result: Result{Action: ActionShorten, RecommendedDate: testNow, Priority: 10}},
	)

	eval, err := evaluator.EvaluatePlay(context.Background(), playWithPolicies("a"), testContext())
	require.NoError(t, err)
	assert.True(t, eval.ShouldClose)
	assert.True(t, eval.IsGTDExit)
	assert.Contains(t, eval.CloseReason, "good-til-date")
}

func TestEvaluatePlay_SkipsPolicies(t *testing.T) {
	dataHungry := &stubPolicy{name: "hungry", needsData: true, result: Result{Action: ActionCloseNow, Priority: 1}}
	panicky := &stubPolicy{name: "panicky", panics: true}
	evaluator := newTestEvaluator(t, dataHungry, panicky)

	gctx := testContext()
	gctx.MarketDataAvailable = false

	play := playWithPolicies("hungry", "panicky", "ghost")
	eval, err := evaluator.EvaluatePlay(context.Background(), play, gctx)
	require.NoError(t, err)
	assert.False(t, eval.ShouldClose)

	require.Len(t, eval.PerPolicyResults, 3)
	for _, entry := range eval.PerPolicyResults {
		assert.True(t, entry.Skipped, "policy %s should be skipped", entry.Policy)
	}
}

func TestEvaluatePlay_DisabledBlockAndInstancesIgnored(t *testing.T) {
	evaluator := newTestEvaluator(t,
		&stubPolicy{name: "a", result: Result{Action: ActionCloseNow, Priority: 1}},
	)

	play := playWithPolicies("a")
	play.DynamicGTD.Enabled = false
	eval, err := evaluator.EvaluatePlay(context.Background(), play, testContext())
	require.NoError(t, err)
	assert.False(t, eval.ShouldClose)
	assert.Empty(t, eval.PerPolicyResults)

	play = playWithPolicies("a")
	play.DynamicGTD.Policies[0].Enabled = false
	eval, err = evaluator.EvaluatePlay(context.Background(), play, testContext())
	require.NoError(t, err)
	assert.Empty(t, eval.PerPolicyResults)
}

func TestEvaluatePlay_PersistsPolicyState(t *testing.T) {
	stateful := &stubPolicy{
		name:   "stateful",
		result: Hold("ok"),
		state:  json.RawMessage(`{"count":1}`),
	}
	evaluator := newTestEvaluator(t, stateful)

	play := playWithPolicies("stateful")
	_, err := evaluator.EvaluatePlay(context.Background(), play, testContext())
	require.NoError(t, err)

	require.Contains(t, play.DynamicGTD.PolicyState, "stateful")
	assert.JSONEq(t, `{"count":1}`, string(play.DynamicGTD.PolicyState["stateful"]))
	require.NotNil(t, play.DynamicGTD.LastEvaluated)
	assert.True(t, play.DynamicGTD.LastEvaluated.Equal(testNow))
}

func TestEvaluatePlay_AllHoldCycleLeavesPlayUntouched(t *testing.T) {
	evaluator := newTestEvaluator(t,
		&stubPolicy{name: "a", result: Hold("nothing to do")},
		&stubPolicy{name: "b", result: Hold("still nothing")},
	)

	play := playWithPolicies("a", "b")
	eval, err := evaluator.EvaluatePlay(context.Background(), play, testContext())
	require.NoError(t, err)

	assert.False(t, eval.ShouldClose)
	assert.False(t, eval.EffectiveDateChanged)
	assert.False(t, eval.PolicyStateChanged)
	assert.Nil(t, play.DynamicGTD.LastEvaluated, "an all-HOLD cycle must not dirty the record")
	assert.Empty(t, play.DynamicGTD.PolicyState)
}

func TestEvaluatePlay_UnchangedStateIsNotAChange(t *testing.T) {
	stateful := &stubPolicy{
		name:   "stateful",
		result: Hold("ok"),
		state:  json.RawMessage(`{"count":1}`),
	}
	evaluator := newTestEvaluator(t, stateful)

	play := playWithPolicies("stateful")
	play.DynamicGTD.PolicyState = map[string]json.RawMessage{
		"stateful": json.RawMessage(`{"count":1}`),
	}

	eval, err := evaluator.EvaluatePlay(context.Background(), play, testContext())
	require.NoError(t, err)
	assert.False(t, eval.PolicyStateChanged)
	assert.Nil(t, play.DynamicGTD.LastEvaluated)
}

func TestEvaluatePlay_StampsLastEvaluatedOnChange(t *testing.T) {
	evaluator := newTestEvaluator(t, &stubPolicy{
		name:   "a",
		result: Result{Action: ActionShorten, RecommendedDate: testNow.AddDate(0, 0, 2), Priority: 10},
	})

	play := playWithPolicies("a")
	require.Nil(t, play.DynamicGTD.LastEvaluated)
	_, err := evaluator.EvaluatePlay(context.Background(), play, testContext())
	require.NoError(t, err)
	require.NotNil(t, play.DynamicGTD.LastEvaluated)
	assert.Equal(t, testNow, *play.DynamicGTD.LastEvaluated)
}
