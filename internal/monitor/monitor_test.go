package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/metrics"
	"fintrack/internal/records/memory"
	"fintrack/internal/services"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	alerts []amqp.Alert
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, a amqp.Alert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.alerts = append(p.alerts, a)
	return nil
}

func (p *recordingPublisher) kinds() []amqp.AlertKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.AlertKind, 0, len(p.alerts))
	for _, a := range p.alerts {
		out = append(out, a.Kind())
	}
	return out
}

func seededEngine(t *testing.T) *services.Engine {
	t.Helper()
	ctx := context.Background()
	s := memory.New()
	e := services.NewEngine(s, config.DefaultScoring())

	_, err := e.SetBudget(ctx, "u1", "Food", "2024-05", decimal.NewFromInt(5000))
	require.NoError(t, err)
	_, err = e.SetBudget(ctx, "u1", "Transport", "2024-05", decimal.NewFromInt(1000))
	require.NoError(t, err)
	for d := 1; d <= 4; d++ {
		_, err = e.AddTransaction(ctx, core.TransactionRecord{
			UserID: "u1", Type: core.Expense, Category: "Food",
			Amount: decimal.NewFromInt(1000), Date: time.Date(2024, 5, d, 9, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}
	_, err = e.SetBudget(ctx, "u2", "Food", "2024-05", decimal.NewFromInt(1000))
	require.NoError(t, err)
	return e
}

func TestRunOncePublishesAndDeduplicates(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	m := metrics.New()
	mon := New(seededEngine(t), pub, m, nil, Config{Interval: time.Minute})
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	res, err := mon.RunOnce(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, Result{Users: 2, Alerts: 2, Failures: 0}, res)
	assert.ElementsMatch(t, []amqp.AlertKind{amqp.KindBudget, amqp.KindRisk}, pub.kinds())

	assert.Equal(t, 72.0, testutil.ToFloat64(m.RiskScore.WithLabelValues("u1")))
	assert.Equal(t, 80.0, testutil.ToFloat64(m.BudgetPercent.WithLabelValues("u1", "Food")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AlertsPublished.WithLabelValues("risk")))

	res, err = mon.RunOnce(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Alerts)
	assert.Len(t, pub.kinds(), 2)
}

func TestRunOnceRetriesFailedPublish(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("broker down")}
	m := metrics.New()
	mon := New(seededEngine(t), pub, m, nil, Config{})
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	res, err := mon.RunOnce(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failures)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EvaluationErrors))

	pub.mu.Lock()
	pub.err = nil
	pub.mu.Unlock()

	res, err = mon.RunOnce(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Alerts)
}

type flakyEvaluator struct {
	*services.Engine
}

func (f flakyEvaluator) ComputeRiskAssessment(ctx context.Context, user string, now time.Time) (core.RiskAssessment, error) {
	if user == "u1" {
		return core.RiskAssessment{}, core.Dependency("find transactions", errors.New("timeout"))
	}
	return f.Engine.ComputeRiskAssessment(ctx, user, now)
}

func TestRunOnceContinuesAfterUserFailure(t *testing.T) {
	pub := &recordingPublisher{}
	mon := New(flakyEvaluator{seededEngine(t)}, pub, nil, nil, Config{})

	res, err := mon.RunOnce(context.Background(), time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Users)
	assert.Equal(t, 1, res.Failures)
	assert.Empty(t, pub.kinds())
}

func TestStartStop(t *testing.T) {
	mon := New(seededEngine(t), nil, nil, nil, Config{Interval: time.Hour})
	ctx := context.Background()

	require.NoError(t, mon.Start(ctx))
	assert.True(t, mon.IsRunning())
	assert.Error(t, mon.Start(ctx))

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, mon.Stop(stopCtx))
	assert.False(t, mon.IsRunning())
}

type blockingEvaluator struct {
	*services.Engine
	entered chan struct{}
	release chan struct{}
}

func (b blockingEvaluator) Users(ctx context.Context) ([]string, error) {
	close(b.entered)
	<-b.release
	return nil, nil
}

func TestStopAfterTimeoutCanBeRetried(t *testing.T) {
	eval := blockingEvaluator{
		Engine:  seededEngine(t),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	mon := New(eval, nil, nil, nil, Config{Interval: time.Hour})
	ctx := context.Background()

	require.NoError(t, mon.Start(ctx))
	<-eval.entered

	shortCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, mon.Stop(shortCtx), context.DeadlineExceeded)
	assert.True(t, mon.IsRunning())

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			errs[i] = mon.Stop(stopCtx)
		}(i)
	}
	close(eval.release)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.False(t, mon.IsRunning())
	assert.NoError(t, mon.Stop(ctx))
}
