// Package monitor periodically evaluates every user's budgets and risk,
// publishes alerts for the ones that need attention and records metrics.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/metrics"
)

// Evaluator is the part of the engine the monitor needs.
type Evaluator interface {
	Users(ctx context.Context) ([]string, error)
	ComputeBudgetStatus(ctx context.Context, userID, month string) ([]core.BudgetStatus, error)
	ComputeRiskAssessment(ctx context.Context, userID string, now time.Time) (core.RiskAssessment, error)
}

type Publisher interface {
	Publish(ctx context.Context, alert amqp.Alert) error
}

type Config struct {
	Interval time.Duration
}

func DefaultConfig() Config {
	return Config{Interval: time.Hour}
}

// Result summarizes one evaluation pass.
type Result struct {
	Users    int
	Alerts   int
	Failures int
}

type Monitor struct {
	eval      Evaluator
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *log.Logger
	config    Config
	now       func() time.Time

	// sent holds alert keys already published during this process.
	sentMu sync.Mutex
	sent   map[string]struct{}

	mu       sync.Mutex
	running  bool
	stopping bool
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New accepts a nil publisher, in which case alerts are only logged.
func New(eval Evaluator, publisher Publisher, m *metrics.Metrics, logger *log.Logger, config Config) *Monitor {
	if m == nil {
		m = metrics.New()
	}
	if logger == nil {
		logger = log.Nop()
	}
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}
	return &Monitor{
		eval:      eval,
		publisher: publisher,
		metrics:   m,
		logger:    logger.WithComponent(log.ComponentMonitor),
		config:    config,
		now:       time.Now,
		sent:      make(map[string]struct{}),
	}
}

// Start runs an evaluation immediately and then once per interval until
// Stop is called or ctx is done.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("monitor is already running")
	}
	m.running = true
	m.stopping = false
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	stopCh, doneCh := m.stopCh, m.doneCh
	m.mu.Unlock()

	go m.runLoop(ctx, stopCh, doneCh)

	m.logger.InfoContext(ctx, "monitor started", "interval", m.config.Interval)
	return nil
}

// Stop signals the loop and waits for the current pass to finish. It is
// safe to call again after a timed out Stop, or from several goroutines.
func (m *Monitor) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	if !m.stopping {
		m.stopping = true
		close(m.stopCh)
	}
	doneCh := m.doneCh
	m.mu.Unlock()

	select {
	case <-doneCh:
		m.logger.InfoContext(ctx, "monitor stopped gracefully")
	case <-ctx.Done():
		m.logger.WarnContext(ctx, "monitor stop timed out")
		return ctx.Err()
	}

	m.mu.Lock()
	m.running = false
	m.mu.Unlock()
	return nil
}

func (m *Monitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	m.tick(ctx)
	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

func (m *Monitor) tick(ctx context.Context) {
	if _, err := m.RunOnce(ctx, m.now()); err != nil {
		m.logger.ErrorContext(ctx, "evaluation pass failed", log.FieldError, err)
	}
}

// RunOnce evaluates every known user at now. A failure for one user is
// logged and counted; it does not stop the others.
func (m *Monitor) RunOnce(ctx context.Context, now time.Time) (Result, error) {
	users, err := m.eval.Users(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list users: %w", err)
	}

	res := Result{Users: len(users)}
	for _, user := range users {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case <-m.stopSignal():
			return res, nil
		default:
		}

		start := time.Now()
		alerts, err := m.evaluateUser(ctx, user, now)
		m.metrics.ObserveEvaluation(time.Since(start))
		res.Alerts += alerts
		if err != nil {
			res.Failures++
			m.metrics.EvaluationErrors.Inc()
			m.logger.ErrorContext(ctx, "user evaluation failed",
				log.NewFields().WithOperation(log.OpEvaluate).WithUser(user).WithError(err, errorType(err)).ToSlice()...)
		}
	}

	m.logger.InfoContext(ctx, "evaluation pass complete",
		"users", res.Users,
		"alerts", res.Alerts,
		"failures", res.Failures)
	return res, nil
}

func (m *Monitor) stopSignal() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopCh
}

func (m *Monitor) evaluateUser(ctx context.Context, user string, now time.Time) (int, error) {
	month := core.MonthOf(now).String()

	statuses, err := m.eval.ComputeBudgetStatus(ctx, user, month)
	if err != nil {
		return 0, err
	}
	assessment, err := m.eval.ComputeRiskAssessment(ctx, user, now)
	if err != nil {
		return 0, err
	}

	published := 0
	var errs []error
	for _, s := range statuses {
		m.metrics.BudgetPercent.WithLabelValues(user, s.Category).Set(float64(s.PercentUsed))
		if s.Status == core.StatusOK {
			continue
		}
		key := fmt.Sprintf("budget|%s|%s|%s|%s", user, s.Category, month, s.Status)
		ok, err := m.publishOnce(ctx, key, amqp.NewBudgetAlert(user, month, s))
		if err != nil {
			errs = append(errs, err)
		} else if ok {
			published++
		}
	}

	m.metrics.RiskScore.WithLabelValues(user).Set(float64(assessment.Score))
	if assessment.Level == core.RiskHigh {
		key := fmt.Sprintf("risk|%s|%s|%s", user, month, assessment.Level)
		ok, err := m.publishOnce(ctx, key, amqp.NewRiskAlert(user, month, assessment))
		if err != nil {
			errs = append(errs, err)
		} else if ok {
			published++
		}
	}
	return published, errors.Join(errs...)
}

// publishOnce sends alert unless key was already sent. A key is
// remembered only after a successful publish.
func (m *Monitor) publishOnce(ctx context.Context, key string, alert amqp.Alert) (bool, error) {
	m.sentMu.Lock()
	_, done := m.sent[key]
	m.sentMu.Unlock()
	if done {
		return false, nil
	}

	if m.publisher == nil {
		m.logger.DebugContext(ctx, "no publisher configured, alert not sent", "alert", key)
		return false, nil
	}
	if err := m.publisher.Publish(ctx, alert); err != nil {
		return false, fmt.Errorf("publish %s alert: %w", alert.Kind(), err)
	}

	m.sentMu.Lock()
	m.sent[key] = struct{}{}
	m.sentMu.Unlock()
	m.metrics.AlertsPublished.WithLabelValues(string(alert.Kind())).Inc()
	m.logger.InfoContext(ctx, "alert published", "alert", key)
	return true, nil
}

func errorType(err error) string {
	switch {
	case core.IsValidation(err):
		return log.ErrorTypeValidation
	case core.IsDependency(err):
		return log.ErrorTypeDependency
	default:
		return log.ErrorTypeInternal
	}
}
