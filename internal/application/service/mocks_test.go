package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/turtacn/riskengine/internal/domain/models"
	domainService "github.com/turtacn/riskengine/internal/domain/service"
	"github.com/turtacn/riskengine/pkg/errors"
	"github.com/turtacn/riskengine/pkg/logger"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

// MockSnapshotProvider is a mock implementation of domainService.SnapshotProvider.
type MockSnapshotProvider struct {
	mock.Mock
}

func (m *MockSnapshotProvider) GetEntitySnapshot(ctx context.Context, entityType models.EntityType, entityID string) (*models.EntitySnapshot, error) {
	args := m.Called(ctx, entityType, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EntitySnapshot), args.Error(1)
}

func (m *MockSnapshotProvider) ListEntities(ctx context.Context, entityType models.EntityType) ([]models.EntityRef, error) {
	args := m.Called(ctx, entityType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.EntityRef), args.Error(1)
}

// MockNotificationProvider is a mock implementation of domainService.NotificationProvider.
type MockNotificationProvider struct {
	mock.Mock
	channel models.Channel
}

func newMockProvider(ch models.Channel) *MockNotificationProvider {
	return &MockNotificationProvider{channel: ch}
}

func (m *MockNotificationProvider) Channel() models.Channel { return m.channel }

func (m *MockNotificationProvider) Send(ctx context.Context, recipients []string, payload models.NotificationPayload) (models.SendReceipt, error) {
	args := m.Called(ctx, recipients, payload)
	return args.Get(0).(models.SendReceipt), args.Error(1)
}

// MockDispatcher is a mock implementation of NotificationDispatcher.
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, alert *models.Alert, opts models.DispatchOptions) models.DispatchResult {
	args := m.Called(ctx, alert, opts)
	return args.Get(0).(models.DispatchResult)
}

// memAssessmentRepo is an in-memory repository.AssessmentRepository.
type memAssessmentRepo struct {
	mu   sync.Mutex
	rows []*models.RiskAssessment
}

func (r *memAssessmentRepo) Save(_ context.Context, a *models.RiskAssessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.rows = append(r.rows, &cp)
	return nil
}

func (r *memAssessmentRepo) FindByID(_ context.Context, id string) (*models.RiskAssessment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.rows {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, errors.ErrNotFound("assessment", id)
}

func (r *memAssessmentRepo) ListByEntity(_ context.Context, entityType models.EntityType, entityID string, opts models.QueryOptions) ([]*models.RiskAssessment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.RiskAssessment
	for _, a := range r.rows {
		if a.EntityType != entityType || a.EntityID != entityID {
			continue
		}
		if opts.AssessmentType != "" && a.AssessmentType != opts.AssessmentType {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AssessmentDate.After(out[j].AssessmentDate) })
	if opts.Offset >= len(out) {
		return []*models.RiskAssessment{}, nil
	}
	out = out[opts.Offset:]
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (r *memAssessmentRepo) LatestByEntity(ctx context.Context, entityType models.EntityType, entityID string) (*models.RiskAssessment, error) {
	list, _ := r.ListByEntity(ctx, entityType, entityID, models.QueryOptions{Limit: 1})
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (r *memAssessmentRepo) byEntity(entityType models.EntityType) []*models.RiskAssessment {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.RiskAssessment
	for _, a := range r.rows {
		if a.EntityType == entityType {
			out = append(out, a)
		}
	}
	return out
}

// memAlertRepo is an in-memory repository.AlertRepository with versioned updates.
type memAlertRepo struct {
	mu      sync.Mutex
	rows    map[string]models.Alert
	updates int
	// beforeUpdate runs inside Update before the version check.
	beforeUpdate func(stored *models.Alert)
	// beforeFind runs at the start of FindByID, outside the lock.
	beforeFind func(id string)
}

func newMemAlertRepo(alerts ...*models.Alert) *memAlertRepo {
	r := &memAlertRepo{rows: make(map[string]models.Alert)}
	for _, a := range alerts {
		if a.Version == 0 {
			a.Version = 1
		}
		r.rows[a.ID] = *a
	}
	return r
}

func (r *memAlertRepo) Create(_ context.Context, alerts []*models.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range alerts {
		a.Version = 1
		r.rows[a.ID] = *a
	}
	return nil
}

func (r *memAlertRepo) FindByID(_ context.Context, id string) (*models.Alert, error) {
	if r.beforeFind != nil {
		r.beforeFind(id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[id]
	if !ok {
		return nil, errors.ErrNotFound("alert", id)
	}
	return &a, nil
}

func (r *memAlertRepo) Update(_ context.Context, alert *models.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.rows[alert.ID]
	if !ok {
		return errors.ErrNotFound("alert", alert.ID)
	}
	if r.beforeUpdate != nil {
		r.beforeUpdate(&stored)
		r.rows[alert.ID] = stored
	}
	if stored.Version != alert.Version {
		return errors.ErrConflict("alert was modified concurrently")
	}
	alert.Version++
	r.rows[alert.ID] = *alert
	r.updates++
	return nil
}

func (r *memAlertRepo) List(_ context.Context, filter models.AlertFilter) ([]*models.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Alert
	for _, a := range r.rows {
		if filter.EntityType != "" && a.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID != "" && a.EntityID != filter.EntityID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && a.Priority != filter.Priority {
			continue
		}
		if filter.Category != "" && a.Category != filter.Category {
			continue
		}
		a := a
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *memAlertRepo) ListActive(ctx context.Context) ([]*models.Alert, error) {
	return r.List(ctx, models.AlertFilter{Status: models.AlertStatusActive})
}

func (r *memAlertRepo) get(id string) models.Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[id]
}

func (r *memAlertRepo) all() []models.Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Alert, 0, len(r.rows))
	for _, a := range r.rows {
		out = append(out, a)
	}
	return out
}

// recordingPublisher collects published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domainService.AlertEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e domainService.AlertEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []domainService.AlertEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domainService.AlertEventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// fakeSweepLock grants the lock only when free is true.
type fakeSweepLock struct {
	free     bool
	err      error
	released int
}

func (l *fakeSweepLock) TryAcquire(context.Context) (func(context.Context) error, bool, error) {
	if l.err != nil {
		return nil, false, l.err
	}
	if !l.free {
		return nil, false, nil
	}
	return func(context.Context) error {
		l.released++
		return nil
	}, true, nil
}

// logEntry is one message captured by recordingLogger.
type logEntry struct {
	level  string
	msg    string
	fields map[string]interface{}
}

// recordingLogger keeps every message for assertions.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) record(level, msg string, fields []logger.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := logEntry{level: level, msg: msg, fields: make(map[string]interface{}, len(fields))}
	for _, f := range fields {
		e.fields[f.Key] = f.Value
	}
	l.entries = append(l.entries, e)
}

func (l *recordingLogger) Debug(_ context.Context, msg string, fields ...logger.Field) {
	l.record("debug", msg, fields)
}
func (l *recordingLogger) Info(_ context.Context, msg string, fields ...logger.Field) {
	l.record("info", msg, fields)
}
func (l *recordingLogger) Warn(_ context.Context, msg string, fields ...logger.Field) {
	l.record("warn", msg, fields)
}
func (l *recordingLogger) Error(_ context.Context, msg string, _ error, fields ...logger.Field) {
	l.record("error", msg, fields)
}
func (l *recordingLogger) Fatal(_ context.Context, msg string, _ error, fields ...logger.Field) {
	l.record("fatal", msg, fields)
}
func (l *recordingLogger) WithFields(...logger.Field) logger.Logger { return l }
func (l *recordingLogger) WithComponent(string) logger.Logger       { return l }

func (l *recordingLogger) byLevel(level string) []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []logEntry
	for _, e := range l.entries {
		if e.level == level {
			out = append(out, e)
		}
	}
	return out
}
