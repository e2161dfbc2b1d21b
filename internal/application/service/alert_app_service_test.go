package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/riskengine/internal/domain/models"
	domainService "github.com/turtacn/riskengine/internal/domain/service"
	"github.com/turtacn/riskengine/pkg/errors"
	"github.com/turtacn/riskengine/pkg/logger"
)

type alertFixture struct {
	svc        *alertLifecycleServiceImpl
	repo       *memAlertRepo
	dispatcher *MockDispatcher
	publisher  *recordingPublisher
}

func newAlertFixture(t *testing.T, lock domainService.SweepLock, alerts ...*models.Alert) *alertFixture {
	t.Helper()
	f := &alertFixture{
		repo:       newMemAlertRepo(alerts...),
		dispatcher: new(MockDispatcher),
		publisher:  &recordingPublisher{},
	}
	f.dispatcher.On("Dispatch", mock.Anything, mock.Anything, mock.Anything).
		Return(models.DispatchResult{Success: true})

	svc := NewAlertLifecycleService(f.repo, f.dispatcher, f.publisher, lock, AlertSettings{
		ReminderInterval:   time.Hour,
		Recipients:         []string{"manager@example.com"},
		EscalationContacts: []string{"director@example.com"},
	}, nil, logger.NewNoopLogger())
	f.svc = svc.(*alertLifecycleServiceImpl)
	f.svc.clock = fixedClock(testNow)
	return f
}

// activeAlert returns an alert created at priority p whose due date is
// offset from testNow; a negative offset makes it overdue.
func activeAlert(id string, p models.Priority, dueOffset time.Duration) *models.Alert {
	return &models.Alert{
		ID:              id,
		EntityType:      models.EntityTypeProperty,
		EntityID:        "prop-1",
		Category:        models.CategoryMarket,
		AlertType:       "market_high",
		Title:           "High Market Risk",
		Priority:        p,
		InitialPriority: p,
		Status:          models.AlertStatusActive,
		CreatedAt:       testNow.Add(-48 * time.Hour),
		DueDate:         testNow.Add(dueOffset),
	}
}

func TestAcknowledgeAndResolve(t *testing.T) {
	f := newAlertFixture(t, nil, activeAlert("a-1", models.PriorityHigh, time.Hour))
	ctx := context.Background()

	acked, err := f.svc.AcknowledgeAlert(ctx, "a-1", "user-7", "looking into it")
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusAcknowledged, acked.Status)
	require.NotNil(t, acked.AcknowledgedBy)
	assert.Equal(t, "user-7", *acked.AcknowledgedBy)
	assert.Equal(t, testNow, *acked.AcknowledgedAt)

	_, err = f.svc.AcknowledgeAlert(ctx, "a-1", "user-8", "")
	assert.True(t, errors.IsConflict(err))

	resolved, err := f.svc.ResolveAlert(ctx, "a-1", "user-7", "rent adjusted")
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusResolved, resolved.Status)
	assert.Equal(t, "rent adjusted", resolved.ResolutionNotes)

	_, err = f.svc.ResolveAlert(ctx, "a-1", "user-7", "again")
	assert.True(t, errors.IsConflict(err))

	assert.Equal(t, []domainService.AlertEventType{
		domainService.AlertEventAcknowledged,
		domainService.AlertEventResolved,
	}, f.publisher.types())
}

func TestTransitions_Validation(t *testing.T) {
	f := newAlertFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.AcknowledgeAlert(ctx, "", "user-1", "")
	assert.True(t, errors.IsValidation(err))
	_, err = f.svc.ResolveAlert(ctx, "a-1", " ", "")
	assert.True(t, errors.IsValidation(err))
	_, err = f.svc.AcknowledgeAlert(ctx, "missing", "user-1", "")
	assert.True(t, errors.IsNotFound(err))
}

func TestAcknowledge_RetriesAfterVersionRace(t *testing.T) {
	f := newAlertFixture(t, nil, activeAlert("a-1", models.PriorityHigh, time.Hour))
	raced := false
	f.repo.beforeUpdate = func(stored *models.Alert) {
		if !raced {
			raced = true
			stored.Version++
		}
	}

	acked, err := f.svc.AcknowledgeAlert(context.Background(), "a-1", "user-1", "")
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusAcknowledged, acked.Status)
	assert.Equal(t, models.AlertStatusAcknowledged, f.repo.get("a-1").Status)
}

func TestEscalate_OverdueUrgentGoesImmediate(t *testing.T) {
	f := newAlertFixture(t, nil, activeAlert("a-1", models.PriorityUrgent, -time.Hour))

	res, err := f.svc.EscalateAlert(context.Background(), "a-1")
	require.NoError(t, err)

	assert.True(t, res.Escalated)
	assert.Equal(t, models.PriorityImmediate, res.NewPriority)
	require.NotNil(t, res.EscalatedAt)
	assert.Equal(t, testNow, *res.EscalatedAt)

	stored := f.repo.get("a-1")
	assert.Equal(t, models.PriorityImmediate, stored.Priority)
	assert.Equal(t, models.AlertStatusActive, stored.Status)
	assert.Equal(t, testNow.Add(-time.Hour), stored.DueDate)
	assert.Equal(t, 1, stored.EscalationCount)

	f.dispatcher.AssertCalled(t, "Dispatch", mock.Anything, mock.Anything, models.DispatchOptions{
		Kind:       models.NotificationKindEscalation,
		Recipients: []string{"director@example.com"},
	})
	assert.Equal(t, []domainService.AlertEventType{domainService.AlertEventEscalated}, f.publisher.types())
}

func TestEscalate_NoOpCases(t *testing.T) {
	resolved := activeAlert("resolved", models.PriorityMedium, -time.Hour)
	resolved.Status = models.AlertStatusResolved
	acked := activeAlert("acked", models.PriorityHigh, -time.Hour)
	acked.Status = models.AlertStatusAcknowledged

	f := newAlertFixture(t, nil,
		activeAlert("not-due", models.PriorityUrgent, time.Hour),
		resolved,
		acked,
	)

	cases := map[string]string{
		"not-due":  reasonNotOverdue,
		"resolved": reasonNotActive,
		"acked":    reasonNotActive,
	}
	for id, reason := range cases {
		before := f.repo.get(id)
		res, err := f.svc.EscalateAlert(context.Background(), id)
		require.NoError(t, err, id)
		assert.False(t, res.Escalated, id)
		assert.Equal(t, reason, res.Reason, id)
		assert.Equal(t, before, f.repo.get(id), id)
	}
	f.dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestEscalate_RepeatedCallsWalkTheLadder(t *testing.T) {
	f := newAlertFixture(t, nil, activeAlert("a-1", models.PriorityMedium, -time.Hour))
	ctx := context.Background()

	res, err := f.svc.EscalateAlert(ctx, "a-1")
	require.NoError(t, err)
	assert.True(t, res.Escalated)
	assert.Equal(t, models.PriorityHigh, res.NewPriority)

	f.svc.clock = fixedClock(testNow.Add(time.Minute))
	res, err = f.svc.EscalateAlert(ctx, "a-1")
	require.NoError(t, err)
	assert.True(t, res.Escalated)
	assert.Equal(t, models.PriorityImmediate, res.NewPriority)
	require.NotNil(t, res.EscalatedAt)
	assert.Equal(t, testNow.Add(time.Minute), *res.EscalatedAt)

	f.svc.clock = fixedClock(testNow.Add(2 * time.Minute))
	res, err = f.svc.EscalateAlert(ctx, "a-1")
	require.NoError(t, err)
	assert.True(t, res.Escalated)
	assert.Equal(t, models.PriorityImmediate, res.NewPriority)

	stored := f.repo.get("a-1")
	assert.Equal(t, models.PriorityImmediate, stored.Priority)
	assert.Equal(t, models.PriorityMedium, stored.InitialPriority)
	assert.Equal(t, 3, stored.EscalationCount)
	assert.Equal(t, testNow.Add(-time.Hour), stored.DueDate)
	assert.Equal(t, models.AlertStatusActive, stored.Status)
	f.dispatcher.AssertNumberOfCalls(t, "Dispatch", 3)
}

func TestEscalate_LostRaceIsNotAnError(t *testing.T) {
	f := newAlertFixture(t, nil, activeAlert("a-1", models.PriorityHigh, -time.Hour))
	f.repo.beforeUpdate = func(stored *models.Alert) { stored.Version++ }

	res, err := f.svc.EscalateAlert(context.Background(), "a-1")
	require.NoError(t, err)
	assert.False(t, res.Escalated)
	assert.Equal(t, reasonConcurrentMod, res.Reason)
	f.dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestEscalate_ConcurrentCallsEscalateOnce(t *testing.T) {
	f := newAlertFixture(t, nil, activeAlert("a-1", models.PriorityMedium, -time.Hour))

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	f.repo.beforeFind = func(string) {
		once.Do(func() {
			close(entered)
			<-release
		})
	}

	const callers = 8
	results := make(chan *models.EscalationResult, callers)
	var wg sync.WaitGroup
	call := func() {
		defer wg.Done()
		res, err := f.svc.EscalateAlert(context.Background(), "a-1")
		assert.NoError(t, err)
		results <- res
	}

	wg.Add(1)
	go call()
	<-entered
	for i := 1; i < callers; i++ {
		wg.Add(1)
		go call()
	}
	// Let the followers join the in-flight escalation before it completes.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	for res := range results {
		assert.True(t, res.Escalated)
		assert.Equal(t, models.PriorityHigh, res.NewPriority)
	}
	stored := f.repo.get("a-1")
	assert.Equal(t, models.PriorityHigh, stored.Priority)
	assert.Equal(t, 1, stored.EscalationCount)
	f.dispatcher.AssertNumberOfCalls(t, "Dispatch", 1)
}

func TestProcessAlertQueue(t *testing.T) {
	remindedAt := testNow.Add(-10 * time.Minute)
	reminded := activeAlert("reminded", models.PriorityHigh, -2*time.Hour)
	reminded.LastReminderAt = &remindedAt

	f := newAlertFixture(t, nil,
		activeAlert("overdue", models.PriorityMedium, -time.Hour),
		activeAlert("fresh", models.PriorityHigh, time.Hour),
		reminded,
	)

	res, err := f.svc.ProcessAlertQueue(context.Background())
	require.NoError(t, err)

	// Both overdue alerts escalate; only the one without a recent reminder is reminded.
	assert.Equal(t, 3, res.Processed)
	assert.Equal(t, 2, res.Escalated)
	assert.Equal(t, 3, res.NotificationsSent)
	assert.Equal(t, 0, res.Errors)
	assert.False(t, res.Skipped)

	overdue := f.repo.get("overdue")
	assert.Equal(t, models.PriorityHigh, overdue.Priority)
	require.NotNil(t, overdue.LastReminderAt)
	assert.Equal(t, testNow, *overdue.LastReminderAt)

	stored := f.repo.get("reminded")
	assert.Equal(t, models.PriorityImmediate, stored.Priority)
	assert.Equal(t, remindedAt, *stored.LastReminderAt)

	fresh := f.repo.get("fresh")
	assert.Equal(t, models.PriorityHigh, fresh.Priority)
	assert.Nil(t, fresh.LastReminderAt)

	f.dispatcher.AssertCalled(t, "Dispatch", mock.Anything, mock.Anything, models.DispatchOptions{
		Kind:       models.NotificationKindReminder,
		Recipients: []string{"manager@example.com"},
	})
	f.dispatcher.AssertNumberOfCalls(t, "Dispatch", 3)

	// The next pass escalates again; reminders stay inside their interval.
	f.svc.clock = fixedClock(testNow.Add(10 * time.Minute))
	res, err = f.svc.ProcessAlertQueue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Escalated)
	assert.Equal(t, 2, res.NotificationsSent)
	assert.Equal(t, models.PriorityImmediate, f.repo.get("overdue").Priority)
	f.dispatcher.AssertNumberOfCalls(t, "Dispatch", 5)
}

func TestProcessAlertQueue_SkipsWhenLockHeld(t *testing.T) {
	lock := &fakeSweepLock{free: false}
	f := newAlertFixture(t, lock, activeAlert("a-1", models.PriorityMedium, -time.Hour))

	res, err := f.svc.ProcessAlertQueue(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, models.PriorityMedium, f.repo.get("a-1").Priority)

	lock.free = true
	res, err = f.svc.ProcessAlertQueue(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 1, res.Escalated)
	assert.Equal(t, 1, lock.released)
}

func TestProcessAlertQueue_SkipsWhenAlreadyRunning(t *testing.T) {
	f := newAlertFixture(t, nil)
	f.svc.sweepMu.Lock()
	defer f.svc.sweepMu.Unlock()

	res, err := f.svc.ProcessAlertQueue(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Skipped)
}

func TestAlertQueries(t *testing.T) {
	acked := activeAlert("b", models.PriorityUrgent, time.Hour)
	acked.Status = models.AlertStatusAcknowledged
	overall := activeAlert("c", models.PriorityHigh, -time.Hour)
	overall.Category = ""
	overall.AlertType = models.OverallRiskAlertType
	other := activeAlert("d", models.PriorityMedium, time.Hour)
	other.EntityType = models.EntityTypeTenant
	other.EntityID = "tenant-1"
	other.Category = models.CategoryPayment

	f := newAlertFixture(t, nil, activeAlert("a", models.PriorityHigh, time.Hour), acked, overall, other)
	ctx := context.Background()

	stats, err := f.svc.GetAlertStatistics(ctx, models.AlertFilter{})
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 3, stats.ByStatus[models.AlertStatusActive])
	assert.Equal(t, 1, stats.ByStatus[models.AlertStatusAcknowledged])
	assert.Equal(t, 2, stats.ByPriority[models.PriorityHigh])
	assert.Equal(t, 2, stats.ByCategory[string(models.CategoryMarket)])
	assert.Equal(t, 1, stats.ByCategory[models.OverallRiskAlertType])
	assert.Equal(t, 1, stats.Overdue)

	list, err := f.svc.ListEntityAlerts(ctx, models.EntityTypeProperty, "prop-1", models.AlertFilter{Status: models.AlertStatusActive})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = f.svc.ListAlerts(ctx, models.AlertFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.svc.ListAlerts(ctx, models.AlertFilter{Status: "snoozed"})
	assert.True(t, errors.IsValidation(err))

	got, err := f.svc.GetAlert(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, "tenant-1", got.EntityID)
}
