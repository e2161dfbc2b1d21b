package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/riskengine/pkg/errors"
)

func newActiveAlert(now time.Time) *Alert {
	return &Alert{
		ID:              "alert-1",
		Priority:        PriorityUrgent,
		InitialPriority: PriorityUrgent,
		Status:          AlertStatusActive,
		CreatedAt:       now,
		DueDate:         now.Add(4 * time.Hour),
	}
}

func TestAlert_AcknowledgeThenResolve(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	a := newActiveAlert(now)

	require.NoError(t, a.Acknowledge("user-7", "looking into it", now))
	assert.Equal(t, AlertStatusAcknowledged, a.Status)
	assert.Equal(t, "user-7", *a.AcknowledgedBy)
	assert.Equal(t, now, *a.AcknowledgedAt)

	err := a.Acknowledge("user-8", "", now)
	assert.True(t, errors.IsConflict(err))

	require.NoError(t, a.Resolve("user-7", "roof repaired", now.Add(time.Hour)))
	assert.Equal(t, AlertStatusResolved, a.Status)
	assert.Equal(t, "roof repaired", a.ResolutionNotes)

	assert.True(t, errors.IsConflict(a.Resolve("user-7", "again", now)))
	assert.True(t, errors.IsConflict(a.Acknowledge("user-7", "", now)))
}

func TestAlert_ResolveDirectlyFromActive(t *testing.T) {
	now := time.Now().UTC()
	a := newActiveAlert(now)
	require.NoError(t, a.Resolve("user-1", "false positive", now))
	assert.Equal(t, AlertStatusResolved, a.Status)
	assert.Nil(t, a.AcknowledgedAt)
}

func TestAlert_IsOverdue(t *testing.T) {
	now := time.Now().UTC()
	a := newActiveAlert(now)
	assert.False(t, a.IsOverdue(now.Add(4*time.Hour)))
	assert.True(t, a.IsOverdue(now.Add(4*time.Hour+time.Second)))

	a.Status = AlertStatusAcknowledged
	assert.False(t, a.IsOverdue(now.Add(24*time.Hour)))
}

func TestAlert_RaisePriorityNeverLowers(t *testing.T) {
	now := time.Now().UTC()
	a := newActiveAlert(now)

	assert.False(t, a.RaisePriority(PriorityHigh, now))
	assert.Equal(t, PriorityUrgent, a.Priority)
	assert.Nil(t, a.EscalatedAt)

	assert.True(t, a.RaisePriority(PriorityImmediate, now))
	assert.Equal(t, PriorityImmediate, a.Priority)
	assert.Equal(t, 1, a.EscalationCount)
	assert.Equal(t, PriorityUrgent, a.InitialPriority)

	assert.False(t, a.RaisePriority(PriorityImmediate, now))
	assert.Equal(t, 1, a.EscalationCount)
}

func TestAlert_MarkEscalated(t *testing.T) {
	now := time.Now().UTC()
	a := newActiveAlert(now)
	a.Priority = PriorityImmediate

	a.MarkEscalated(now)
	assert.Equal(t, PriorityImmediate, a.Priority)
	assert.Equal(t, 1, a.EscalationCount)
	require.NotNil(t, a.EscalatedAt)
	assert.True(t, a.EscalatedAt.Equal(now))
}
