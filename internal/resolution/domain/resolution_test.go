package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCancelTrigger_ReasonsAreDistinct(t *testing.T) {
	triggers := []CancelTrigger{TriggerAttemptLimit, TriggerNoSlot, TriggerRecurringConflict}
	seenIDs := map[int]bool{}
	seenText := map[string]bool{}
	for _, tr := range triggers {
		r := tr.Reason()
		assert.False(t, seenIDs[r.ID], "duplicate reason id for %s", tr)
		assert.False(t, seenText[r.Description], "duplicate description for %s", tr)
		seenIDs[r.ID] = true
		seenText[r.Description] = true
	}
}

func TestResolution_Err(t *testing.T) {
	b := &Booking{ID: uuid.New(), Start: time.Now()}

	assert.NoError(t, Aborted(b, AbortRegionDisabled).Err())
	assert.NoError(t, Rescheduled(b, b.Start.Add(time.Hour)).Err())
	assert.ErrorIs(t, AnomalyLogged(b, "x").Err(), ErrIneligibleAnomaly)
	assert.ErrorIs(t, RescheduleFailed(b, "x").Err(), ErrRescheduleFailed)
	assert.ErrorIs(t, Cancelled(b, TriggerAttemptLimit, "").Err(), ErrAttemptLimitExceeded)
	assert.ErrorIs(t, Cancelled(b, TriggerNoSlot, "").Err(), ErrNoSlotAvailable)
	assert.ErrorIs(t, Cancelled(b, TriggerRecurringConflict, "").Err(), ErrRecurringConflict)
	assert.ErrorIs(t, CancellationFailed(b, TriggerNoSlot, "", nil).Err(), ErrCancellationFailed)

	assert.False(t, Aborted(b, AbortConcurrentlyResolved).WritesOutcome())
	assert.True(t, AnomalyLogged(b, "x").WritesOutcome())
}

func TestOutcomeEntries(t *testing.T) {
	now := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	b := &Booking{ID: uuid.New(), Start: now.Add(time.Hour), Status: BookingStatusConfirmed}

	t.Run("rescheduled entry carries both starts", func(t *testing.T) {
		entry := NewRescheduledEntry(b, b.Start.AddDate(0, 0, 7), ReasonAutomatedReschedule, now)
		assert.Equal(t, OutcomeRescheduled, entry.Type)
		assert.True(t, entry.Success)
		assert.Equal(t, b.Start, entry.OriginalStart)
		assert.Equal(t, b.Start.AddDate(0, 0, 7), *entry.NewStart)
	})

	t.Run("ineligible entry describes state", func(t *testing.T) {
		entry := NewIneligibleEntry(b, now)
		assert.Equal(t, OutcomeRescheduled, entry.Type)
		assert.False(t, entry.Success)
		assert.Contains(t, entry.Message, "confirmed=true")
		assert.Contains(t, entry.Message, "provider_assigned=false")
		assert.Contains(t, entry.Message, now.Format(time.RFC3339))
	})

	t.Run("cancel failure is prefixed and lists errors", func(t *testing.T) {
		entry := NewCancelFailedEntry(b, ReasonNoSlotAvailable, "no slot", []string{"already cancelled", "refund locked"}, now)
		assert.Equal(t, OutcomeCanceled, entry.Type)
		assert.False(t, entry.Success)
		assert.True(t, strings.HasPrefix(entry.Message, FailurePrefix))
		assert.Contains(t, entry.Message, "already cancelled; refund locked")
		assert.Nil(t, entry.NewStart)
	})

	t.Run("reschedule error entry is a failure", func(t *testing.T) {
		next := b.Start.AddDate(0, 0, 1)
		entry := NewRescheduleErrorEntry(b, &next, "reschedule operation error: "+errors.New("db down").Error(), now)
		assert.False(t, entry.Success)
		assert.True(t, strings.HasPrefix(entry.Message, FailurePrefix))
		assert.Contains(t, entry.Message, "db down")
	})
}

func TestReasonByID(t *testing.T) {
	r, ok := ReasonByID(3)
	assert.True(t, ok)
	assert.Equal(t, ReasonNoSlotAvailable, r)

	_, ok = ReasonByID(99)
	assert.False(t, ok)
}
