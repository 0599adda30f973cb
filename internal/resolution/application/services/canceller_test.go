package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cancelFixture struct {
	uow      *recordingUnitOfWork
	refunds  *stubRefunds
	trigger  *stubTrigger
	records  *stubRecords
	outcomes *stubOutcomes
	notifier *stubNotifier
	exec     *CancellationExecutor
	now      time.Time
}

func newCancelFixture() *cancelFixture {
	f := &cancelFixture{
		uow:      &recordingUnitOfWork{},
		refunds:  &stubRefunds{cents: 4500},
		trigger:  &stubTrigger{result: domain.TriggerResult{Success: true}},
		records:  &stubRecords{},
		outcomes: &stubOutcomes{},
		notifier: &stubNotifier{},
		now:      at("2026-11-04T09:00:00Z"),
	}
	f.exec = NewCancellationExecutor(f.uow, f.refunds, f.trigger, f.records, f.outcomes, f.notifier,
		func() time.Time { return f.now }, nil)
	return f
}

func TestCancel_Success(t *testing.T) {
	f := newCancelFixture()
	b := unfilledBooking(at("2026-11-04T10:00:00Z"))

	out, err := f.exec.Cancel(context.Background(), b, domain.ReasonNoSlotAvailable, "no slot available in the search horizon")
	require.NoError(t, err)

	assert.True(t, out.Success)
	assert.Equal(t, int64(4500), out.RefundCents)

	require.Len(t, f.trigger.got, 1)
	req := f.trigger.got[0]
	assert.Equal(t, domain.CancelTagAutoUnfilled, req.Tag)
	assert.Equal(t, int64(4500), req.RefundCents)
	assert.Equal(t, domain.ReasonNoSlotAvailable, req.Reason)

	require.Len(t, f.outcomes.entries, 1)
	entry := f.outcomes.entries[0]
	assert.Equal(t, domain.OutcomeCanceled, entry.Type)
	assert.True(t, entry.Success)
	assert.Nil(t, entry.NewStart)
	assert.Equal(t, domain.ReasonNoSlotAvailable.ID, entry.ReasonID)

	assert.Equal(t, []uuid.UUID{b.ID}, f.notifier.notified)
	require.Len(t, f.records.records, 1)
	assert.True(t, f.records.records[0].Success)

	assert.Equal(t, 1, f.uow.committed)
	assert.Equal(t, []int{1}, f.trigger.txs)
	assert.Equal(t, []int{1}, f.records.txs)
	assert.Equal(t, []int{1}, f.outcomes.txs)
}

func TestCancel_TriggerRefusal(t *testing.T) {
	f := newCancelFixture()
	f.trigger.result = domain.TriggerResult{Success: false, Errors: []string{"booking already cancelled"}}
	b := unfilledBooking(at("2026-11-04T10:00:00Z"))

	out, err := f.exec.Cancel(context.Background(), b, domain.ReasonRescheduleLimitExceeded, "reschedule limit exceeded")
	require.NoError(t, err)

	assert.False(t, out.Success)
	require.Len(t, f.outcomes.entries, 1)
	entry := f.outcomes.entries[0]
	assert.Equal(t, domain.OutcomeCanceled, entry.Type)
	assert.False(t, entry.Success)
	assert.True(t, strings.HasPrefix(entry.Message, domain.FailurePrefix))
	assert.Contains(t, entry.Message, "booking already cancelled")

	assert.Empty(t, f.notifier.notified, "no notification on failure")
	require.Len(t, f.trigger.got, 1, "no retry within the pass")
	require.Len(t, f.records.records, 1)
	assert.False(t, f.records.records[0].Success)
}

func TestCancel_TriggerErrorBecomesFailureEntry(t *testing.T) {
	f := newCancelFixture()
	f.trigger.err = errBoom
	b := unfilledBooking(at("2026-11-04T10:00:00Z"))

	out, err := f.exec.Cancel(context.Background(), b, domain.ReasonNoSlotAvailable, "no slot")
	require.NoError(t, err)

	assert.False(t, out.Success)
	assert.Contains(t, out.Errors[0], "boom")
	assert.Contains(t, f.outcomes.entries[0].Message, "cancellation trigger: boom")

	// The failed trigger's transaction is rolled back; the failure entry gets its own.
	assert.Equal(t, 1, f.uow.rolledBack)
	assert.Equal(t, 1, f.uow.committed)
	assert.Equal(t, []int{2}, f.outcomes.txs)
}

func TestCancel_RefundErrorSkipsTrigger(t *testing.T) {
	f := newCancelFixture()
	f.refunds.err = errBoom
	b := unfilledBooking(at("2026-11-04T10:00:00Z"))

	out, err := f.exec.Cancel(context.Background(), b, domain.ReasonNoSlotAvailable, "no slot")
	require.NoError(t, err)

	assert.False(t, out.Success)
	assert.Empty(t, f.trigger.got)
	assert.Contains(t, f.outcomes.entries[0].Message, "refund calculation")
}

func TestCancel_NotificationFailureIsSwallowed(t *testing.T) {
	f := newCancelFixture()
	f.notifier.err = errBoom
	b := unfilledBooking(at("2026-11-04T10:00:00Z"))

	out, err := f.exec.Cancel(context.Background(), b, domain.ReasonNoSlotAvailable, "no slot")
	require.NoError(t, err)
	assert.True(t, out.Success)
}

func TestCancel_OutcomeWriteErrorIsReturned(t *testing.T) {
	f := newCancelFixture()
	f.outcomes.err = errBoom
	b := unfilledBooking(at("2026-11-04T10:00:00Z"))

	_, err := f.exec.Cancel(context.Background(), b, domain.ReasonNoSlotAvailable, "no slot")
	assert.ErrorIs(t, err, errBoom)
	assert.Empty(t, f.notifier.notified)
	assert.Equal(t, 1, f.uow.rolledBack, "the cancellation is undone with the entry")
	assert.Zero(t, f.uow.committed)
}

func TestCancel_RecordWriteErrorRollsBack(t *testing.T) {
	f := newCancelFixture()
	f.records.err = errBoom
	b := unfilledBooking(at("2026-11-04T10:00:00Z"))

	_, err := f.exec.Cancel(context.Background(), b, domain.ReasonNoSlotAvailable, "no slot")
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "cancellation record")
	assert.Empty(t, f.outcomes.entries)
	assert.Empty(t, f.notifier.notified)
	assert.Equal(t, 1, f.uow.rolledBack)
	assert.Zero(t, f.uow.committed)
}
