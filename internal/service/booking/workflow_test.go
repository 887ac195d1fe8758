package booking

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
)

func validContact() model.ContactInfo {
	return model.ContactInfo{
		Name:  "Jordan Doe",
		Email: "jordan@example.com",
		Phone: "+15550100200",
	}
}

func newTestWorkflow(repo *fakeAppointmentRepo) *Workflow {
	return NewWorkflow(newTestService(repo), uuid.New(), uuid.New())
}

func advanceToDetails(t *testing.T, w *Workflow) {
	t.Helper()
	require.NoError(t, w.SelectService(uuid.New(), 50))
	require.NoError(t, w.SelectDate(monday))
	require.NoError(t, w.SelectTime(at(monday, 10, 0)))
	require.Equal(t, StateEnterDetails, w.State())
}

func TestWorkflow_HappyPath(t *testing.T) {
	repo := &fakeAppointmentRepo{}
	w := newTestWorkflow(repo)

	assert.Equal(t, StateSelectService, w.State())
	advanceToDetails(t, w)

	created, err := w.Submit(context.Background(), validContact())
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, StateSubmitted, w.State())
	assert.Equal(t, 1, repo.createCalls)
}

func TestWorkflow_ServiceGuard(t *testing.T) {
	w := newTestWorkflow(&fakeAppointmentRepo{})

	// Date selection requires a chosen service first.
	assert.ErrorIs(t, w.SelectDate(monday), ErrInvalidTransition)
	assert.Error(t, w.SelectService(uuid.New(), 0))
	assert.Equal(t, StateSelectService, w.State())
}

func TestWorkflow_TimeRequiresDate(t *testing.T) {
	w := newTestWorkflow(&fakeAppointmentRepo{})
	require.NoError(t, w.SelectService(uuid.New(), 50))

	assert.Error(t, w.SelectTime(at(monday, 10, 0)))
}

func TestWorkflow_ChangingDateResetsTime(t *testing.T) {
	w := newTestWorkflow(&fakeAppointmentRepo{})
	require.NoError(t, w.SelectService(uuid.New(), 50))
	require.NoError(t, w.SelectDate(monday))
	require.NoError(t, w.SelectTime(at(monday, 10, 0)))
	require.Equal(t, StateEnterDetails, w.State())

	// Availability is date-dependent: picking a new date clears the
	// chosen time and returns to slot selection.
	tuesday := monday.AddDate(0, 0, 1)
	require.NoError(t, w.SelectDate(tuesday))
	assert.Equal(t, StateSelectDateTime, w.State())
	_, err := w.Submit(context.Background(), validContact())
	assert.Error(t, err)

	// Re-selecting the same date keeps nothing stale either way.
	require.NoError(t, w.SelectTime(at(tuesday, 11, 0)))
	assert.Equal(t, StateEnterDetails, w.State())
}

func TestWorkflow_SlotMustMatchSelectedDate(t *testing.T) {
	w := newTestWorkflow(&fakeAppointmentRepo{})
	require.NoError(t, w.SelectService(uuid.New(), 50))
	require.NoError(t, w.SelectDate(monday))

	assert.Error(t, w.SelectTime(at(monday.AddDate(0, 0, 1), 10, 0)))
}

func TestWorkflow_BackwardTransitionsClearNothing(t *testing.T) {
	w := newTestWorkflow(&fakeAppointmentRepo{})
	advanceToDetails(t, w)

	require.NoError(t, w.Back())
	assert.Equal(t, StateSelectDateTime, w.State())
	require.NoError(t, w.Back())
	assert.Equal(t, StateSelectService, w.State())
	assert.ErrorIs(t, w.Back(), ErrInvalidTransition)
}

func TestWorkflow_SubmitRejectsInvalidContact(t *testing.T) {
	repo := &fakeAppointmentRepo{}
	w := newTestWorkflow(repo)
	advanceToDetails(t, w)

	_, err := w.Submit(context.Background(), model.ContactInfo{Name: "x"})
	require.Error(t, err)
	assert.Equal(t, StateEnterDetails, w.State())
	assert.Equal(t, 0, repo.createCalls)
}

func TestWorkflow_LostRaceReturnsToSlotSelectionPreservingContact(t *testing.T) {
	repo := &fakeAppointmentRepo{createErr: repository.ErrSlotTaken}
	w := newTestWorkflow(repo)
	advanceToDetails(t, w)

	contact := validContact()
	_, err := w.Submit(context.Background(), contact)
	require.ErrorIs(t, err, repository.ErrSlotTaken)

	assert.Equal(t, StateSelectDateTime, w.State())
	assert.Equal(t, contact, w.Contact())
	assert.NotEmpty(t, w.LastReason())

	// The user re-selects and the second submit succeeds without
	// re-entering details.
	repo.createErr = nil
	require.NoError(t, w.SelectTime(at(monday, 11, 0)))
	created, err := w.Submit(context.Background(), w.Contact())
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, StateSubmitted, w.State())
	assert.Empty(t, w.LastReason())
}

func TestWorkflow_ConflictedSlotBouncesBack(t *testing.T) {
	repo := &fakeAppointmentRepo{}
	existing := &model.Appointment{
		StartTime:       at(monday, 10, 0),
		DurationMinutes: 50,
		Status:          model.AppointmentStatusScheduled,
	}
	existing.ID = uuid.New()
	repo.appointments = append(repo.appointments, existing)

	w := newTestWorkflow(repo)
	advanceToDetails(t, w)

	_, err := w.Submit(context.Background(), validContact())
	var unavailable *SlotUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, StateSelectDateTime, w.State())
	assert.Equal(t, 0, repo.createCalls)
}

func TestWorkflow_RecurringSubmitIsAllOrNothing(t *testing.T) {
	repo := &fakeAppointmentRepo{}
	base := at(monday, 10, 0)
	blocker := &model.Appointment{
		StartTime:       base.AddDate(0, 0, 14),
		DurationMinutes: 50,
		Status:          model.AppointmentStatusScheduled,
	}
	blocker.ID = uuid.New()
	repo.appointments = append(repo.appointments, blocker)

	w := newTestWorkflow(repo)
	advanceToDetails(t, w)
	require.NoError(t, w.SetRecurrence(&model.Recurrence{Frequency: model.FrequencyWeekly, Count: 4}))

	_, err := w.Submit(context.Background(), validContact())
	var rejected *SeriesRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, 2, rejected.Series.Index)
	assert.Equal(t, StateSelectDateTime, w.State())
	assert.Equal(t, 0, repo.createCalls)
	assert.Equal(t, 0, repo.createBatchCalls)
}

func TestWorkflow_RecurringSubmitSucceeds(t *testing.T) {
	repo := &fakeAppointmentRepo{}
	w := newTestWorkflow(repo)
	advanceToDetails(t, w)
	require.NoError(t, w.SetRecurrence(&model.Recurrence{Frequency: model.FrequencyBiweekly, Count: 3}))

	created, err := w.Submit(context.Background(), validContact())
	require.NoError(t, err)
	assert.Len(t, created, 3)
	assert.Equal(t, StateSubmitted, w.State())
	assert.Equal(t, 1, repo.createBatchCalls)
}

func TestWorkflow_RepositoryFailureIsTerminal(t *testing.T) {
	repo := &fakeAppointmentRepo{createErr: context.DeadlineExceeded}
	w := newTestWorkflow(repo)
	advanceToDetails(t, w)

	_, err := w.Submit(context.Background(), validContact())
	require.Error(t, err)
	assert.Equal(t, StateFailed, w.State())

	_, err = w.Submit(context.Background(), validContact())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestWorkflow_SubmitGuardBeforeDetails(t *testing.T) {
	w := newTestWorkflow(&fakeAppointmentRepo{})
	_, err := w.Submit(context.Background(), validContact())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestWorkflow_InvalidRecurrenceRejected(t *testing.T) {
	w := newTestWorkflow(&fakeAppointmentRepo{})
	assert.Error(t, w.SetRecurrence(&model.Recurrence{Frequency: "daily", Count: 3}))
	assert.Error(t, w.SetRecurrence(&model.Recurrence{Frequency: model.FrequencyWeekly, Count: 0}))
	assert.NoError(t, w.SetRecurrence(nil))
}
