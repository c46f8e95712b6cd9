package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/wista110/sports-nurse-web-sub001/internal/models"
	"github.com/wista110/sports-nurse-web-sub001/internal/pkg/apperror"
)

type mockPayoutRepo struct {
	mock.Mock
}

func (m *mockPayoutRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payout), args.Error(1)
}

func (m *mockPayoutRepo) CreateScheduled(ctx context.Context, payout *models.Payout) error {
	args := m.Called(ctx, payout)
	if args.Error(0) == nil {
		payout.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockPayoutRepo) ExecuteInstant(ctx context.Context, payout *models.Payout) error {
	args := m.Called(ctx, payout)
	if args.Error(0) == nil {
		payout.ID = uuid.New()
		payout.Status = models.PayoutStatusCompleted
	}
	return args.Error(0)
}

func (m *mockPayoutRepo) SettleScheduled(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error) {
	args := m.Called(ctx, payoutID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payout), args.Error(1)
}

func (m *mockPayoutRepo) MarkFailed(ctx context.Context, payoutID uuid.UUID, reason string) error {
	args := m.Called(ctx, payoutID, reason)
	return args.Error(0)
}

func (m *mockPayoutRepo) ListDueScheduled(ctx context.Context, cutoff time.Time) ([]models.Payout, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Payout), args.Error(1)
}

func (m *mockPayoutRepo) ListByNurse(ctx context.Context, nurseID uuid.UUID, limit, offset int) ([]models.Payout, error) {
	args := m.Called(ctx, nurseID, limit, offset)
	return args.Get(0).([]models.Payout), args.Error(1)
}

func (m *mockPayoutRepo) GetByJobID(ctx context.Context, jobID uuid.UUID) (*models.Payout, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payout), args.Error(1)
}

func newPayoutFixture(t *testing.T) (*PayoutService, *mockPayoutRepo, *mockJobRepo, *mockApplicationRepo, *mockEscrowRepo, *mockAuditSink, *mockNotifier) {
	t.Helper()
	payoutRepo := new(mockPayoutRepo)
	jobRepo := new(mockJobRepo)
	appRepo := new(mockApplicationRepo)
	escrowRepo := new(mockEscrowRepo)
	audit := new(mockAuditSink)
	notifier := new(mockNotifier)
	svc := NewPayoutService(payoutRepo, jobRepo, appRepo, escrowRepo, testCalculator(), audit, notifier)
	return svc, payoutRepo, jobRepo, appRepo, escrowRepo, audit, notifier
}

func readyJobFixture(jobID, organizerID uuid.UUID, escrowID uuid.UUID) *models.Job {
	return &models.Job{
		ID:          jobID,
		OrganizerID: organizerID,
		Status:      models.JobStatusReadyToPay,
		EscrowID:    &escrowID,
	}
}

func TestPayoutService_SchedulePayout_InstantAmounts(t *testing.T) {
	svc, payoutRepo, jobRepo, appRepo, escrowRepo, audit, notifier := newPayoutFixture(t)

	adminID := uuid.New()
	jobID := uuid.New()
	escrowID := uuid.New()
	nurseID := uuid.New()

	jobRepo.On("GetByID", mock.Anything, jobID).Return(readyJobFixture(jobID, uuid.New(), escrowID), nil)
	escrowRepo.On("GetByID", mock.Anything, escrowID).Return(&models.EscrowTransaction{
		ID:          escrowID,
		JobID:       jobID,
		GrossAmount: 10000,
		PlatformFee: 1000,
		Status:      models.EscrowStatusHolding,
	}, nil)
	appRepo.On("GetAcceptedByJob", mock.Anything, jobID).Return(&models.Application{NurseID: nurseID}, nil)
	payoutRepo.On("ExecuteInstant", mock.Anything, mock.AnythingOfType("*models.Payout")).Return(nil)
	audit.On("Append", mock.Anything, mock.Anything, models.AuditActionPayoutComplete, mock.Anything, mock.Anything).Return(nil)
	notifier.On("NotifyJobStatus", jobID, models.JobStatusPaid).Return()
	notifier.On("NotifyPayout", nurseID, mock.Anything, models.PayoutStatusCompleted).Return()

	payout, err := svc.SchedulePayout(context.Background(), adminID, jobID, models.PayoutMethodInstant)

	assert.NoError(t, err)
	assert.Equal(t, int64(9000), payout.Amount)
	assert.Equal(t, int64(270), payout.Fee)
	assert.Equal(t, int64(8730), payout.NetAmount)
	assert.Equal(t, models.PayoutStatusCompleted, payout.Status)
	assert.Nil(t, payout.ScheduledFor)
	payoutRepo.AssertExpectations(t)
}

func TestPayoutService_SchedulePayout_ScheduledDate(t *testing.T) {
	cases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "до 15-го числа",
			now:  time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC),
			want: time.Date(2026, time.April, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "ровно 15-го",
			now:  time.Date(2026, time.March, 15, 23, 0, 0, 0, time.UTC),
			want: time.Date(2026, time.April, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "после 15-го переносится ещё на месяц",
			now:  time.Date(2026, time.March, 16, 0, 0, 0, 0, time.UTC),
			want: time.Date(2026, time.May, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "декабрь переходит через год",
			now:  time.Date(2026, time.December, 20, 0, 0, 0, 0, time.UTC),
			want: time.Date(2027, time.February, 15, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, payoutRepo, jobRepo, appRepo, escrowRepo, audit, _ := newPayoutFixture(t)
			svc.now = func() time.Time { return tc.now }

			jobID := uuid.New()
			escrowID := uuid.New()
			nurseID := uuid.New()

			jobRepo.On("GetByID", mock.Anything, jobID).Return(readyJobFixture(jobID, uuid.New(), escrowID), nil)
			escrowRepo.On("GetByID", mock.Anything, escrowID).Return(&models.EscrowTransaction{
				ID:          escrowID,
				JobID:       jobID,
				GrossAmount: 10000,
				PlatformFee: 1000,
				Status:      models.EscrowStatusHolding,
			}, nil)
			appRepo.On("GetAcceptedByJob", mock.Anything, jobID).Return(&models.Application{NurseID: nurseID}, nil)
			payoutRepo.On("CreateScheduled", mock.Anything, mock.AnythingOfType("*models.Payout")).Return(nil)
			audit.On("Append", mock.Anything, mock.Anything, models.AuditActionPayoutCreated, mock.Anything, mock.Anything).Return(nil)

			payout, err := svc.SchedulePayout(context.Background(), uuid.New(), jobID, models.PayoutMethodScheduled)

			assert.NoError(t, err)
			assert.Equal(t, models.PayoutStatusPending, payout.Status)
			assert.Equal(t, tc.want, *payout.ScheduledFor)
			assert.Equal(t, int64(90), payout.Fee)
			assert.Equal(t, int64(8910), payout.NetAmount)
		})
	}
}

func TestPayoutService_SchedulePayout_JobNotReady(t *testing.T) {
	svc, _, jobRepo, _, _, _, _ := newPayoutFixture(t)

	jobID := uuid.New()
	jobRepo.On("GetByID", mock.Anything, jobID).Return(&models.Job{
		ID:     jobID,
		Status: models.JobStatusReviewPending,
	}, nil)

	_, err := svc.SchedulePayout(context.Background(), uuid.New(), jobID, models.PayoutMethodInstant)

	assert.True(t, apperror.IsConflict(err))
}

func TestPayoutService_SchedulePayout_EscrowNotHolding(t *testing.T) {
	svc, _, jobRepo, _, escrowRepo, _, _ := newPayoutFixture(t)

	jobID := uuid.New()
	escrowID := uuid.New()
	jobRepo.On("GetByID", mock.Anything, jobID).Return(readyJobFixture(jobID, uuid.New(), escrowID), nil)
	escrowRepo.On("GetByID", mock.Anything, escrowID).Return(&models.EscrowTransaction{
		ID:     escrowID,
		Status: models.EscrowStatusReleased,
	}, nil)

	_, err := svc.SchedulePayout(context.Background(), uuid.New(), jobID, models.PayoutMethodInstant)

	assert.ErrorIs(t, err, apperror.ErrInvalidEscrowStatus)
}

func TestPayoutService_SchedulePayout_UnknownMethod(t *testing.T) {
	svc, _, _, _, _, _, _ := newPayoutFixture(t)

	_, err := svc.SchedulePayout(context.Background(), uuid.New(), uuid.New(), "wire")

	assert.True(t, apperror.IsValidation(err))
}

func TestPayoutService_ProcessDueScheduledPayouts_PartialFailure(t *testing.T) {
	svc, payoutRepo, _, _, _, audit, notifier := newPayoutFixture(t)

	jobA, jobB, jobC := uuid.New(), uuid.New(), uuid.New()
	nurse := uuid.New()
	due := []models.Payout{
		{ID: uuid.New(), JobID: jobA, NurseID: nurse, NetAmount: 8910},
		{ID: uuid.New(), JobID: jobB, NurseID: nurse, NetAmount: 4455},
		{ID: uuid.New(), JobID: jobC, NurseID: nurse, NetAmount: 1782},
	}

	payoutRepo.On("ListDueScheduled", mock.Anything, mock.Anything).Return(due, nil)
	payoutRepo.On("SettleScheduled", mock.Anything, due[0].ID).Return(&models.Payout{
		ID: due[0].ID, JobID: jobA, NurseID: nurse, NetAmount: 8910,
		Method: models.PayoutMethodScheduled, Status: models.PayoutStatusCompleted,
	}, nil)
	payoutRepo.On("SettleScheduled", mock.Anything, due[1].ID).
		Return(nil, apperror.ErrInvalidEscrowStatus)
	payoutRepo.On("MarkFailed", mock.Anything, due[1].ID, mock.Anything).Return(nil)
	payoutRepo.On("SettleScheduled", mock.Anything, due[2].ID).Return(&models.Payout{
		ID: due[2].ID, JobID: jobC, NurseID: nurse, NetAmount: 1782,
		Method: models.PayoutMethodScheduled, Status: models.PayoutStatusCompleted,
	}, nil)
	audit.On("Append", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	notifier.On("NotifyJobStatus", mock.Anything, models.JobStatusPaid).Return()
	notifier.On("NotifyPayout", nurse, mock.Anything, models.PayoutStatusCompleted).Return()

	result, err := svc.ProcessDueScheduledPayouts(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 2, result.PaymentsProcessed)
	assert.Equal(t, 1, result.PaymentsFailed)
	assert.Equal(t, int64(8910+1782), result.TotalAmount)
	assert.Len(t, result.Errors, 1)
	payoutRepo.AssertExpectations(t)
}

func TestPayoutService_SettleReadyJobs_SettlesJobWithoutPayout(t *testing.T) {
	svc, payoutRepo, jobRepo, appRepo, escrowRepo, audit, notifier := newPayoutFixture(t)

	jobID := uuid.New()
	escrowID := uuid.New()
	nurseID := uuid.New()

	payoutRepo.On("ListDueScheduled", mock.Anything, mock.Anything).Return([]models.Payout{}, nil)
	jobRepo.On("ListByStatus", mock.Anything, models.JobStatusReadyToPay).
		Return([]models.Job{*readyJobFixture(jobID, uuid.New(), escrowID)}, nil)
	payoutRepo.On("GetByJobID", mock.Anything, jobID).Return(nil, apperror.ErrPayoutNotFound)
	escrowRepo.On("GetByID", mock.Anything, escrowID).Return(&models.EscrowTransaction{
		ID:          escrowID,
		JobID:       jobID,
		GrossAmount: 10000,
		PlatformFee: 1000,
		Status:      models.EscrowStatusHolding,
	}, nil)
	appRepo.On("GetAcceptedByJob", mock.Anything, jobID).Return(&models.Application{NurseID: nurseID}, nil)
	payoutRepo.On("ExecuteInstant", mock.Anything, mock.AnythingOfType("*models.Payout")).Return(nil)
	audit.On("Append", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	notifier.On("NotifyJobStatus", jobID, models.JobStatusPaid).Return()
	notifier.On("NotifyPayout", nurseID, mock.Anything, models.PayoutStatusCompleted).Return()

	result, err := svc.SettleReadyJobs(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1, result.PaymentsProcessed)
	assert.Equal(t, 0, result.PaymentsFailed)
	// Расчёт через cron идёт по плановому тарифу.
	assert.Equal(t, int64(8910), result.TotalAmount)
	payoutRepo.AssertExpectations(t)
}

func TestPayoutService_SettleReadyJobs_SkipsJobAwaitingScheduledDate(t *testing.T) {
	svc, payoutRepo, jobRepo, _, _, audit, _ := newPayoutFixture(t)

	jobID := uuid.New()
	escrowID := uuid.New()
	scheduledFor := time.Date(2026, time.October, 15, 0, 0, 0, 0, time.UTC)

	payoutRepo.On("ListDueScheduled", mock.Anything, mock.Anything).Return([]models.Payout{}, nil)
	jobRepo.On("ListByStatus", mock.Anything, models.JobStatusReadyToPay).
		Return([]models.Job{*readyJobFixture(jobID, uuid.New(), escrowID)}, nil)
	payoutRepo.On("GetByJobID", mock.Anything, jobID).Return(&models.Payout{
		ID:           uuid.New(),
		JobID:        jobID,
		Method:       models.PayoutMethodScheduled,
		Status:       models.PayoutStatusPending,
		ScheduledFor: &scheduledFor,
	}, nil)
	audit.On("Append", mock.Anything, mock.Anything, models.AuditActionBatchSettled, mock.Anything, mock.Anything).Return(nil)

	result, err := svc.SettleReadyJobs(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 0, result.PaymentsProcessed)
	assert.Equal(t, 0, result.PaymentsFailed)
	payoutRepo.AssertNotCalled(t, "ExecuteInstant", mock.Anything, mock.Anything)
}

func TestPayoutService_SettleReadyJobs_IsolatesFailures(t *testing.T) {
	svc, payoutRepo, jobRepo, appRepo, escrowRepo, audit, notifier := newPayoutFixture(t)

	jobA, jobB := uuid.New(), uuid.New()
	escrowA, escrowB := uuid.New(), uuid.New()
	nurseID := uuid.New()

	payoutRepo.On("ListDueScheduled", mock.Anything, mock.Anything).Return([]models.Payout{}, nil)
	jobRepo.On("ListByStatus", mock.Anything, models.JobStatusReadyToPay).Return([]models.Job{
		*readyJobFixture(jobA, uuid.New(), escrowA),
		*readyJobFixture(jobB, uuid.New(), escrowB),
	}, nil)
	payoutRepo.On("GetByJobID", mock.Anything, jobA).Return(nil, apperror.ErrPayoutNotFound)
	payoutRepo.On("GetByJobID", mock.Anything, jobB).Return(nil, apperror.ErrPayoutNotFound)
	// Первое эскроу уже возвращено - вакансия падает, прогон продолжается.
	escrowRepo.On("GetByID", mock.Anything, escrowA).Return(&models.EscrowTransaction{
		ID:     escrowA,
		Status: models.EscrowStatusRefunded,
	}, nil)
	escrowRepo.On("GetByID", mock.Anything, escrowB).Return(&models.EscrowTransaction{
		ID:          escrowB,
		JobID:       jobB,
		GrossAmount: 10000,
		PlatformFee: 1000,
		Status:      models.EscrowStatusHolding,
	}, nil)
	appRepo.On("GetAcceptedByJob", mock.Anything, jobB).Return(&models.Application{NurseID: nurseID}, nil)
	payoutRepo.On("ExecuteInstant", mock.Anything, mock.AnythingOfType("*models.Payout")).Return(nil)
	audit.On("Append", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	notifier.On("NotifyJobStatus", jobB, models.JobStatusPaid).Return()
	notifier.On("NotifyPayout", nurseID, mock.Anything, models.PayoutStatusCompleted).Return()

	result, err := svc.SettleReadyJobs(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1, result.PaymentsProcessed)
	assert.Equal(t, 1, result.PaymentsFailed)
	assert.Len(t, result.Errors, 1)
}

func TestPayoutService_ProcessDueScheduledPayouts_Empty(t *testing.T) {
	svc, payoutRepo, _, _, _, audit, _ := newPayoutFixture(t)

	payoutRepo.On("ListDueScheduled", mock.Anything, mock.Anything).Return([]models.Payout{}, nil)
	audit.On("Append", mock.Anything, mock.Anything, models.AuditActionBatchSettled, mock.Anything, mock.Anything).Return(nil)

	result, err := svc.ProcessDueScheduledPayouts(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 0, result.PaymentsProcessed)
	assert.Equal(t, 0, result.PaymentsFailed)
	payoutRepo.AssertNotCalled(t, "SettleScheduled", mock.Anything, mock.Anything)
}
