package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/wista110/sports-nurse-web-sub001/internal/models"
	"github.com/wista110/sports-nurse-web-sub001/internal/pkg/apperror"
)

type mockReviewRepo struct {
	mock.Mock
}

func (m *mockReviewRepo) Create(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	if args.Error(0) == nil {
		review.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockReviewRepo) Update(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepo) GetByPair(ctx context.Context, jobID, authorID, targetID uuid.UUID) (*models.Review, error) {
	args := m.Called(ctx, jobID, authorID, targetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *mockReviewRepo) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Review, error) {
	args := m.Called(ctx, jobID)
	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *mockReviewRepo) CountByJob(ctx context.Context, jobID uuid.UUID) (int, error) {
	args := m.Called(ctx, jobID)
	return args.Int(0), args.Error(1)
}

func (m *mockReviewRepo) ListByTarget(ctx context.Context, targetID uuid.UUID, limit, offset int) ([]models.Review, error) {
	args := m.Called(ctx, targetID, limit, offset)
	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *mockReviewRepo) GetAverageRating(ctx context.Context, targetID uuid.UUID) (float64, int, error) {
	args := m.Called(ctx, targetID)
	return args.Get(0).(float64), args.Int(1), args.Error(2)
}

type mockUserDirectory struct {
	mock.Mock
}

func (m *mockUserDirectory) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type reviewFixture struct {
	svc         *ReviewService
	reviewRepo  *mockReviewRepo
	jobRepo     *mockJobRepo
	appRepo     *mockApplicationRepo
	users       *mockUserDirectory
	audit       *mockAuditSink
	notifier    *mockNotifier
	jobID       uuid.UUID
	organizerID uuid.UUID
	nurseID     uuid.UUID
}

func newReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()
	f := &reviewFixture{
		reviewRepo:  new(mockReviewRepo),
		jobRepo:     new(mockJobRepo),
		appRepo:     new(mockApplicationRepo),
		users:       new(mockUserDirectory),
		audit:       new(mockAuditSink),
		notifier:    new(mockNotifier),
		jobID:       uuid.New(),
		organizerID: uuid.New(),
		nurseID:     uuid.New(),
	}
	f.svc = NewReviewService(f.reviewRepo, f.jobRepo, f.appRepo, f.users, f.audit, f.notifier)

	f.jobRepo.On("GetByID", mock.Anything, f.jobID).Return(&models.Job{
		ID:          f.jobID,
		OrganizerID: f.organizerID,
		Status:      models.JobStatusReviewPending,
	}, nil)
	f.appRepo.On("GetAcceptedByJob", mock.Anything, f.jobID).Return(&models.Application{
		JobID:   f.jobID,
		NurseID: f.nurseID,
		Status:  models.ApplicationStatusAccepted,
	}, nil)
	return f
}

func TestReviewService_SubmitReview_FirstDoesNotFlipJob(t *testing.T) {
	f := newReviewFixture(t)

	f.reviewRepo.On("GetByPair", mock.Anything, f.jobID, f.organizerID, f.nurseID).Return(nil, nil)
	f.reviewRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Review")).Return(nil)
	f.reviewRepo.On("CountByJob", mock.Anything, f.jobID).Return(1, nil)
	f.appRepo.On("CountAcceptedByJob", mock.Anything, f.jobID).Return(1, nil)

	review, err := f.svc.SubmitReview(context.Background(), f.organizerID, f.jobID, ReviewInput{Rating: 5})

	assert.NoError(t, err)
	assert.Equal(t, f.nurseID, review.TargetID)
	f.jobRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewService_SubmitReview_SecondFlipsToReadyToPay(t *testing.T) {
	f := newReviewFixture(t)

	f.reviewRepo.On("GetByPair", mock.Anything, f.jobID, f.nurseID, f.organizerID).Return(nil, nil)
	f.reviewRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Review")).Return(nil)
	f.reviewRepo.On("CountByJob", mock.Anything, f.jobID).Return(2, nil)
	f.appRepo.On("CountAcceptedByJob", mock.Anything, f.jobID).Return(1, nil)
	f.jobRepo.On("UpdateStatus", mock.Anything, f.jobID, models.JobStatusReviewPending, models.JobStatusReadyToPay).Return(nil)
	f.audit.On("Append", mock.Anything, mock.Anything, models.AuditActionJobTransition, f.jobID, mock.Anything).Return(nil)
	f.notifier.On("NotifyJobStatus", f.jobID, models.JobStatusReadyToPay).Return()

	review, err := f.svc.SubmitReview(context.Background(), f.nurseID, f.jobID, ReviewInput{Rating: 4})

	assert.NoError(t, err)
	assert.Equal(t, f.organizerID, review.TargetID)
	f.jobRepo.AssertExpectations(t)
}

func TestReviewService_SubmitReview_GateIdempotentOnRace(t *testing.T) {
	f := newReviewFixture(t)

	f.reviewRepo.On("GetByPair", mock.Anything, f.jobID, f.nurseID, f.organizerID).Return(nil, nil)
	f.reviewRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Review")).Return(nil)
	f.reviewRepo.On("CountByJob", mock.Anything, f.jobID).Return(2, nil)
	f.appRepo.On("CountAcceptedByJob", mock.Anything, f.jobID).Return(1, nil)
	// Конкурирующий отзыв уже перевёл вакансию - гейт не считает это ошибкой.
	f.jobRepo.On("UpdateStatus", mock.Anything, f.jobID, models.JobStatusReviewPending, models.JobStatusReadyToPay).
		Return(apperror.InvalidStateTransition(models.JobStatusReadyToPay, models.JobStatusReadyToPay))

	_, err := f.svc.SubmitReview(context.Background(), f.nurseID, f.jobID, ReviewInput{Rating: 4})

	assert.NoError(t, err)
}

func TestReviewService_SubmitReview_UpdatesExisting(t *testing.T) {
	f := newReviewFixture(t)

	existing := &models.Review{
		ID:       uuid.New(),
		JobID:    f.jobID,
		AuthorID: f.organizerID,
		TargetID: f.nurseID,
		Rating:   3,
	}
	f.reviewRepo.On("GetByPair", mock.Anything, f.jobID, f.organizerID, f.nurseID).Return(existing, nil)
	f.reviewRepo.On("Update", mock.Anything, existing).Return(nil)

	review, err := f.svc.SubmitReview(context.Background(), f.organizerID, f.jobID, ReviewInput{Rating: 5})

	assert.NoError(t, err)
	assert.Equal(t, 5, review.Rating)
	// Правка существующего отзыва не трогает гейт повторно.
	f.reviewRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.jobRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewService_SubmitReview_OutsiderForbidden(t *testing.T) {
	f := newReviewFixture(t)

	_, err := f.svc.SubmitReview(context.Background(), uuid.New(), f.jobID, ReviewInput{Rating: 5})

	assert.True(t, apperror.IsForbidden(err))
}

func TestReviewService_SubmitReview_JobNotInReview(t *testing.T) {
	reviewRepo := new(mockReviewRepo)
	jobRepo := new(mockJobRepo)
	svc := NewReviewService(reviewRepo, jobRepo, new(mockApplicationRepo), nil, nil, nil)

	jobID := uuid.New()
	jobRepo.On("GetByID", mock.Anything, jobID).Return(&models.Job{
		ID:     jobID,
		Status: models.JobStatusInProgress,
	}, nil)

	_, err := svc.SubmitReview(context.Background(), uuid.New(), jobID, ReviewInput{Rating: 5})

	assert.True(t, apperror.IsConflict(err))
}

func TestReviewService_SubmitReview_InvalidRating(t *testing.T) {
	svc := NewReviewService(new(mockReviewRepo), new(mockJobRepo), new(mockApplicationRepo), nil, nil, nil)

	_, err := svc.SubmitReview(context.Background(), uuid.New(), uuid.New(), ReviewInput{Rating: 6})

	assert.True(t, apperror.IsValidation(err))
}

func TestReviewService_Rating_ResolvesUser(t *testing.T) {
	f := newReviewFixture(t)

	targetID := uuid.New()
	f.users.On("GetByID", mock.Anything, targetID).Return(&models.User{
		ID:          targetID,
		Role:        models.RoleNurse,
		DisplayName: "Сато Юки",
	}, nil)
	f.reviewRepo.On("GetAverageRating", mock.Anything, targetID).Return(4.5, 12, nil)

	rating, err := f.svc.Rating(context.Background(), targetID)

	assert.NoError(t, err)
	assert.Equal(t, "Сато Юки", rating.DisplayName)
	assert.Equal(t, models.RoleNurse, rating.Role)
	assert.Equal(t, 4.5, rating.Average)
	assert.Equal(t, 12, rating.Count)
}

func TestReviewService_Rating_UnknownUser(t *testing.T) {
	f := newReviewFixture(t)

	targetID := uuid.New()
	f.users.On("GetByID", mock.Anything, targetID).Return(nil, apperror.ErrUserNotFound)

	_, err := f.svc.Rating(context.Background(), targetID)

	assert.True(t, apperror.IsNotFound(err))
	f.reviewRepo.AssertNotCalled(t, "GetAverageRating", mock.Anything, mock.Anything)
}
