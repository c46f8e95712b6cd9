package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/wista110/sports-nurse-web-sub001/internal/logger"
	"github.com/wista110/sports-nurse-web-sub001/internal/models"
	"github.com/wista110/sports-nurse-web-sub001/internal/pkg/apperror"
	"github.com/wista110/sports-nurse-web-sub001/internal/validation"
)

// ReviewRepository описывает взаимодействие с хранилищем отзывов.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	Update(ctx context.Context, review *models.Review) error
	GetByPair(ctx context.Context, jobID, authorID, targetID uuid.UUID) (*models.Review, error)
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Review, error)
	CountByJob(ctx context.Context, jobID uuid.UUID) (int, error)
	ListByTarget(ctx context.Context, targetID uuid.UUID, limit, offset int) ([]models.Review, error)
	GetAverageRating(ctx context.Context, targetID uuid.UUID) (float64, int, error)
}

// AppRepoForReview - часть хранилища заявок, нужная гейту отзывов.
type AppRepoForReview interface {
	GetAcceptedByJob(ctx context.Context, jobID uuid.UUID) (*models.Application, error)
	CountAcceptedByJob(ctx context.Context, jobID uuid.UUID) (int, error)
}

// UserDirectory - справочник пользователей: роль и отображаемое имя.
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// UserRating - рейтинг пользователя вместе с данными справочника.
type UserRating struct {
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	Average     float64   `json:"average"`
	Count       int       `json:"count"`
}

// ReviewInput входные данные отзыва.
type ReviewInput struct {
	Rating  int
	Tags    []string
	Comment *string
}

// ReviewService обрабатывает взаимные отзывы и гейт перехода к выплате:
// вакансия уходит из review_pending только когда обе стороны оценили
// друг друга.
type ReviewService struct {
	repo     ReviewRepository
	jobs     JobRepository
	apps     AppRepoForReview
	users    UserDirectory
	audit    AuditSink
	notifier Notifier
}

// NewReviewService создаёт сервис отзывов.
func NewReviewService(repo ReviewRepository, jobs JobRepository, apps AppRepoForReview, users UserDirectory, audit AuditSink, notifier Notifier) *ReviewService {
	return &ReviewService{repo: repo, jobs: jobs, apps: apps, users: users, audit: audit, notifier: notifier}
}

// SubmitReview создаёт или обновляет отзыв автора в рамках вакансии.
// Приём отзывов открыт только в review_pending; адресат выводится из
// пары организатор/принятая медсестра.
func (s *ReviewService) SubmitReview(ctx context.Context, authorID, jobID uuid.UUID, in ReviewInput) (*models.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperror.New(apperror.ErrCodeValidation, "оценка должна быть от 1 до 5")
	}
	if err := validation.ValidateReviewTags(in.Tags); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateReviewComment(in.Comment); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.JobStatusReviewPending {
		return nil, apperror.New(apperror.ErrCodeConflict, "отзывы принимаются только после завершения работы")
	}

	accepted, err := s.apps.GetAcceptedByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	var targetID uuid.UUID
	switch authorID {
	case job.OrganizerID:
		targetID = accepted.NurseID
	case accepted.NurseID:
		targetID = job.OrganizerID
	default:
		return nil, apperror.ErrForbidden
	}

	existing, err := s.repo.GetByPair(ctx, jobID, authorID, targetID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.Rating = in.Rating
		existing.Tags = in.Tags
		existing.Comment = in.Comment
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	review := &models.Review{
		ID:       uuid.New(),
		JobID:    jobID,
		AuthorID: authorID,
		TargetID: targetID,
		Rating:   in.Rating,
		Tags:     in.Tags,
		Comment:  in.Comment,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		return nil, err
	}

	if err := s.onReviewSubmitted(ctx, job, &authorID); err != nil {
		return nil, err
	}
	return review, nil
}

// onReviewSubmitted проверяет гейт: когда число отзывов достигает двух
// на каждую принятую заявку, вакансия переходит review_pending ->
// ready_to_pay. Повторный вызов после перехода - no-op.
func (s *ReviewService) onReviewSubmitted(ctx context.Context, job *models.Job, actorID *uuid.UUID) error {
	count, err := s.repo.CountByJob(ctx, job.ID)
	if err != nil {
		return err
	}
	acceptedCount, err := s.apps.CountAcceptedByJob(ctx, job.ID)
	if err != nil {
		return err
	}
	if acceptedCount == 0 || count < 2*acceptedCount {
		return nil
	}

	err = s.jobs.UpdateStatus(ctx, job.ID, models.JobStatusReviewPending, models.JobStatusReadyToPay)
	if err != nil {
		// Конкурирующий отзыв уже перевёл вакансию - гейт идемпотентен.
		if apperror.IsConflict(err) {
			return nil
		}
		return err
	}
	job.Status = models.JobStatusReadyToPay

	if s.audit != nil {
		if err := s.audit.Append(ctx, actorID, models.AuditActionJobTransition, job.ID, map[string]interface{}{
			"from": models.JobStatusReviewPending,
			"to":   models.JobStatusReadyToPay,
		}); err != nil {
			logger.WithComponent("review").Warnf("не удалось записать событие аудита: %v", err)
		}
	}
	if s.notifier != nil {
		s.notifier.NotifyJobStatus(job.ID, models.JobStatusReadyToPay)
	}
	return nil
}

// ListByJob возвращает отзывы по вакансии.
func (s *ReviewService) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Review, error) {
	return s.repo.ListByJob(ctx, jobID)
}

// ListByTarget возвращает отзывы о пользователе.
func (s *ReviewService) ListByTarget(ctx context.Context, targetID uuid.UUID, limit, offset int) ([]models.Review, error) {
	return s.repo.ListByTarget(ctx, targetID, limit, offset)
}

// Rating возвращает средний рейтинг пользователя и число отзывов.
// Пользователь проверяется по справочнику: неизвестный ID - not found.
func (s *ReviewService) Rating(ctx context.Context, targetID uuid.UUID) (*UserRating, error) {
	user, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	average, count, err := s.repo.GetAverageRating(ctx, targetID)
	if err != nil {
		return nil, err
	}
	return &UserRating{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		Average:     average,
		Count:       count,
	}, nil
}
