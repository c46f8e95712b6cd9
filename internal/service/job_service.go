package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wista110/sports-nurse-web-sub001/internal/logger"
	"github.com/wista110/sports-nurse-web-sub001/internal/models"
	"github.com/wista110/sports-nurse-web-sub001/internal/pkg/apperror"
	"github.com/wista110/sports-nurse-web-sub001/internal/validation"
)

// JobRepository описывает взаимодействие сервиса с хранилищем вакансий.
type JobRepository interface {
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	Update(ctx context.Context, job *models.Job) error
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) error
	ListByOrganizer(ctx context.Context, organizerID uuid.UUID, limit, offset int) ([]models.Job, error)
	ListByStatus(ctx context.Context, status string) ([]models.Job, error)
	Delete(ctx context.Context, id, organizerID uuid.UUID) error
}

// ApplicationRepository описывает взаимодействие с хранилищем заявок.
type ApplicationRepository interface {
	Create(ctx context.Context, app *models.Application) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error)
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Application, error)
	GetAcceptedByJob(ctx context.Context, jobID uuid.UUID) (*models.Application, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Application, error)
	AcceptExclusive(ctx context.Context, id uuid.UUID) (*models.Application, error)
	ListByNurse(ctx context.Context, nurseID uuid.UUID, limit, offset int) ([]models.Application, error)
}

// EscrowRefunder - часть эскроу-сервиса, нужная для отмены вакансий.
type EscrowRefunder interface {
	GetByJob(ctx context.Context, jobID uuid.UUID) (*models.EscrowTransaction, error)
	Refund(ctx context.Context, actorID *uuid.UUID, escrowID uuid.UUID, refundAmount int64, reason string) (*models.EscrowTransaction, error)
}

// Notifier рассылает события по вакансии подписанным клиентам.
type Notifier interface {
	NotifyJobStatus(jobID uuid.UUID, status string)
}

// CreateJobInput входные данные для создания вакансии.
type CreateJobInput struct {
	Title               string
	Description         string
	Compensation        int64
	StartAt             time.Time
	EndAt               time.Time
	ApplicationDeadline time.Time
}

// JobService управляет жизненным циклом вакансии и заявками.
type JobService struct {
	repo     JobRepository
	apps     ApplicationRepository
	escrow   EscrowRefunder
	audit    AuditSink
	notifier Notifier
}

// NewJobService создаёт сервис вакансий.
func NewJobService(repo JobRepository, apps ApplicationRepository, escrow EscrowRefunder, audit AuditSink, notifier Notifier) *JobService {
	return &JobService{repo: repo, apps: apps, escrow: escrow, audit: audit, notifier: notifier}
}

// CreateJob создаёт вакансию в статусе draft.
func (s *JobService) CreateJob(ctx context.Context, organizerID uuid.UUID, in CreateJobInput) (*models.Job, error) {
	if err := validateJobInput(in); err != nil {
		return nil, err
	}

	job := &models.Job{
		ID:                  uuid.New(),
		OrganizerID:         organizerID,
		Title:               in.Title,
		Description:         in.Description,
		Status:              models.JobStatusDraft,
		Compensation:        in.Compensation,
		StartAt:             in.StartAt,
		EndAt:               in.EndAt,
		ApplicationDeadline: in.ApplicationDeadline,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// GetJob возвращает вакансию по id.
func (s *JobService) GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateJob редактирует вакансию. Разрешено только в draft и open.
func (s *JobService) UpdateJob(ctx context.Context, organizerID, jobID uuid.UUID, in CreateJobInput) (*models.Job, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.OrganizerID != organizerID {
		return nil, apperror.ErrForbidden
	}
	if job.Status != models.JobStatusDraft && job.Status != models.JobStatusOpen {
		return nil, apperror.New(apperror.ErrCodeConflict, "редактирование доступно только до контрактования")
	}
	if err := validateJobInput(in); err != nil {
		return nil, err
	}

	job.Title = in.Title
	job.Description = in.Description
	job.Compensation = in.Compensation
	job.StartAt = in.StartAt
	job.EndAt = in.EndAt
	job.ApplicationDeadline = in.ApplicationDeadline
	if err := s.repo.Update(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// PublishJob публикует черновик (draft -> open). Все обязательные поля
// должны быть заполнены.
func (s *JobService) PublishJob(ctx context.Context, organizerID, jobID uuid.UUID) (*models.Job, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.OrganizerID != organizerID {
		return nil, apperror.ErrForbidden
	}
	if job.Title == "" || job.Compensation <= 0 || job.StartAt.IsZero() || job.ApplicationDeadline.IsZero() {
		return nil, apperror.New(apperror.ErrCodeValidation, "для публикации заполните название, компенсацию и сроки")
	}
	return s.transit(ctx, job, models.JobStatusOpen, &organizerID)
}

// SubmitApplication создаёт заявку медсестры на открытую вакансию.
func (s *JobService) SubmitApplication(ctx context.Context, nurseID, jobID uuid.UUID, proposedQuote *int64, message *string) (*models.Application, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.JobStatusOpen && job.Status != models.JobStatusApplied {
		return nil, apperror.New(apperror.ErrCodeConflict, "вакансия не принимает заявки")
	}
	if time.Now().After(job.ApplicationDeadline) {
		return nil, apperror.New(apperror.ErrCodeConflict, "срок подачи заявок истёк")
	}
	if proposedQuote != nil && *proposedQuote <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "предложенная цена должна быть положительной")
	}

	app := &models.Application{
		ID:            uuid.New(),
		JobID:         jobID,
		NurseID:       nurseID,
		ProposedQuote: proposedQuote,
		Status:        models.ApplicationStatusPending,
		Message:       message,
	}
	if err := s.apps.Create(ctx, app); err != nil {
		return nil, err
	}

	// Первая заявка переводит вакансию open -> applied. Гонка здесь
	// безвредна: проигравший увидит вакансию уже в applied.
	if job.Status == models.JobStatusOpen {
		if err := s.repo.UpdateStatus(ctx, jobID, models.JobStatusOpen, models.JobStatusApplied); err != nil && !apperror.IsConflict(err) {
			return nil, err
		}
		s.notify(jobID, models.JobStatusApplied)
	}

	return app, nil
}

// AcceptApplication принимает заявку. На вакансию принимается ровно одна
// заявка; вакансия переходит в contracted.
func (s *JobService) AcceptApplication(ctx context.Context, organizerID, applicationID uuid.UUID) (*models.Application, error) {
	app, err := s.apps.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	job, err := s.repo.GetByID(ctx, app.JobID)
	if err != nil {
		return nil, err
	}
	if job.OrganizerID != organizerID {
		return nil, apperror.ErrForbidden
	}
	if job.Status != models.JobStatusApplied && job.Status != models.JobStatusOpen {
		return nil, apperror.New(apperror.ErrCodeConflict, "вакансия уже законтрактована или закрыта")
	}
	if time.Now().After(job.ApplicationDeadline) {
		return nil, apperror.New(apperror.ErrCodeConflict, "срок подачи заявок истёк")
	}

	accepted, err := s.apps.AcceptExclusive(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	if _, err := s.transit(ctx, job, models.JobStatusContracted, &organizerID); err != nil {
		return nil, err
	}
	return accepted, nil
}

// RejectApplication отклоняет ожидающую заявку.
func (s *JobService) RejectApplication(ctx context.Context, organizerID, applicationID uuid.UUID) (*models.Application, error) {
	app, err := s.apps.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	job, err := s.repo.GetByID(ctx, app.JobID)
	if err != nil {
		return nil, err
	}
	if job.OrganizerID != organizerID {
		return nil, apperror.ErrForbidden
	}
	if app.Status != models.ApplicationStatusPending {
		return nil, apperror.New(apperror.ErrCodeConflict, "заявка уже обработана")
	}
	return s.apps.UpdateStatus(ctx, applicationID, models.ApplicationStatusRejected)
}

// WithdrawApplication отзывает собственную ожидающую заявку.
func (s *JobService) WithdrawApplication(ctx context.Context, nurseID, applicationID uuid.UUID) (*models.Application, error) {
	app, err := s.apps.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.NurseID != nurseID {
		return nil, apperror.ErrForbidden
	}
	if app.Status != models.ApplicationStatusPending {
		return nil, apperror.New(apperror.ErrCodeConflict, "заявка уже обработана")
	}
	return s.apps.UpdateStatus(ctx, applicationID, models.ApplicationStatusWithdrawn)
}

// ListApplications возвращает заявки по вакансии (организатор).
func (s *JobService) ListApplications(ctx context.Context, organizerID, jobID uuid.UUID) ([]models.Application, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.OrganizerID != organizerID {
		return nil, apperror.ErrForbidden
	}
	return s.apps.ListByJob(ctx, jobID)
}

// CheckIn фиксирует прибытие принятой медсестры на мероприятие
// (escrow_holding -> in_progress).
func (s *JobService) CheckIn(ctx context.Context, nurseID, jobID uuid.UUID) (*models.Job, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	accepted, err := s.apps.GetAcceptedByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if accepted.NurseID != nurseID {
		return nil, apperror.ErrForbidden
	}
	return s.transit(ctx, job, models.JobStatusInProgress, &nurseID)
}

// CompleteJob завершает работу на мероприятии (in_progress -> review_pending).
func (s *JobService) CompleteJob(ctx context.Context, actorID uuid.UUID, jobID uuid.UUID) (*models.Job, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.OrganizerID != actorID {
		accepted, err := s.apps.GetAcceptedByJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if accepted.NurseID != actorID {
			return nil, apperror.ErrForbidden
		}
	}
	return s.transit(ctx, job, models.JobStatusReviewPending, &actorID)
}

// CancelJob отменяет вакансию. Удержанные средства при этом возвращаются
// организатору до отмены; из escrow_holding и in_progress прямой отмены нет.
func (s *JobService) CancelJob(ctx context.Context, organizerID, jobID uuid.UUID, reason string) (*models.Job, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.OrganizerID != organizerID {
		return nil, apperror.ErrForbidden
	}
	if !models.CanTransitJob(job.Status, models.JobStatusCancelled) {
		return nil, apperror.InvalidStateTransition(job.Status, models.JobStatusCancelled)
	}

	if job.EscrowID != nil {
		escrow, err := s.escrow.GetByJob(ctx, jobID)
		if err != nil && !apperror.IsNotFound(err) {
			return nil, err
		}
		if escrow != nil && escrow.Status == models.EscrowStatusHolding {
			if _, err := s.escrow.Refund(ctx, &organizerID, escrow.ID, escrow.GrossAmount, reason); err != nil {
				return nil, err
			}
		}
	}

	return s.transit(ctx, job, models.JobStatusCancelled, &organizerID)
}

// ListByOrganizer возвращает вакансии организатора.
func (s *JobService) ListByOrganizer(ctx context.Context, organizerID uuid.UUID, limit, offset int) ([]models.Job, error) {
	return s.repo.ListByOrganizer(ctx, organizerID, limit, offset)
}

// ListOpen возвращает вакансии, принимающие заявки.
func (s *JobService) ListOpen(ctx context.Context) ([]models.Job, error) {
	open, err := s.repo.ListByStatus(ctx, models.JobStatusOpen)
	if err != nil {
		return nil, err
	}
	applied, err := s.repo.ListByStatus(ctx, models.JobStatusApplied)
	if err != nil {
		return nil, err
	}
	return append(open, applied...), nil
}

// ListMyApplications возвращает заявки медсестры.
func (s *JobService) ListMyApplications(ctx context.Context, nurseID uuid.UUID, limit, offset int) ([]models.Application, error) {
	return s.apps.ListByNurse(ctx, nurseID, limit, offset)
}

// DeleteDraft удаляет черновик вакансии.
func (s *JobService) DeleteDraft(ctx context.Context, organizerID, jobID uuid.UUID) error {
	return s.repo.Delete(ctx, jobID, organizerID)
}

// transit выполняет переход статусной машины через guarded update,
// пишет аудит и рассылает уведомление.
func (s *JobService) transit(ctx context.Context, job *models.Job, to string, actorID *uuid.UUID) (*models.Job, error) {
	if !models.CanTransitJob(job.Status, to) {
		return nil, apperror.InvalidStateTransition(job.Status, to)
	}
	if err := s.repo.UpdateStatus(ctx, job.ID, job.Status, to); err != nil {
		return nil, err
	}

	from := job.Status
	job.Status = to

	if s.audit != nil {
		if err := s.audit.Append(ctx, actorID, models.AuditActionJobTransition, job.ID, map[string]interface{}{
			"from": from,
			"to":   to,
		}); err != nil {
			logger.WithComponent("job").Warnf("не удалось записать событие аудита: %v", err)
		}
	}
	s.notify(job.ID, to)

	return job, nil
}

// validateJobInput собирает доменные проверки вакансии в ошибку валидации.
func validateJobInput(in CreateJobInput) error {
	if err := validation.ValidateJobTitle(in.Title); err != nil {
		return apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateJobDescription(in.Description); err != nil {
		return apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateCompensation(in.Compensation); err != nil {
		return apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateJobSchedule(in.StartAt, in.EndAt, in.ApplicationDeadline); err != nil {
		return apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	return nil
}

func (s *JobService) notify(jobID uuid.UUID, status string) {
	if s.notifier != nil {
		s.notifier.NotifyJobStatus(jobID, status)
	}
}
