package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/wista110/sports-nurse-web-sub001/internal/fees"
	"github.com/wista110/sports-nurse-web-sub001/internal/gateway"
	"github.com/wista110/sports-nurse-web-sub001/internal/logger"
	"github.com/wista110/sports-nurse-web-sub001/internal/models"
	"github.com/wista110/sports-nurse-web-sub001/internal/pkg/apperror"
)

// EscrowRepository описывает взаимодействие сервиса с хранилищем эскроу.
type EscrowRepository interface {
	Create(ctx context.Context, jobID uuid.UUID, grossAmount, platformFee int64) (*models.EscrowTransaction, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.EscrowTransaction, error)
	GetByJobID(ctx context.Context, jobID uuid.UUID) (*models.EscrowTransaction, error)
	MarkHolding(ctx context.Context, id uuid.UUID) (*models.EscrowTransaction, error)
	Release(ctx context.Context, id uuid.UUID, releaseAmount int64) (*models.EscrowTransaction, error)
	Refund(ctx context.Context, id uuid.UUID, refundAmount int64) (*models.EscrowTransaction, error)
}

// JobRepoForEscrow описывает минимальный контракт работы с вакансиями.
type JobRepoForEscrow interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) error
	SetEscrowID(ctx context.Context, jobID, escrowID uuid.UUID) error
}

// AuditSink - журнал аудита. Запись fire-and-forget: провал записи
// логируется и проглатывается, бизнес-операция не откатывается.
type AuditSink interface {
	Append(ctx context.Context, actorID *uuid.UUID, action string, targetID uuid.UUID, metadata interface{}) error
}

// EscrowService владеет жизненным циклом эскроу-транзакции.
type EscrowService struct {
	repo  EscrowRepository
	jobs  JobRepoForEscrow
	apps  AppRepoForReview
	calc  *fees.Calculator
	gw    gateway.PaymentGateway
	audit AuditSink
}

// NewEscrowService создаёт сервис эскроу.
func NewEscrowService(repo EscrowRepository, jobs JobRepoForEscrow, apps AppRepoForReview, calc *fees.Calculator, gw gateway.PaymentGateway, audit AuditSink) *EscrowService {
	return &EscrowService{repo: repo, jobs: jobs, apps: apps, calc: calc, gw: gw, audit: audit}
}

// CreateEscrow создаёт эскроу для законтрактованной вакансии. Сумма
// выводится из контракта: цена принятой заявки имеет приоритет над базовой
// компенсацией. Переданная сумма сверяется с контрактной, произвольное
// значение не принимается. Разбивка комиссий фиксируется в момент создания.
func (s *EscrowService) CreateEscrow(ctx context.Context, actorID uuid.UUID, jobID uuid.UUID, amount int64) (*models.EscrowTransaction, error) {
	if amount < 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма должна быть положительной")
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.OrganizerID != actorID {
		return nil, apperror.ErrForbidden
	}
	if job.Status != models.JobStatusContracted {
		return nil, apperror.New(apperror.ErrCodeConflict, "эскроу создаётся только для законтрактованной вакансии")
	}

	accepted, err := s.apps.GetAcceptedByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	contractAmount := job.ContractAmount(accepted)
	if amount != 0 && amount != contractAmount {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма не совпадает с суммой контракта")
	}

	// Способ выплаты ещё не выбран; для фиксации комиссии платформы
	// он не важен - одна и та же ставка для обоих способов.
	calc, err := s.calc.Calculate(contractAmount, models.PayoutMethodScheduled)
	if err != nil {
		return nil, err
	}

	escrow, err := s.repo.Create(ctx, jobID, contractAmount, calc.PlatformFee)
	if err != nil {
		return nil, err
	}

	if err := s.jobs.SetEscrowID(ctx, jobID, escrow.ID); err != nil {
		return nil, err
	}

	s.appendAudit(ctx, &actorID, models.AuditActionEscrowCreated, escrow.ID, map[string]interface{}{
		"job_id":       jobID,
		"gross_amount": escrow.GrossAmount,
		"platform_fee": escrow.PlatformFee,
	})

	return escrow, nil
}

// ProcessCapture выполняет захват средств через шлюз и переводит эскроу
// awaiting -> holding, а вакансию contracted -> escrow_holding.
// При ошибке захвата вакансия остаётся в contracted, повторы явные.
func (s *EscrowService) ProcessCapture(ctx context.Context, actorID uuid.UUID, escrowID uuid.UUID) (*models.EscrowTransaction, error) {
	escrow, err := s.repo.GetByID(ctx, escrowID)
	if err != nil {
		return nil, err
	}

	job, err := s.jobs.GetByID(ctx, escrow.JobID)
	if err != nil {
		return nil, err
	}
	if job.OrganizerID != actorID {
		return nil, apperror.ErrForbidden
	}

	if escrow.Status != models.EscrowStatusAwaiting {
		return nil, apperror.ErrInvalidEscrowStatus
	}

	if _, err := s.gw.Capture(ctx, escrow.ID, escrow.GrossAmount); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "захват средств не выполнен")
	}

	escrow, err = s.repo.MarkHolding(ctx, escrowID)
	if err != nil {
		return nil, err
	}

	if err := s.jobs.UpdateStatus(ctx, job.ID, models.JobStatusContracted, models.JobStatusEscrowHolding); err != nil {
		return nil, err
	}

	s.appendAudit(ctx, &actorID, models.AuditActionEscrowHolding, escrow.ID, map[string]interface{}{
		"job_id":       escrow.JobID,
		"gross_amount": escrow.GrossAmount,
	})

	return escrow, nil
}

// Release освобождает удержанные средства (holding -> released).
func (s *EscrowService) Release(ctx context.Context, actorID *uuid.UUID, escrowID uuid.UUID, releaseAmount int64, reason string) (*models.EscrowTransaction, error) {
	escrow, err := s.repo.Release(ctx, escrowID, releaseAmount)
	if err != nil {
		return nil, err
	}

	s.appendAudit(ctx, actorID, models.AuditActionEscrowReleased, escrow.ID, map[string]interface{}{
		"job_id": escrow.JobID,
		"amount": releaseAmount,
		"reason": reason,
	})

	return escrow, nil
}

// Refund возвращает удержанные средства организатору (holding -> refunded).
func (s *EscrowService) Refund(ctx context.Context, actorID *uuid.UUID, escrowID uuid.UUID, refundAmount int64, reason string) (*models.EscrowTransaction, error) {
	escrow, err := s.repo.Refund(ctx, escrowID, refundAmount)
	if err != nil {
		return nil, err
	}

	s.appendAudit(ctx, actorID, models.AuditActionEscrowRefunded, escrow.ID, map[string]interface{}{
		"job_id": escrow.JobID,
		"amount": refundAmount,
		"reason": reason,
	})

	return escrow, nil
}

// GetByJob возвращает эскроу по вакансии.
func (s *EscrowService) GetByJob(ctx context.Context, jobID uuid.UUID) (*models.EscrowTransaction, error) {
	return s.repo.GetByJobID(ctx, jobID)
}

// PreviewFees считает разбивку комиссий без побочных эффектов.
func (s *EscrowService) PreviewFees(amount int64, method string) (*fees.Calculation, error) {
	return s.calc.Calculate(amount, method)
}

// appendAudit пишет событие аудита, проглатывая ошибку записи.
func (s *EscrowService) appendAudit(ctx context.Context, actorID *uuid.UUID, action string, targetID uuid.UUID, metadata map[string]interface{}) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Append(ctx, actorID, action, targetID, metadata); err != nil {
		logger.WithComponent("escrow").WithField("action", action).
			Warnf("не удалось записать событие аудита: %v", err)
	}
}
