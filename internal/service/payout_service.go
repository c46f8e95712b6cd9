package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wista110/sports-nurse-web-sub001/internal/fees"
	"github.com/wista110/sports-nurse-web-sub001/internal/logger"
	"github.com/wista110/sports-nurse-web-sub001/internal/models"
	"github.com/wista110/sports-nurse-web-sub001/internal/pkg/apperror"
)

// PayoutRepository описывает взаимодействие с хранилищем выплат.
type PayoutRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Payout, error)
	CreateScheduled(ctx context.Context, payout *models.Payout) error
	ExecuteInstant(ctx context.Context, payout *models.Payout) error
	SettleScheduled(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error)
	MarkFailed(ctx context.Context, payoutID uuid.UUID, reason string) error
	ListDueScheduled(ctx context.Context, cutoff time.Time) ([]models.Payout, error)
	ListByNurse(ctx context.Context, nurseID uuid.UUID, limit, offset int) ([]models.Payout, error)
	GetByJobID(ctx context.Context, jobID uuid.UUID) (*models.Payout, error)
}

// PayoutNotifier рассылает события по выплатам.
type PayoutNotifier interface {
	NotifyJobStatus(jobID uuid.UUID, status string)
	NotifyPayout(nurseID, payoutID uuid.UUID, status string)
}

// BatchResult итог одного прогона batch-расчёта плановых выплат.
type BatchResult struct {
	PaymentsProcessed int      `json:"payments_processed"`
	PaymentsFailed    int      `json:"payments_failed"`
	TotalAmount       int64    `json:"total_amount"`
	Errors            []string `json:"errors,omitempty"`
}

// PayoutService управляет выплатами: мгновенные исполняются сразу,
// плановые копятся до batch-расчёта 15-го числа.
type PayoutService struct {
	repo     PayoutRepository
	jobs     JobRepository
	apps     AppRepoForReview
	escrow   EscrowRepository
	calc     *fees.Calculator
	audit    AuditSink
	notifier PayoutNotifier
	now      func() time.Time
}

// NewPayoutService создаёт сервис выплат.
func NewPayoutService(repo PayoutRepository, jobs JobRepository, apps AppRepoForReview, escrow EscrowRepository, calc *fees.Calculator, audit AuditSink, notifier PayoutNotifier) *PayoutService {
	return &PayoutService{
		repo:     repo,
		jobs:     jobs,
		apps:     apps,
		escrow:   escrow,
		calc:     calc,
		audit:    audit,
		notifier: notifier,
		now:      time.Now,
	}
}

// SchedulePayout создаёт выплату для вакансии в ready_to_pay.
// Мгновенная выплата исполняется немедленно одной транзакцией;
// плановая получает дату расчёта и ждёт batch-прогона.
func (s *PayoutService) SchedulePayout(ctx context.Context, actorID uuid.UUID, jobID uuid.UUID, method string) (*models.Payout, error) {
	if _, ok := models.ValidPayoutMethods[method]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "неизвестный способ выплаты")
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.JobStatusReadyToPay {
		return nil, apperror.New(apperror.ErrCodeConflict, "вакансия не готова к выплате")
	}
	if job.EscrowID == nil {
		return nil, apperror.ErrEscrowNotFound
	}

	escrow, err := s.escrow.GetByID(ctx, *job.EscrowID)
	if err != nil {
		return nil, err
	}
	if escrow.Status != models.EscrowStatusHolding {
		return nil, apperror.ErrInvalidEscrowStatus
	}

	accepted, err := s.apps.GetAcceptedByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	payout, err := s.buildPayout(escrow, accepted.NurseID, method)
	if err != nil {
		return nil, err
	}

	switch method {
	case models.PayoutMethodInstant:
		if err := s.repo.ExecuteInstant(ctx, payout); err != nil {
			return nil, err
		}
		s.appendAudit(ctx, &actorID, models.AuditActionPayoutComplete, payout.ID, map[string]interface{}{
			"job_id":     jobID,
			"method":     method,
			"net_amount": payout.NetAmount,
		})
		s.notifyPayout(jobID, payout)
	case models.PayoutMethodScheduled:
		scheduledFor := s.nextScheduledDate()
		payout.ScheduledFor = &scheduledFor
		if err := s.repo.CreateScheduled(ctx, payout); err != nil {
			return nil, err
		}
		s.appendAudit(ctx, &actorID, models.AuditActionPayoutCreated, payout.ID, map[string]interface{}{
			"job_id":        jobID,
			"method":        method,
			"net_amount":    payout.NetAmount,
			"scheduled_for": scheduledFor,
		})
	}

	return payout, nil
}

// ProcessDueScheduledPayouts обрабатывает все плановые выплаты со сроком
// не позже текущего момента. Ошибка одной выплаты не прерывает прогон:
// запись помечается failed, остальные обрабатываются дальше. Повторный
// прогон безопасен - completed и failed записи не выбираются.
func (s *PayoutService) ProcessDueScheduledPayouts(ctx context.Context) (*BatchResult, error) {
	result := &BatchResult{}
	if err := s.settleDue(ctx, result); err != nil {
		return nil, err
	}
	s.auditBatch(ctx, result)
	return result, nil
}

// SettleReadyJobs - месячный прогон планировщика: сначала гасятся подошедшие
// по сроку плановые выплаты, затем для вакансий в ready_to_pay без выплаты
// расчёт создаётся и исполняется сразу по плановому тарифу. Ошибки
// изолируются по вакансиям, прогон доводится до конца.
func (s *PayoutService) SettleReadyJobs(ctx context.Context) (*BatchResult, error) {
	result := &BatchResult{}
	if err := s.settleDue(ctx, result); err != nil {
		return nil, err
	}

	ready, err := s.jobs.ListByStatus(ctx, models.JobStatusReadyToPay)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить вакансии к выплате")
	}

	for i := range ready {
		job := &ready[i]
		if _, err := s.repo.GetByJobID(ctx, job.ID); err == nil {
			// Плановая выплата уже создана и ждёт своего срока.
			continue
		} else if !apperror.IsNotFound(err) {
			result.PaymentsFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("job %s: %v", job.ID, err))
			continue
		}

		payout, err := s.settleReadyJob(ctx, job)
		if err != nil {
			result.PaymentsFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("job %s: %v", job.ID, err))
			s.appendAudit(ctx, nil, models.AuditActionPayoutFailed, job.ID, map[string]interface{}{
				"job_id": job.ID,
				"reason": err.Error(),
			})
			continue
		}

		result.PaymentsProcessed++
		result.TotalAmount += payout.NetAmount
		s.appendAudit(ctx, nil, models.AuditActionPayoutComplete, payout.ID, map[string]interface{}{
			"job_id":     job.ID,
			"method":     payout.Method,
			"net_amount": payout.NetAmount,
		})
		s.notifyPayout(job.ID, payout)
	}

	s.auditBatch(ctx, result)
	return result, nil
}

// settleDue обрабатывает плановые выплаты со сроком не позже текущего момента.
func (s *PayoutService) settleDue(ctx context.Context, result *BatchResult) error {
	due, err := s.repo.ListDueScheduled(ctx, s.now())
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить плановые выплаты")
	}

	for _, p := range due {
		settled, err := s.repo.SettleScheduled(ctx, p.ID)
		if err != nil {
			result.PaymentsFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("payout %s: %v", p.ID, err))
			if markErr := s.repo.MarkFailed(ctx, p.ID, err.Error()); markErr != nil {
				logger.WithComponent("payout").Warnf("не удалось пометить выплату %s как failed: %v", p.ID, markErr)
			}
			s.appendAudit(ctx, nil, models.AuditActionPayoutFailed, p.ID, map[string]interface{}{
				"job_id": p.JobID,
				"reason": err.Error(),
			})
			continue
		}

		result.PaymentsProcessed++
		result.TotalAmount += settled.NetAmount
		s.appendAudit(ctx, nil, models.AuditActionPayoutComplete, settled.ID, map[string]interface{}{
			"job_id":     settled.JobID,
			"method":     settled.Method,
			"net_amount": settled.NetAmount,
		})
		s.notifyPayout(settled.JobID, settled)
	}

	return nil
}

// settleReadyJob создаёт и сразу исполняет выплату по плановому тарифу.
func (s *PayoutService) settleReadyJob(ctx context.Context, job *models.Job) (*models.Payout, error) {
	if job.EscrowID == nil {
		return nil, apperror.ErrEscrowNotFound
	}
	escrow, err := s.escrow.GetByID(ctx, *job.EscrowID)
	if err != nil {
		return nil, err
	}
	if escrow.Status != models.EscrowStatusHolding {
		return nil, apperror.ErrInvalidEscrowStatus
	}
	accepted, err := s.apps.GetAcceptedByJob(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	payout, err := s.buildPayout(escrow, accepted.NurseID, models.PayoutMethodScheduled)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ExecuteInstant(ctx, payout); err != nil {
		return nil, err
	}
	return payout, nil
}

func (s *PayoutService) auditBatch(ctx context.Context, result *BatchResult) {
	s.appendAudit(ctx, nil, models.AuditActionBatchSettled, uuid.Nil, map[string]interface{}{
		"processed":    result.PaymentsProcessed,
		"failed":       result.PaymentsFailed,
		"total_amount": result.TotalAmount,
	})
}

// GetByJob возвращает выплату по вакансии.
func (s *PayoutService) GetByJob(ctx context.Context, jobID uuid.UUID) (*models.Payout, error) {
	return s.repo.GetByJobID(ctx, jobID)
}

// ListByNurse возвращает выплаты медсестры.
func (s *PayoutService) ListByNurse(ctx context.Context, nurseID uuid.UUID, limit, offset int) ([]models.Payout, error) {
	return s.repo.ListByNurse(ctx, nurseID, limit, offset)
}

// buildPayout собирает выплату из эскроу: база - брутто за вычетом
// комиссии платформы, сверх неё комиссия способа выплаты.
func (s *PayoutService) buildPayout(escrow *models.EscrowTransaction, nurseID uuid.UUID, method string) (*models.Payout, error) {
	base := escrow.GrossAmount - escrow.PlatformFee
	fee, err := s.calc.PaymentFee(base, method)
	if err != nil {
		return nil, err
	}
	return &models.Payout{
		JobID:     escrow.JobID,
		EscrowID:  escrow.ID,
		NurseID:   nurseID,
		Amount:    base,
		Fee:       fee,
		NetAmount: base - fee,
		Method:    method,
		Status:    models.PayoutStatusPending,
	}, nil
}

// nextScheduledDate возвращает дату планового расчёта: 15-е число
// следующего месяца; после 15-го срок сдвигается ещё на месяц.
func (s *PayoutService) nextScheduledDate() time.Time {
	now := s.now()
	months := 1
	if now.Day() > 15 {
		months = 2
	}
	return time.Date(now.Year(), now.Month()+time.Month(months), 15, 0, 0, 0, 0, now.Location())
}

func (s *PayoutService) notifyPayout(jobID uuid.UUID, payout *models.Payout) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyJobStatus(jobID, models.JobStatusPaid)
	s.notifier.NotifyPayout(payout.NurseID, payout.ID, payout.Status)
}

func (s *PayoutService) appendAudit(ctx context.Context, actorID *uuid.UUID, action string, targetID uuid.UUID, metadata map[string]interface{}) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Append(ctx, actorID, action, targetID, metadata); err != nil {
		logger.WithComponent("payout").WithField("action", action).
			Warnf("не удалось записать событие аудита: %v", err)
	}
}
