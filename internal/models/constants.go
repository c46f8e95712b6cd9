package models

// JobStatus константы статусов вакансий
const (
	JobStatusDraft         = "draft"
	JobStatusOpen          = "open"
	JobStatusApplied       = "applied"
	JobStatusContracted    = "contracted"
	JobStatusEscrowHolding = "escrow_holding"
	JobStatusInProgress    = "in_progress"
	JobStatusReviewPending = "review_pending"
	JobStatusReadyToPay    = "ready_to_pay"
	JobStatusPaid          = "paid"
	JobStatusCancelled     = "cancelled"
)

// ApplicationStatus константы статусов заявок
const (
	ApplicationStatusPending   = "pending"
	ApplicationStatusAccepted  = "accepted"
	ApplicationStatusRejected  = "rejected"
	ApplicationStatusWithdrawn = "withdrawn"
)

// EscrowStatus константы статусов эскроу
const (
	EscrowStatusAwaiting = "awaiting"
	EscrowStatusHolding  = "holding"
	EscrowStatusReleased = "released"
	EscrowStatusRefunded = "refunded"
)

// PayoutStatus константы статусов выплат
const (
	PayoutStatusPending   = "pending"
	PayoutStatusCompleted = "completed"
	PayoutStatusFailed    = "failed"
)

// PayoutMethod способы выплаты: мгновенная дороже, плановая дешевле.
const (
	PayoutMethodInstant   = "instant"
	PayoutMethodScheduled = "scheduled"
)

// Роли пользователей
const (
	RoleOrganizer = "organizer"
	RoleNurse     = "nurse"
	RoleAdmin     = "admin"
)

// ValidJobStatuses список валидных статусов вакансий
var ValidJobStatuses = map[string]struct{}{
	JobStatusDraft:         {},
	JobStatusOpen:          {},
	JobStatusApplied:       {},
	JobStatusContracted:    {},
	JobStatusEscrowHolding: {},
	JobStatusInProgress:    {},
	JobStatusReviewPending: {},
	JobStatusReadyToPay:    {},
	JobStatusPaid:          {},
	JobStatusCancelled:     {},
}

// ValidApplicationStatuses список валидных статусов заявок
var ValidApplicationStatuses = map[string]struct{}{
	ApplicationStatusPending:   {},
	ApplicationStatusAccepted:  {},
	ApplicationStatusRejected:  {},
	ApplicationStatusWithdrawn: {},
}

// ValidPayoutMethods список валидных способов выплаты
var ValidPayoutMethods = map[string]struct{}{
	PayoutMethodInstant:   {},
	PayoutMethodScheduled: {},
}

// jobTransitions - единственная таблица допустимых переходов статусной машины
// вакансии. Пропуск состояний невозможен; отмена недоступна из escrow_holding
// и in_progress (средства в удержании разруливаются через refund до отмены).
var jobTransitions = map[string][]string{
	JobStatusDraft:         {JobStatusOpen, JobStatusCancelled},
	JobStatusOpen:          {JobStatusApplied, JobStatusContracted, JobStatusCancelled},
	JobStatusApplied:       {JobStatusContracted, JobStatusCancelled},
	JobStatusContracted:    {JobStatusEscrowHolding, JobStatusCancelled},
	JobStatusEscrowHolding: {JobStatusInProgress},
	JobStatusInProgress:    {JobStatusReviewPending},
	JobStatusReviewPending: {JobStatusReadyToPay, JobStatusCancelled},
	JobStatusReadyToPay:    {JobStatusPaid, JobStatusCancelled},
	JobStatusPaid:          {},
	JobStatusCancelled:     {},
}

// CanTransitJob проверяет допустимость перехода статуса вакансии.
func CanTransitJob(from, to string) bool {
	for _, next := range jobTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
