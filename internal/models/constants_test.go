package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitJob_HappyPath(t *testing.T) {
	path := []string{
		JobStatusDraft,
		JobStatusOpen,
		JobStatusApplied,
		JobStatusContracted,
		JobStatusEscrowHolding,
		JobStatusInProgress,
		JobStatusReviewPending,
		JobStatusReadyToPay,
		JobStatusPaid,
	}

	for i := 0; i < len(path)-1; i++ {
		assert.True(t, CanTransitJob(path[i], path[i+1]),
			"переход %s -> %s должен быть разрешён", path[i], path[i+1])
	}
}

func TestCanTransitJob_NoSkipping(t *testing.T) {
	assert.False(t, CanTransitJob(JobStatusDraft, JobStatusContracted))
	assert.False(t, CanTransitJob(JobStatusOpen, JobStatusEscrowHolding))
	assert.False(t, CanTransitJob(JobStatusContracted, JobStatusInProgress))
	assert.False(t, CanTransitJob(JobStatusEscrowHolding, JobStatusReviewPending))
	assert.False(t, CanTransitJob(JobStatusInProgress, JobStatusReadyToPay))
	assert.False(t, CanTransitJob(JobStatusReviewPending, JobStatusPaid))
}

func TestCanTransitJob_NoBackwards(t *testing.T) {
	assert.False(t, CanTransitJob(JobStatusOpen, JobStatusDraft))
	assert.False(t, CanTransitJob(JobStatusInProgress, JobStatusEscrowHolding))
	assert.False(t, CanTransitJob(JobStatusReadyToPay, JobStatusReviewPending))
}

func TestCanTransitJob_Terminal(t *testing.T) {
	for _, to := range []string{
		JobStatusDraft, JobStatusOpen, JobStatusApplied, JobStatusContracted,
		JobStatusEscrowHolding, JobStatusInProgress, JobStatusReviewPending,
		JobStatusReadyToPay, JobStatusPaid, JobStatusCancelled,
	} {
		assert.False(t, CanTransitJob(JobStatusPaid, to))
		assert.False(t, CanTransitJob(JobStatusCancelled, to))
	}
}

func TestCanTransitJob_CancelAvailability(t *testing.T) {
	// Отмена недоступна пока средства в удержании или работа идёт.
	assert.False(t, CanTransitJob(JobStatusEscrowHolding, JobStatusCancelled))
	assert.False(t, CanTransitJob(JobStatusInProgress, JobStatusCancelled))

	assert.True(t, CanTransitJob(JobStatusDraft, JobStatusCancelled))
	assert.True(t, CanTransitJob(JobStatusOpen, JobStatusCancelled))
	assert.True(t, CanTransitJob(JobStatusApplied, JobStatusCancelled))
	assert.True(t, CanTransitJob(JobStatusContracted, JobStatusCancelled))
	assert.True(t, CanTransitJob(JobStatusReviewPending, JobStatusCancelled))
	assert.True(t, CanTransitJob(JobStatusReadyToPay, JobStatusCancelled))
}

func TestJobContractAmount(t *testing.T) {
	job := &Job{Compensation: 10000}
	quote := int64(12000)

	assert.Equal(t, int64(10000), job.ContractAmount(nil))
	assert.Equal(t, int64(10000), job.ContractAmount(&Application{}))
	assert.Equal(t, int64(12000), job.ContractAmount(&Application{ProposedQuote: &quote}))
}
