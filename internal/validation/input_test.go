package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateJobTitle(t *testing.T) {
	assert.Error(t, ValidateJobTitle(""))
	assert.Error(t, ValidateJobTitle("ab"))
	assert.NoError(t, ValidateJobTitle("Дежурство на турнире"))
}

func TestValidateCompensation(t *testing.T) {
	assert.Error(t, ValidateCompensation(0))
	assert.Error(t, ValidateCompensation(-1000))
	assert.Error(t, ValidateCompensation(MaxCompensation+1))
	assert.NoError(t, ValidateCompensation(10000))
}

func TestValidateJobSchedule(t *testing.T) {
	start := time.Now().Add(48 * time.Hour)
	end := start.Add(8 * time.Hour)
	deadline := start.Add(-24 * time.Hour)

	assert.NoError(t, ValidateJobSchedule(start, end, deadline))
	assert.Error(t, ValidateJobSchedule(start, start, deadline), "окончание должно быть позже начала")
	assert.Error(t, ValidateJobSchedule(start, end, start.Add(time.Hour)), "заявки должны закрываться до начала")
	assert.Error(t, ValidateJobSchedule(time.Time{}, end, deadline))
}

func TestValidateReviewTags(t *testing.T) {
	assert.NoError(t, ValidateReviewTags(nil))
	assert.NoError(t, ValidateReviewTags([]string{"пунктуальность", "профессионализм"}))

	tooMany := make([]string, MaxReviewTagsCount+1)
	for i := range tooMany {
		tooMany[i] = "тег"
	}
	assert.Error(t, ValidateReviewTags(tooMany))
	assert.Error(t, ValidateReviewTags([]string{""}))
}
