package validation

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Константы валидации
const (
	MinJobTitleLength       = 3
	MaxJobTitleLength       = 200
	MaxJobDescriptionLength = 5000
	MaxReviewCommentLength  = 2000
	MaxReviewTagLength      = 50
	MaxReviewTagsCount      = 10
	MaxCompensation         = 100000000 // 100 миллионов иен
)

// ValidateLength проверяет длину строки в рунах.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateJobTitle проверяет название вакансии.
func ValidateJobTitle(title string) error {
	return ValidateLength("название", title, MinJobTitleLength, MaxJobTitleLength)
}

// ValidateJobDescription проверяет описание вакансии.
func ValidateJobDescription(description string) error {
	return ValidateLength("описание", description, 0, MaxJobDescriptionLength)
}

// ValidateCompensation проверяет сумму компенсации.
func ValidateCompensation(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("компенсация должна быть положительной")
	}
	if amount > MaxCompensation {
		return fmt.Errorf("компенсация не может превышать %d", int64(MaxCompensation))
	}
	return nil
}

// ValidateJobSchedule проверяет согласованность сроков вакансии.
func ValidateJobSchedule(startAt, endAt, deadline time.Time) error {
	if startAt.IsZero() || endAt.IsZero() || deadline.IsZero() {
		return fmt.Errorf("сроки вакансии обязательны")
	}
	if !endAt.After(startAt) {
		return fmt.Errorf("окончание должно быть позже начала")
	}
	if deadline.After(startAt) {
		return fmt.Errorf("срок подачи заявок должен истекать до начала мероприятия")
	}
	return nil
}

// ValidateReviewTags проверяет теги отзыва.
func ValidateReviewTags(tags []string) error {
	if len(tags) > MaxReviewTagsCount {
		return fmt.Errorf("тегов не может быть больше %d", MaxReviewTagsCount)
	}
	for _, tag := range tags {
		if err := ValidateLength("тег", tag, 1, MaxReviewTagLength); err != nil {
			return err
		}
	}
	return nil
}

// ValidateReviewComment проверяет комментарий отзыва.
func ValidateReviewComment(comment *string) error {
	if comment == nil {
		return nil
	}
	return ValidateLength("комментарий", *comment, 0, MaxReviewCommentLength)
}
