package models

import (
	"time"

	"github.com/google/uuid"
)

// User - минимальная проекция пользователя для жизненного цикла.
// Управление профилями и регистрация живут во внешнем сервисе;
// здесь нужны только роль и отображаемое имя.
type User struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Role        string    `db:"role" json:"role"`
	DisplayName string    `db:"display_name" json:"display_name"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
