package fees

import (
	"math"

	"github.com/wista110/sports-nurse-web-sub001/internal/models"
	"github.com/wista110/sports-nurse-web-sub001/internal/pkg/apperror"
)

// Breakdown фиксирует ставки, по которым выполнен расчёт.
// Сохраняется вместе с результатом для сверки аудита.
type Breakdown struct {
	Method           string  `json:"method"`
	PlatformFeeRate  float64 `json:"platform_fee_rate"`
	PaymentFeeRate   float64 `json:"payment_fee_rate"`
	MinimumFee       int64   `json:"minimum_fee,omitempty"`
	MaximumFee       int64   `json:"maximum_fee,omitempty"`
}

// Calculation - результат расчёта комиссий для одной суммы.
// Инвариант: PlatformFee + PaymentFee + NetAmount == BaseAmount.
type Calculation struct {
	BaseAmount  int64     `json:"base_amount"`
	PlatformFee int64     `json:"platform_fee"`
	PaymentFee  int64     `json:"payment_fee"`
	NetAmount   int64     `json:"net_amount"`
	Breakdown   Breakdown `json:"breakdown"`
}

// Calculator считает комиссии платформы и способа выплаты.
// Чистая функция без побочных эффектов: одинаковые входы дают
// побитово одинаковый результат (целые иены, округление half-up).
type Calculator struct {
	platformFeeRate  float64
	instantFeeRate   float64
	scheduledFeeRate float64
	minimumFee       int64
	maximumFee       int64
}

// NewCalculator создаёт калькулятор с фиксированными ставками.
// minimumFee/maximumFee равные нулю отключают соответствующую границу.
func NewCalculator(platformFeeRate, instantFeeRate, scheduledFeeRate float64, minimumFee, maximumFee int64) *Calculator {
	return &Calculator{
		platformFeeRate:  platformFeeRate,
		instantFeeRate:   instantFeeRate,
		scheduledFeeRate: scheduledFeeRate,
		minimumFee:       minimumFee,
		maximumFee:       maximumFee,
	}
}

// Calculate считает разбивку для суммы и способа выплаты.
// Комиссия платформы берётся от полной суммы, комиссия способа выплаты -
// от остатка после комиссии платформы.
func (c *Calculator) Calculate(amount int64, method string) (*Calculation, error) {
	if amount <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма должна быть положительной")
	}

	var methodRate float64
	switch method {
	case models.PayoutMethodInstant:
		methodRate = c.instantFeeRate
	case models.PayoutMethodScheduled:
		methodRate = c.scheduledFeeRate
	default:
		return nil, apperror.New(apperror.ErrCodeValidation, "неизвестный способ выплаты: "+method)
	}

	platformFee := roundHalfUp(float64(amount) * c.platformFeeRate)
	paymentFee := roundHalfUp(float64(amount-platformFee) * methodRate)

	if c.minimumFee > 0 && paymentFee < c.minimumFee {
		paymentFee = c.minimumFee
	}
	if c.maximumFee > 0 && paymentFee > c.maximumFee {
		paymentFee = c.maximumFee
	}

	netAmount := amount - platformFee - paymentFee
	if netAmount < 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "комиссии превышают сумму выплаты")
	}

	return &Calculation{
		BaseAmount:  amount,
		PlatformFee: platformFee,
		PaymentFee:  paymentFee,
		NetAmount:   netAmount,
		Breakdown: Breakdown{
			Method:          method,
			PlatformFeeRate: c.platformFeeRate,
			PaymentFeeRate:  methodRate,
			MinimumFee:      c.minimumFee,
			MaximumFee:      c.maximumFee,
		},
	}, nil
}

// PaymentFee считает только комиссию способа выплаты для базы,
// из которой комиссия платформы уже вычтена (расчёт выплат).
func (c *Calculator) PaymentFee(base int64, method string) (int64, error) {
	if base <= 0 {
		return 0, apperror.New(apperror.ErrCodeValidation, "сумма должна быть положительной")
	}

	var methodRate float64
	switch method {
	case models.PayoutMethodInstant:
		methodRate = c.instantFeeRate
	case models.PayoutMethodScheduled:
		methodRate = c.scheduledFeeRate
	default:
		return 0, apperror.New(apperror.ErrCodeValidation, "неизвестный способ выплаты: "+method)
	}

	fee := roundHalfUp(float64(base) * methodRate)
	if c.minimumFee > 0 && fee < c.minimumFee {
		fee = c.minimumFee
	}
	if c.maximumFee > 0 && fee > c.maximumFee {
		fee = c.maximumFee
	}
	if fee > base {
		return 0, apperror.New(apperror.ErrCodeValidation, "комиссии превышают сумму выплаты")
	}
	return fee, nil
}

// roundHalfUp округляет до целой иены по правилу half-up.
// Единое правило округления обязательно для сверки аудита.
func roundHalfUp(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}
