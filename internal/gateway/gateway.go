package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// CaptureResult - результат захвата средств платёжным шлюзом.
type CaptureResult struct {
	TransactionID string    `json:"transaction_id"`
	CapturedAt    time.Time `json:"captured_at"`
}

// PaymentGateway описывает контракт захвата средств. Вызов синхронный,
// без автоматических повторов: при ошибке вакансия остаётся в contracted
// и операция повторяется явно.
type PaymentGateway interface {
	Capture(ctx context.Context, escrowID uuid.UUID, amount int64) (*CaptureResult, error)
}

// HTTPGateway вызывает внешний (моковый) платёжный сервис.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
}

// NewHTTPGateway создаёт клиент платёжного шлюза.
func NewHTTPGateway(baseURL string) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Capture выполняет захват средств через HTTP вызов шлюза.
func (g *HTTPGateway) Capture(ctx context.Context, escrowID uuid.UUID, amount int64) (*CaptureResult, error) {
	body, err := json.Marshal(map[string]interface{}{
		"escrow_id": escrowID.String(),
		"amount":    amount,
	})
	if err != nil {
		return nil, fmt.Errorf("gateway: не удалось сериализовать запрос: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/capture", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gateway: не удалось создать запрос: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: ошибка вызова шлюза: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway: шлюз вернул статус %d", resp.StatusCode)
	}

	var result CaptureResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("gateway: не удалось разобрать ответ: %w", err)
	}

	return &result, nil
}

// MockGateway - встроенный мок для окружений без платёжного сервиса.
// Всегда успешно захватывает средства и возвращает синтетический ID.
type MockGateway struct{}

// NewMockGateway создаёт моковый шлюз.
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

// Capture имитирует успешный захват средств.
func (g *MockGateway) Capture(_ context.Context, escrowID uuid.UUID, _ int64) (*CaptureResult, error) {
	return &CaptureResult{
		TransactionID: "mock-" + escrowID.String(),
		CapturedAt:    time.Now(),
	}, nil
}
