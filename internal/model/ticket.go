package model

import (
	"fmt"
	"strings"

	apperrors "go-gin-event-booking/pkg/app_errors"
)

// TicketType 票種：Quantity 是還能賣的張數，Sold 是已售出張數
type TicketType struct {
	Type     string  `json:"type" db:"type"`
	Price    float64 `json:"price" db:"price"`
	Quantity int     `json:"quantity" db:"quantity"`
	Sold     int     `json:"sold" db:"sold"`
}

func (t TicketType) Validate() error {
	if strings.TrimSpace(t.Type) == "" {
		return fmt.Errorf("%w: ticket type label is required", apperrors.ErrInvalidInput)
	}
	if t.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", apperrors.ErrInvalidInput)
	}
	if t.Quantity < 0 || t.Sold < 0 {
		return fmt.Errorf("%w: quantity must not be negative", apperrors.ErrInvalidInput)
	}
	return nil
}

// IsAvailable 檢查票種是否還有庫存
func (t *TicketType) IsAvailable() bool {
	return t.Quantity > 0
}

// Sell 賣出一張：庫存減一、已售加一，庫存不會變成負數
func (t *TicketType) Sell() error {
	if !t.IsAvailable() {
		return apperrors.ErrSoldOut
	}
	t.Quantity--
	t.Sold++
	return nil
}
