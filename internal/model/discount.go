package model

import (
	"fmt"
	"strings"
	"time"

	apperrors "go-gin-event-booking/pkg/app_errors"
)

// DiscountCode 折扣碼，ExpiryDate 之前（不含）有效
type DiscountCode struct {
	Code               string    `json:"code" db:"code"`
	DiscountPercentage float64   `json:"discountPercentage" db:"discount_percentage"`
	ExpiryDate         time.Time `json:"expiryDate" db:"expiry_date"`
}

func (d DiscountCode) Validate() error {
	if strings.TrimSpace(d.Code) == "" {
		return fmt.Errorf("%w: discount code is required", apperrors.ErrInvalidInput)
	}
	if d.DiscountPercentage < 0 || d.DiscountPercentage > 100 {
		return apperrors.ErrInvalidDiscountValue
	}
	if d.ExpiryDate.IsZero() {
		return fmt.Errorf("%w: expiry date is required", apperrors.ErrInvalidInput)
	}
	return nil
}

// IsValidAt 純函式：now 嚴格早於到期時間才算有效
func (d DiscountCode) IsValidAt(now time.Time) bool {
	return now.Before(d.ExpiryDate)
}
