package apperrors

import "errors"

var (
	// NotFound
	ErrEventNotFound      = errors.New("event not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrTicketTypeNotFound = errors.New("ticket type not found")

	// Validation
	ErrInvalidInput         = errors.New("invalid input")
	ErrCommentRequired      = errors.New("comment is required")
	ErrInvalidDiscountCode  = errors.New("invalid or expired discount code")
	ErrInvalidDiscountValue = errors.New("discount percentage must be between 0 and 100")

	// Conflict
	ErrAlreadyAttending      = errors.New("you are already attending this event")
	ErrSoldOut               = errors.New("no tickets available for this type")
	ErrDuplicateDiscountCode = errors.New("discount code already exists")
	ErrDuplicateTicketType   = errors.New("ticket type already exists")

	// Internal
	ErrVersionConflict     = errors.New("event was modified concurrently")
	ErrInternalServerError = errors.New("internal server error")
)

var (
	notFoundErrors   = []error{ErrEventNotFound, ErrUserNotFound, ErrTicketTypeNotFound}
	validationErrors = []error{ErrInvalidInput, ErrCommentRequired, ErrInvalidDiscountCode, ErrInvalidDiscountValue}
	conflictErrors   = []error{ErrAlreadyAttending, ErrSoldOut, ErrDuplicateDiscountCode, ErrDuplicateTicketType}
)

// IsNotFound 判斷是否為資源不存在錯誤
func IsNotFound(err error) bool {
	return isAny(err, notFoundErrors)
}

// IsValidation 判斷是否為輸入驗證錯誤
func IsValidation(err error) bool {
	return isAny(err, validationErrors)
}

// IsConflict 判斷是否為狀態衝突錯誤（重複、售罄）
func IsConflict(err error) bool {
	return isAny(err, conflictErrors)
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
