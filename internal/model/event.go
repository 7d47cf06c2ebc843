package model

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	apperrors "go-gin-event-booking/pkg/app_errors"

	"github.com/google/uuid"
)

// DateLayout 活動日期格式（只有日期，沒有時間）
const DateLayout = "2006-01-02"

// Event 活動聚合：票種、折扣碼、出席者、回饋都屬於同一份文件，一起讀寫
type Event struct {
	ID            uuid.UUID      `json:"id" db:"id"`
	Title         string         `json:"title" db:"title"`
	Description   string         `json:"description" db:"description"`
	Date          time.Time      `json:"date" db:"date"`
	Time          string         `json:"time" db:"time"`
	Venue         string         `json:"venue" db:"venue"`
	Organizer     uuid.UUID      `json:"organizer" db:"organizer"`
	TicketTypes   []TicketType   `json:"ticketTypes" db:"ticket_types"`
	DiscountCodes []DiscountCode `json:"discountCodes" db:"discount_codes"`
	Attendees     []uuid.UUID    `json:"attendees" db:"attendees"`
	Feedback      []Feedback     `json:"feedback" db:"feedback"`
	Version       int64          `json:"version" db:"version"`
	CreatedAt     time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time      `json:"updatedAt" db:"updated_at"`
}

type UpdateEventParams struct {
	Title       *string
	Description *string
	Date        *time.Time
	Time        *string
	Venue       *string
}

// IsEmpty 沒有任何欄位要更新
func (p UpdateEventParams) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Date == nil && p.Time == nil && p.Venue == nil
}

// Feedback 出席者回饋，只能新增不能修改
type Feedback struct {
	Attendee  uuid.UUID `json:"attendee" db:"attendee"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ParseDate 解析 YYYY-MM-DD，回傳 UTC 零點
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", apperrors.ErrInvalidInput)
	}
	return d, nil
}

// ValidateTitle 標題不可為空，也不可含控制字元（會被放進信件標頭）
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", apperrors.ErrInvalidInput)
	}
	if strings.IndexFunc(title, unicode.IsControl) >= 0 {
		return fmt.Errorf("%w: title must not contain control characters", apperrors.ErrInvalidInput)
	}
	return nil
}

// Validate 建立活動時的完整性檢查
func (e *Event) Validate() error {
	if err := ValidateTitle(e.Title); err != nil {
		return err
	}
	if e.Date.IsZero() {
		return fmt.Errorf("%w: date is required", apperrors.ErrInvalidInput)
	}

	labels := make(map[string]bool, len(e.TicketTypes))
	for _, t := range e.TicketTypes {
		if err := t.Validate(); err != nil {
			return err
		}
		if labels[t.Type] {
			return fmt.Errorf("%w: %s", apperrors.ErrDuplicateTicketType, t.Type)
		}
		labels[t.Type] = true
	}

	codes := make(map[string]bool, len(e.DiscountCodes))
	for _, dc := range e.DiscountCodes {
		if err := dc.Validate(); err != nil {
			return err
		}
		if codes[dc.Code] {
			return fmt.Errorf("%w: %s", apperrors.ErrDuplicateDiscountCode, dc.Code)
		}
		codes[dc.Code] = true
	}
	return nil
}

// Apply 套用部分更新
func (e *Event) Apply(params UpdateEventParams) {
	if params.Title != nil {
		e.Title = *params.Title
	}
	if params.Description != nil {
		e.Description = *params.Description
	}
	if params.Date != nil {
		e.Date = *params.Date
	}
	if params.Time != nil {
		e.Time = *params.Time
	}
	if params.Venue != nil {
		e.Venue = *params.Venue
	}
}

// HasAttendee 檢查是否已在出席名單內
func (e *Event) HasAttendee(attendee uuid.UUID) bool {
	for _, a := range e.Attendees {
		if a == attendee {
			return true
		}
	}
	return false
}

// AddAttendee 加入出席名單，重複時回傳 ErrAlreadyAttending
func (e *Event) AddAttendee(attendee uuid.UUID) error {
	if e.HasAttendee(attendee) {
		return apperrors.ErrAlreadyAttending
	}
	e.Attendees = append(e.Attendees, attendee)
	return nil
}

// FindTicketType 依 label 找票種，回傳 index
func (e *Event) FindTicketType(label string) (int, error) {
	for i := range e.TicketTypes {
		if e.TicketTypes[i].Type == label {
			return i, nil
		}
	}
	return -1, apperrors.ErrTicketTypeNotFound
}

// FindDiscountCode 依代碼找折扣，不檢查是否過期
func (e *Event) FindDiscountCode(code string) (DiscountCode, bool) {
	for _, dc := range e.DiscountCodes {
		if dc.Code == code {
			return dc, true
		}
	}
	return DiscountCode{}, false
}

// AddDiscountCode 新增折扣碼，代碼在同一活動內必須唯一
func (e *Event) AddDiscountCode(dc DiscountCode) error {
	if err := dc.Validate(); err != nil {
		return err
	}
	if _, exists := e.FindDiscountCode(dc.Code); exists {
		return apperrors.ErrDuplicateDiscountCode
	}
	e.DiscountCodes = append(e.DiscountCodes, dc)
	return nil
}

// AddFeedback 新增回饋，同一出席者可以留多筆
func (e *Event) AddFeedback(f Feedback) error {
	if strings.TrimSpace(f.Comment) == "" {
		return apperrors.ErrCommentRequired
	}
	e.Feedback = append(e.Feedback, f)
	return nil
}

// Book 在記憶體中完成一次訂票：檢查、計價、扣庫存、加入出席名單。
// 任何檢查失敗都不會修改 Event。
func (e *Event) Book(attendee uuid.UUID, ticketType string, discountCode string, now time.Time) (float64, error) {
	if e.HasAttendee(attendee) {
		return 0, apperrors.ErrAlreadyAttending
	}

	idx, err := e.FindTicketType(ticketType)
	if err != nil {
		return 0, err
	}
	ticket := &e.TicketTypes[idx]
	if !ticket.IsAvailable() {
		return 0, apperrors.ErrSoldOut
	}

	finalPrice := ticket.Price
	if discountCode != "" {
		dc, ok := e.FindDiscountCode(discountCode)
		if !ok || !dc.IsValidAt(now) {
			return 0, apperrors.ErrInvalidDiscountCode
		}
		finalPrice = ApplyDiscount(ticket.Price, dc.DiscountPercentage)
	}

	if err := ticket.Sell(); err != nil {
		return 0, err
	}
	e.Attendees = append(e.Attendees, attendee)
	return finalPrice, nil
}

// Clone 深拷貝，memory repository 用來隔離呼叫端的修改
func (e *Event) Clone() *Event {
	c := *e
	c.TicketTypes = append([]TicketType(nil), e.TicketTypes...)
	c.DiscountCodes = append([]DiscountCode(nil), e.DiscountCodes...)
	c.Attendees = append([]uuid.UUID(nil), e.Attendees...)
	c.Feedback = append([]Feedback(nil), e.Feedback...)
	return &c
}

// Normalize 把 nil slice 換成空 slice，JSON 輸出固定是 []
func (e *Event) Normalize() {
	if e.TicketTypes == nil {
		e.TicketTypes = []TicketType{}
	}
	if e.DiscountCodes == nil {
		e.DiscountCodes = []DiscountCode{}
	}
	if e.Attendees == nil {
		e.Attendees = []uuid.UUID{}
	}
	if e.Feedback == nil {
		e.Feedback = []Feedback{}
	}
}
