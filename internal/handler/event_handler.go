package handler

import (
	"net/http"
	"time"

	"go-gin-event-booking/internal/model"
	"go-gin-event-booking/internal/service"
	apperrors "go-gin-event-booking/pkg/app_errors"
	"go-gin-event-booking/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EventHandler struct {
	service service.EventService
}

func NewEventHandler(service service.EventService) *EventHandler {
	return &EventHandler{service: service}
}

func (h *EventHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.POST("events", h.Create)
		router.GET("events", h.List)
		router.GET("events/:id", h.GetByID)
		router.PUT("events/:id", h.Update)
		router.DELETE("events/:id", h.Delete)
		router.POST("events/:id/attend", h.MarkAttended)
		router.POST("events/:id/feedback", h.AddFeedback)
		router.POST("events/:id/discount", h.AddDiscountCode)
		router.POST("events/:id/book", h.BookTicket)
	}
}

type TicketTypeRequest struct {
	Type     string  `json:"type" binding:"required"`
	Price    float64 `json:"price" binding:"gte=0"`
	Quantity int     `json:"quantity" binding:"gte=0"`
}

type DiscountCodeRequest struct {
	Code               string  `json:"code" binding:"required"`
	DiscountPercentage float64 `json:"discountPercentage" binding:"gte=0,lte=100"`
	// ExpiryDate RFC3339 或 YYYY-MM-DD
	ExpiryDate string `json:"expiryDate" binding:"required"`
}

// CreateEventRequest 建立活動請求
type CreateEventRequest struct {
	Title         string                `json:"title" binding:"required"`
	Description   string                `json:"description"`
	Date          string                `json:"date" binding:"required"`
	Time          string                `json:"time"`
	Venue         string                `json:"venue"`
	Organizer     string                `json:"organizer" binding:"required,uuid"`
	TicketTypes   []TicketTypeRequest   `json:"ticketTypes" binding:"dive"`
	DiscountCodes []DiscountCodeRequest `json:"discountCodes" binding:"dive"`
}

// UpdateEventRequest 更新活動請求，只更新有帶的欄位
type UpdateEventRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
	Time        *string `json:"time"`
	Venue       *string `json:"venue"`
}

type AttendRequest struct {
	Attendee string `json:"attendee" binding:"required,uuid"`
}

type FeedbackRequest struct {
	Attendee string `json:"attendee" binding:"required,uuid"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
}

type BookTicketRequest struct {
	Attendee     string `json:"attendee" binding:"required,uuid"`
	TicketType   string `json:"ticketType" binding:"required"`
	DiscountCode string `json:"discountCode"`
}

func (h *EventHandler) Create(c *gin.Context) {
	var req CreateEventRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	date, err := model.ParseDate(req.Date)
	if err != nil {
		h.handleError(c, err, "Create")
		return
	}

	event := &model.Event{
		Title:         req.Title,
		Description:   req.Description,
		Date:          date,
		Time:          req.Time,
		Venue:         req.Venue,
		Organizer:     uuid.MustParse(req.Organizer),
		TicketTypes:   make([]model.TicketType, 0, len(req.TicketTypes)),
		DiscountCodes: make([]model.DiscountCode, 0, len(req.DiscountCodes)),
	}
	for _, t := range req.TicketTypes {
		event.TicketTypes = append(event.TicketTypes, model.TicketType{
			Type:     t.Type,
			Price:    t.Price,
			Quantity: t.Quantity,
		})
	}
	for _, dc := range req.DiscountCodes {
		code, err := dc.toModel()
		if err != nil {
			h.handleError(c, err, "Create")
			return
		}
		event.DiscountCodes = append(event.DiscountCodes, code)
	}

	created, err := h.service.Create(c, event)
	if err != nil {
		h.handleError(c, err, "Create")
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *EventHandler) List(c *gin.Context) {
	events, err := h.service.List(c)
	if err != nil {
		h.handleError(c, err, "List")
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *EventHandler) GetByID(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}
	event, err := h.service.GetByID(c, eventID)
	if err != nil {
		h.handleError(c, err, "GetByID")
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) Update(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}
	var req UpdateEventRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	params := model.UpdateEventParams{
		Title:       req.Title,
		Description: req.Description,
		Time:        req.Time,
		Venue:       req.Venue,
	}
	if req.Date != nil {
		date, err := model.ParseDate(*req.Date)
		if err != nil {
			h.handleError(c, err, "Update")
			return
		}
		params.Date = &date
	}
	if params.IsEmpty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one field is required"})
		return
	}

	updated, err := h.service.Update(c, eventID, params)
	if err != nil {
		h.handleError(c, err, "Update")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *EventHandler) Delete(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c, eventID); err != nil {
		h.handleError(c, err, "Delete")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully"})
}

func (h *EventHandler) MarkAttended(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}
	var req AttendRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	updated, err := h.service.MarkAttended(c, eventID, uuid.MustParse(req.Attendee))
	if err != nil {
		h.handleError(c, err, "MarkAttended")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *EventHandler) AddFeedback(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}
	var req FeedbackRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	feedback := model.Feedback{
		Attendee: uuid.MustParse(req.Attendee),
		Rating:   req.Rating,
		Comment:  req.Comment,
	}
	updated, err := h.service.AddFeedback(c, eventID, feedback)
	if err != nil {
		h.handleError(c, err, "AddFeedback")
		return
	}
	c.JSON(http.StatusCreated, updated)
}

func (h *EventHandler) AddDiscountCode(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}
	var req DiscountCodeRequest
	if err := BindJson(c, &req); err != nil {
		return
	}
	code, err := req.toModel()
	if err != nil {
		h.handleError(c, err, "AddDiscountCode")
		return
	}

	updated, err := h.service.AddDiscountCode(c, eventID, code)
	if err != nil {
		h.handleError(c, err, "AddDiscountCode")
		return
	}
	c.JSON(http.StatusCreated, updated)
}

func (h *EventHandler) BookTicket(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}
	var req BookTicketRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	finalPrice, err := h.service.BookTicket(c, eventID, uuid.MustParse(req.Attendee), req.TicketType, req.DiscountCode)
	if err != nil {
		h.handleError(c, err, "BookTicket")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "Booking successful",
		"finalPrice": finalPrice,
	})
}

func (r DiscountCodeRequest) toModel() (model.DiscountCode, error) {
	expiry, err := time.Parse(time.RFC3339, r.ExpiryDate)
	if err != nil {
		if expiry, err = model.ParseDate(r.ExpiryDate); err != nil {
			return model.DiscountCode{}, err
		}
	}
	return model.DiscountCode{
		Code:               r.Code,
		DiscountPercentage: r.DiscountPercentage,
		ExpiryDate:         expiry.UTC(),
	}, nil
}

// EventURI /events/:id 路徑參數
type EventURI struct {
	ID string `uri:"id" binding:"required,uuid"`
}

func parseEventID(c *gin.Context) (uuid.UUID, bool) {
	var uri EventURI
	if err := BindUri(c, &uri); err != nil {
		return uuid.Nil, false
	}
	return uuid.MustParse(uri.ID), true
}

// handleError NotFound → 404，驗證錯誤與衝突 → 400，其他一律 500 不外洩內部訊息
func (h *EventHandler) handleError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case apperrors.IsNotFound(err):
		log.Warn("Resource not found")
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperrors.IsValidation(err):
		log.Warn("Invalid input")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperrors.IsConflict(err):
		log.Warn("Conflict")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
