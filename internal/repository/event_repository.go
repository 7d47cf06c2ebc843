package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-gin-event-booking/internal/model"
	apperrors "go-gin-event-booking/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EventRepository Event Store：整份 Event 文件一起讀寫。
// Update 以 event.Version 做樂觀鎖，版本不符時回傳 ErrVersionConflict。
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) (*model.Event, error)
	List(ctx context.Context) ([]*model.Event, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Event, error)
	Update(ctx context.Context, event *model.Event) (*model.Event, error)
	Delete(ctx context.Context, id uuid.UUID) (*model.Event, error)
}

type EventRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &EventRepositoryImpl{
		pool: pool,
	}
}

const eventColumns = `id, title, description, date, time, venue, organizer,
		ticket_types, discount_codes, attendees, feedback,
		version, created_at, updated_at`

// eventDocument 巢狀欄位在 Postgres 以 jsonb 存放
type eventDocument struct {
	ticketTypes   []byte
	discountCodes []byte
	attendees     []byte
	feedback      []byte
}

func encodeEventDocument(event *model.Event) (*eventDocument, error) {
	event.Normalize()
	var (
		doc eventDocument
		err error
	)
	if doc.ticketTypes, err = json.Marshal(event.TicketTypes); err != nil {
		return nil, fmt.Errorf("marshal ticket types: %w", err)
	}
	if doc.discountCodes, err = json.Marshal(event.DiscountCodes); err != nil {
		return nil, fmt.Errorf("marshal discount codes: %w", err)
	}
	if doc.attendees, err = json.Marshal(event.Attendees); err != nil {
		return nil, fmt.Errorf("marshal attendees: %w", err)
	}
	if doc.feedback, err = json.Marshal(event.Feedback); err != nil {
		return nil, fmt.Errorf("marshal feedback: %w", err)
	}
	return &doc, nil
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var (
		event model.Event
		doc   eventDocument
	)
	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.Date,
		&event.Time,
		&event.Venue,
		&event.Organizer,
		&doc.ticketTypes,
		&doc.discountCodes,
		&doc.attendees,
		&doc.feedback,
		&event.Version,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(doc.ticketTypes, &event.TicketTypes); err != nil {
		return nil, fmt.Errorf("unmarshal ticket types: %w", err)
	}
	if err := json.Unmarshal(doc.discountCodes, &event.DiscountCodes); err != nil {
		return nil, fmt.Errorf("unmarshal discount codes: %w", err)
	}
	if err := json.Unmarshal(doc.attendees, &event.Attendees); err != nil {
		return nil, fmt.Errorf("unmarshal attendees: %w", err)
	}
	if err := json.Unmarshal(doc.feedback, &event.Feedback); err != nil {
		return nil, fmt.Errorf("unmarshal feedback: %w", err)
	}
	event.Date = event.Date.UTC()
	event.Normalize()
	return &event, nil
}

func (r *EventRepositoryImpl) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	doc, err := encodeEventDocument(event)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO events (
			id, title, description, date, time, venue, organizer,
			ticket_types, discount_codes, attendees, feedback, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1)
		RETURNING ` + eventColumns

	return scanEvent(r.pool.QueryRow(ctx, query,
		event.ID, event.Title, event.Description, event.Date, event.Time, event.Venue, event.Organizer,
		doc.ticketTypes, doc.discountCodes, doc.attendees, doc.feedback,
	))
}

func (r *EventRepositoryImpl) List(ctx context.Context) ([]*model.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		ORDER BY date ASC, created_at ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*model.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

func (r *EventRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1
	`

	event, err := scanEvent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

func (r *EventRepositoryImpl) Update(ctx context.Context, event *model.Event) (*model.Event, error) {
	doc, err := encodeEventDocument(event)
	if err != nil {
		return nil, err
	}

	// version 相同才寫入，避免兩個請求同時讀到舊的庫存
	query := `
		UPDATE events
		SET title = $3, description = $4, date = $5, time = $6, venue = $7,
			ticket_types = $8, discount_codes = $9, attendees = $10, feedback = $11,
			version = version + 1, updated_at = $12
		WHERE id = $1 AND version = $2
		RETURNING ` + eventColumns

	updated, err := scanEvent(r.pool.QueryRow(ctx, query,
		event.ID, event.Version,
		event.Title, event.Description, event.Date, event.Time, event.Venue,
		doc.ticketTypes, doc.discountCodes, doc.attendees, doc.feedback,
		time.Now().UTC(),
	))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, event.ID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.ErrEventNotFound
	}
	return nil, apperrors.ErrVersionConflict
}

func (r *EventRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	query := `
		DELETE FROM events
		WHERE id = $1
		RETURNING ` + eventColumns

	event, err := scanEvent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}
