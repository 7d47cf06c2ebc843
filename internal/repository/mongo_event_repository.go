package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-gin-event-booking/internal/model"
	apperrors "go-gin-event-booking/pkg/app_errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const eventsCollection = "events"

type mongoTicketType struct {
	Type     string  `bson:"type"`
	Price    float64 `bson:"price"`
	Quantity int     `bson:"quantity"`
	Sold     int     `bson:"sold"`
}

type mongoDiscountCode struct {
	Code               string    `bson:"code"`
	DiscountPercentage float64   `bson:"discountPercentage"`
	ExpiryDate         time.Time `bson:"expiryDate"`
}

type mongoFeedback struct {
	Attendee  string    `bson:"attendee"`
	Rating    int       `bson:"rating"`
	Comment   string    `bson:"comment"`
	CreatedAt time.Time `bson:"createdAt"`
}

// mongoEvent Mongo 內的文件格式，ID 以字串存放
type mongoEvent struct {
	ID            string              `bson:"_id"`
	Title         string              `bson:"title"`
	Description   string              `bson:"description"`
	Date          time.Time           `bson:"date"`
	Time          string              `bson:"time"`
	Venue         string              `bson:"venue"`
	Organizer     string              `bson:"organizer"`
	TicketTypes   []mongoTicketType   `bson:"ticketTypes"`
	DiscountCodes []mongoDiscountCode `bson:"discountCodes"`
	Attendees     []string            `bson:"attendees"`
	Feedback      []mongoFeedback     `bson:"feedback"`
	Version       int64               `bson:"version"`
	CreatedAt     time.Time           `bson:"createdAt"`
	UpdatedAt     time.Time           `bson:"updatedAt"`
}

func toMongoEvent(e *model.Event) mongoEvent {
	doc := mongoEvent{
		ID:            e.ID.String(),
		Title:         e.Title,
		Description:   e.Description,
		Date:          e.Date,
		Time:          e.Time,
		Venue:         e.Venue,
		Organizer:     e.Organizer.String(),
		TicketTypes:   make([]mongoTicketType, 0, len(e.TicketTypes)),
		DiscountCodes: make([]mongoDiscountCode, 0, len(e.DiscountCodes)),
		Attendees:     make([]string, 0, len(e.Attendees)),
		Feedback:      make([]mongoFeedback, 0, len(e.Feedback)),
		Version:       e.Version,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
	for _, t := range e.TicketTypes {
		doc.TicketTypes = append(doc.TicketTypes, mongoTicketType(t))
	}
	for _, dc := range e.DiscountCodes {
		doc.DiscountCodes = append(doc.DiscountCodes, mongoDiscountCode(dc))
	}
	for _, a := range e.Attendees {
		doc.Attendees = append(doc.Attendees, a.String())
	}
	for _, f := range e.Feedback {
		doc.Feedback = append(doc.Feedback, mongoFeedback{
			Attendee:  f.Attendee.String(),
			Rating:    f.Rating,
			Comment:   f.Comment,
			CreatedAt: f.CreatedAt,
		})
	}
	return doc
}

func (doc mongoEvent) toModel() (*model.Event, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, fmt.Errorf("parse event id %q: %w", doc.ID, err)
	}
	organizer, err := uuid.Parse(doc.Organizer)
	if err != nil {
		return nil, fmt.Errorf("parse organizer %q: %w", doc.Organizer, err)
	}

	e := &model.Event{
		ID:          id,
		Title:       doc.Title,
		Description: doc.Description,
		Date:        doc.Date.UTC(),
		Time:        doc.Time,
		Venue:       doc.Venue,
		Organizer:   organizer,
		Version:     doc.Version,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
	for _, t := range doc.TicketTypes {
		e.TicketTypes = append(e.TicketTypes, model.TicketType(t))
	}
	for _, dc := range doc.DiscountCodes {
		e.DiscountCodes = append(e.DiscountCodes, model.DiscountCode{
			Code:               dc.Code,
			DiscountPercentage: dc.DiscountPercentage,
			ExpiryDate:         dc.ExpiryDate.UTC(),
		})
	}
	for _, a := range doc.Attendees {
		attendee, err := uuid.Parse(a)
		if err != nil {
			return nil, fmt.Errorf("parse attendee %q: %w", a, err)
		}
		e.Attendees = append(e.Attendees, attendee)
	}
	for _, f := range doc.Feedback {
		attendee, err := uuid.Parse(f.Attendee)
		if err != nil {
			return nil, fmt.Errorf("parse feedback attendee %q: %w", f.Attendee, err)
		}
		e.Feedback = append(e.Feedback, model.Feedback{
			Attendee:  attendee,
			Rating:    f.Rating,
			Comment:   f.Comment,
			CreatedAt: f.CreatedAt,
		})
	}
	e.Normalize()
	return e, nil
}

type MongoEventRepository struct {
	collection *mongo.Collection
}

func NewMongoEventRepository(db *mongo.Database) EventRepository {
	return &MongoEventRepository{
		collection: db.Collection(eventsCollection),
	}
}

func (r *MongoEventRepository) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	now := time.Now().UTC()
	event.Version = 1
	event.CreatedAt = now
	event.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, toMongoEvent(event)); err != nil {
		return nil, err
	}
	event.Normalize()
	return event, nil
}

func (r *MongoEventRepository) List(ctx context.Context) ([]*model.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "createdAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	events := make([]*model.Event, 0)
	for cursor.Next(ctx) {
		var doc mongoEvent
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		event, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *MongoEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	var doc mongoEvent
	err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}
	return doc.toModel()
}

func (r *MongoEventRepository) Update(ctx context.Context, event *model.Event) (*model.Event, error) {
	expected := event.Version
	updated := event.Clone()
	updated.Version = expected + 1
	updated.UpdatedAt = time.Now().UTC()

	// filter 帶 version，其他請求先寫入時 MatchedCount 會是 0
	filter := bson.M{"_id": event.ID.String(), "version": expected}
	result, err := r.collection.ReplaceOne(ctx, filter, toMongoEvent(updated))
	if err != nil {
		return nil, err
	}
	if result.MatchedCount == 0 {
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": event.ID.String()})
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, apperrors.ErrVersionConflict
	}

	updated.Normalize()
	return updated, nil
}

func (r *MongoEventRepository) Delete(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	var doc mongoEvent
	err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}
	return doc.toModel()
}
