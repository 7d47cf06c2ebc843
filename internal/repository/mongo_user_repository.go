package repository

import (
	"context"
	"errors"
	"time"

	"go-gin-event-booking/internal/model"
	apperrors "go-gin-event-booking/pkg/app_errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const usersCollection = "users"

type mongoUser struct {
	ID        string    `bson:"_id"`
	FirstName string    `bson:"firstName"`
	LastName  string    `bson:"lastName"`
	Email     string    `bson:"email"`
	CreatedAt time.Time `bson:"createdAt"`
}

type MongoUserRepository struct {
	collection *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &MongoUserRepository{
		collection: db.Collection(usersCollection),
	}
}

func (r *MongoUserRepository) Create(ctx context.Context, user *model.User) (*model.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now().UTC()

	doc := mongoUser{
		ID:        user.ID.String(),
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var doc mongoUser
	err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}

	return &model.User{
		ID:        id,
		FirstName: doc.FirstName,
		LastName:  doc.LastName,
		Email:     doc.Email,
		CreatedAt: doc.CreatedAt,
	}, nil
}
