package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/clinic-api/internal/models"
	"github.com/harentsoaR/clinic-api/internal/store"
)

type userRepo struct {
	coll *mongo.Collection
}

func (r *userRepo) Create(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, u)
	return translate(err)
}

func (r *userRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userRepo) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	return findAll[models.User](ctx, r.coll, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *userRepo) List(ctx context.Context, f store.UserFilter) ([]models.User, error) {
	filter := bson.M{}
	if f.Role != nil {
		filter["role"] = *f.Role
	}
	if f.Approved != nil {
		filter["isApproved"] = *f.Approved
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	return findAll[models.User](ctx, r.coll, filter, opts)
}

func (r *userRepo) SetApproved(ctx context.Context, id primitive.ObjectID, approved bool) (*models.User, error) {
	update := bson.M{"$set": bson.M{"isApproved": approved, "updatedAt": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var u models.User
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	return translate(err)
}
