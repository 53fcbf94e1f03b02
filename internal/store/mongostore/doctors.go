package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/clinic-api/internal/models"
)

type doctorRepo struct {
	coll *mongo.Collection
}

func (r *doctorRepo) Create(ctx context.Context, p *models.DoctorProfile) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, p)
	return translate(err)
}

// Upsert writes specialization and bio for p.UserID, creating the profile
// when the doctor has none yet.
func (r *doctorRepo) Upsert(ctx context.Context, p *models.DoctorProfile) (*models.DoctorProfile, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"specialization": p.Specialization,
			"bio":            p.Bio,
			"updatedAt":      now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var out models.DoctorProfile
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"userId": p.UserID}, update, opts).Decode(&out); err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (r *doctorRepo) FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.DoctorProfile, error) {
	var p models.DoctorProfile
	if err := r.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *doctorRepo) FindByUserIDs(ctx context.Context, userIDs []primitive.ObjectID) ([]models.DoctorProfile, error) {
	if len(userIDs) == 0 {
		return []models.DoctorProfile{}, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	return findAll[models.DoctorProfile](ctx, r.coll, bson.M{"userId": bson.M{"$in": userIDs}}, opts)
}
