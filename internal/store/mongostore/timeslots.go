package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/clinic-api/internal/models"
)

type timeSlotRepo struct {
	coll *mongo.Collection
}

var slotOrder = bson.D{{Key: "date", Value: 1}, {Key: "startTime", Value: 1}, {Key: "_id", Value: 1}}

func (r *timeSlotRepo) Create(ctx context.Context, s *models.TimeSlot) error {
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, s)
	return translate(err)
}

func (r *timeSlotRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.TimeSlot, error) {
	var s models.TimeSlot
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *timeSlotRepo) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.TimeSlot, error) {
	if len(ids) == 0 {
		return []models.TimeSlot{}, nil
	}
	return findAll[models.TimeSlot](ctx, r.coll, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetSort(slotOrder))
}

func (r *timeSlotRepo) ListOpen(ctx context.Context, doctorID *primitive.ObjectID) ([]models.TimeSlot, error) {
	filter := bson.M{"isBooked": false}
	if doctorID != nil {
		filter["doctorId"] = *doctorID
	}
	return findAll[models.TimeSlot](ctx, r.coll, filter, options.Find().SetSort(slotOrder))
}

func (r *timeSlotRepo) Claim(ctx context.Context, id primitive.ObjectID) (*models.TimeSlot, error) {
	filter := bson.M{"_id": id, "isBooked": false}
	update := bson.M{"$set": bson.M{"isBooked": true}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var s models.TimeSlot
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&s); err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *timeSlotRepo) Release(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"isBooked": false}})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return translate(mongo.ErrNoDocuments)
	}
	return nil
}
