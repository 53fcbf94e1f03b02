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

type appointmentRepo struct {
	coll *mongo.Collection
}

func (r *appointmentRepo) Create(ctx context.Context, a *models.Appointment) error {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, a)
	return translate(err)
}

func (r *appointmentRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	var a models.Appointment
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *appointmentRepo) List(ctx context.Context, f store.AppointmentFilter) ([]models.Appointment, error) {
	filter := bson.M{}
	if f.PatientID != nil {
		filter["patientId"] = *f.PatientID
	}
	if f.DoctorID != nil {
		filter["doctorId"] = *f.DoctorID
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	return findAll[models.Appointment](ctx, r.coll, filter, opts)
}

func (r *appointmentRepo) Cancel(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	now := time.Now().UTC()
	filter := bson.M{"_id": id, "status": models.StatusBooked}
	update := bson.M{"$set": bson.M{
		"status":      models.StatusCancelled,
		"updatedAt":   now,
		"cancelledAt": now,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var a models.Appointment
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&a); err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *appointmentRepo) CountActiveForSlot(ctx context.Context, slotID primitive.ObjectID) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"timeSlotId": slotID, "status": models.StatusBooked})
}
