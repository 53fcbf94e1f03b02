// Package mongostore implements store.Store on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/harentsoaR/clinic-api/internal/models"
	"github.com/harentsoaR/clinic-api/internal/store"
)

const (
	usersCollection        = "users"
	doctorsCollection      = "doctors"
	timeSlotsCollection    = "timeslots"
	appointmentsCollection = "appointments"
)

type Store struct {
	client       *mongo.Client
	db           *mongo.Database
	users        *userRepo
	doctors      *doctorRepo
	timeSlots    *timeSlotRepo
	appointments *appointmentRepo
}

var _ store.Store = (*Store)(nil)

// Connect dials uri and verifies the connection with a ping.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return New(client, client.Database(database)), nil
}

func New(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		client:       client,
		db:           db,
		users:        &userRepo{coll: db.Collection(usersCollection)},
		doctors:      &doctorRepo{coll: db.Collection(doctorsCollection)},
		timeSlots:    &timeSlotRepo{coll: db.Collection(timeSlotsCollection)},
		appointments: &appointmentRepo{coll: db.Collection(appointmentsCollection)},
	}
}

func (s *Store) Users() store.Users { return s.users }
func (s *Store) Doctors() store.Doctors { return s.doctors }
func (s *Store) TimeSlots() store.TimeSlots { return s.timeSlots }
func (s *Store) Appointments() store.Appointments { return s.appointments }

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely
// on. The partial unique index on appointments is what keeps a slot from
// holding two booked appointments.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "isApproved", Value: 1}}},
		},
		doctorsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		timeSlotsCollection: {
			{Keys: bson.D{{Key: "doctorId", Value: 1}, {Key: "isBooked", Value: 1}, {Key: "date", Value: 1}}},
		},
		appointmentsCollection: {
			{
				Keys: bson.D{{Key: "timeSlotId", Value: 1}},
				Options: options.Index().
					SetName("timeSlotId_active_unique").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"status": models.StatusBooked}),
			},
			{Keys: bson.D{{Key: "patientId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "doctorId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}
	for name, indexes := range specs {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// translate maps driver errors onto the store sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	default:
		return err
	}
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
