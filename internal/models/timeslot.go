package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

type TimeSlot struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DoctorID  primitive.ObjectID `bson:"doctorId" json:"doctorId"`
	Date      time.Time          `bson:"date" json:"date"`
	StartTime string             `bson:"startTime" json:"startTime"`
	EndTime   string             `bson:"endTime" json:"endTime"`
	IsBooked  bool               `bson:"isBooked" json:"isBooked"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Before orders slots by date, then start time.
func (s *TimeSlot) Before(o *TimeSlot) bool {
	if !s.Date.Equal(o.Date) {
		return s.Date.Before(o.Date)
	}
	return s.StartTime < o.StartTime
}
