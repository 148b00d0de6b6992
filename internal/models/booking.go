package models

import "time"

type Booking struct {
	Base        `bson:",inline"`
	ContactID   string        `bson:"contact_id" json:"contact_id"`
	StaffID     *string       `bson:"staff_id,omitempty" json:"staff_id"`
	Status      BookingStatus `bson:"status" json:"status"`
	FormStatus  FormStatus    `bson:"form_status" json:"form_status"`
	StartTime   time.Time     `bson:"start_time" json:"start_time"`
	EndTime     time.Time     `bson:"end_time" json:"end_time"`
	ServiceType *string       `bson:"service_type,omitempty" json:"service_type"`
	Notes       *string       `bson:"notes,omitempty" json:"notes"`
	CreatedAt   time.Time     `bson:"created_at" json:"created_at"`
}
