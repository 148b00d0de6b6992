package models

import "time"

// Contact is a customer or lead the business talks to.
type Contact struct {
	Base      `bson:",inline"`
	Name      string    `bson:"name" json:"name"`
	Email     *string   `bson:"email,omitempty" json:"email"`
	Phone     *string   `bson:"phone,omitempty" json:"phone"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// EmailAddress returns the contact email or "" when none is on file.
func (c Contact) EmailAddress() string {
	if c.Email == nil {
		return ""
	}
	return *c.Email
}

// PhoneNumber returns the contact phone or "" when none is on file.
func (c Contact) PhoneNumber() string {
	if c.Phone == nil {
		return ""
	}
	return *c.Phone
}
