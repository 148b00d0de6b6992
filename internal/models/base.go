package models

import (
	"github.com/google/uuid"
)

type IBase interface {
	GenIDIfEmpty()
	GenID()
	SetID(id string)
	GetID() string
}

// Base carries the document id shared by every persisted entity.
type Base struct {
	ID string `bson:"_id,omitempty" json:"id"`
}

func (m *Base) GenIDIfEmpty() {
	if m.ID == "" {
		m.GenID()
	}
}

func (m *Base) GenID() {
	m.ID = uuid.NewString()
}

func (m *Base) SetID(id string) {
	m.ID = id
}

func (m *Base) GetID() string {
	return m.ID
}

func NewBase() Base {
	return Base{ID: uuid.NewString()}
}

// ValidID reports whether s is a well-formed entity id.
func ValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
