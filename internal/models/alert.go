package models

import "time"

// ReferenceInventory is the reference_type used by low-stock alerts.
const ReferenceInventory = "inventory"

// Alert is an operator-facing notice. Alerts are dismissed, never deleted.
type Alert struct {
	Base          `bson:",inline"`
	Type          AlertType     `bson:"type" json:"type"`
	Severity      AlertSeverity `bson:"severity" json:"severity"`
	Message       string        `bson:"message" json:"message"`
	Details       *string       `bson:"details,omitempty" json:"details"`
	ReferenceType *string       `bson:"reference_type,omitempty" json:"reference_type"`
	ReferenceID   *string       `bson:"reference_id,omitempty" json:"reference_id"`
	IsDismissed   bool          `bson:"is_dismissed" json:"is_dismissed"`
	DismissedAt   *time.Time    `bson:"dismissed_at,omitempty" json:"dismissed_at"`
	CreatedAt     time.Time     `bson:"created_at" json:"created_at"`
}

// AlertKey identifies the subject of an alert for de-duplication.
type AlertKey struct {
	Type          AlertType
	ReferenceType string
	ReferenceID   string
}

// Key returns the de-duplication key and false when the alert has no reference.
func (a Alert) Key() (AlertKey, bool) {
	if a.ReferenceType == nil || a.ReferenceID == nil {
		return AlertKey{}, false
	}
	return AlertKey{Type: a.Type, ReferenceType: *a.ReferenceType, ReferenceID: *a.ReferenceID}, true
}
