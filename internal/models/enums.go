package models

import (
	"errors"
	"fmt"
)

// ErrInvalid marks input rejected before it reaches a service or the store.
var ErrInvalid = errors.New("invalid value")

func invalid(field, value string) error {
	return fmt.Errorf("%w: unknown %s %q", ErrInvalid, field, value)
}

// BookingStatus is the lifecycle state of a booking. Any value may move to any other.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingNoShow    BookingStatus = "no_show"
	BookingCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCompleted, BookingNoShow, BookingCancelled:
		return true
	}
	return false
}

func ParseBookingStatus(s string) (BookingStatus, error) {
	v := BookingStatus(s)
	if !v.Valid() {
		return "", invalid("booking status", s)
	}
	return v, nil
}

// FormStatus tracks the intake form attached to a booking.
type FormStatus string

const (
	FormPending   FormStatus = "pending"
	FormCompleted FormStatus = "completed"
)

func (s FormStatus) Valid() bool {
	return s == FormPending || s == FormCompleted
}

func ParseFormStatus(s string) (FormStatus, error) {
	v := FormStatus(s)
	if !v.Valid() {
		return "", invalid("form status", s)
	}
	return v, nil
}

type AlertType string

const (
	AlertInventory   AlertType = "inventory"
	AlertIntegration AlertType = "integration"
	AlertBooking     AlertType = "booking"
	AlertSystem      AlertType = "system"
)

func (t AlertType) Valid() bool {
	switch t {
	case AlertInventory, AlertIntegration, AlertBooking, AlertSystem:
		return true
	}
	return false
}

func ParseAlertType(s string) (AlertType, error) {
	v := AlertType(s)
	if !v.Valid() {
		return "", invalid("alert type", s)
	}
	return v, nil
}

type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

func (s AlertSeverity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return true
	}
	return false
}

func ParseAlertSeverity(s string) (AlertSeverity, error) {
	v := AlertSeverity(s)
	if !v.Valid() {
		return "", invalid("alert severity", s)
	}
	return v, nil
}

type MessageChannel string

const (
	ChannelEmail  MessageChannel = "email"
	ChannelSMS    MessageChannel = "sms"
	ChannelSystem MessageChannel = "system"
)

func (c MessageChannel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelSystem:
		return true
	}
	return false
}

func ParseMessageChannel(s string) (MessageChannel, error) {
	v := MessageChannel(s)
	if !v.Valid() {
		return "", invalid("message channel", s)
	}
	return v, nil
}

type MessageDirection string

const (
	DirectionIncoming MessageDirection = "incoming"
	DirectionOutgoing MessageDirection = "outgoing"
)

func (d MessageDirection) Valid() bool {
	return d == DirectionIncoming || d == DirectionOutgoing
}

func ParseMessageDirection(s string) (MessageDirection, error) {
	v := MessageDirection(s)
	if !v.Valid() {
		return "", invalid("message direction", s)
	}
	return v, nil
}

type MessageStatus string

const (
	MessagePending   MessageStatus = "pending"
	MessageSent      MessageStatus = "sent"
	MessageDelivered MessageStatus = "delivered"
	MessageFailed    MessageStatus = "failed"
)

func (s MessageStatus) Valid() bool {
	switch s {
	case MessagePending, MessageSent, MessageDelivered, MessageFailed:
		return true
	}
	return false
}

func ParseMessageStatus(s string) (MessageStatus, error) {
	v := MessageStatus(s)
	if !v.Valid() {
		return "", invalid("message status", s)
	}
	return v, nil
}

type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStaff
}

func ParseRole(s string) (Role, error) {
	v := Role(s)
	if !v.Valid() {
		return "", invalid("role", s)
	}
	return v, nil
}
