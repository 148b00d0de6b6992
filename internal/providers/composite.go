package providers

import (
	"context"
	"errors"
	"fmt"
)

// CompositeEmailSender delivers through every registered sender and reports all failures.
type CompositeEmailSender struct {
	senders []EmailSender
}

func NewCompositeEmailSender(senders ...EmailSender) *CompositeEmailSender {
	return &CompositeEmailSender{senders: senders}
}

func (cs *CompositeEmailSender) AddSender(sender EmailSender) {
	if sender != nil {
		cs.senders = append(cs.senders, sender)
	}
}

func (cs *CompositeEmailSender) SendEmail(ctx context.Context, to, subject, body string) error {
	if len(cs.senders) == 0 {
		return fmt.Errorf("no email senders configured")
	}
	var errs []error
	for _, s := range cs.senders {
		if err := s.SendEmail(ctx, to, subject, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CompositeSMSSender is the SMS counterpart of CompositeEmailSender.
type CompositeSMSSender struct {
	senders []SMSSender
}

func NewCompositeSMSSender(senders ...SMSSender) *CompositeSMSSender {
	return &CompositeSMSSender{senders: senders}
}

func (cs *CompositeSMSSender) AddSender(sender SMSSender) {
	if sender != nil {
		cs.senders = append(cs.senders, sender)
	}
}

func (cs *CompositeSMSSender) SendSMS(ctx context.Context, to, body string) error {
	if len(cs.senders) == 0 {
		return fmt.Errorf("no sms senders configured")
	}
	var errs []error
	for _, s := range cs.senders {
		if err := s.SendSMS(ctx, to, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
