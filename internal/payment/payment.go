// Package payment creates and verifies hosted checkout sessions.
package payment

import (
	"context"
	"errors"
	"strings"

	"github.com/insurx/insurx-web/internal/domain"
)

var (
	// ErrNotPaid is returned when a checkout session has not been paid.
	ErrNotPaid = errors.New("payment was not completed")
	// ErrNoCustomerEmail is returned when a paid session carries no email.
	ErrNoCustomerEmail = errors.New("could not determine customer email")
)

// DefaultCustomerName is used when checkout metadata has no full name.
const DefaultCustomerName = "Customer"

// CheckoutRequest describes a checkout to start.
type CheckoutRequest struct {
	Email    string
	FullName string
	Plan     string
	// BaseURL is the public origin that success and cancel URLs are built on.
	BaseURL string
}

// CheckoutSession is the processor's view of a checkout, reduced to what
// confirmation needs.
type CheckoutSession struct {
	ID            string
	Paid          bool
	CustomerEmail string
	Metadata      map[string]string
}

// Processor is a hosted checkout provider.
type Processor interface {
	// CreateCheckout starts a checkout and returns the hosted page URL.
	CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error)
	// GetCheckout retrieves a checkout session by ID.
	GetCheckout(ctx context.Context, id string) (*CheckoutSession, error)
}

// Confirm converts a paid checkout session into an active profile.
func Confirm(s *CheckoutSession) (*domain.Profile, error) {
	if s == nil || !s.Paid {
		return nil, ErrNotPaid
	}
	email := strings.TrimSpace(s.CustomerEmail)
	if email == "" {
		return nil, ErrNoCustomerEmail
	}

	name := strings.TrimSpace(s.Metadata["fullName"])
	if name == "" {
		name = DefaultCustomerName
	}

	return &domain.Profile{
		Email:              email,
		FullName:           name,
		Plan:               domain.ParsePlan(s.Metadata["plan"]),
		SubscriptionStatus: domain.SubscriptionActive,
	}, nil
}

// SuccessURL is where the processor returns the customer after payment.
func SuccessURL(base string) string {
	return strings.TrimRight(base, "/") + "/signup/success?session_id={CHECKOUT_SESSION_ID}"
}

// CancelURL is where the processor returns the customer on cancel.
func CancelURL(base string) string {
	return strings.TrimRight(base, "/") + "/signup?canceled=1"
}
