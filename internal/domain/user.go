// Package domain contains core domain types for the InsurX portal.
package domain

import (
	"strings"
	"time"
)

// Plan identifies a subscription plan.
type Plan string

const (
	PlanMonthly Plan = "monthly"
	PlanAnnual  Plan = "annual"
	PlanPerUse  Plan = "per-use"
)

// ParsePlan normalizes a plan selector. Unrecognized values map to monthly.
func ParsePlan(s string) Plan {
	switch Plan(strings.ToLower(strings.TrimSpace(s))) {
	case PlanAnnual:
		return PlanAnnual
	case PlanPerUse:
		return PlanPerUse
	default:
		return PlanMonthly
	}
}

// SubscriptionStatus is the entitlement flag carried on a profile.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionInactive SubscriptionStatus = "inactive"
)

// Profile is the authenticated user's identity and entitlement.
type Profile struct {
	ID                 string             `json:"id"`
	Email              string             `json:"email"`
	FullName           string             `json:"fullName"`
	Plan               Plan               `json:"plan,omitempty"`
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus,omitempty"`
}

// IsActive returns true if the profile carries an active subscription.
func (p *Profile) IsActive() bool {
	return p != nil && p.SubscriptionStatus == SubscriptionActive
}

// Session pairs a profile with the backend bearer token.
type Session struct {
	ID        string    `json:"id"`
	Profile   Profile   `json:"profile"`
	Token     string    `json:"token,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
// A zero ExpiresAt never expires.
func (s *Session) Expired(now time.Time) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(s.ExpiresAt)
}
