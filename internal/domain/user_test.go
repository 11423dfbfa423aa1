package domain

import (
	"testing"
	"time"
)

func TestParsePlan(t *testing.T) {
	t.Parallel()

	cases := map[string]Plan{
		"monthly":  PlanMonthly,
		"annual":   PlanAnnual,
		"per-use":  PlanPerUse,
		" Annual ": PlanAnnual,
		"yearly":   PlanMonthly,
		"":         PlanMonthly,
	}
	for in, want := range cases {
		if got := ParsePlan(in); got != want {
			t.Errorf("ParsePlan(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestProfileIsActive(t *testing.T) {
	t.Parallel()

	var nilProfile *Profile
	if nilProfile.IsActive() {
		t.Error("nil profile should not be active")
	}
	if (&Profile{SubscriptionStatus: SubscriptionInactive}).IsActive() {
		t.Error("inactive profile reported active")
	}
	if !(&Profile{SubscriptionStatus: SubscriptionActive}).IsActive() {
		t.Error("active profile reported inactive")
	}
}

func TestSessionExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if (&Session{}).Expired(now) {
		t.Error("zero expiry should never expire")
	}
	if (&Session{ExpiresAt: now.Add(time.Minute)}).Expired(now) {
		t.Error("future expiry reported expired")
	}
	if !(&Session{ExpiresAt: now}).Expired(now) {
		t.Error("expiry at now should be expired")
	}
}
