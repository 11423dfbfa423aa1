package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/insurx/insurx-web/internal/domain"
)

// AuthResult is a signed-in profile and its bearer token.
type AuthResult struct {
	Profile domain.Profile
	Token   string
}

// InvalidProfileError reports an auth payload that failed validation.
type InvalidProfileError struct {
	Field  string
	Reason string
}

func (e *InvalidProfileError) Error() string {
	if e.Field == "" {
		return "invalid profile payload: " + e.Reason
	}
	return fmt.Sprintf("invalid profile payload: %s %s", e.Field, e.Reason)
}

type authPayload struct {
	ID                 string `json:"_id"`
	Email              string `json:"email"`
	FullName           string `json:"fullName"`
	Token              string `json:"token"`
	Plan               string `json:"plan"`
	SubscriptionStatus string `json:"subscriptionStatus"`
}

// DecodeProfile validates an auth response. defaultPlan is used when the
// payload has no plan; a missing status means active.
func DecodeProfile(data []byte, defaultPlan domain.Plan) (*AuthResult, error) {
	var p authPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, &InvalidProfileError{Reason: err.Error()}
	}
	if strings.TrimSpace(p.ID) == "" {
		return nil, &InvalidProfileError{Field: "_id", Reason: "is required"}
	}
	if strings.TrimSpace(p.Email) == "" {
		return nil, &InvalidProfileError{Field: "email", Reason: "is required"}
	}

	plan := defaultPlan
	if p.Plan != "" {
		plan = domain.ParsePlan(p.Plan)
	}

	status := domain.SubscriptionActive
	switch domain.SubscriptionStatus(p.SubscriptionStatus) {
	case "", domain.SubscriptionActive:
	case domain.SubscriptionInactive:
		status = domain.SubscriptionInactive
	default:
		return nil, &InvalidProfileError{Field: "subscriptionStatus", Reason: fmt.Sprintf("unknown value %q", p.SubscriptionStatus)}
	}

	return &AuthResult{
		Profile: domain.Profile{
			ID:                 p.ID,
			Email:              p.Email,
			FullName:           p.FullName,
			Plan:               plan,
			SubscriptionStatus: status,
		},
		Token: p.Token,
	}, nil
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var raw json.RawMessage
	in := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, "login", http.MethodPost, "/auth/login", "", in, &raw); err != nil {
		return nil, err
	}
	return DecodeProfile(raw, domain.PlanMonthly)
}

// Signup creates an account. plan is recorded on the returned profile when
// the backend does not report one.
func (c *Client) Signup(ctx context.Context, fullName, email, password string, plan domain.Plan) (*AuthResult, error) {
	var raw json.RawMessage
	in := map[string]string{"fullName": fullName, "email": email, "password": password}
	if err := c.do(ctx, "signup", http.MethodPost, "/auth/signup", "", in, &raw); err != nil {
		return nil, err
	}
	return DecodeProfile(raw, plan)
}
