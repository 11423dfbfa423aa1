package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/insurx/insurx-web/internal/domain"
)

// Dashboard returns the monitoring dashboard for the token's account.
func (c *Client) Dashboard(ctx context.Context, token string) (*domain.Dashboard, error) {
	var out domain.Dashboard
	err := c.do(ctx, "dashboard", http.MethodGet, "/monitoring/dashboard", token, nil, &out)
	var se *StatusError
	if errors.As(err, &se) && se.Status == http.StatusNotFound {
		return nil, ErrNotConfigured
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetMonitoringConfig returns the configured monitoring area.
func (c *Client) GetMonitoringConfig(ctx context.Context, token string) (*domain.MonitoringArea, error) {
	var out domain.MonitoringArea
	if err := c.do(ctx, "get_monitoring_config", http.MethodGet, "/monitoring/config", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetMonitoringConfig stores the start and end areas.
func (c *Client) SetMonitoringConfig(ctx context.Context, token, startArea, endArea string) (*domain.MonitoringArea, error) {
	in := domain.MonitoringArea{StartArea: startArea, EndArea: endArea}
	var out domain.MonitoringArea
	if err := c.do(ctx, "set_monitoring_config", http.MethodPost, "/monitoring/config", token, in, &out); err != nil {
		return nil, err
	}
	if out.StartArea == "" && out.EndArea == "" {
		out = in
	}
	return &out, nil
}

// CreateAssessment requests a risk assessment for a property.
func (c *Client) CreateAssessment(ctx context.Context, token, location string, propertyValue float64) (*domain.Assessment, error) {
	in := struct {
		Location      string  `json:"location"`
		PropertyValue float64 `json:"propertyValue"`
	}{location, propertyValue}
	var out struct {
		Assessment *domain.Assessment `json:"assessment"`
	}
	if err := c.do(ctx, "create_assessment", http.MethodPost, "/risk-assessment", token, in, &out); err != nil {
		return nil, err
	}
	if out.Assessment == nil {
		return nil, errors.New("create_assessment response has no assessment")
	}
	return out.Assessment, nil
}

// InitiatePayment starts a card payment and returns the provider's
// authorization URL. amount is in major units.
func (c *Client) InitiatePayment(ctx context.Context, token, email string, amount int64, currency string) (string, error) {
	in := struct {
		Amount   int64  `json:"amount"`
		Email    string `json:"email"`
		Currency string `json:"currency"`
	}{amount, email, currency}
	var out struct {
		AuthorizationURL string `json:"authorization_url"`
	}
	if err := c.do(ctx, "initiate_payment", http.MethodPost, "/payment/initiate", token, in, &out); err != nil {
		return "", err
	}
	if out.AuthorizationURL == "" {
		return "", fmt.Errorf("initiate_payment response has no authorization_url")
	}
	return out.AuthorizationURL, nil
}

// VerifyPayment returns the status of a payment reference, e.g. "success".
func (c *Client) VerifyPayment(ctx context.Context, token, reference string) (string, error) {
	var out struct {
		Status string `json:"status"`
	}
	path := "/payment/verify/" + url.PathEscape(reference)
	if err := c.do(ctx, "verify_payment", http.MethodGet, path, token, nil, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}
