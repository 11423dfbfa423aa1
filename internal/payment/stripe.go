package payment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeProcessor creates checkout sessions through the Stripe API.
type StripeProcessor struct {
	sc       *client.API
	currency string
	logger   *slog.Logger
}

// NewStripeProcessor creates a processor for secretKey charging in currency.
func NewStripeProcessor(secretKey, currency string, logger *slog.Logger) *StripeProcessor {
	return &StripeProcessor{
		sc:       client.New(secretKey, nil),
		currency: currency,
		logger:   logger,
	}
}

// NewStripeProcessorWithBackends is used by tests to point the client at a
// local server.
func NewStripeProcessorWithBackends(secretKey, currency string, backends *stripe.Backends, logger *slog.Logger) *StripeProcessor {
	return &StripeProcessor{
		sc:       client.New(secretKey, backends),
		currency: currency,
		logger:   logger,
	}
}

// CheckoutParams builds the Stripe parameters for req.
func (p *StripeProcessor) CheckoutParams(ctx context.Context, req CheckoutRequest) *stripe.CheckoutSessionParams {
	price := PriceFor(req.Plan)
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		CustomerEmail:      stripe.String(req.Email),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(p.currency),
				UnitAmount: stripe.Int64(price.Amount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(price.Name),
					Description: stripe.String(price.Description()),
				},
			},
		}},
		SuccessURL: stripe.String(SuccessURL(req.BaseURL)),
		CancelURL:  stripe.String(CancelURL(req.BaseURL)),
	}
	params.Context = ctx
	params.AddMetadata("fullName", req.FullName)
	params.AddMetadata("plan", string(price.Plan))
	return params
}

// CreateCheckout implements Processor.
func (p *StripeProcessor) CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error) {
	s, err := p.sc.CheckoutSessions.New(p.CheckoutParams(ctx, req))
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	p.logger.Info("Checkout session created", "checkout_id", s.ID, "plan", PriceFor(req.Plan).Plan)
	return s.URL, nil
}

// GetCheckout implements Processor.
func (p *StripeProcessor) GetCheckout(ctx context.Context, id string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")

	s, err := p.sc.CheckoutSessions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session: %w", err)
	}

	out := &CheckoutSession{
		ID:            s.ID,
		Paid:          s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		CustomerEmail: s.CustomerEmail,
		Metadata:      s.Metadata,
	}
	if out.CustomerEmail == "" && s.CustomerDetails != nil {
		out.CustomerEmail = s.CustomerDetails.Email
	}
	return out, nil
}
