package paymentgateway

import (
	"context"

	"github.com/stripe/stripe-go/v82"

	"github.com/sugu-inc/modern-billing/internal/config"
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// stripeGateway adapts stripe-go's v82 client-based PaymentIntents API to
// the Gateway interface. Grounded on the teacher pack's
// internal/integration/stripe client/PaymentIntent call shape
// (client.V1PaymentIntents.Create/.Retrieve with stripe.Int64/.String param
// builders, stripe.NewClient(secretKey, nil) construction).
type stripeGateway struct {
	client *stripe.Client
	logger *logger.Logger
}

// NewStripeGateway builds a Gateway backed by the Stripe PaymentIntents API.
func NewStripeGateway(cfg config.StripeConfig, log *logger.Logger) Gateway {
	return &stripeGateway{
		client: stripe.NewClient(cfg.SecretKey, nil),
		logger: log,
	}
}

func (g *stripeGateway) Name() string { return "stripe" }

func (g *stripeGateway) Attempt(ctx context.Context, amount int64, currency, token, key string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	params := &stripe.PaymentIntentCreateParams{
		Amount:        stripe.Int64(amount),
		Currency:      stripe.String(currency),
		PaymentMethod: stripe.String(token),
		Confirm:       stripe.Bool(true),
		OffSession:    stripe.Bool(true),
	}
	params.SetIdempotencyKey(key)

	pi, err := g.client.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		g.logger.Errorw("stripe payment intent create failed", "error", err, "idempotency_key", key)
		if stripeErr, ok := err.(*stripe.Error); ok {
			return Result{Status: types.GatewayResultFailed, Reason: string(stripeErr.Code)}, nil
		}
		return Result{}, ierr.WithError(err).WithHint("stripe charge attempt failed").Mark(ierr.ErrExternalTransient)
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return Result{Status: types.GatewayResultSucceeded, TxnID: pi.ID}, nil
	case stripe.PaymentIntentStatusProcessing:
		return Result{Status: types.GatewayResultPending, TxnID: pi.ID}, nil
	default:
		reason := "card_declined"
		if pi.LastPaymentError != nil {
			reason = string(pi.LastPaymentError.Code)
		}
		return Result{Status: types.GatewayResultFailed, Reason: reason, TxnID: pi.ID}, nil
	}
}
