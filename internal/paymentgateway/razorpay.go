package paymentgateway

import (
	"context"

	razorpay "github.com/razorpay/razorpay-go"

	"github.com/sugu-inc/modern-billing/internal/config"
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// razorpayGateway adapts razorpay-go's map[string]interface{}-based client
// to the Gateway interface. Grounded on the teacher pack's
// internal/integration/razorpay client (razorpay.NewClient(keyID, keySecret)
// construction).
type razorpayGateway struct {
	client *razorpay.Client
	logger *logger.Logger
}

// NewRazorpayGateway builds a Gateway backed by a pre-authorized Razorpay
// payment capture. token is the Razorpay payment_id created client-side
// (Razorpay's checkout flow authorizes the charge before the server ever
// sees it; Attempt here performs the capture step).
func NewRazorpayGateway(cfg config.RazorpayConfig, log *logger.Logger) Gateway {
	return &razorpayGateway{
		client: razorpay.NewClient(cfg.KeyID, cfg.KeySecret),
		logger: log,
	}
}

func (g *razorpayGateway) Name() string { return "razorpay" }

func (g *razorpayGateway) Attempt(ctx context.Context, amount int64, currency, token, key string) (Result, error) {
	extraHeaders := map[string]string{"X-Idempotency-Key": key}

	captured, err := g.client.Payment.Capture(token, map[string]interface{}{
		"amount":   amount,
		"currency": currency,
	}, extraHeaders)
	if err != nil {
		g.logger.Errorw("razorpay capture failed", "error", err, "payment_id", token, "idempotency_key", key)
		return Result{Status: types.GatewayResultFailed, Reason: "capture_failed"}, nil
	}

	status, _ := captured["status"].(string)
	id, _ := captured["id"].(string)
	if id == "" {
		id = token
	}

	switch status {
	case "captured":
		return Result{Status: types.GatewayResultSucceeded, TxnID: id}, nil
	case "authorized", "created":
		return Result{Status: types.GatewayResultPending, TxnID: id}, nil
	case "failed":
		return Result{Status: types.GatewayResultFailed, Reason: "failed", TxnID: id}, nil
	default:
		return Result{}, ierr.NewErrorf("unrecognized razorpay payment status %q", status).Mark(ierr.ErrExternalTransient)
	}
}
