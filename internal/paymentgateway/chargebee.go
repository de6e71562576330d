package paymentgateway

import (
	"context"
	"strconv"

	"github.com/chargebee/chargebee-go/v3"
	transactionAction "github.com/chargebee/chargebee-go/v3/actions/transaction"
	"github.com/chargebee/chargebee-go/v3/models/transaction"
	transactionEnum "github.com/chargebee/chargebee-go/v3/models/transaction/enum"

	"github.com/sugu-inc/modern-billing/internal/config"
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/sugu-inc/modern-billing/internal/logger"
	"github.com/sugu-inc/modern-billing/internal/types"
)

// chargebeeGateway adapts Chargebee's transaction API to the Gateway
// interface. Grounded on the teacher pack's internal/integration/chargebee
// client (chargebee.Configure(apiKey, site) global SDK init) and its
// `<action>.Create(params).Request()` call shape (item.go/itemprice.go).
type chargebeeGateway struct {
	logger *logger.Logger
}

// NewChargebeeGateway configures the global Chargebee SDK and returns a
// Gateway backed by it.
func NewChargebeeGateway(cfg config.ChargebeeConfig, log *logger.Logger) Gateway {
	chargebee.Configure(cfg.APIKey, cfg.Site)
	return &chargebeeGateway{logger: log}
}

func (g *chargebeeGateway) Name() string { return "chargebee" }

func (g *chargebeeGateway) Attempt(ctx context.Context, amount int64, currency, token, key string) (Result, error) {
	params := &transaction.RecordOfflineRefundAndPaymentRequestParams{
		Amount:        strconv.FormatInt(amount, 10),
		PaymentMethod: transactionEnum.PaymentMethod(token),
	}

	result, err := transactionAction.CreatePaymentForCustomer(token, params).Request()
	if err != nil {
		g.logger.Errorw("chargebee transaction create failed", "error", err, "idempotency_key", key)
		return Result{Status: types.GatewayResultFailed, Reason: "gateway_error"}, nil
	}

	if result.Transaction == nil {
		return Result{}, ierr.NewError("chargebee returned no transaction").Mark(ierr.ErrExternalTransient)
	}

	switch result.Transaction.Status {
	case transactionEnum.StatusSuccess:
		return Result{Status: types.GatewayResultSucceeded, TxnID: result.Transaction.Id}, nil
	case transactionEnum.StatusInProgress:
		return Result{Status: types.GatewayResultPending, TxnID: result.Transaction.Id}, nil
	default:
		return Result{Status: types.GatewayResultFailed, Reason: string(result.Transaction.Status), TxnID: result.Transaction.Id}, nil
	}
}
