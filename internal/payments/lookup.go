package payments

import (
	"context"

	"github.com/omarkhaled/stayhub-backend/pkg/db/models"
)

// lookupStrategy is one way of matching a callback to a payment row.
// Strategies run in declaration order; the first hit wins.
type lookupStrategy struct {
	name string
	find func(ctx context.Context, repo PaymentRepository, res *WebhookResult) (*models.Payment, error)
}

// The chain prefers the reference we minted ourselves, then narrows by the
// processor order id while the attempt is still pending, and finally matches
// the order id regardless of status so duplicate deliveries still resolve to
// the already-settled row.
var lookupChain = []lookupStrategy{
	{
		name: "merchant_ref_pending",
		find: func(ctx context.Context, repo PaymentRepository, res *WebhookResult) (*models.Payment, error) {
			if res.MerchantRef == "" {
				return nil, nil
			}
			return repo.FindPendingByMerchantRef(ctx, res.MerchantRef)
		},
	},
	{
		name: "provider_order_pending",
		find: func(ctx context.Context, repo PaymentRepository, res *WebhookResult) (*models.Payment, error) {
			if res.OrderID == "" {
				return nil, nil
			}
			return repo.FindPendingByProviderOrderID(ctx, res.OrderID)
		},
	},
	{
		name: "provider_order_any",
		find: func(ctx context.Context, repo PaymentRepository, res *WebhookResult) (*models.Payment, error) {
			if res.OrderID == "" {
				return nil, nil
			}
			return repo.FindByProviderOrderID(ctx, res.OrderID)
		},
	},
}

// resolvePayment walks the lookup chain and returns the matched payment plus
// the name of the strategy that found it. A (nil, "", nil) return means no
// strategy matched and the event should be acknowledged as ignored.
func resolvePayment(ctx context.Context, repo PaymentRepository, res *WebhookResult) (*models.Payment, string, error) {
	for _, strategy := range lookupChain {
		payment, err := strategy.find(ctx, repo, res)
		if err != nil {
			return nil, "", err
		}
		if payment != nil {
			return payment, strategy.name, nil
		}
	}
	return nil, "", nil
}
