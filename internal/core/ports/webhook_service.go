package ports

import "context"

// WebhookInput is one inbound webhook delivery: the raw body exactly as
// received (signatures are computed over these bytes, not a re-encoding)
// and the claimed signature as lowercase hex without any header prefix.
type WebhookInput struct {
	Body      []byte
	Signature string
	Meta      RequestMeta
}

// WebhookVerifier authenticates inbound webhook deliveries and returns the
// verified tenant id. It performs no business logic beyond verification.
type WebhookVerifier interface {
	Verify(ctx context.Context, in WebhookInput) (tenantID string, err error)
}
