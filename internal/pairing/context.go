package pairing

import "context"

type ctxKey int

const noAutoProvisionKey ctxKey = iota

// WithoutAutoProvision marks ctx so that products created under it never get
// a counterpart cloned for them. Provisioning itself creates the clone under
// such a context.
func WithoutAutoProvision(ctx context.Context) context.Context {
	return context.WithValue(ctx, noAutoProvisionKey, true)
}

// AutoProvisionSuppressed reports whether ctx carries WithoutAutoProvision.
func AutoProvisionSuppressed(ctx context.Context) bool {
	v, _ := ctx.Value(noAutoProvisionKey).(bool)
	return v
}
