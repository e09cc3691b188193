package service

import "context"

// ResetNotifier delivers the raw reset token to the identity's owner out of band.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, email, rawToken string) error
}
