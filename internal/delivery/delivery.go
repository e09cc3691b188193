// Package delivery holds the entry points that drive the usecases: the HTTP API and background workers.
package delivery

import "context"

// Delivery is a long-running entry point started by the application.
// Serve blocks until the delivery stops; shutdown is driven by fx lifecycle hooks.
type Delivery interface {
	Serve(ctx context.Context) error
}
