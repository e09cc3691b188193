// Package lifecycle holds process-wide timing constants shared by the deliveries.
package lifecycle

import "time"

// DefaultTimeout bounds graceful shutdown of a delivery.
const DefaultTimeout = 15 * time.Second
