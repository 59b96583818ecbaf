// Package providers contains the dependency injection providers for all
// ChartStash services and their lifecycle handles.
package providers

import "time"

// shutdownTimeout bounds graceful shutdown of long-running components.
const shutdownTimeout = 30 * time.Second
