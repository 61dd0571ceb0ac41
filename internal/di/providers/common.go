package providers

import "time"

// shutdownTimeout bounds how long any single handle may take to drain
// during graceful shutdown.
const shutdownTimeout = 30 * time.Second
