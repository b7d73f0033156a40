package server

import "time"

// DefaultShutdownTimeout is the default timeout for graceful server shutdown
const DefaultShutdownTimeout = 30 * time.Second

const readHeaderTimeout = 10 * time.Second
