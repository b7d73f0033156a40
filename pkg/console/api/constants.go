package api

import "time"

const (
	healthTimeout      = 10 * time.Second
	eventsTimeout      = 30 * time.Second
	connectionsTimeout = 30 * time.Second
	kubeTimeout        = 60 * time.Second

	maxKeyLength = 512
)
