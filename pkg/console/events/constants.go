package events

const (
	// DefaultBatchSize bounds the number of keys deleted per badger transaction during cleanup.
	DefaultBatchSize = 1000

	DefaultPageSize = 10
	MaxPageSize     = 1000

	keyPrefix = "events/"
)
