package connections

// ConnectionStore defines the interface for connection storage operations.
type ConnectionStore interface {
	// Save creates or updates a connection
	Save(c Connection) (Connection, error)

	// Get retrieves a connection by ID
	Get(id string) (Connection, error)

	// Delete removes a connection by ID
	Delete(id string) error

	// List returns one page of connections
	List(opts ListOptions) (*Page, error)

	// UpdateStatus moves connections of one kind to new statuses, reporting failures per ID
	UpdateStatus(kind Kind, updates map[string]Status) map[string]error

	// CountByStatus returns the number of connections in each status
	CountByStatus() map[Status]int
}

// Ensure *Storage implements ConnectionStore interface
var _ ConnectionStore = (*Storage)(nil)
