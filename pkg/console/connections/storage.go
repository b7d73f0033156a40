package connections

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/garunski/conductor-console/pkg/console/database"
	apperrors "github.com/garunski/conductor-console/pkg/console/errors"
)

type Storage struct {
	// mu serializes writes so the index and badger never disagree
	mu     sync.Mutex
	db     *database.DB
	index  *Index
	logger logr.Logger
	now    func() time.Time
}

// NewStorage opens the connection store and loads every persisted connection
// into the in-memory index.
func NewStorage(db *database.DB, logger logr.Logger) (*Storage, error) {
	s := &Storage{
		db:     db,
		index:  NewIndex(),
		logger: logger,
		now:    time.Now,
	}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Storage) reload() error {
	items, err := s.db.List(keyPrefix)
	if err != nil {
		return apperrors.WrapStorage(err, "failed to load connections")
	}

	all := make([]Connection, 0, len(items))
	for key, data := range items {
		var c Connection
		if err := json.Unmarshal(data, &c); err != nil {
			s.logger.Error(err, "failed to unmarshal connection, skipping", "key", key)
			continue
		}
		all = append(all, c)
	}
	s.index.Replace(all)
	s.logger.V(1).Info("Loaded connections", "count", len(all))
	return nil
}

func (s *Storage) persist(c Connection) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal connection: %w", err)
	}
	if err := s.db.Set(connectionKey(c.ID), data); err != nil {
		return fmt.Errorf("db set: %w", err)
	}
	s.index.Set(c)
	return nil
}

func (s *Storage) Save(c Connection) (Connection, error) {
	if strings.TrimSpace(c.Name) == "" {
		return Connection{}, fmt.Errorf("%w: connection name cannot be empty", apperrors.ErrInvalid)
	}
	if c.Kind == "" {
		return Connection{}, fmt.Errorf("%w: connection kind cannot be empty", apperrors.ErrInvalid)
	}
	if c.Status != "" && !c.Status.Valid() {
		return Connection{}, fmt.Errorf("%w: unknown connection status %q", apperrors.ErrInvalid, c.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	// an update keeps its status unless the change is a legal transition
	if existing, ok := s.index.Get(c.ID); ok {
		if c.Status == "" {
			c.Status = existing.Status
		}
		if err := checkTransition(existing.Status, c.Status); err != nil {
			return Connection{}, fmt.Errorf("connection %s: %w", c.ID, err)
		}
		c.CreatedAt = existing.CreatedAt
	} else {
		if c.Status == "" {
			c.Status = StatusDiscovered
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
	}
	c.UpdatedAt = now

	if err := s.persist(c); err != nil {
		return Connection{}, err
	}
	return c, nil
}

func (s *Storage) Get(id string) (Connection, error) {
	c, ok := s.index.Get(id)
	if !ok {
		return Connection{}, fmt.Errorf("%w: connection %s", apperrors.ErrNotFound, id)
	}
	return c, nil
}

func (s *Storage) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.index.Get(id); !exists {
		return fmt.Errorf("%w: connection %s", apperrors.ErrNotFound, id)
	}

	if err := s.db.Delete(connectionKey(id)); err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("db delete: %w", err)
		}
		s.logger.Info("connection exists in index but not in DB, removing from index", "id", id)
	}

	s.index.Delete(id)
	return nil
}

func (s *Storage) UpdateStatus(kind Kind, updates map[string]Status) map[string]error {
	s.mu.Lock()
	defer s.mu.Unlock()

	failures := make(map[string]error)
	now := s.now().UTC()

	for id, status := range updates {
		c, ok := s.index.Get(id)
		if !ok {
			failures[id] = fmt.Errorf("%w: connection %s", apperrors.ErrNotFound, id)
			continue
		}
		if kind != "" && c.Kind != kind {
			failures[id] = fmt.Errorf("%w: connection %s is %s, not %s", apperrors.ErrInvalid, id, c.Kind, kind)
			continue
		}
		if err := checkTransition(c.Status, status); err != nil {
			failures[id] = err
			continue
		}
		if c.Status == status {
			continue
		}

		c.Status = status
		c.UpdatedAt = now
		if err := s.persist(c); err != nil {
			failures[id] = err
			continue
		}
		s.logger.V(1).Info("connection status changed", "id", id, "kind", kind, "status", status)
	}
	return failures
}

func (s *Storage) CountByStatus() map[Status]int {
	counts := make(map[Status]int)
	for _, c := range s.index.List() {
		counts[c.Status]++
	}
	return counts
}

func (s *Storage) List(opts ListOptions) (*Page, error) {
	less, err := parseOrder(opts.Order)
	if err != nil {
		return nil, err
	}

	var filtered []Connection
	for _, c := range s.index.List() {
		if opts.Kind != "" && c.Kind != opts.Kind {
			continue
		}
		if opts.Status != "" && c.Status != opts.Status {
			continue
		}
		if !c.matches(opts.Search) {
			continue
		}
		filtered = append(filtered, c)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if less(filtered[i], filtered[j]) {
			return true
		}
		if less(filtered[j], filtered[i]) {
			return false
		}
		return filtered[i].ID < filtered[j].ID
	})

	page := opts.Page
	if page < 0 {
		page = 0
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	result := &Page{
		Connections: []Connection{},
		Page:        page,
		PageSize:    pageSize,
		TotalCount:  len(filtered),
	}

	// pages past the end are empty; checked before multiplying so a huge
	// page cannot overflow the offset
	if page > len(filtered)/pageSize {
		return result, nil
	}
	offset := page * pageSize
	if offset >= len(filtered) {
		return result, nil
	}
	end := offset + pageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	result.Connections = filtered[offset:end]
	return result, nil
}

// parseOrder turns "field [asc|desc]" into a comparison.
func parseOrder(order string) (func(a, b Connection) bool, error) {
	if strings.TrimSpace(order) == "" {
		order = DefaultOrder
	}
	parts := strings.Fields(order)
	if len(parts) > 2 {
		return nil, fmt.Errorf("%w: invalid order %q", apperrors.ErrInvalidParameter, order)
	}

	desc := false
	if len(parts) == 2 {
		switch strings.ToLower(parts[1]) {
		case "asc":
		case "desc":
			desc = true
		default:
			return nil, fmt.Errorf("%w: invalid order direction %q", apperrors.ErrInvalidParameter, parts[1])
		}
	}

	var less func(a, b Connection) bool
	switch strings.ToLower(parts[0]) {
	case "name":
		less = func(a, b Connection) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case "kind":
		less = func(a, b Connection) bool { return a.Kind < b.Kind }
	case "status":
		less = func(a, b Connection) bool { return a.Status < b.Status }
	case "created_at":
		less = func(a, b Connection) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case "updated_at":
		less = func(a, b Connection) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	default:
		return nil, fmt.Errorf("%w: cannot order connections by %q", apperrors.ErrInvalidParameter, parts[0])
	}

	if desc {
		asc := less
		less = func(a, b Connection) bool { return asc(b, a) }
	}
	return less, nil
}
