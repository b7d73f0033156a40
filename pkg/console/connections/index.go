package connections

import "sync"

// Index is the in-memory view of the connections table. Storage keeps it in
// step with badger and serves every read from it.
type Index struct {
	mu          sync.RWMutex
	connections map[string]Connection
}

func NewIndex() *Index {
	return &Index{
		connections: make(map[string]Connection),
	}
}

func copyConnection(c Connection) Connection {
	if c.Metadata != nil {
		metadata := make(map[string]interface{}, len(c.Metadata))
		for k, v := range c.Metadata {
			metadata[k] = v
		}
		c.Metadata = metadata
	}
	return c
}

func (idx *Index) Get(id string) (Connection, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	c, ok := idx.connections[id]
	if !ok {
		return Connection{}, false
	}
	return copyConnection(c), true
}

func (idx *Index) Set(c Connection) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.connections[c.ID] = copyConnection(c)
}

func (idx *Index) Delete(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.connections, id)
}

func (idx *Index) List() []Connection {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	result := make([]Connection, 0, len(idx.connections))
	for _, c := range idx.connections {
		result = append(result, copyConnection(c))
	}
	return result
}

// Replace swaps the whole index for the given connections.
func (idx *Index) Replace(all []Connection) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.connections = make(map[string]Connection, len(all))
	for _, c := range all {
		idx.connections[c.ID] = copyConnection(c)
	}
}

func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.connections)
}
