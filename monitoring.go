package rscache

type CacheStats struct {
	Rows            int
	Records         int
	UnpopulatedRows int
	Queries         int
}

func (c *Cache[T]) Stats() CacheStats {
	s := CacheStats{
		Rows:    c.tree.Len(),
		Records: len(c.byID),
		Queries: len(c.queries),
	}
	c.tree.Ascend(func(tok *RecordToken) bool {
		if q := c.queryByLabel(tok.Query); q != nil && q.IsUnpopulated(tok.Fields) {
			s.UnpopulatedRows++
		}
		return true
	})
	return s
}

func (c *Cache[T]) queryByLabel(label string) Query[T] {
	for _, q := range c.queries {
		if q.UniqueLabel() == label {
			return q
		}
	}
	return nil
}

// Stats returns the stats of every registered cache, by label.
func (m *Manager[T]) Stats() map[string]CacheStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]CacheStats, len(m.order))
	for _, label := range m.order {
		out[label] = m.caches[label].Stats()
	}
	return out
}
