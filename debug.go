package rscache

import (
	"fmt"
	"strings"
)

type DumpFlags uint64

const (
	DumpHeaders = DumpFlags(1 << iota)
	DumpStats
	DumpQueries
	DumpRows

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)
)

var (
	dumpSep1 = strings.Repeat("=", 80)
	dumpSep2 = strings.Repeat("-", 60)
)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

func (c *Cache[T]) Dump(f DumpFlags) string {
	var buf strings.Builder
	c.dump(&buf, f)
	return buf.String()
}

func (c *Cache[T]) dump(w *strings.Builder, f DumpFlags) {
	prefix := c.name
	if prefix == "" {
		prefix = "cache"
	}
	if f.Contains(DumpHeaders) {
		fmt.Fprintln(w, dumpSep1)
		fmt.Fprintf(w, "%s (%d rows)\n", prefix, c.tree.Len())
	}
	if f.Contains(DumpStats) {
		s := c.Stats()
		fmt.Fprintf(w, "%s.stats: records = %d, unpopulated = %d, queries = %d\n", prefix, s.Records, s.UnpopulatedRows, s.Queries)
	}
	if f.Contains(DumpQueries) {
		for i, q := range c.queries {
			var sorts []string
			for _, sd := range q.SortDefinitions() {
				s := sd.Field
				if sd.Descending {
					s += " desc"
				}
				sorts = append(sorts, s)
			}
			fmt.Fprintf(w, "%s.q%d: %s by %s\n", prefix, i+1, q.UniqueLabel(), strings.Join(sorts, ", "))
		}
	}
	if f.Contains(DumpRows) {
		if f.Contains(DumpStats) || f.Contains(DumpQueries) {
			fmt.Fprintln(w, dumpSep2)
		}
		var pos int
		c.tree.Ascend(func(tok *RecordToken) bool {
			pos++
			fmt.Fprintf(w, "%s.%d = %s\n", prefix, pos, tok)
			return true
		})
	}
}

func (m *Manager[T]) Dump(f DumpFlags) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var buf strings.Builder
	for _, label := range m.order {
		m.caches[label].dump(&buf, f)
	}
	return buf.String()
}
