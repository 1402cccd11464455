package driver

import (
	"strconv"
	"sync/atomic"
)

// metrics counts per-batch outcomes. A nil *metrics ignores updates.
type metrics struct {
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
	failed      atomic.Int64
}

func (m *metrics) hit() {
	if m != nil {
		m.cacheHits.Add(1)
	}
}

func (m *metrics) miss() {
	if m != nil {
		m.cacheMisses.Add(1)
	}
}

func (m *metrics) fail() {
	if m != nil {
		m.failed.Add(1)
	}
}

func (m *metrics) extras() map[string]string {
	return map[string]string{
		"cache_hits":   strconv.FormatInt(m.cacheHits.Load(), 10),
		"cache_misses": strconv.FormatInt(m.cacheMisses.Load(), 10),
		"failed":       strconv.FormatInt(m.failed.Load(), 10),
	}
}
