package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hkao1210/A-PLUS-I/internal/model"
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aplus_document_cache_hits_total",
		Help: "Document metadata lookups served from the cache.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aplus_document_cache_misses_total",
		Help: "Document metadata lookups that went to the database.",
	})
)

// documentCache is an expiring LRU of document metadata. A nil cache stores nothing.
type documentCache struct {
	lru *expirable.LRU[model.DocumentID, *model.Document]
}

func newDocumentCache(size int, ttl time.Duration) *documentCache {
	if size <= 0 {
		return nil
	}
	return &documentCache{lru: expirable.NewLRU[model.DocumentID, *model.Document](size, nil, ttl)}
}

func (c *documentCache) get(id model.DocumentID) (*model.Document, bool) {
	if c == nil {
		return nil, false
	}
	doc, ok := c.lru.Get(id)
	if ok {
		cacheHitsTotal.Inc()
		return doc, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

func (c *documentCache) set(doc *model.Document) {
	if c == nil || doc == nil {
		return
	}
	c.lru.Add(doc.ID, doc)
}

func (c *documentCache) remove(id model.DocumentID) {
	if c == nil {
		return
	}
	c.lru.Remove(id)
}
