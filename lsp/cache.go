// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package lsp

import (
	"sync"

	protocol "github.com/tliron/glsp/protocol_3_16"
	"golang.org/x/crypto/blake2b"
)

// maxDocuments bounds the cache; opening one more evicts the least recently updated.
const maxDocuments = 100

// Document is an open editor buffer and the diagnostics computed for it.
type Document struct {
	URI         string
	Text        string
	Hash        [blake2b.Size256]byte
	Diagnostics []protocol.Diagnostic

	touched uint64
}

// Cache holds open documents keyed by URI. An entry is recomputed only
// when the hash of the text changes.
type Cache struct {
	mu    sync.RWMutex
	docs  map[string]*Document
	clock uint64
	max   int
}

func NewCache() *Cache {
	return &Cache{docs: make(map[string]*Document), max: maxDocuments}
}

// Update stores text for uri and returns the cached document. fresh is
// true when the diagnostics had to be recomputed.
func (c *Cache) Update(uri, text string) (doc Document, fresh bool) {
	hash := blake2b.Sum256([]byte(text))

	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock++
	if d, ok := c.docs[uri]; ok && d.Hash == hash {
		d.touched = c.clock
		return *d, false
	}
	if _, ok := c.docs[uri]; !ok && len(c.docs) >= c.max {
		c.evictOldest()
	}
	d := &Document{
		URI:         uri,
		Text:        text,
		Hash:        hash,
		Diagnostics: Diagnose(text),
		touched:     c.clock,
	}
	c.docs[uri] = d
	return *d, true
}

// Get returns the document for uri.
func (c *Cache) Get(uri string) (Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.docs[uri]
	if !ok {
		return Document{}, false
	}
	return *d, true
}

func (c *Cache) Remove(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.docs, uri)
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

func (c *Cache) evictOldest() {
	var oldest *Document
	for _, d := range c.docs {
		if oldest == nil || d.touched < oldest.touched {
			oldest = d
		}
	}
	if oldest != nil {
		delete(c.docs, oldest.URI)
	}
}
