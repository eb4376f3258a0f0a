package validation

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"adventure-editor/model"
)

const (
	// DefaultCacheTTL è la scadenza di default delle entry in cache
	DefaultCacheTTL = 30 * time.Second
	// defaultCacheSize limita il numero di risultati memorizzati
	defaultCacheSize = 64
)

// ResultCache memorizza i risultati di validazione per fingerprint.
// Le entry scadono con il TTL della LRU e vengono svuotate in blocco
// quando una regola viene aggiunta o rimossa.
type ResultCache struct {
	lru *expirable.LRU[string, *Result]
}

// NewResultCache crea una cache con il TTL indicato (0 = default)
func NewResultCache(ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ResultCache{
		lru: expirable.NewLRU[string, *Result](defaultCacheSize, nil, ttl),
	}
}

// Get restituisce una copia profonda del risultato memorizzato.
// Mai il puntatore originale: il chiamante può mutare ciò che riceve
// senza corrompere la cache.
func (c *ResultCache) Get(key string) (*Result, bool) {
	res, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	clone := res.Clone()
	clone.FromCache = true
	return clone, true
}

// Put memorizza un risultato (clonato, per lo stesso motivo di Get)
func (c *ResultCache) Put(key string, res *Result) {
	c.lru.Add(key, res.Clone())
}

// Purge svuota l'intera cache
func (c *ResultCache) Purge() {
	c.lru.Purge()
}

// Len restituisce il numero di entry correnti
func (c *ResultCache) Len() int {
	return c.lru.Len()
}

// Fingerprint calcola la chiave di cache per avventura + opzioni.
// Hash strutturale a campi espliciti con chiavi ordinate: il risultato
// non dipende dall'ordine di inserimento nelle map, solo dai campi che
// influenzano la validità.
func Fingerprint(adv *model.Adventure, opts Options) string {
	pairs := []string{
		"title=" + adv.Title,
		"start=" + adv.StartScene,
		fmt.Sprintf("scenes=%d", len(adv.Scenes)),
		fmt.Sprintf("stats=%d", len(adv.Stats)),
		fmt.Sprintf("modified=%d", adv.ModifiedAt.UnixNano()),
		fmt.Sprintf("opt.include_context=%t", opts.IncludeContext),
	}
	sort.Strings(pairs)

	sum := sha256.Sum256([]byte(strings.Join(pairs, "\n")))
	return hex.EncodeToString(sum[:])
}
