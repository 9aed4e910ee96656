package generator

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/memegen/memebot/internal/redis"
)

// Cache is satisfied by *redis.Client.
type Cache interface {
	Lookup(ctx context.Context, key string) (string, bool, error)
	Store(ctx context.Context, key, value string, ttl time.Duration) error
}

// CachedTranslator memoizes translations. Cache failures fall through to
// the wrapped translator.
type CachedTranslator struct {
	next  Translator
	cache Cache
	ttl   time.Duration
}

func NewCachedTranslator(next Translator, cache Cache, ttl time.Duration) *CachedTranslator {
	return &CachedTranslator{next: next, cache: cache, ttl: ttl}
}

func (t *CachedTranslator) Translate(ctx context.Context, text, target string) (string, error) {
	key := redis.TranslationKey(target, text)

	cached, ok, err := t.cache.Lookup(ctx, key)
	if err != nil {
		log.Warn().Err(err).Msg("translation cache lookup failed")
	} else if ok {
		return cached, nil
	}

	translated, err := t.next.Translate(ctx, text, target)
	if err != nil {
		return "", err
	}

	if err := t.cache.Store(ctx, key, translated, t.ttl); err != nil {
		log.Warn().Err(err).Msg("translation cache store failed")
	}
	return translated, nil
}
