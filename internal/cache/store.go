package cache

import (
	"context"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/dkuaegis/aegis-study-client/pkg/errors"
)

// ErrCacheMiss marks an absent or expired entry.
var ErrCacheMiss error = apperrors.ErrCacheMiss

// Store abstracts persistence for cached query payloads. Implementations
// must return errors.ErrCacheMiss when the key is absent or expired.
type Store interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// Key builds a stable hierarchical cache key from a resource name and id
// segments, e.g. Key("studies", 7, "detail") -> "studies:7:detail".
// Dependent entries share prefixes so invalidation can target them together.
func Key(resource string, parts ...interface{}) string {
	segments := make([]string, 0, len(parts)+1)
	segments = append(segments, resource)
	for _, part := range parts {
		switch v := part.(type) {
		case string:
			segments = append(segments, v)
		case int64:
			segments = append(segments, strconv.FormatInt(v, 10))
		case int:
			segments = append(segments, strconv.Itoa(v))
		default:
			segments = append(segments, "?")
		}
	}
	return strings.Join(segments, ":")
}

// Pattern widens a key into a prefix pattern covering all descendants.
func Pattern(resource string, parts ...interface{}) string {
	return Key(resource, parts...) + ":*"
}
