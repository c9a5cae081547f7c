package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const signedURLPrefix = "mediaurl:"

// SignedURLs caches presigned media download links so repeated lookups of
// the same media do not re-sign on every request.  Entries carry a TTL
// shorter than the link's own validity so a cached URL is never handed out
// after it stops working.  With Redis down every lookup misses.
type SignedURLs struct {
	rdb *redis.Client // nil when Redis is down
}

func NewSignedURLs(rdb *redis.Client) *SignedURLs { return &SignedURLs{rdb: rdb} }

// Get returns the cached URL for the media id, or "" on a miss.
func (s *SignedURLs) Get(ctx context.Context, mediaID uint64) string {
	if s.rdb == nil {
		return ""
	}
	url, err := s.rdb.Get(ctx, signedURLPrefix+strconv.FormatUint(mediaID, 10)).Result()
	if err != nil {
		return ""
	}
	return url
}

// Put stores the URL for the media id.  Failures are swallowed: the next
// request simply signs again.
func (s *SignedURLs) Put(ctx context.Context, mediaID uint64, url string, ttl time.Duration) {
	if s.rdb == nil || ttl <= 0 {
		return
	}
	_ = s.rdb.Set(ctx, signedURLPrefix+strconv.FormatUint(mediaID, 10), url, ttl).Err()
}
