package sessions

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keeps sessions in Redis under "<collection>:<token>" as gzip-compressed
// JSON. Entries expire with the session. A Cache built on a nil client is
// disabled: every Get misses and writes are no-ops.
type Cache[S any, P Record[S]] struct {
	client *redis.Client
	kind   Kind
	now    func() time.Time
}

func NewCache[S any, P Record[S]](client *redis.Client) *Cache[S, P] {
	return &Cache[S, P]{client: client, kind: kindOf[S, P](), now: time.Now}
}

func (c *Cache[S, P]) Enabled() bool { return c != nil && c.client != nil }

func (c *Cache[S, P]) key(token string) string {
	return c.kind.Collection + ":" + token
}

func (c *Cache[S, P]) Set(ctx context.Context, s *S) error {
	if !c.Enabled() {
		return nil
	}
	ttl := P(s).ExpiresAt().Sub(c.now())
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	b, err := compress(raw)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(P(s).Token()), b, ttl).Err()
}

// Get returns (nil, nil) on a miss.
func (c *Cache[S, P]) Get(ctx context.Context, token string) (*S, error) {
	if !c.Enabled() {
		return nil, nil
	}
	b, err := c.client.Get(ctx, c.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	raw, err := decompress(b)
	if err != nil {
		return nil, fmt.Errorf("decode cached %s: %w", c.kind.Collection, err)
	}
	var s S
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode cached %s: %w", c.kind.Collection, err)
	}
	if expired(P(&s).ExpiresAt(), c.now()) {
		_ = c.client.Del(ctx, c.key(token)).Err()
		return nil, nil
	}
	return &s, nil
}

func (c *Cache[S, P]) Delete(ctx context.Context, tokens ...string) error {
	if !c.Enabled() || len(tokens) == 0 {
		return nil
	}
	keys := make([]string, len(tokens))
	for i, t := range tokens {
		keys[i] = c.key(t)
	}
	return c.client.Del(ctx, keys...).Err()
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// maxDecodedSize caps an inflated cache entry. Sessions are a few hundred bytes.
const maxDecodedSize = 1 << 20

var errEntryTooLarge = errors.New("cache entry exceeds size limit")

func decompress(data []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gz.Close()
	raw, err := io.ReadAll(io.LimitReader(gz, maxDecodedSize+1))
	if err != nil {
		return nil, err
	}
	if len(raw) > maxDecodedSize {
		return nil, errEntryTooLarge
	}
	return raw, nil
}
