/*
 *     Copyright 2024 The Dragonfly Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package query

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/cache/v8"
	"github.com/go-redis/redis/v8"

	logger "github.com/astroquery/astroquery-go/internal/aqlog"
)

const (
	// DefaultCacheSize is the default number of responses kept in the local cache.
	DefaultCacheSize = 256

	// DefaultCacheTTL is the default ttl of cached responses.
	DefaultCacheTTL = 24 * time.Hour
)

// CacheConfig configures the response cache.
type CacheConfig struct {
	// Enable turns the response cache on.
	Enable bool `yaml:"enable" mapstructure:"enable"`

	// Size is the number of responses kept in the local TinyLFU cache.
	Size int `yaml:"size" mapstructure:"size"`

	// TTL is the time to live of cached responses.
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`

	// Redis enables a shared second tier when addresses are given.
	Redis RedisConfig `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig is the optional redis tier of the response cache.
type RedisConfig struct {
	Addrs      []string `yaml:"addrs" mapstructure:"addrs"`
	MasterName string   `yaml:"masterName" mapstructure:"masterName"`
	Username   string   `yaml:"username" mapstructure:"username"`
	Password   string   `yaml:"password" mapstructure:"password"`
	DB         int      `yaml:"db" mapstructure:"db"`
}

// Cache stores successful responses keyed by Request.CacheKey.
type Cache struct {
	*cache.Cache
	TTL time.Duration
}

// cachedResponse is the value stored in the cache.
type cachedResponse struct {
	StatusCode int
	Status     string
	Header     map[string][]string
	Body       []byte
}

// NewCache returns a response cache, or nil when the cache is disabled.
func NewCache(cfg CacheConfig) *Cache {
	if !cfg.Enable {
		return nil
	}

	if cfg.Size <= 0 {
		cfg.Size = DefaultCacheSize
	}

	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCacheTTL
	}

	options := &cache.Options{
		LocalCache: cache.NewTinyLFU(cfg.Size, cfg.TTL),
	}

	if len(cfg.Redis.Addrs) > 0 {
		options.Redis = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:      cfg.Redis.Addrs,
			MasterName: cfg.Redis.MasterName,
			Username:   cfg.Redis.Username,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
		})
	}

	return &Cache{
		Cache: cache.New(options),
		TTL:   cfg.TTL,
	}
}

// MakeCacheKey namespaces a request key.
func MakeCacheKey(key string) string {
	return fmt.Sprintf("astroquery:response:%s", key)
}

// Load returns the cached response of key.
func (c *Cache) Load(ctx context.Context, key string) (*Response, bool) {
	if c == nil {
		return nil, false
	}

	var value cachedResponse
	if err := c.Get(ctx, MakeCacheKey(key), &value); err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.Warnf("load response %s from cache failed: %s", key, err.Error())
		}

		return nil, false
	}

	return &Response{
		StatusCode: value.StatusCode,
		Status:     value.Status,
		Header:     http.Header(value.Header),
		Body:       value.Body,
		FromCache:  true,
	}, true
}

// Store caches resp under key.
func (c *Cache) Store(ctx context.Context, key string, resp *Response) error {
	if c == nil {
		return nil
	}

	return c.Set(&cache.Item{
		Ctx: ctx,
		Key: MakeCacheKey(key),
		Value: &cachedResponse{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Header:     resp.Header,
			Body:       resp.Body,
		},
		TTL: c.TTL,
	})
}

// Remove drops key from the cache.
func (c *Cache) Remove(ctx context.Context, key string) error {
	if c == nil {
		return nil
	}

	if err := c.Delete(ctx, MakeCacheKey(key)); err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		return err
	}

	return nil
}
