// Package redis connects a github.com/redis/go-redis/v9 client with retries
// and exposes a readiness probe. The marketplace uses it for the monthly
// external call meters.
package redis
