package rdx

import (
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"homestay/globals"
)

var Conn *redis.Client

// Init dials Redis. The cache and event bus are optional: when Redis is
// down every helper degrades to a no-op and requests still succeed.
func Init() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	Conn = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	if err := Conn.Ping(globals.Ctx).Err(); err != nil {
		log.Printf("Redis unreachable at %s (%v); cache disabled", addr, err)
	}
}

func RdxGet(key string) (string, error) {
	if Conn == nil {
		return "", nil
	}
	return Conn.Get(globals.Ctx, key).Result()
}

func RdxSet(key, value string) error {
	if Conn == nil {
		return nil
	}
	return Conn.Set(globals.Ctx, key, value, 10*time.Minute).Err()
}

func RdxDel(key string) error {
	if Conn == nil {
		return nil
	}
	return Conn.Del(globals.Ctx, key).Err()
}

func Close() {
	if Conn != nil {
		_ = Conn.Close()
	}
}
