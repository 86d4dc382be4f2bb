package globals

import (
	"context"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

var (
	jwtOnce   sync.Once
	jwtSecret []byte
)

// JwtSecret resolves the signing key on first use. Package init runs
// before main can load .env, so the lookup has to wait until a token is
// actually signed or verified.
func JwtSecret() []byte {
	jwtOnce.Do(func() {
		_ = godotenv.Load()
		s := os.Getenv("JWT_SECRET")
		if s == "" {
			s = "dev_secret_change_me"
		}
		jwtSecret = []byte(s)
	})
	return jwtSecret
}

// Context keys
type ContextKey string

const RoleKey ContextKey = "role"
const UserIDKey ContextKey = "userId"

var Ctx = context.Background()
