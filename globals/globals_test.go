package globals

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJwtSecretReadsEnvAtFirstUse(t *testing.T) {
	t.Setenv("JWT_SECRET", "configured_after_package_init")

	// the env var was set after package init ran; a first-use lookup
	// must still pick it up instead of the dev default
	assert.Equal(t, []byte("configured_after_package_init"), JwtSecret())

	// resolved once, stable afterwards
	t.Setenv("JWT_SECRET", "changed_later")
	assert.Equal(t, []byte("configured_after_package_init"), JwtSecret())
}
