package color

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForUser_Deterministic(t *testing.T) {
	a := ForUser("usr-V1StGXR8_Z5jdHi6B-myT")
	b := ForUser("usr-V1StGXR8_Z5jdHi6B-myT")
	assert.Equal(t, a, b)
}

func TestForUser_FromPalette(t *testing.T) {
	ids := []string{"usr-a", "usr-b", "usr-c", "", "usr-longer-identifier-here"}
	for _, id := range ids {
		assert.Contains(t, palette, ForUser(id))
	}
}
