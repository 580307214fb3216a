package uuid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewHasNoURLUnsafeCharacters(t *testing.T) {
	id := New()
	assert.False(t, strings.ContainsAny(id, "+/"), "base64url substitution must replace both + and /")
}

func TestNewIsNotEmptyAndVariesAcrossCalls(t *testing.T) {
	a := New()
	b := New()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
