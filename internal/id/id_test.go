package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIsSortedAndUnique(t *testing.T) {
	seen := map[string]bool{}
	prev := ""
	for i := 0; i < 1000; i++ {
		v := New()
		assert.True(t, Valid(v))
		assert.False(t, seen[v], "duplicate id %s", v)
		seen[v] = true
		assert.Greater(t, v, prev)
		prev = v
	}
}

func TestValidRejectsGarbage(t *testing.T) {
	assert.False(t, Valid(""))
	assert.False(t, Valid("1700000000000"))
}
