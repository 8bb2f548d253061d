package sshexec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundedRing_UnderLimitNotTruncated(t *testing.T) {
	r := newBoundedRing(16)
	r.Write([]byte("hello"))
	text, truncated := r.Summary()
	assert.Equal(t, "hello", text)
	assert.False(t, truncated)
}

func TestBoundedRing_OverLimitKeepsTail(t *testing.T) {
	r := newBoundedRing(4)
	r.Write([]byte("abcdefgh"))
	text, truncated := r.Summary()
	assert.True(t, truncated)
	assert.Contains(t, text, "efgh")
	assert.Contains(t, text, "truncated")
}

func TestBoundedRing_MultipleWritesAccumulate(t *testing.T) {
	r := newBoundedRing(10)
	r.Write([]byte("abc"))
	r.Write([]byte("def"))
	text, truncated := r.Summary()
	assert.Equal(t, "abcdef", text)
	assert.False(t, truncated)
}
