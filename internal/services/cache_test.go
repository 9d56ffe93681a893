package services

import (
	"testing"

	"camelsrating/internal/camels"

	"github.com/stretchr/testify/assert"
)

func TestResultCacheEviction(t *testing.T) {
	c := newResultCache(2)
	a, b, d := &camels.Result{}, &camels.Result{}, &camels.Result{}

	c.add("a", a)
	c.add("b", b)

	// Touch "a" so "b" is the least recently used entry
	got, ok := c.get("a")
	assert.True(t, ok)
	assert.Same(t, a, got)

	c.add("d", d)
	assert.Equal(t, 2, c.len())

	_, ok = c.get("b")
	assert.False(t, ok)
	_, ok = c.get("a")
	assert.True(t, ok)
	_, ok = c.get("d")
	assert.True(t, ok)
}

func TestResultCacheReplace(t *testing.T) {
	c := newResultCache(2)
	first, second := &camels.Result{}, &camels.Result{}

	c.add("k", first)
	c.add("k", second)
	assert.Equal(t, 1, c.len())

	got, _ := c.get("k")
	assert.Same(t, second, got)
}

func TestResultCacheDisabled(t *testing.T) {
	c := newResultCache(0)
	assert.Nil(t, c)

	c.add("k", &camels.Result{})
	_, ok := c.get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.len())
}
