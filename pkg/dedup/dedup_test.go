package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestDeduper(ttl time.Duration, max int) (*Deduper, *clock) {
	c := &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	d := New(ttl, max)
	d.now = c.now
	return d, c
}

func TestShouldProcess_WithinTTL(t *testing.T) {
	d, c := newTestDeduper(time.Minute, 10)

	assert.True(t, d.ShouldProcess("a"))
	assert.False(t, d.ShouldProcess("a"))

	c.t = c.t.Add(61 * time.Second)
	assert.True(t, d.ShouldProcess("a"))
}

func TestShouldProcess_EmptyKey(t *testing.T) {
	d, _ := newTestDeduper(time.Minute, 10)
	assert.True(t, d.ShouldProcess(""))
	assert.True(t, d.ShouldProcess(""))
	assert.Equal(t, 0, d.Len())
}

func TestShouldProcess_EvictsOldestOverCapacity(t *testing.T) {
	d, c := newTestDeduper(time.Hour, 2)

	d.ShouldProcess("a")
	c.t = c.t.Add(time.Second)
	d.ShouldProcess("b")
	c.t = c.t.Add(time.Second)
	d.ShouldProcess("c")

	assert.Equal(t, 2, d.Len())
	assert.True(t, d.ShouldProcess("a"), "oldest key should have been evicted")
	assert.False(t, d.ShouldProcess("c"))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "evt-1", Key("evt-1", []byte("x")))
	assert.Equal(t, Key("", []byte("x")), Key("", []byte("x")))
	assert.NotEqual(t, Key("", []byte("x")), Key("", []byte("y")))
	assert.Len(t, Key("", nil), 64)
}
