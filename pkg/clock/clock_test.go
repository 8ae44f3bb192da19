package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFake_AdvanceFiresInDeadlineOrder(t *testing.T) {
	start := time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC)
	c := NewFake(start)

	var fired []string
	var seenAt []time.Time
	c.AfterFunc(2*time.Minute, func() { fired = append(fired, "b"); seenAt = append(seenAt, c.Now()) })
	c.AfterFunc(1*time.Minute, func() { fired = append(fired, "a"); seenAt = append(seenAt, c.Now()) })
	c.AfterFunc(10*time.Minute, func() { fired = append(fired, "late") })

	c.Advance(5 * time.Minute)

	assert.Equal(t, []string{"a", "b"}, fired)
	assert.Equal(t, []time.Time{start.Add(time.Minute), start.Add(2 * time.Minute)}, seenAt)
	assert.Equal(t, start.Add(5*time.Minute), c.Now())
	assert.Equal(t, 1, c.Pending())
}

func TestFake_StoppedTimerDoesNotFire(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	called := false
	tm := c.AfterFunc(time.Second, func() { called = true })

	assert.True(t, tm.Stop())
	assert.False(t, tm.Stop())
	c.Advance(time.Minute)
	assert.False(t, called)
}

func TestFake_CallbackCanRearm(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	count := 0
	var arm func()
	arm = func() {
		c.AfterFunc(time.Minute, func() {
			count++
			arm()
		})
	}
	arm()

	c.Advance(5*time.Minute + 30*time.Second)
	assert.Equal(t, 5, count)
}
