package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClock_AdvanceAndAt(t *testing.T) {
	epoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New(epoch, time.Hour)

	assert.Equal(t, int64(0), c.Now().Ticks())
	c.Advance(3)
	assert.Equal(t, int64(3), c.Now().Ticks())
	assert.Equal(t, epoch.Add(3*time.Hour), c.At(c.Now()))
}

func TestClock_PeriodHours(t *testing.T) {
	c := New(time.Time{}, 30*time.Minute)
	assert.InDelta(t, 0.5, c.PeriodHours(), 1e-9)
}
