package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixed(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.FixedZone("CET", 3600))
	clk := NewFixed(at)

	assert.True(t, clk.Now().Equal(at))
	assert.Equal(t, time.UTC, clk.Now().Location())
	assert.Equal(t, clk.Now(), clk.Now())
}

func TestSystem_IsUTC(t *testing.T) {
	before := time.Now()
	got := NewSystem().Now()

	assert.Equal(t, time.UTC, got.Location())
	assert.False(t, got.Before(before.Add(-time.Second)))
}

func TestManual_AdvanceAndSet(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := NewManual(start)

	clk.Advance(90 * time.Second)
	assert.Equal(t, start.Add(90*time.Second), clk.Now())

	clk.Set(start)
	assert.Equal(t, start, clk.Now())
}
