package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLatencyStats_Summary(t *testing.T) {
	s := &LatencyStats{}
	for i := 1; i <= 20; i++ {
		s.Add(true, time.Duration(i)*time.Millisecond)
	}
	s.Add(false, time.Second)

	sum := s.Summary()
	assert.Equal(t, 21, sum.Total)
	assert.Equal(t, 20, sum.Succeeded)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, time.Millisecond, sum.Min)
	assert.Equal(t, 20*time.Millisecond, sum.Max)
	assert.Equal(t, 10500*time.Microsecond, sum.Avg)
	assert.Equal(t, 10*time.Millisecond, sum.P50)
	assert.Equal(t, 19*time.Millisecond, sum.P95)
}

func TestLatencyStats_Empty(t *testing.T) {
	sum := (&LatencyStats{}).Summary()
	assert.Zero(t, sum.Total)
	assert.Zero(t, sum.Avg)
}
