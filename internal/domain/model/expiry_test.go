package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysRemaining(t *testing.T) {
	assert.Equal(t, 1, DaysRemaining(testNow.Add(time.Hour), testNow))
	assert.Equal(t, 0, DaysRemaining(testNow, testNow))
	assert.Equal(t, 0, DaysRemaining(testNow.Add(-time.Hour), testNow))
	assert.Equal(t, -1, DaysRemaining(testNow.Add(-25*time.Hour), testNow))
	assert.Equal(t, 30, DaysRemaining(testNow.Add(30*24*time.Hour), testNow))
}

func TestIsExpired(t *testing.T) {
	assert.False(t, IsExpired(nil, testNow))
	assert.True(t, IsExpired(ptr(testNow.Add(-time.Minute)), testNow))
	assert.False(t, IsExpired(ptr(testNow.Add(time.Minute)), testNow))
}

func TestIsExpiringSoon(t *testing.T) {
	assert.False(t, IsExpiringSoon(nil, testNow, 7))
	assert.True(t, IsExpiringSoon(ptr(testNow.Add(3*24*time.Hour)), testNow, 7))
	assert.False(t, IsExpiringSoon(ptr(testNow.Add(8*24*time.Hour)), testNow, 7))
	assert.True(t, IsExpiringSoon(ptr(testNow.Add(8*24*time.Hour)), testNow, 30))
	assert.False(t, IsExpiringSoon(ptr(testNow.Add(-time.Hour)), testNow, 7))
	assert.True(t, IsExpiringSoon(ptr(testNow.Add(6*24*time.Hour)), testNow, 0))
}
