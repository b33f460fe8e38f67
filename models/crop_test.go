package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCropInSeason(t *testing.T) {
	maize := Crop{Name: "Maize", StartMonth: 3, EndMonth: 5}
	assert.False(t, maize.InSeason(2))
	assert.True(t, maize.InSeason(3))
	assert.True(t, maize.InSeason(5))
	assert.False(t, maize.InSeason(6))

	yearRound := Crop{Name: "Kales", StartMonth: 1, EndMonth: 12}
	for month := 1; month <= 12; month++ {
		assert.True(t, yearRound.InSeason(month), "month %d", month)
	}
}

func TestCropInSeasonWrapAround(t *testing.T) {
	wheat := Crop{Name: "Wheat", StartMonth: 10, EndMonth: 3}

	assert.True(t, wheat.InSeason(10))
	assert.True(t, wheat.InSeason(12))
	assert.True(t, wheat.InSeason(1))
	assert.True(t, wheat.InSeason(3))
	assert.False(t, wheat.InSeason(4))
	assert.False(t, wheat.InSeason(9))
}
