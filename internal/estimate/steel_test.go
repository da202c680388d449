package estimate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitWeight(t *testing.T) {
	assert.InDelta(t, 0.395, UnitWeight(8), 1e-3)
	assert.InDelta(t, 0.889, UnitWeight(12), 1e-3)
	assert.InDelta(t, 2.469, UnitWeight(20), 1e-3)
}

func TestCalculateSteel(t *testing.T) {
	res, err := CalculateSteel(SteelInput{
		Bars: []SteelBar{
			{Label: "Slab bottom", DiameterMM: 12, LengthM: 12, Count: 10},
			{Label: "Stirrups", DiameterMM: 8, LengthM: 6, Count: 20},
			{Label: "Extra top", DiameterMM: 12, LengthM: 3, Count: 4},
		},
		WastagePercent: 10,
	})
	require.NoError(t, err)

	require.Len(t, res.Lines, 3)
	assert.InDelta(t, 106.667, res.Lines[0].WeightKg, 1e-9)

	require.Len(t, res.ByDiameter, 2)
	assert.Equal(t, 8, res.ByDiameter[0].DiameterMM)
	assert.InDelta(t, 120.0, res.ByDiameter[0].TotalLengthM, 1e-9)
	assert.InDelta(t, 47.407, res.ByDiameter[0].WeightKg, 1e-9)
	assert.Equal(t, 12, res.ByDiameter[1].DiameterMM)
	assert.InDelta(t, 132.0, res.ByDiameter[1].TotalLengthM, 1e-9)
	assert.InDelta(t, 117.333, res.ByDiameter[1].WeightKg, 1e-9)

	assert.InDelta(t, 252.0, res.TotalLengthM, 1e-9)
	assert.InDelta(t, 164.741, res.NetWeightKg, 1e-9)
	assert.InDelta(t, 181.215, res.TotalWeightKg, 1e-9)
	assert.InDelta(t, 0.181, res.TotalTonnes, 1e-9)
}

func TestCalculateSteelErrors(t *testing.T) {
	_, err := CalculateSteel(SteelInput{})
	assert.Error(t, err)

	_, err = CalculateSteel(SteelInput{Bars: []SteelBar{{DiameterMM: 11, LengthM: 1, Count: 1}}})
	var ie *InputError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "bars[0].diameter_mm", ie.Field)

	_, err = CalculateSteel(SteelInput{Bars: []SteelBar{{DiameterMM: 10, LengthM: 1, Count: 0}}})
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "bars[0].count", ie.Field)

	_, err = CalculateSteel(SteelInput{Bars: []SteelBar{{DiameterMM: 10, LengthM: -1, Count: 1}}})
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "bars[0].length_m", ie.Field)
}
