package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnit(t *testing.T) {
	u, err := ParseUnit(" KG ")
	require.NoError(t, err)
	assert.Equal(t, UnitKg, u)

	_, err = ParseUnit("crate")
	assert.ErrorIs(t, err, ErrInvalidUnit)
}

func TestConvertQuantity(t *testing.T) {
	tests := []struct {
		name string
		q    string
		from Unit
		to   Unit
		want string
	}{
		{"kg to grams", "2", UnitKg, UnitGrams, "2000"},
		{"grams to kg", "250", UnitGrams, UnitKg, "0.25"},
		{"liters to ml", "2", UnitLiters, UnitML, "2000"},
		{"dozen to pieces", "2", UnitDozen, UnitPieces, "24"},
		{"pieces to dozen", "18", UnitPieces, UnitDozen, "1.5"},
		{"same unit", "3.5", UnitKg, UnitKg, "3.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConvertQuantity(decimal.RequireFromString(tt.q), tt.from, tt.to)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestConvertQuantityRejectsCrossFamily(t *testing.T) {
	pairs := [][2]Unit{
		{UnitKg, UnitPieces},
		{UnitML, UnitGrams},
		{UnitDozen, UnitLiters},
	}
	for _, p := range pairs {
		_, err := ConvertQuantity(decimal.NewFromInt(1), p[0], p[1])
		assert.ErrorIs(t, err, ErrIncompatibleUnit, "%s -> %s", p[0], p[1])
	}

	_, err := ConvertQuantity(decimal.NewFromInt(1), UnitKg, "crate")
	assert.ErrorIs(t, err, ErrInvalidUnit)
}

func TestConvertQuantityRoundTrip(t *testing.T) {
	tolerance := decimal.New(1, -9)
	quantities := []string{"1", "2.5", "0.125", "7", "1000"}

	for _, from := range Units() {
		for _, to := range Units() {
			if !from.Compatible(to) {
				continue
			}
			for _, raw := range quantities {
				q := decimal.RequireFromString(raw)
				there, err := ConvertQuantity(q, from, to)
				require.NoError(t, err)
				back, err := ConvertQuantity(there, to, from)
				require.NoError(t, err)
				assert.True(t, back.Sub(q).Abs().LessThanOrEqual(tolerance),
					"%s %s -> %s -> %s gave %s", raw, from, to, from, back)
			}
		}
	}
}
