package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Unit is a measurement unit a product is sold in
type Unit string

const (
	UnitKg     Unit = "kg"
	UnitGrams  Unit = "grams"
	UnitLiters Unit = "liters"
	UnitML     Unit = "ml"
	UnitPieces Unit = "pieces"
	UnitDozen  Unit = "dozen"
)

// UnitFamily groups units that convert among each other
type UnitFamily string

const (
	FamilyMass   UnitFamily = "mass"
	FamilyVolume UnitFamily = "volume"
	FamilyCount  UnitFamily = "count"
)

type unitSpec struct {
	family UnitFamily
	// baseUnits is how many family base units (kg, liters, pieces) one of this unit holds
	baseUnits decimal.Decimal
}

var unitTable = map[Unit]unitSpec{
	UnitKg:     {family: FamilyMass, baseUnits: decimal.NewFromInt(1)},
	UnitGrams:  {family: FamilyMass, baseUnits: decimal.New(1, -3)},
	UnitLiters: {family: FamilyVolume, baseUnits: decimal.NewFromInt(1)},
	UnitML:     {family: FamilyVolume, baseUnits: decimal.New(1, -3)},
	UnitPieces: {family: FamilyCount, baseUnits: decimal.NewFromInt(1)},
	UnitDozen:  {family: FamilyCount, baseUnits: decimal.NewFromInt(12)},
}

// Units lists every supported unit in display order
func Units() []Unit {
	return []Unit{UnitKg, UnitGrams, UnitLiters, UnitML, UnitPieces, UnitDozen}
}

// ParseUnit validates a free-form unit string against the closed set
func ParseUnit(s string) (Unit, error) {
	u := Unit(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := unitTable[u]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidUnit, s)
	}
	return u, nil
}

// Valid reports whether u belongs to the closed set
func (u Unit) Valid() bool {
	_, ok := unitTable[u]
	return ok
}

// Family returns the family of u
func (u Unit) Family() (UnitFamily, bool) {
	spec, ok := unitTable[u]
	return spec.family, ok
}

// Compatible reports whether u and other belong to the same family
func (u Unit) Compatible(other Unit) bool {
	a, okA := u.Family()
	b, okB := other.Family()
	return okA && okB && a == b
}

// ConvertQuantity normalizes q to the family base unit and scales it to the target unit.
// Converting across families fails with ErrIncompatibleUnit.
func ConvertQuantity(q decimal.Decimal, from, to Unit) (decimal.Decimal, error) {
	fromSpec, ok := unitTable[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidUnit, from)
	}
	toSpec, ok := unitTable[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidUnit, to)
	}
	if fromSpec.family != toSpec.family {
		return decimal.Zero, fmt.Errorf("%w: %s -> %s", ErrIncompatibleUnit, from, to)
	}
	if from == to {
		return q, nil
	}

	base := q.Mul(fromSpec.baseUnits)
	return base.Div(toSpec.baseUnits), nil
}
