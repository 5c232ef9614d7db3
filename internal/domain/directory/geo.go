package directory

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Country is a resolved geo country
type Country struct {
	ID   uuid.UUID
	Code string
	Name string
}

// Region is a resolved geo region within a country
type Region struct {
	ID        uuid.UUID
	Code      string
	Name      string
	CountryID uuid.UUID
}

// City is a resolved geo city. Coordinates are kept as decimals so they
// round-trip the database without float drift.
type City struct {
	ID        uuid.UUID
	Code      string
	Name      string
	RegionID  *uuid.UUID
	CountryID uuid.UUID
	Lat       decimal.Decimal
	Lng       decimal.Decimal
}
