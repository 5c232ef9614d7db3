package models

import (
	"github.com/google/uuid"
	"github.com/mozillians/backend/internal/domain/directory"
	"github.com/shopspring/decimal"
)

// CountryModel is the persistence model for a geo country.
type CountryModel struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key"`
	Code string    `gorm:"type:varchar(16);not null;uniqueIndex"`
	Name string    `gorm:"type:varchar(255);not null"`
}

// TableName returns the table name for GORM
func (CountryModel) TableName() string {
	return "geo_countries"
}

// ToDomain converts the persistence model to a domain Country.
func (m *CountryModel) ToDomain() *directory.Country {
	return &directory.Country{ID: m.ID, Code: m.Code, Name: m.Name}
}

// RegionModel is the persistence model for a geo region.
type RegionModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	Code      string    `gorm:"type:varchar(64);not null"`
	Name      string    `gorm:"type:varchar(255);not null"`
	CountryID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (RegionModel) TableName() string {
	return "geo_regions"
}

// ToDomain converts the persistence model to a domain Region.
func (m *RegionModel) ToDomain() *directory.Region {
	return &directory.Region{ID: m.ID, Code: m.Code, Name: m.Name, CountryID: m.CountryID}
}

// CityModel is the persistence model for a geo city.
type CityModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	Code      string          `gorm:"type:varchar(64);not null"`
	Name      string          `gorm:"type:varchar(255);not null"`
	RegionID  *uuid.UUID      `gorm:"type:uuid;index"`
	CountryID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Lat       decimal.Decimal `gorm:"type:decimal(9,6);not null;default:0"`
	Lng       decimal.Decimal `gorm:"type:decimal(9,6);not null;default:0"`
}

// TableName returns the table name for GORM
func (CityModel) TableName() string {
	return "geo_cities"
}

// ToDomain converts the persistence model to a domain City.
func (m *CityModel) ToDomain() *directory.City {
	return &directory.City{
		ID:        m.ID,
		Code:      m.Code,
		Name:      m.Name,
		RegionID:  m.RegionID,
		CountryID: m.CountryID,
		Lat:       m.Lat,
		Lng:       m.Lng,
	}
}
