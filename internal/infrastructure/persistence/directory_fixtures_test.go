package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mozillians/backend/internal/domain/directory"
	"github.com/mozillians/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupDirectoryTestDB creates an in-memory SQLite database with the directory tables
func setupDirectoryTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	// every connection to :memory: is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(
		&models.CountryModel{},
		&models.RegionModel{},
		&models.CityModel{},
		&models.ProfileModel{},
		&models.ExternalAccountModel{},
		&models.LanguageModel{},
		&models.GroupModel{},
		&models.GroupMembershipModel{},
		&models.SkillModel{},
		&models.APIAppModel{},
	)
	require.NoError(t, err)
	return db
}

var testEpoch = time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

// newTestProfile builds a complete profile that joined at testEpoch
func newTestProfile(t *testing.T, username, fullName string) *directory.Profile {
	t.Helper()
	p, err := directory.NewProfile(username, username+"@example.com")
	require.NoError(t, err)
	require.NoError(t, p.SetFullName(fullName))
	p.DateJoined = testEpoch
	p.CreatedAt = testEpoch
	p.UpdatedAt = testEpoch
	return p
}

// saveProfile runs the save preparation and persists the profile
func saveProfile(t *testing.T, repo *GormProfileRepository, p *directory.Profile) {
	t.Helper()
	p.PrepareSave()
	require.NoError(t, repo.Save(context.Background(), p))
	p.ClearDomainEvents()
}

func publicSettings() directory.PrivacySettings {
	s := directory.DefaultPrivacySettings()
	s.FullName = directory.PrivacyPublic
	return s
}

func saveCountry(t *testing.T, db *gorm.DB, code, name string) *directory.Country {
	t.Helper()
	m := &models.CountryModel{ID: uuid.New(), Code: code, Name: name}
	require.NoError(t, db.Create(m).Error)
	return m.ToDomain()
}
