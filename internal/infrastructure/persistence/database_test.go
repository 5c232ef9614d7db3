package persistence

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: conn, DriverName: "postgres"}), &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	require.NoError(t, err)
	db, err := wrap(gdb)
	require.NoError(t, err)
	return db, mock
}

func TestDatabase_PingAndClose(t *testing.T) {
	db, mock := newMockDatabase(t)

	mock.ExpectPing()
	mock.ExpectPing().WillReturnError(assert.AnError)
	mock.ExpectClose()

	assert.NoError(t, db.Ping())
	assert.ErrorIs(t, db.Ping(), assert.AnError)
	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_StatsCollector(t *testing.T) {
	db, _ := newMockDatabase(t)
	t.Cleanup(func() { _ = db.Close() })

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(db.StatsCollector("mozillians")))

	n, err := testutil.GatherAndCount(reg, "go_sql_open_connections")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDatabase_EnableTracing(t *testing.T) {
	db, _ := newMockDatabase(t)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.EnableTracing("mozillians"))
	_, ok := db.DB.Config.Plugins["otelgorm"]
	assert.True(t, ok)

	assert.Error(t, db.EnableTracing("mozillians"))
}
