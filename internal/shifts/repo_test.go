package shifts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/odrivera-dev/fleetrack-backend/pkg/db/models"
	"github.com/odrivera-dev/fleetrack-backend/pkg/enums"
)

func setupShiftsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	for _, table := range []string{"shift_assignments", "shift_templates", "drivers"} {
		require.NoError(t, db.Exec("DROP TABLE IF EXISTS "+table).Error)
	}

	statements := []string{
		`CREATE TABLE drivers (
  id TEXT PRIMARY KEY,
  full_name TEXT NOT NULL,
  license_number TEXT NOT NULL,
  phone TEXT,
  status TEXT NOT NULL DEFAULT 'available',
  status_updated_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE shift_templates (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  start_time TEXT NOT NULL,
  end_time TEXT NOT NULL,
  notes TEXT,
  created_at DATETIME
);`,
		`CREATE TABLE shift_assignments (
  id TEXT PRIMARY KEY,
  driver_id TEXT NOT NULL,
  template_id TEXT NOT NULL,
  date DATETIME NOT NULL,
  start_timestamp DATETIME NOT NULL,
  end_timestamp DATETIME NOT NULL,
  hours REAL NOT NULL,
  created_at DATETIME,
  CONSTRAINT shift_assignments_driver_template_date_key UNIQUE (driver_id, template_id, date)
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedShiftDriver(t *testing.T, db *gorm.DB) *models.Driver {
	t.Helper()

	driver := &models.Driver{
		ID:            uuid.New(),
		FullName:      "Shift Driver",
		LicenseNumber: "CDL-" + uuid.NewString()[:8],
		Status:        enums.DriverStatusAvailable,
	}
	require.NoError(t, db.Create(driver).Error)
	return driver
}

func seedTemplate(t *testing.T, db *gorm.DB, name, start, end string) *models.ShiftTemplate {
	t.Helper()

	template := &models.ShiftTemplate{
		ID:        uuid.New(),
		Name:      name,
		StartTime: start,
		EndTime:   end,
	}
	require.NoError(t, db.Create(template).Error)
	return template
}

func seedShift(t *testing.T, db *gorm.DB, driverID, templateID uuid.UUID, date time.Time, hours float64) *models.ShiftAssignment {
	t.Helper()

	start := date.Add(8 * time.Hour)
	shift := &models.ShiftAssignment{
		ID:             uuid.New(),
		DriverID:       driverID,
		TemplateID:     templateID,
		Date:           date,
		StartTimestamp: start,
		EndTimestamp:   start.Add(time.Duration(hours * float64(time.Hour))),
		Hours:          hours,
	}
	require.NoError(t, db.Create(shift).Error)
	return shift
}

func TestRepositoryShiftUniquePerDriverTemplateDate(t *testing.T) {
	db := setupShiftsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	driver := seedShiftDriver(t, db)
	template := seedTemplate(t, db, "Day", "08:00", "16:00")
	date := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)

	first := &models.ShiftAssignment{
		ID:             uuid.New(),
		DriverID:       driver.ID,
		TemplateID:     template.ID,
		Date:           date,
		StartTimestamp: date.Add(8 * time.Hour),
		EndTimestamp:   date.Add(16 * time.Hour),
		Hours:          8,
	}
	_, err := repo.CreateShiftAssignment(ctx, first)
	require.NoError(t, err)

	dup := *first
	dup.ID = uuid.New()
	_, err = repo.CreateShiftAssignment(ctx, &dup)
	require.Error(t, err)

	// Same template on a different date is fine.
	other := *first
	other.ID = uuid.New()
	other.Date = date.AddDate(0, 0, 1)
	_, err = repo.CreateShiftAssignment(ctx, &other)
	require.NoError(t, err)
}

func TestRepositoryFindShiftsByDriverInclusiveRange(t *testing.T) {
	db := setupShiftsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	driver := seedShiftDriver(t, db)
	template := seedTemplate(t, db, "Day", "08:00", "16:00")

	d1 := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC)
	d3 := time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC)
	seedShift(t, db, driver.ID, template.ID, d1, 8)
	seedShift(t, db, driver.ID, template.ID, d2, 8)
	seedShift(t, db, driver.ID, template.ID, d3, 8)

	rows, err := repo.FindShiftsByDriver(ctx, driver.ID, d1, d2)
	require.NoError(t, err)
	require.Len(t, rows, 2, "range bounds are inclusive")
	assert.True(t, rows[0].Date.Equal(d1))
	assert.True(t, rows[1].Date.Equal(d2))
}

func TestRepositorySumHours(t *testing.T) {
	db := setupShiftsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	driver := seedShiftDriver(t, db)
	other := seedShiftDriver(t, db)
	day := seedTemplate(t, db, "Day", "08:00", "16:00")
	night := seedTemplate(t, db, "Night", "22:00", "06:00")

	d1 := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC)
	seedShift(t, db, driver.ID, day.ID, d1, 8)
	seedShift(t, db, driver.ID, night.ID, d1, 8)
	seedShift(t, db, driver.ID, day.ID, d2, 7.5)
	seedShift(t, db, other.ID, day.ID, d1, 8)

	total, count, err := repo.SumHours(ctx, driver.ID, d1, d2)
	require.NoError(t, err)
	assert.Equal(t, 23.5, total)
	assert.Equal(t, int64(3), count)

	// Empty range sums to zero.
	total, count, err = repo.SumHours(ctx, driver.ID, d1.AddDate(0, 1, 0), d2.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Zero(t, count)
}

func TestRepositoryDeleteShiftAssignment(t *testing.T) {
	db := setupShiftsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	driver := seedShiftDriver(t, db)
	template := seedTemplate(t, db, "Day", "08:00", "16:00")
	shift := seedShift(t, db, driver.ID, template.ID, time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC), 8)

	require.NoError(t, repo.DeleteShiftAssignment(ctx, shift.ID))

	_, err := repo.FindShiftByID(ctx, shift.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryDriverExists(t *testing.T) {
	db := setupShiftsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	driver := seedShiftDriver(t, db)

	exists, err := repo.DriverExists(ctx, driver.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.DriverExists(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, exists)
}
