package migrations

import (
	"errors"
	"fmt"
	"testing"

	"github.com/claimstake/console/internal/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// recordsItself inserts its own record inside the migration transaction, so
// the migrator's insert collides the way it would with a second runner.
type recordsItself struct {
	name string
}

func (m *recordsItself) Up(grm *gorm.DB) error {
	return grm.Create(&Migrations{Name: m.name}).Error
}

func (m *recordsItself) GetName() string {
	return m.name
}

type failing struct{}

func (m *failing) Up(grm *gorm.DB) error {
	return errors.New("boom")
}

func (m *failing) GetName() string {
	return "202601190100_failing"
}

func Test_Migrator(t *testing.T) {
	grm, err := sqlite.NewGormSqliteFromSqlite(sqlite.NewSqlite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())))
	assert.Nil(t, err)

	migrator, err := NewMigrator(grm, zap.NewNop())
	assert.Nil(t, err)

	t.Run("Runs every migration once", func(t *testing.T) {
		assert.Nil(t, migrator.MigrateAll())
		assert.True(t, grm.Migrator().HasTable("transaction_journal"))

		var count int64
		grm.Model(&Migrations{}).Count(&count)
		assert.Equal(t, int64(len(AllMigrations())), count)
	})
	t.Run("A migration recorded concurrently is not an error", func(t *testing.T) {
		assert.Nil(t, migrator.Migrate(&recordsItself{name: "202601190000_recordsItself"}))

		var count int64
		grm.Model(&Migrations{}).Where("name = ?", "202601190000_recordsItself").Count(&count)
		assert.Equal(t, int64(0), count)
	})
	t.Run("Failing migrations are rolled back", func(t *testing.T) {
		err := migrator.Migrate(&failing{})
		assert.NotNil(t, err)

		var count int64
		grm.Model(&Migrations{}).Where("name = ?", "202601190100_failing").Count(&count)
		assert.Equal(t, int64(0), count)
	})
	t.Run("Running again is a no-op", func(t *testing.T) {
		assert.Nil(t, migrator.MigrateAll())

		var count int64
		grm.Model(&Migrations{}).Count(&count)
		assert.Equal(t, int64(len(AllMigrations())), count)
	})
}
