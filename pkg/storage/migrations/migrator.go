package migrations

import (
	"errors"
	"fmt"
	"time"

	_202601050900_transactionJournal "github.com/claimstake/console/pkg/storage/migrations/202601050900_transactionJournal"
	_202601120930_journalAccountIndex "github.com/claimstake/console/pkg/storage/migrations/202601120930_journalAccountIndex"
	"github.com/claimstake/console/pkg/postgres"
	"github.com/claimstake/console/pkg/storage/helpers"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Migration interface {
	Up(grm *gorm.DB) error
	GetName() string
}

type Migrations struct {
	Name      string `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

var errAlreadyRecorded = errors.New("migration recorded by another process")

type Migrator struct {
	GDb    *gorm.DB
	Logger *zap.Logger
}

func NewMigrator(gDb *gorm.DB, l *zap.Logger) (*Migrator, error) {
	if err := gDb.AutoMigrate(&Migrations{}); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}
	return &Migrator{
		GDb:    gDb,
		Logger: l,
	}, nil
}

// AllMigrations lists every journal migration in the order they run.
func AllMigrations() []Migration {
	return []Migration{
		&_202601050900_transactionJournal.Migration{},
		&_202601120930_journalAccountIndex.Migration{},
	}
}

func (m *Migrator) MigrateAll() error {
	for _, migration := range AllMigrations() {
		if err := m.Migrate(migration); err != nil {
			return err
		}
	}
	return nil
}

// Migrate runs a migration once and records it in the same transaction.
func (m *Migrator) Migrate(migration Migration) error {
	name := migration.GetName()

	var migrationRecord Migrations
	result := m.GDb.Where("name = ?", name).Limit(1).Find(&migrationRecord)
	if result.Error != nil {
		m.Logger.Sugar().Errorw(fmt.Sprintf("Failed to find migration '%s'", name), zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected > 0 {
		m.Logger.Sugar().Debugf("Migration %s already run", name)
		return nil
	}

	m.Logger.Sugar().Infof("Running migration '%s'", name)
	_, err := helpers.WrapTxAndCommit(func(tx *gorm.DB) (*Migrations, error) {
		if err := migration.Up(tx); err != nil {
			return nil, err
		}
		record := &Migrations{Name: name}
		if res := tx.Create(record); res.Error != nil {
			if postgres.IsDuplicateKeyError(res.Error) {
				return nil, errAlreadyRecorded
			}
			return nil, res.Error
		}
		return record, nil
	}, m.GDb, nil)
	if errors.Is(err, errAlreadyRecorded) {
		m.Logger.Sugar().Infof("Migration '%s' was applied concurrently", name)
		return nil
	}
	if err != nil {
		m.Logger.Sugar().Errorw(fmt.Sprintf("Failed to run migration '%s'", name), zap.Error(err))
		return err
	}
	return nil
}
