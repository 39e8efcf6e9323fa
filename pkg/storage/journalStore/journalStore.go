package journalStore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/claimstake/console/internal/config"
	"github.com/claimstake/console/internal/sqlite"
	"github.com/claimstake/console/pkg/postgres"
	"github.com/claimstake/console/pkg/storage"
	"github.com/claimstake/console/pkg/storage/migrations"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultListLimit = 50

// GormJournalStore persists journal entries through gorm. The same store
// serves both the sqlite and postgres drivers.
type GormJournalStore struct {
	Db     *gorm.DB
	Logger *zap.Logger
}

func NewGormJournalStore(db *gorm.DB, l *zap.Logger) (*GormJournalStore, error) {
	js := &GormJournalStore{
		Db:     db,
		Logger: l,
	}
	migrator, err := migrations.NewMigrator(db, l)
	if err != nil {
		return nil, err
	}
	if err := migrator.MigrateAll(); err != nil {
		return nil, fmt.Errorf("failed to migrate transaction journal: %w", err)
	}
	return js, nil
}

// NewJournalStoreFromConfig opens the journal selected by journal.driver.
func NewJournalStoreFromConfig(cfg *config.Config, l *zap.Logger) (storage.JournalStore, error) {
	if err := cfg.ValidateJournalConfig(); err != nil {
		return nil, err
	}

	switch cfg.JournalConfig.Driver {
	case config.JournalDriver_Sqlite:
		grm, err := sqlite.NewGormSqliteFromSqlite(sqlite.NewSqlite(cfg.JournalConfig.SqlitePath))
		if err != nil {
			l.Sugar().Errorw("Failed to open sqlite journal", zap.Error(err))
			return nil, err
		}
		return NewGormJournalStore(grm, l)
	case config.JournalDriver_Postgres:
		pgConfig := postgres.PostgresConfigFromDbConfig(&cfg.DatabaseConfig)
		pgConfig.CreateDbIfNotExists = true

		pg, err := postgres.NewPostgres(pgConfig)
		if err != nil {
			l.Sugar().Errorw("Failed to setup postgres connection", zap.Error(err))
			return nil, err
		}
		grm, err := postgres.NewGormFromPostgresConnection(pg.Db)
		if err != nil {
			l.Sugar().Errorw("Failed to create gorm instance", zap.Error(err))
			return nil, err
		}
		return NewGormJournalStore(grm, l)
	}
	return storage.NewNoopJournalStore(), nil
}

func (s *GormJournalStore) AppendEntry(entry *storage.JournalEntry) (*storage.JournalEntry, error) {
	if entry == nil {
		return nil, errors.New("journal entry is nil")
	}
	if entry.Status == "" {
		entry.Status = storage.JournalStatus_Pending
	}
	entry.Account = strings.ToLower(entry.Account)
	entry.TransactionHash = strings.ToLower(entry.TransactionHash)

	res := s.Db.Model(&storage.JournalEntry{}).Clauses(clause.Returning{}).Create(entry)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to insert journal entry for transaction '%s': %w", entry.TransactionHash, res.Error)
	}
	return entry, nil
}

func (s *GormJournalStore) ResolveEntry(id uint64, status storage.JournalStatus, reason string, blockNumber uint64) error {
	res := s.Db.Model(&storage.JournalEntry{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       status,
			"reason":       reason,
			"block_number": blockNumber,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to resolve journal entry '%d': %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("journal entry '%d' not found", id)
	}
	return nil
}

func (s *GormJournalStore) ListEntriesForAccount(account string, limit int) ([]*storage.JournalEntry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	entries := make([]*storage.JournalEntry, 0)
	res := s.Db.Model(&storage.JournalEntry{}).
		Where("account = ?", strings.ToLower(account)).
		Order("id desc").
		Limit(limit).
		Find(&entries)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", res.Error)
	}
	return entries, nil
}

func (s *GormJournalStore) ListEntriesForAction(actionId string) ([]*storage.JournalEntry, error) {
	entries := make([]*storage.JournalEntry, 0)
	res := s.Db.Model(&storage.JournalEntry{}).
		Where("action_id = ?", actionId).
		Order("id asc").
		Find(&entries)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to list journal entries for action: %w", res.Error)
	}
	return entries, nil
}

func (s *GormJournalStore) Close() error {
	db, err := s.Db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
