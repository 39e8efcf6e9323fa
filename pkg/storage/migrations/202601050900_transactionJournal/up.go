package _202601050900_transactionJournal

import (
	"github.com/claimstake/console/pkg/storage"
	"gorm.io/gorm"
)

type Migration struct {
}

func (m *Migration) Up(grm *gorm.DB) error {
	return grm.AutoMigrate(&storage.JournalEntry{})
}

func (m *Migration) GetName() string {
	return "202601050900_transactionJournal"
}
