package _202601120930_journalAccountIndex

import (
	"gorm.io/gorm"
)

type Migration struct {
}

func (m *Migration) Up(grm *gorm.DB) error {
	query := `create index if not exists idx_transaction_journal_account_id on transaction_journal (account, id)`
	res := grm.Exec(query)
	return res.Error
}

func (m *Migration) GetName() string {
	return "202601120930_journalAccountIndex"
}
