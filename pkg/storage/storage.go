package storage

import (
	"time"
)

type JournalStatus string

const (
	JournalStatus_Pending   JournalStatus = "pending"
	JournalStatus_Confirmed JournalStatus = "confirmed"
	JournalStatus_Failed    JournalStatus = "failed"
)

// JournalStore records every submitted transaction and how it resolved.
// Entries are informational; nothing reads them back to resubmit.
type JournalStore interface {
	// AppendEntry inserts a new entry and returns it with its id populated.
	AppendEntry(entry *JournalEntry) (*JournalEntry, error)

	// ResolveEntry moves a pending entry to its final status.
	//
	// @param id: The id returned from AppendEntry
	// @param status: JournalStatus_Confirmed or JournalStatus_Failed
	// @param reason: Display message for failures, empty otherwise
	// @param blockNumber: Block the receipt was included in, 0 if unknown
	ResolveEntry(id uint64, status JournalStatus, reason string, blockNumber uint64) error

	ListEntriesForAccount(account string, limit int) ([]*JournalEntry, error)
	ListEntriesForAction(actionId string) ([]*JournalEntry, error)
	Close() error
}

// Tables.
type JournalEntry struct {
	ID              uint64 `gorm:"primaryKey;autoIncrement"`
	ActionId        string `gorm:"index"`
	Kind            string
	Step            string
	Account         string `gorm:"index"`
	TransactionHash string
	Status          JournalStatus
	Reason          string
	BlockNumber     uint64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (JournalEntry) TableName() string {
	return "transaction_journal"
}

// NoopJournalStore is used when no journal driver is configured.
type NoopJournalStore struct{}

func NewNoopJournalStore() *NoopJournalStore {
	return &NoopJournalStore{}
}

func (n *NoopJournalStore) AppendEntry(entry *JournalEntry) (*JournalEntry, error) {
	return entry, nil
}

func (n *NoopJournalStore) ResolveEntry(id uint64, status JournalStatus, reason string, blockNumber uint64) error {
	return nil
}

func (n *NoopJournalStore) ListEntriesForAccount(account string, limit int) ([]*JournalEntry, error) {
	return []*JournalEntry{}, nil
}

func (n *NoopJournalStore) ListEntriesForAction(actionId string) ([]*JournalEntry, error) {
	return []*JournalEntry{}, nil
}

func (n *NoopJournalStore) Close() error {
	return nil
}
