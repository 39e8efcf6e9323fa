package helpers

import "gorm.io/gorm"

// WrapTxAndCommit runs fn inside tx, or inside a new transaction when tx is
// nil. Only a transaction opened here is committed or rolled back here.
func WrapTxAndCommit[T any](fn func(*gorm.DB) (T, error), db *gorm.DB, tx *gorm.DB) (T, error) {
	exists := tx != nil

	if !exists {
		tx = db.Begin()
		if tx.Error != nil {
			var zero T
			return zero, tx.Error
		}
	}

	res, err := fn(tx)

	if err != nil && !exists {
		tx.Rollback()
	}
	if err == nil && !exists {
		if commitErr := tx.Commit().Error; commitErr != nil {
			return res, commitErr
		}
	}
	return res, err
}
