package sqlite

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func Test_Sqlite(t *testing.T) {
	t.Run("Should create a new GormSqlite", func(t *testing.T) {
		s := NewSqlite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
		grm, err := NewGormSqliteFromSqlite(s)
		assert.Nil(t, err)
		assert.NotNil(t, grm)

		var fk int
		res := grm.Raw("PRAGMA foreign_keys").Scan(&fk)
		assert.Nil(t, res.Error)
		assert.Equal(t, 1, fk)

		db, err := grm.DB()
		assert.Nil(t, err)
		defer db.Close()
	})
}
