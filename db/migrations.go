package db

import (
	"fmt"

	"gorm.io/gorm"
)

// CreateMessageIndexes создает составные индексы для истории переписки.
// Диалог пары (A,B) читается двумя диапазонами по этим индексам,
// сводка диалогов - одним проходом по created_at DESC.
func CreateMessageIndexes(database *gorm.DB) error {
	indexes := []struct {
		name string
		sql  string
	}{
		{
			"idx_messages_pair_created_at",
			"CREATE INDEX IF NOT EXISTS idx_messages_pair_created_at ON messages (sender_id, receiver_id, created_at)",
		},
		{
			"idx_messages_created_at_desc",
			"CREATE INDEX IF NOT EXISTS idx_messages_created_at_desc ON messages (created_at DESC)",
		},
	}
	for _, idx := range indexes {
		if err := database.Exec(idx.sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}
	return nil
}
