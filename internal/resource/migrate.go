package resource

import (
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates the table of T and the unique indexes of def.
// It backs the database.migrate=auto mode used in development and tests.
func AutoMigrate[T any, P EntityPtr[T], I any](db *gorm.DB, def Definition[T, P, I]) error {
	model := P(new(T))
	if err := db.AutoMigrate(model); err != nil {
		return fmt.Errorf("auto migrate %s: %w", def.Name, err)
	}

	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return fmt.Errorf("parse %s model: %w", def.Name, err)
	}
	table := stmt.Schema.Table

	names := make([]string, 0, len(def.UniqueKeys))
	for name := range def.UniqueKeys {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cols := def.UniqueKeys[name]
		sql := fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s)", name, table, strings.Join(cols, ", "))
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("create index %s: %w", name, err)
		}
	}
	return nil
}
