package sqlite

import (
	"github.com/zjrosen/tabula/internal/table"
)

// RowModel represents the database row for the rows table.
type RowModel struct {
	Position int
	RowID    int
	Content  string
}

// toRowModels converts table rows to database models, keyed by position.
func toRowModels(rows []table.Row) []RowModel {
	models := make([]RowModel, len(rows))
	for i, r := range rows {
		models[i] = RowModel{Position: i, RowID: r.ID, Content: r.Content}
	}
	return models
}

// toDomain converts a database RowModel to a table.Row.
func (m RowModel) toDomain() table.Row {
	return table.Row{ID: m.RowID, Content: m.Content}
}
