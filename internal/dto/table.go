package dto

import "github.com/mathisdt/optigem-spoonfeeder/internal/core/domain"

// TableSummaryResponse defines the data returned when listing tables.
type TableSummaryResponse struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    int      `json:"rows"`
}

// TableResponse defines the full table contents.
type TableResponse struct {
	Name    string              `json:"name"`
	Columns []string            `json:"columns"`
	Rows    []map[string]string `json:"rows"`
}

// AddRowRequest defines the data needed to append one table row.
type AddRowRequest struct {
	Row map[string]string `json:"row" binding:"required"`
}

// SortTableRequest defines the columns to sort a table by.
type SortTableRequest struct {
	Columns []string `json:"columns" binding:"required,min=1"`
}

// ToTableSummaryResponse converts a domain.Table to its listing DTO.
func ToTableSummaryResponse(table *domain.Table) TableSummaryResponse {
	return TableSummaryResponse{
		Name:    table.Name(),
		Columns: table.ColumnNames(),
		Rows:    table.Size(),
	}
}

// ToTableResponse converts a domain.Table to its full-contents DTO.
func ToTableResponse(table *domain.Table) TableResponse {
	columns := table.ColumnNames()
	rows := make([]map[string]string, 0, table.Size())
	for _, row := range table.Rows() {
		cells := make(map[string]string, len(columns))
		for _, column := range columns {
			cells[column] = row.Get(column)
		}
		rows = append(rows, cells)
	}
	return TableResponse{Name: table.Name(), Columns: columns, Rows: rows}
}
