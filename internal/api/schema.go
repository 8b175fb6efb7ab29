package api

import (
	"net/http"

	"github.com/hrsight/hrsight/internal/schema"
)

type schemaColumn struct {
	Name   string   `json:"name"`
	Kind   string   `json:"kind"`
	Values []string `json:"values,omitempty"`
}

type schemaResponse struct {
	Table   string         `json:"table"`
	Columns []schemaColumn `json:"columns"`
	Rules   []string       `json:"rules"`
	Hint    string         `json:"hint"`
}

func handleSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	descriptor := schema.Employees
	if deps.Pipeline != nil {
		descriptor = deps.Pipeline.Descriptor()
	}

	columns := make([]schemaColumn, 0)
	for _, column := range descriptor.Columns() {
		columns = append(columns, schemaColumn{
			Name:   column.Name,
			Kind:   string(column.Kind),
			Values: column.Values,
		})
	}
	writeJSON(w, http.StatusOK, schemaResponse{
		Table:   descriptor.Table(),
		Columns: columns,
		Rules:   descriptor.TypingRules(),
		Hint:    descriptor.Hint(),
	})
}
