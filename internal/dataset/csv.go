package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/hrsight/hrsight/internal/schema"
)

// ReadCSV decodes the attrition CSV. Every descriptor column must be present
// in the header; extra columns are ignored.
func ReadCSV(r io.Reader, descriptor schema.Descriptor) ([]Employee, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv is empty")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	positions := make(map[string]int, len(header))
	for i, name := range header {
		column, ok := descriptor.Column(strings.TrimPrefix(name, "\ufeff"))
		if !ok {
			continue
		}
		if _, dup := positions[column.Name]; dup {
			return nil, fmt.Errorf("csv header repeats column %q", column.Name)
		}
		positions[column.Name] = i
	}

	type binding struct {
		column schema.Column
		pos    int
		field  int
	}
	bindings := make([]binding, 0, len(descriptor.Columns()))
	for _, column := range descriptor.Columns() {
		pos, ok := positions[column.Name]
		if !ok {
			return nil, fmt.Errorf("csv is missing column %q", column.Name)
		}
		field, ok := employeeFields[strings.ToLower(column.Name)]
		if !ok {
			return nil, fmt.Errorf("column %q has no employee field", column.Name)
		}
		bindings = append(bindings, binding{column: column, pos: pos, field: field})
	}

	rows := make([]Employee, 0)
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		var employee Employee
		value := reflect.ValueOf(&employee).Elem()
		for _, b := range bindings {
			raw := strings.TrimSpace(record[b.pos])
			field := value.Field(b.field)
			switch field.Kind() {
			case reflect.Int64:
				n, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					return nil, fmt.Errorf("line %d column %s: invalid integer %q", line, b.column.Name, raw)
				}
				field.SetInt(n)
			default:
				field.SetString(raw)
			}
		}
		rows = append(rows, employee)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("csv has no data rows")
	}
	return rows, nil
}
