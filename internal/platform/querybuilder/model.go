package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

// UpsertModel builds an INSERT ... ON CONFLICT (conflict) DO UPDATE that
// overwrites every non-conflict column except those in keep, then appends returning.
func UpsertModel(table string, model any, conflict []string, keep []string, returning string) (string, []any, error) {
	cols, vals, err := columnsAndValuesFromModel(model)
	if err != nil {
		return "", nil, err
	}
	if len(conflict) == 0 {
		return "", nil, fmt.Errorf("upsert conflict columns are required")
	}

	skip := make(map[string]struct{}, len(conflict)+len(keep))
	for _, c := range conflict {
		skip[c] = struct{}{}
	}
	for _, c := range keep {
		skip[c] = struct{}{}
	}

	updates := make([]string, 0, len(cols))
	for _, c := range cols {
		if _, ok := skip[c]; ok {
			continue
		}
		updates = append(updates, c+" = EXCLUDED."+c)
	}

	var suffix strings.Builder
	suffix.WriteString("ON CONFLICT (")
	suffix.WriteString(strings.Join(conflict, ", "))
	suffix.WriteString(")")
	if len(updates) == 0 {
		suffix.WriteString(" DO NOTHING")
	} else {
		suffix.WriteString(" DO UPDATE SET ")
		suffix.WriteString(strings.Join(updates, ", "))
	}
	if returning = strings.TrimSpace(returning); returning != "" {
		suffix.WriteString(" RETURNING ")
		suffix.WriteString(returning)
	}

	return InsertInto(table).
		Columns(cols...).
		Values(vals...).
		Suffix(suffix.String()).
		ToSQL()
}

func columnsAndValuesFromModel(model any) ([]string, []any, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model must be struct")
	}

	typ := value.Type()
	cols := make([]string, 0, typ.NumField())
	vals := make([]any, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if field.PkgPath != "" {
			continue
		}
		col := strings.TrimSpace(strings.Split(field.Tag.Get("db"), ",")[0])
		if col == "" || col == "-" {
			continue
		}
		if strings.Contains(field.Tag.Get("qb"), "readonly") {
			continue
		}
		cols = append(cols, col)
		vals = append(vals, value.Field(i).Interface())
	}

	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("model has no db columns")
	}
	return cols, vals, nil
}
