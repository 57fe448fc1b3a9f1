package database

import (
	"database/sql"
	"fmt"
	"reflect"
)

// Reflection helpers shared by the SQLite and MySQL backends. Columns are
// mapped through `db:` struct tags; table and column names always come from
// application code, only values are parameterized.

// structToInsert extracts column names, placeholders and values from a
// struct using `db:` tags. Fields tagged db:"-" are skipped.
func structToInsert(record any) (cols, placeholders []string, vals []any) {
	v := reflect.ValueOf(record)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		cols = append(cols, tag)
		placeholders = append(placeholders, "?")
		vals = append(vals, v.Field(i).Interface())
	}
	return
}

// structToUpdate extracts column/value pairs (excluding the id column).
func structToUpdate(record any) (cols []string, vals []any) {
	v := reflect.ValueOf(record)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("db")
		if tag == "" || tag == "-" || tag == "id" {
			continue
		}
		cols = append(cols, tag)
		vals = append(vals, v.Field(i).Interface())
	}
	return
}

// scanRows scans sql.Rows into a slice of structs using `db:` tags.
func scanRows(rows *sql.Rows, dest any) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr || dv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("Select: dest must be a pointer to a slice")
	}
	sliceVal := dv.Elem()
	elemType := sliceVal.Type().Elem()
	isPtr := elemType.Kind() == reflect.Ptr
	if isPtr {
		elemType = elemType.Elem()
	}

	for rows.Next() {
		elem := reflect.New(elemType).Elem()
		ptrs := fieldPointers(elem, cols)
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		if isPtr {
			sliceVal.Set(reflect.Append(sliceVal, elem.Addr()))
		} else {
			sliceVal.Set(reflect.Append(sliceVal, elem))
		}
	}
	return rows.Err()
}

// scanRow scans a single sql.Row into dest struct in field order.
func scanRow(row *sql.Row, dest any) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr {
		return fmt.Errorf("Get: dest must be a pointer")
	}
	elem := dv.Elem()
	var ptrs []any
	for i := 0; i < elem.NumField(); i++ {
		if tag := elem.Type().Field(i).Tag.Get("db"); tag != "" && tag != "-" {
			ptrs = append(ptrs, elem.Field(i).Addr().Interface())
		}
	}
	return row.Scan(ptrs...)
}

// fieldPointers maps column names to struct field pointers via `db:` tags.
// Unknown columns are scanned into a discard target.
func fieldPointers(elem reflect.Value, cols []string) []any {
	tagMap := map[string]any{}
	t := elem.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("db")
		if tag != "" && tag != "-" {
			tagMap[tag] = elem.Field(i).Addr().Interface()
		}
	}
	ptrs := make([]any, len(cols))
	for i, c := range cols {
		if p, ok := tagMap[c]; ok {
			ptrs[i] = p
		} else {
			var discard any
			ptrs[i] = &discard
		}
	}
	return ptrs
}
