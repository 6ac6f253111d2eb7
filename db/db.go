// Small helpers over db-tagged structs for building SELECT column lists.
package db

import (
	"reflect"
	"strings"
)

// GetCols returns the db column names of a struct in field order, skipping
// fields tagged db:"-". Panics on non-struct input since it is only ever
// called on package-level type literals.
func GetCols(s any) []string {
	t := reflect.TypeOf(s)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		panic("db.GetCols: not a struct")
	}

	var cols []string

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("db")

		if tag == "" || tag == "-" {
			continue
		}

		// Strip tag options such as ",omitempty"
		if comma := strings.Index(tag, ","); comma != -1 {
			tag = tag[:comma]
		}

		cols = append(cols, tag)
	}

	return cols
}
