package util

import (
	"reflect"
)

// NameOfType returns the name of v's type, dereferencing a pointer.
func NameOfType(v interface{}) string {
	typ := reflect.TypeOf(v)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	return typ.Name()
}
