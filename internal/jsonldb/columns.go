// Describes row types in the header line of a table file.

package jsonldb

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/maruel/ksid"
)

var errSchemaVersionRequired = errors.New("schema version is required")

// currentVersion is written to new files. Files with another major version
// are refused.
const currentVersion = "1.1"

type columnType string

const (
	columnTypeID     columnType = "id"
	columnTypeText   columnType = "text"
	columnTypeNumber columnType = "number"
	columnTypeBool   columnType = "bool"
	columnTypeDate   columnType = "date"
	columnTypeRows   columnType = "rows"
	columnTypeJSON   columnType = "json"
)

type column struct {
	Name        string     `json:"name"`
	Type        columnType `json:"type"`
	Required    bool       `json:"required,omitempty"`
	Enum        []string   `json:"enum,omitempty"`
	Description string     `json:"description,omitempty"`
	// Columns describes the elements of a "rows" column.
	Columns []column `json:"columns,omitempty"`
}

// schemaHeader is line 1 of a table file.
type schemaHeader struct {
	Version string   `json:"version"`
	Columns []column `json:"columns"`
}

// Validate refuses headers this package can't read.
func (h *schemaHeader) Validate() error {
	if h.Version == "" {
		return errSchemaVersionRequired
	}
	if major, _, _ := strings.Cut(h.Version, "."); major != "1" {
		return fmt.Errorf("unsupported schema version %q", h.Version)
	}
	return validateColumns(h.Columns, "")
}

func validateColumns(cols []column, prefix string) error {
	seen := make(map[string]bool, len(cols))
	for i, c := range cols {
		switch {
		case c.Name == "":
			return fmt.Errorf("column %s%d: name is required", prefix, i)
		case c.Type == "":
			return fmt.Errorf("column %s%s: type is required", prefix, c.Name)
		case seen[c.Name]:
			return fmt.Errorf("column %s%s: duplicate", prefix, c.Name)
		}
		seen[c.Name] = true
		if err := validateColumns(c.Columns, prefix+c.Name+"."); err != nil {
			return err
		}
	}
	return nil
}

// schemaFromType describes the JSON fields of T, a struct or a pointer to
// one, in declaration order. Descriptions and enums come from the
// `jsonschema` struct tags.
func schemaFromType[T any]() ([]column, error) {
	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("row type must be a struct, got %s", t.Kind())
	}
	r := jsonschema.Reflector{Anonymous: true, DoNotReference: true}
	return describe(t, r.ReflectFromType(t)), nil
}

func describe(t reflect.Type, s *jsonschema.Schema) []column {
	fields := make(map[string]reflect.Type, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		if name := jsonName(&f); name != "" {
			fields[name] = f.Type
		}
	}
	required := make(map[string]bool, len(s.Required))
	for _, name := range s.Required {
		required[name] = true
	}
	var cols []column
	for p := s.Properties.Oldest(); p != nil; p = p.Next() {
		c := column{
			Name:        p.Key,
			Type:        columnTypeText,
			Required:    required[p.Key],
			Description: p.Value.Description,
		}
		for _, v := range p.Value.Enum {
			c.Enum = append(c.Enum, fmt.Sprint(v))
		}
		if ft, ok := fields[p.Key]; ok {
			c.Type = typeOf(ft)
			if c.Type == columnTypeRows && p.Value.Items != nil {
				c.Columns = describe(ft.Elem(), p.Value.Items)
			}
		}
		cols = append(cols, c)
	}
	return cols
}

// jsonName returns the encoded name of f, or "" when it isn't encoded.
func jsonName(f *reflect.StructField) string {
	if !f.IsExported() {
		return ""
	}
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

func typeOf(t reflect.Type) columnType {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t {
	case reflect.TypeFor[ksid.ID]():
		return columnTypeID
	case reflect.TypeFor[time.Time]():
		return columnTypeDate
	}
	//nolint:exhaustive // Everything else is stored as text.
	switch t.Kind() {
	case reflect.Bool:
		return columnTypeBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return columnTypeNumber
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Struct {
			return columnTypeRows
		}
		return columnTypeJSON
	case reflect.Struct, reflect.Array, reflect.Map:
		return columnTypeJSON
	default:
		return columnTypeText
	}
}
