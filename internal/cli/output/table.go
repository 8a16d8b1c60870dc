package output

import (
	"fmt"
	"io"
	"reflect"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
)

// Table is a pre-shaped set of rows.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Render writes the table with tab-aligned columns.
func (t *Table) Render(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if !noHeaders && len(t.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// Tabular is implemented by results that choose their own columns.
type Tabular interface {
	Table(wide bool) *Table
}

// TableFormatter formats data as an aligned text table.
//
// Struct fields may carry a `table:"NAME"` tag to rename the column,
// `table:"NAME,wide"` to show it only in wide mode, or `table:"-"` to hide it.
type TableFormatter struct {
	Wide      bool
	NoHeaders bool
}

// Format formats data as a table.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	if data == nil {
		return nil
	}
	switch d := data.(type) {
	case *Table:
		return d.Render(w, f.NoHeaders)
	case Table:
		return d.Render(w, f.NoHeaders)
	case Tabular:
		return d.Table(f.Wide).Render(w, f.NoHeaders)
	}

	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Struct:
		return structTable(v, f.Wide).Render(w, f.NoHeaders)
	case reflect.Slice, reflect.Array:
		if t, ok := sliceTable(v, f.Wide); ok {
			return t.Render(w, f.NoHeaders)
		}
	}
	_, err := fmt.Fprintln(w, FormatValue(v))
	return err
}

type column struct {
	index int
	name  string
}

func columns(t reflect.Type, wide bool) []column {
	var cols []column
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := strings.ToUpper(field.Name)
		if tag, ok := field.Tag.Lookup("table"); ok {
			parts := strings.Split(tag, ",")
			if parts[0] == "-" {
				continue
			}
			if parts[0] != "" {
				name = parts[0]
			}
			if len(parts) > 1 && parts[1] == "wide" && !wide {
				continue
			}
		}
		cols = append(cols, column{index: i, name: name})
	}
	return cols
}

func structTable(v reflect.Value, wide bool) *Table {
	t := &Table{Headers: []string{"FIELD", "VALUE"}}
	for _, c := range columns(v.Type(), wide) {
		t.Rows = append(t.Rows, []string{c.name, FormatValue(v.Field(c.index))})
	}
	return t
}

func sliceTable(v reflect.Value, wide bool) (*Table, bool) {
	elem := v.Type().Elem()
	for elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}
	if elem.Kind() != reflect.Struct {
		return nil, false
	}
	cols := columns(elem, wide)
	t := &Table{}
	for _, c := range cols {
		t.Headers = append(t.Headers, c.name)
	}
	for i := 0; i < v.Len(); i++ {
		item := v.Index(i)
		for item.Kind() == reflect.Ptr {
			item = item.Elem()
		}
		row := make([]string, 0, len(cols))
		for _, c := range cols {
			if !item.IsValid() {
				row = append(row, "")
				continue
			}
			row = append(row, FormatValue(item.Field(c.index)))
		}
		t.Rows = append(t.Rows, row)
	}
	return t, true
}

var (
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
)

// FormatValue renders a single cell.
func FormatValue(v reflect.Value) string {
	if !v.IsValid() {
		return ""
	}
	switch v.Type() {
	case durationType:
		return time.Duration(v.Int()).String()
	case timeType:
		tm := v.Interface().(time.Time)
		if tm.IsZero() {
			return "-"
		}
		return humanize.Time(tm)
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return "-"
		}
		return FormatValue(v.Elem())
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return fmt.Sprintf("%q", v.Bytes())
		}
	case reflect.Float32, reflect.Float64:
		return humanize.FormatFloat("#,###.##", v.Float())
	}
	if s, ok := v.Interface().(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(v.Interface())
}
