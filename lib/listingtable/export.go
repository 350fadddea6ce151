package listingtable

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

type column struct {
	name    string
	numeric bool
	get     func(r Record) string
	set     func(r *Record, cell string) error
}

func textColumn(name string, field func(r *Record) *string) column {
	return column{
		name: name,
		get:  func(r Record) string { return *field(&r) },
		set: func(r *Record, cell string) error {
			*field(r) = cell
			return nil
		},
	}
}

func intColumn(name string, field func(r *Record) *sql.Null[int64]) column {
	return column{
		name:    name,
		numeric: true,
		get:     func(r Record) string { return formatInt(*field(&r)) },
		set: func(r *Record, cell string) error {
			v, err := parseIntCell(cell)
			*field(r) = v
			return err
		},
	}
}

var columns = []column{
	{
		name: "id",
		get:  func(r Record) string { return strconv.Itoa(r.ID) },
		set: func(r *Record, cell string) (err error) {
			r.ID, err = strconv.Atoi(cell)
			return err
		},
	},
	textColumn("title", func(r *Record) *string { return &r.Title }),
	{
		name:    "price",
		numeric: true,
		get:     func(r Record) string { return formatFloat(r.Price) },
		set: func(r *Record, cell string) (err error) {
			r.Price, err = parseFloatCell(cell)
			return err
		},
	},
	intColumn("year", func(r *Record) *sql.Null[int64] { return &r.Year }),
	intColumn("age", func(r *Record) *sql.Null[int64] { return &r.Age }),
	textColumn("brand", func(r *Record) *string { return &r.Brand }),
	textColumn("link", func(r *Record) *string { return &r.Link }),
	textColumn("detail_title", func(r *Record) *string { return &r.DetailTitle }),
	textColumn("condition", func(r *Record) *string { return &r.Condition }),
	textColumn("drivetrain", func(r *Record) *string { return &r.Drivetrain }),
	textColumn("fuel", func(r *Record) *string { return &r.Fuel }),
	textColumn("color", func(r *Record) *string { return &r.Color }),
	textColumn("title_status", func(r *Record) *string { return &r.TitleStatus }),
	textColumn("transmission", func(r *Record) *string { return &r.Transmission }),
	textColumn("body_type", func(r *Record) *string { return &r.BodyType }),
	textColumn("cylinders", func(r *Record) *string { return &r.Cylinders }),
	intColumn("miles", func(r *Record) *sql.Null[int64] { return &r.Miles }),
	intColumn("posted_year", func(r *Record) *sql.Null[int64] { return &r.PostedYear }),
	textColumn("status", func(r *Record) *string { return &r.Status }),
	textColumn("description", func(r *Record) *string { return &r.Description }),
}

// Columns is the header row of an export, in order.
func Columns() []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.name
	}
	return names
}

func lookupColumn(name string) (column, bool) {
	for _, c := range columns {
		if c.name == name {
			return c, true
		}
	}
	return column{}, false
}

// Cells renders a record in Columns order.
func (r Record) Cells() []string {
	cells := make([]string, len(columns))
	for i, c := range columns {
		cells[i] = c.get(r)
	}
	return cells
}

// Write encodes the header and records as CSV.
func Write(w io.Writer, records []Record) error {
	out := csv.NewWriter(w)
	err := out.Write(Columns())
	if err != nil {
		return err
	}
	for _, r := range records {
		err = out.Write(r.Cells())
		if err != nil {
			return err
		}
	}
	out.Flush()
	return out.Error()
}

// WriteCSV replaces the file at path with the export. The file is written
// next to its destination and renamed into place.
func WriteCSV(path string, records []Record) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	err = Write(tmp, records)
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Chmod(0644)
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Close()
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

var ErrHeaderMismatch = errors.New("csv header does not match the export columns")

// Read decodes an export produced by Write.
func Read(r io.Reader) ([]Record, error) {
	in := csv.NewReader(r)
	in.FieldsPerRecord = len(columns)

	header, err := in.Read()
	if err == io.EOF {
		return nil, ErrHeaderMismatch
	}
	if err != nil {
		return nil, err
	}
	for i, name := range Columns() {
		if header[i] != name {
			return nil, fmt.Errorf("%w: column %d is %q, expected %q", ErrHeaderMismatch, i, header[i], name)
		}
	}

	records := []Record{}
	for line := 2; ; line++ {
		row, err := in.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		var rec Record
		var errs []error
		for i, c := range columns {
			err := c.set(&rec, row[i])
			if err != nil {
				errs = append(errs, fmt.Errorf("line %d, column %s: %w", line, c.name, err))
			}
		}
		if len(errs) > 0 {
			return nil, errors.Join(errs...)
		}
		records = append(records, rec)
	}
	return records, nil
}

func ReadCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}
