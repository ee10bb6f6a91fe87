package io

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/pipeline"
)

// Format names a record file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown record file type %q (want .json or .csv)", filepath.Ext(path))
}

// ReadJSON decodes a JSON array of records from r.
// Unknown fields are rejected so typos in keys do not silently drop data.
func ReadJSON(r io.Reader) ([]pipeline.Record, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var records []pipeline.Record
	if err := dec.Decode(&records); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode records")
	}
	return records, nil
}

// ReadCSV decodes id,name rows from r.
func ReadCSV(r io.Reader) ([]pipeline.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var records []pipeline.Record
	for first := true; ; first = false {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read csv")
		}
		// Physical line of the row's first field; quoted fields may span lines.
		line, _ := cr.FieldPos(0)
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		if len(row) > 2 {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "line %d: want 2 columns (id,name), got %d", line, len(row))
		}

		id, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
		if err != nil {
			if first {
				continue // header
			}
			return nil, errors.New(errors.ErrCodeInvalidFormat, "line %d: invalid id %q", line, row[0])
		}
		rec := pipeline.Record{ID: id}
		if len(row) == 2 {
			rec.Name = row[1]
		}
		records = append(records, rec)
	}
	return records, nil
}

// Read decodes records from r in the given format.
func Read(r io.Reader, format Format) ([]pipeline.Record, error) {
	switch format {
	case FormatJSON:
		return ReadJSON(r)
	case FormatCSV:
		return ReadCSV(r)
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown record format %q", format)
}

// ImportRecords reads the record file at path. "-" reads JSON from stdin.
func ImportRecords(path string) ([]pipeline.Record, error) {
	if path == "-" {
		return ReadJSON(os.Stdin)
	}
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "record file %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return Read(f, format)
}
