package io

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/pipeline"
)

// WriteJSON encodes records as an indented JSON array.
func WriteJSON(w io.Writer, records []pipeline.Record) error {
	if records == nil {
		records = []pipeline.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// WriteFailures writes a CSV report with one row per failed record:
// index, id, code and message.
func WriteFailures(w io.Writer, failures []pipeline.Failure) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"index", "id", "code", "message"}); err != nil {
		return err
	}
	for _, f := range failures {
		row := []string{
			strconv.Itoa(f.Index),
			strconv.FormatInt(f.ID, 10),
			string(errors.GetCode(f.Err)),
			errors.UserMessage(f.Err),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
