package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Decode reads every row of r. Rows that fail validation are reported as
// RowErrors and skipped; the remaining rows are returned in input order.
// A header row, if present, is recognised and skipped. Only a failure of the
// underlying reader stops decoding early.
func Decode(r io.Reader) ([]DraftRecord, []RowError) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var drafts []DraftRecord
	var rowErrors []RowError

	first := true
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				rowErrors = append(rowErrors, RowError{Line: parseErr.StartLine, Err: parseErr.Err})
				first = false
				continue
			}
			rowErrors = append(rowErrors, RowError{Line: 0, Err: fmt.Errorf("read csv: %w", err)})
			break
		}

		line, _ := cr.FieldPos(0)
		if first {
			first = false
			if isHeader(record) {
				continue
			}
		}
		if isBlank(record) {
			continue
		}

		draft, err := ParseRecord(record, line)
		if err != nil {
			var rowErr RowError
			if !errors.As(err, &rowErr) {
				rowErr = RowError{Line: line, Err: err}
			}
			rowErrors = append(rowErrors, rowErr)
			continue
		}
		drafts = append(drafts, *draft)
	}

	return drafts, rowErrors
}

// DecodeString is Decode over an in-memory document
func DecodeString(s string) ([]DraftRecord, []RowError) {
	return Decode(strings.NewReader(s))
}

// ParseRow parses a single textual CSV row that started on the given line
func ParseRow(text string, line int) (*DraftRecord, error) {
	cr := csv.NewReader(strings.NewReader(text))
	cr.FieldsPerRecord = -1

	record, err := cr.Read()
	if err == io.EOF {
		return nil, RowError{Line: line, Err: ErrMissingName}
	}
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			err = parseErr.Err
		}
		return nil, RowError{Line: line, Err: err}
	}
	return ParseRecord(record, line)
}
