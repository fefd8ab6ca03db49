package dataset

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// CSVSource reads a comma or semicolon separated file with a header row
type CSVSource struct {
	Path string
}

func (s *CSVSource) Name() string {
	return "csv:" + s.Path
}

func (s *CSVSource) Version(ctx context.Context) (string, error) {
	return fileVersion(s.Path)
}

func (s *CSVSource) Load(ctx context.Context) (*Table, error) {
	file, err := os.Open(s.Path)
	if err != nil {
		return nil, errors.Wrap(err, "open csv")
	}
	defer file.Close()

	return parseCSV(file)
}

func newCSVReader(r io.Reader, comma rune) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1 // Allow variable fields
	reader.LazyQuotes = true    // Allow bare quotes in non-quoted fields
	return reader
}

func parseCSV(r io.ReadSeeker) (*Table, error) {
	reader := newCSVReader(r, ',')

	headers, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read headers")
	}

	// A single header cell holding semicolons means the file is ;-separated
	if len(headers) == 1 && strings.Contains(headers[0], ";") {
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, errors.Wrap(err, "rewind csv")
		}
		reader = newCSVReader(r, ';')
		headers, err = reader.Read()
		if err != nil {
			return nil, errors.Wrap(err, "failed to read headers")
		}
	}

	for i, h := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	rows := [][]string{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				// Try to continue on malformed rows
				continue
			}
			return nil, errors.Wrap(err, "read csv")
		}
		rows = append(rows, record)
	}

	return &Table{Columns: headers, Rows: rows}, nil
}
