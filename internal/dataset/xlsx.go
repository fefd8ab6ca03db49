package dataset

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// XLSXSource reads one worksheet of an Excel workbook. The first row is the header.
type XLSXSource struct {
	Path string
	// Sheet defaults to the first worksheet when empty
	Sheet string
}

func (s *XLSXSource) Name() string {
	if s.Sheet == "" {
		return "xlsx:" + s.Path
	}
	return "xlsx:" + s.Path + "#" + s.Sheet
}

func (s *XLSXSource) Version(ctx context.Context) (string, error) {
	return fileVersion(s.Path)
}

func (s *XLSXSource) Load(ctx context.Context) (*Table, error) {
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, errors.Wrap(err, "open workbook")
	}
	defer f.Close()

	sheet := s.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.Errorf("workbook %s has no sheets", s.Path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %q", sheet)
	}
	if len(rows) == 0 {
		return nil, errors.Errorf("sheet %q is empty", sheet)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	body := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		body = append(body, row)
	}
	return &Table{Columns: headers, Rows: body}, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
