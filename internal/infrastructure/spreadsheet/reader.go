// Package spreadsheet reads cost and rules files into raw text tables
package spreadsheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chemprice/backend/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Supported file extensions, in lookup preference order
var Extensions = []string{".xlsx", ".xlsm", ".csv"}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// IsSupported reports whether ext (with dot, any case) can be read
func IsSupported(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// ReadFile reads the first sheet of an Excel workbook or a CSV file
func ReadFile(path string) (domain.Table, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !IsSupported(ext) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSourceNotFound
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if ext == ".csv" {
		return ReadCSV(f)
	}
	return ReadWorkbook(f)
}

// ReadWorkbook reads every row of the first sheet of an xlsx/xlsm workbook.
// Numeric cells come back as stored, not as their display format renders them.
func ReadWorkbook(r io.Reader) (domain.Table, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return domain.Table{}, nil
	}

	rows, err := wb.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	return domain.Table(rows), nil
}

// ReadCSV reads a comma or semicolon separated file; rows may have uneven lengths
func ReadCSV(r io.Reader) (domain.Table, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	// Peek returns whatever is buffered even on short reads
	sample, _ := br.Peek(4096)

	reader := csv.NewReader(br)
	reader.Comma = sniffDelimiter(sample)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	return domain.Table(rows), nil
}

// sniffDelimiter picks ';' when the first line has more semicolons than commas
func sniffDelimiter(sample []byte) rune {
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		sample = sample[:i]
	}
	if bytes.Count(sample, []byte(";")) > bytes.Count(sample, []byte(",")) {
		return ';'
	}
	return ','
}
