package passlist

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"hirepipe/internal/services"
)

// ErrUnsupportedFormat marks uploads whose format the parser cannot read.
var ErrUnsupportedFormat = errors.New("unsupported pass-list format")

// Parser converts an uploaded file into a pass-list.
type Parser interface {
	Parse(ctx context.Context, r io.Reader, filename string) (Set, error)
}

// Result carries the parsed set and the rows that were dropped.
type Result struct {
	Set     Set
	Skipped int
}

// DelimitedParser reads CSV, TSV, or newline separated text. When the first
// row has an "email" header only that column is read; otherwise every cell
// that looks like an address is taken. Malformed addresses are skipped.
type DelimitedParser struct{}

// Parse implements Parser.
func (p DelimitedParser) Parse(ctx context.Context, r io.Reader, filename string) (Set, error) {
	result, err := p.ParseResult(ctx, r, filename)
	if err != nil {
		return nil, err
	}
	return result.Set, nil
}

// ParseResult parses r and reports how many candidate cells were rejected.
func (DelimitedParser) ParseResult(ctx context.Context, r io.Reader, filename string) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	comma, err := delimiterFor(filename)
	if err != nil {
		return Result{}, err
	}

	reader := csv.NewReader(stripBOM(r))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	result := Result{Set: make(Set)}
	emailColumn := -1
	for row := 0; ; row++ {
		if row%256 == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, services.Wrap(services.ErrValidation, "passlist", "parse", fmt.Sprintf("row %d", row+1), err)
		}
		if row == 0 {
			if idx := headerColumn(record); idx >= 0 {
				emailColumn = idx
				continue
			}
		}
		cells := record
		if emailColumn >= 0 {
			if emailColumn >= len(record) {
				result.Skipped++
				continue
			}
			cells = record[emailColumn : emailColumn+1]
		}
		for _, cell := range cells {
			value := strings.TrimSpace(cell)
			if value == "" || (emailColumn < 0 && !strings.Contains(value, "@")) {
				continue
			}
			if !validAddress(value) {
				result.Skipped++
				continue
			}
			result.Set.Add(value)
		}
	}
	return result, nil
}

func delimiterFor(filename string) (rune, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".tsv", ".tab":
		return '\t', nil
	case ".xlsx", ".xls", ".xlsm", ".ods":
		return 0, services.Wrap(services.ErrValidation, "passlist", "parse",
			fmt.Sprintf("%s: spreadsheet workbooks must be exported to CSV", filepath.Base(filename)), ErrUnsupportedFormat)
	default:
		return ',', nil
	}
}

func headerColumn(record []string) int {
	for i, cell := range record {
		switch strings.ToLower(strings.TrimSpace(cell)) {
		case "email", "e-mail", "email address", "candidate email":
			return i
		}
	}
	return -1
}

func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(3); err == nil && string(head) == "\xef\xbb\xbf" {
		_, _ = br.Discard(3)
	}
	return br
}
