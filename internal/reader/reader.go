// =============================================================================
// Transaction Aggregator - Input Reader
// =============================================================================
//
// This module loads raw transaction records from a CSV or JSON file into a
// uniform sequence of field-maps (types.Record).
//
// FORMAT DETECTION:
//   The format is taken from the file extension:
//   - .csv  : first row is the header, every value stays a string
//   - .json : an array of objects, values keep their decoded JSON type
//   Any other extension yields an empty result, not an error.
//
// HEADER NAMES:
//   Headers and JSON keys are normalised onto the canonical field names in
//   package types, so "Transaction ID", "transaction-id" and "transaction_id"
//   all read as "transaction_id". Unknown columns are kept (normalised).
//
// No numeric coercion happens here. That is the validation stage's job.
//
// =============================================================================

package reader

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/transaction-aggregator/internal/types"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrFileNotFound is returned by Read when the input path does not exist.
	ErrFileNotFound = errors.New("input file not found")

	// ErrUnsupportedFormat is returned by DetectFormat for extensions other
	// than csv and json. Read treats it as an empty result.
	ErrUnsupportedFormat = errors.New("unsupported input format")
)

// =============================================================================
// FORMATS
// =============================================================================

// Format identifies an input encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// DetectFormat returns the input format for path based on its extension.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch Format(ext) {
	case FormatCSV, FormatJSON:
		return Format(ext), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// IsSupported reports whether path has a csv or json extension.
func IsSupported(path string) bool {
	_, err := DetectFormat(path)
	return err == nil
}

// =============================================================================
// READ
// =============================================================================

// Read loads every record from the file at path.
//
// RETURNS:
//   - The records in file order. Empty (not nil error) when the file is empty
//     or the extension is not csv/json.
//   - ErrFileNotFound (wrapped) when path does not exist.
//   - A decode error when the content is not well-formed CSV/JSON.
func Read(path string) ([]types.Record, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return []types.Record{}, nil
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	records, err := Decode(file, format)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return records, nil
}

// Decode reads records of the given format from r.
func Decode(r io.Reader, format Format) ([]types.Record, error) {
	switch format {
	case FormatCSV:
		return decodeCSV(r)
	case FormatJSON:
		return decodeJSON(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// =============================================================================
// CSV
// =============================================================================

func decodeCSV(r io.Reader) ([]types.Record, error) {
	csvReader := csv.NewReader(r)

	// Short rows are tolerated; missing cells are simply absent from the record.
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}

	if len(allRows) == 0 {
		return []types.Record{}, nil
	}

	headers := make([]string, len(allRows[0]))
	for i, header := range allRows[0] {
		if i == 0 {
			header = strings.TrimPrefix(header, "\ufeff")
		}
		headers[i] = CanonicalField(header)
	}

	records := make([]types.Record, 0, len(allRows)-1)
	for _, row := range allRows[1:] {
		if isRowEmpty(row) {
			continue
		}

		record := make(types.Record, len(headers))
		for col, header := range headers {
			if col < len(row) {
				record[header] = row[col]
			}
		}
		records = append(records, record)
	}

	return records, nil
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// JSON
// =============================================================================

func decodeJSON(r io.Reader) ([]types.Record, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	var raw []map[string]any
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return []types.Record{}, nil
		}
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	// Only whitespace may follow the array.
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("failed to parse JSON: unexpected content after the top-level array")
	}

	records := make([]types.Record, 0, len(raw))
	for _, object := range raw {
		record := make(types.Record, len(object))
		for key, value := range object {
			record[CanonicalField(key)] = value
		}
		records = append(records, record)
	}

	return records, nil
}

// =============================================================================
// HEADER NORMALISATION
// =============================================================================

// CanonicalField normalises a header or key: trimmed, lower-cased, with runs
// of spaces and hyphens replaced by a single underscore.
func CanonicalField(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	fields := strings.FieldsFunc(name, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '\t'
	})
	return strings.Join(fields, "_")
}
