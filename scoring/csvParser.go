package scoring

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	ErrEmptyCSV      = "CSV file is empty"
	ErrHeaderOnlyCSV = "CSV file must contain a header row and at least one data row"
)

type ParseResult struct {
	Success           bool               `json:"success"`
	Data              []Record           `json:"data"`
	Errors            []string           `json:"errors"`
	Warnings          []string           `json:"warnings"`
	HeaderDiagnostics *HeaderDiagnostics `json:"headerDiagnostics,omitempty"`
}

// HeaderDiagnostics is filled when the header row cannot be resolved.
type HeaderDiagnostics struct {
	Raw        []string `json:"raw"`
	Normalized []string `json:"normalized"`
}

func newParseResult() ParseResult {
	return ParseResult{
		Data:     []Record{},
		Errors:   []string{},
		Warnings: []string{},
	}
}

func failedParse(messages ...string) ParseResult {
	result := newParseResult()
	result.Errors = append(result.Errors, messages...)
	return result
}

// ParseScoringParamsCSV converts uploaded CSV text into scoring records.
// areas maps area display name to area id. Row failures are reported as data, never panics.
func ParseScoringParamsCSV(content string, areas map[string]int) ParseResult {
	content = strings.TrimPrefix(content, "\ufeff")
	if strings.TrimSpace(content) == "" {
		return failedParse(ErrEmptyCSV)
	}

	var table [][]string
	for _, line := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		table = append(table, splitCSVLine(line))
	}
	return parseTable(table, areas)
}

// splitCSVLine splits on commas outside double quotes. "" inside quotes is a literal quote.
func splitCSVLine(line string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				current.WriteRune('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case c == ',' && !inQuotes:
			fields = append(fields, cleanField(current.String()))
			current.Reset()
		default:
			current.WriteRune(c)
		}
	}
	return append(fields, cleanField(current.String()))
}

func cleanField(s string) string {
	s = strings.TrimSpace(s)
	if n := len(s); n >= 2 {
		if (s[0] == '"' && s[n-1] == '"') || (s[0] == '\'' && s[n-1] == '\'') {
			s = s[1 : n-1]
		}
	}
	return strings.TrimSpace(s)
}

// columnMap holds the cell index of every known column, -1 when absent.
type columnMap struct {
	areaId   int
	areaName int
	values   [len(attributeKeys)]int
}

func resolveColumns(normalized []string) (columnMap, []string) {
	cols := columnMap{areaId: -1, areaName: -1}
	for i := range cols.values {
		cols.values[i] = -1
	}

	index := make(map[string]int, len(normalized))
	for i, key := range normalized {
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}
	if i, ok := index[keyAreaId]; ok {
		cols.areaId = i
	}
	if i, ok := index[keyAreaName]; ok {
		cols.areaName = i
	}

	var missing []string
	for _, a := range Attributes {
		if i, ok := index[a.Key()]; ok {
			cols.values[a] = i
		} else {
			missing = append(missing, a.Key())
		}
	}
	return cols, missing
}

// row is one data row resolved against the header.
type row struct {
	number   int
	areaId   string
	areaName string
	values   Values
}

func (c columnMap) row(number int, cells []string) row {
	cell := func(i int) string {
		if i < 0 || i >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[i])
	}
	r := row{
		number:   number,
		areaId:   cell(c.areaId),
		areaName: cell(c.areaName),
	}
	for _, a := range Attributes {
		r.values.Set(a, cell(c.values[a]))
	}
	return r
}

type areaLookup struct {
	byName map[string]int
	byId   map[int]string
}

func newAreaLookup(areas map[string]int) areaLookup {
	lookup := areaLookup{
		byName: make(map[string]int, len(areas)),
		byId:   make(map[int]string, len(areas)),
	}
	for name, id := range areas {
		lookup.byName[strings.ToLower(strings.TrimSpace(name))] = id
		lookup.byId[id] = name
	}
	return lookup
}

func (r row) resolve(lookup areaLookup) (Record, []string) {
	var reasons []string
	record := Record{AreaName: r.areaName}

	switch {
	case r.areaId != "":
		id, err := strconv.Atoi(r.areaId)
		if err != nil || id <= 0 {
			reasons = append(reasons, fmt.Sprintf("invalid area ID %q, must be a positive integer", r.areaId))
			break
		}
		record.AreaId = id
		if record.AreaName == "" {
			record.AreaName = lookup.byId[id]
		}
	case r.areaName != "":
		id, ok := lookup.byName[strings.ToLower(r.areaName)]
		if !ok {
			reasons = append(reasons, fmt.Sprintf("area %q not found", r.areaName))
			break
		}
		record.AreaId = id
	default:
		reasons = append(reasons, "area is required")
	}

	for _, a := range Attributes {
		value := r.values.Get(a)
		if value == "" {
			reasons = append(reasons, a.Key()+" is required")
			continue
		}
		d, err := decimal.NewFromString(value)
		if err != nil {
			reasons = append(reasons, fmt.Sprintf("%s must be a number (got %q)", a.Key(), value))
			continue
		}
		if d.IsNegative() {
			reasons = append(reasons, fmt.Sprintf("%s must not be negative (got %q)", a.Key(), value))
			continue
		}
		record.Raw.Set(a, value)
	}
	return record, reasons
}

// parseTable runs header resolution and row checks on already tokenized rows.
// Row numbers are 1-indexed with the header as row 1; blank lines are not counted.
func parseTable(table [][]string, areas map[string]int) ParseResult {
	if len(table) == 0 {
		return failedParse(ErrEmptyCSV)
	}
	if len(table) < 2 {
		return failedParse(ErrHeaderOnlyCSV)
	}

	header := table[0]
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = NormalizeHeader(h)
	}

	cols, missing := resolveColumns(normalized)
	var headerErrors []string
	if cols.areaId < 0 && cols.areaName < 0 {
		headerErrors = append(headerErrors, fmt.Sprintf(
			"CSV must contain an Area Name or Area ID column. Found headers: %s", strings.Join(header, ", ")))
	}
	if len(missing) > 0 {
		headerErrors = append(headerErrors, fmt.Sprintf(
			"Missing required column(s): %s. Found headers: %s", strings.Join(missing, ", "), strings.Join(header, ", ")))
	}
	if len(headerErrors) > 0 {
		result := failedParse(headerErrors...)
		result.HeaderDiagnostics = &HeaderDiagnostics{Raw: header, Normalized: normalized}
		return result
	}

	lookup := newAreaLookup(areas)
	result := newParseResult()
	for i, cells := range table[1:] {
		r := cols.row(i+2, cells)
		record, reasons := r.resolve(lookup)
		if len(reasons) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", r.number, strings.Join(reasons, "; ")))
			result.Warnings = append(result.Warnings, fmt.Sprintf("Row %d skipped", r.number))
			continue
		}
		result.Data = append(result.Data, record)
	}
	result.Success = len(result.Errors) == 0
	return result
}
