package core

// decode.go extracts raw rows from an uploaded roster file.
//
// Supported containers:
//   - Office Open XML workbooks (.xlsx, .xlsm) via excelize; the first sheet is used
//   - CSV (.csv, .txt), with BOM skipping and UTF-8 sanitization
//
// The first non-blank record is the header. Header labels are matched against
// HeaderAliases case-insensitively; unknown columns are ignored and known
// columns missing from the header produce absent cells. Blank cells become
// null cells. Cell text is otherwise left untouched.

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"
)

// Format is a spreadsheet container format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0}
)

// HeaderAliases maps lowercased header labels to roster fields. Korean labels
// come from the school template; English ones from exports of this service.
var HeaderAliases = map[string]Field{
	"이름":             FieldName,
	"성명":             FieldName,
	"name":           FieldName,
	"성별":             FieldGender,
	"gender":         FieldGender,
	"성적":             FieldAcademicScore,
	"점수":             FieldAcademicScore,
	"기준성적":           FieldAcademicScore,
	"academic_score": FieldAcademicScore,
	"score":          FieldAcademicScore,
	"생활지도":           FieldBehaviorType,
	"behavior":       FieldBehaviorType,
	"behavior_type":  FieldBehaviorType,
	"비고":             FieldBehaviorNote,
	"note":           FieldBehaviorNote,
	"behavior_note":  FieldBehaviorNote,
	"고정반":            FieldFixedClass,
	"fixed_class":    FieldFixedClass,
	"학년":             FieldGrade,
	"grade":          FieldGrade,
	"반":              FieldClass,
	"class":          FieldClass,
	"번호":             FieldNumber,
	"number":         FieldNumber,
	"학년_1":           FieldPrevGrade,
	"grade_1":        FieldPrevGrade,
	"이전학년":           FieldPrevGrade,
	"prev_grade":     FieldPrevGrade,
	"반_1":            FieldPrevClass,
	"class_1":        FieldPrevClass,
	"이전반":            FieldPrevClass,
	"prev_class":     FieldPrevClass,
	"번호_1":           FieldPrevNumber,
	"number_1":       FieldPrevNumber,
	"이전번호":           FieldPrevNumber,
	"prev_number":    FieldPrevNumber,
	"이전학년정보":         FieldPrevInfo,
	"prev_info":      FieldPrevInfo,
	"반(배정)":          FieldAssignedClass,
	"배정반":            FieldAssignedClass,
	"새로운반":           FieldAssignedClass,
	"assigned_class": FieldAssignedClass,
	"new_class":      FieldAssignedClass,
}

// repeatedHeader maps a field to the one its second header occurrence fills.
var repeatedHeader = map[Field]Field{
	FieldGrade:  FieldPrevGrade,
	FieldClass:  FieldPrevClass,
	FieldNumber: FieldPrevNumber,
}

// DetectFormat picks the container format from the file name, falling back
// to content sniffing.
func DetectFormat(fileName string, head []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm", ".xltx":
		return FormatXLSX, nil
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xls":
		return "", fmt.Errorf("legacy .xls workbooks are not supported, save as .xlsx")
	}

	switch {
	case bytes.HasPrefix(head, zipMagic):
		return FormatXLSX, nil
	case bytes.HasPrefix(head, oleMagic):
		return "", fmt.Errorf("legacy or encrypted workbook is not supported")
	default:
		return FormatCSV, nil
	}
}

// DecodeSpreadsheet reads r completely and returns its data rows.
// Any failure is a MalformedInput error.
func DecodeSpreadsheet(r io.Reader, fileName string) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, malformed("decode", err, "read upload")
	}
	if len(data) == 0 {
		return nil, malformed("decode", nil, "empty file")
	}

	format, err := DetectFormat(fileName, data)
	if err != nil {
		return nil, malformed("decode", err, "unsupported file %q", fileName)
	}

	var records [][]string
	switch format {
	case FormatXLSX:
		records, err = readXLSX(data)
	case FormatCSV:
		records, err = readCSV(data)
	}
	if err != nil {
		return nil, malformed("decode", err, "invalid %s file", format)
	}

	rows, err := RowsFromRecords(records)
	if err != nil {
		return nil, malformed("decode", err, "invalid %s file", format)
	}
	return rows, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
}

func readCSV(data []byte) ([][]string, error) {
	cr := csv.NewReader(NewCSVSource(bytes.NewReader(data)))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		for i := range rec {
			rec[i] = SanitizeUTF8(rec[i])
		}
	}
	return records, nil
}

// RowsFromRecords converts header + data records into rows.
func RowsFromRecords(records [][]string) ([]Row, error) {
	headerAt := -1
	for i, rec := range records {
		if !blankRecord(rec) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, fmt.Errorf("no header row")
	}

	columns := make(map[Field]int)
	for i, label := range records[headerAt] {
		f, ok := HeaderAliases[headerKey(label)]
		if !ok {
			continue
		}
		if _, dup := columns[f]; dup {
			if f, ok = repeatedHeader[f]; !ok {
				continue
			}
			if _, dup = columns[f]; dup {
				continue
			}
		}
		columns[f] = i
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("header row has no known columns")
	}

	rows := make([]Row, 0, len(records)-headerAt-1)
	for i := headerAt + 1; i < len(records); i++ {
		rec := records[i]
		if blankRecord(rec) {
			continue
		}
		cells := make(map[Field]Cell, len(columns))
		for f, col := range columns {
			if col >= len(rec) || rec[col] == "" {
				cells[f] = NullCell()
				continue
			}
			cells[f] = TextCell(rec[col])
		}
		rows = append(rows, Row{Line: i + 1, Cells: cells})
	}
	return rows, nil
}

// headerKey folds a header label for alias lookup. Files saved on macOS
// store Hangul decomposed (NFD), so labels are composed first.
func headerKey(label string) string {
	return strings.ToLower(norm.NFC.String(CleanCell(label)))
}

func blankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
