package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CellKind discriminates the Cell union.
type CellKind uint8

const (
	CellAbsent CellKind = iota // column not present
	CellNull                   // present but blank / JSON null
	CellNumber
	CellString
)

func (k CellKind) String() string {
	switch k {
	case CellAbsent:
		return "absent"
	case CellNull:
		return "null"
	case CellNumber:
		return "number"
	case CellString:
		return "string"
	default:
		return "unknown"
	}
}

// Cell is a raw, untrusted input value. The zero value is an absent cell.
type Cell struct {
	Kind CellKind
	Num  float64
	Str  string
}

// NullCell returns a present-but-empty cell.
func NullCell() Cell { return Cell{Kind: CellNull} }

// NumberCell returns a numeric cell.
func NumberCell(f float64) Cell { return Cell{Kind: CellNumber, Num: f} }

// TextCell returns a string cell. The text is kept as-is.
func TextCell(s string) Cell { return Cell{Kind: CellString, Str: s} }

// IsBlank reports whether the cell carries no usable value: absent, null,
// or a string that is empty after trimming whitespace.
func (c Cell) IsBlank() bool {
	switch c.Kind {
	case CellAbsent, CellNull:
		return true
	case CellString:
		return strings.TrimSpace(c.Str) == ""
	default:
		return false
	}
}

// Text renders the cell as text: strings verbatim, numbers in shortest form,
// absent and null as "".
func (c Cell) Text() string {
	switch c.Kind {
	case CellString:
		return c.Str
	case CellNumber:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	default:
		return ""
	}
}

func (c Cell) String() string {
	switch c.Kind {
	case CellString:
		return strconv.Quote(c.Str)
	case CellNumber:
		return c.Text()
	default:
		return c.Kind.String()
	}
}

// UnmarshalJSON accepts any JSON scalar. Objects and arrays are rejected.
func (c *Cell) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return fmt.Errorf("empty cell value")
	}
	switch b[0] {
	case 'n':
		*c = NullCell()
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = TextCell(s)
		return nil
	case 't', 'f':
		var v bool
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*c = TextCell(strconv.FormatBool(v))
		return nil
	case '{', '[':
		return fmt.Errorf("cell must be a scalar, got %s", b[:1])
	default:
		f, err := strconv.ParseFloat(string(b), 64)
		if errors.Is(err, strconv.ErrRange) {
			// Out of float64 range: kept as text, which ParseNumber rejects.
			*c = TextCell(string(b))
			return nil
		}
		if err != nil {
			return fmt.Errorf("invalid numeric cell %q: %w", b, err)
		}
		*c = NumberCell(f)
		return nil
	}
}

// MarshalJSON writes strings and finite numbers as themselves and everything else as null.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellString:
		return json.Marshal(c.Str)
	case CellNumber:
		if math.IsNaN(c.Num) || math.IsInf(c.Num, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(c.Num)
	default:
		return []byte("null"), nil
	}
}
