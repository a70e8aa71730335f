package core

// normalize.go converts one raw roster row into a Student draft.
//
// Defaulting policy per field:
//   - name, gender: required. Blank or missing is a MissingRequiredField issue
//     and the row is rejected by the ingestor.
//   - academic_score: optional but typed. Anything that is not a finite
//     number becomes DefaultScore with a DefaultedField advisory.
//   - behavior_type: optional. Any non-empty string is passed through
//     unchanged; a value that does not match the behaviour grammar gets a
//     MalformedGrammar advisory. A valid value also sets behavior_score.
//   - prev_info, assigned_class: derived from the NEIS 학년/반/번호 columns.
//
// Names are kept byte-for-byte; no trimming or case folding is applied.

import (
	"fmt"
	"strings"
)

// DefaultAcademicScore replaces missing or unparseable scores.
const DefaultAcademicScore = 500

// Normalizer applies the roster defaulting policy to single rows.
type Normalizer struct {
	DefaultScore float64
	Grammar      BehaviorGrammar
}

// NewNormalizer creates a normalizer. A zero defaultScore uses DefaultAcademicScore.
func NewNormalizer(defaultScore float64, grammar BehaviorGrammar) *Normalizer {
	if defaultScore == 0 {
		defaultScore = DefaultAcademicScore
	}
	return &Normalizer{DefaultScore: defaultScore, Grammar: grammar}
}

// Normalize returns the draft for row and every issue found in it.
// The draft has no ID; the ingestor assigns one.
func (n *Normalizer) Normalize(row Row) (Student, []Issue) {
	var issues []Issue
	s := Student{
		AvoidIDs: []string{},
		KeepIDs:  []string{},
		GroupIDs: []string{},
	}

	s.Name = requiredText(row, FieldName, &issues)
	s.Gender = requiredText(row, FieldGender, &issues)

	score := row.Cell(FieldAcademicScore)
	if v, ok := ParseNumber(score); ok {
		s.AcademicScore = v
	} else {
		s.AcademicScore = n.DefaultScore
		issues = append(issues, Issue{
			Line:    row.Line,
			Field:   string(FieldAcademicScore),
			Kind:    IssueDefaultedField,
			Value:   score.Text(),
			Message: fmt.Sprintf("%s score replaced by default %g", describeScore(score), n.DefaultScore),
		})
	}

	if bt := row.Cell(FieldBehaviorType); bt.Kind == CellNumber || bt.Kind == CellString && bt.Str != "" {
		raw := bt.Text()
		s.BehaviorType = &raw
		if !IsNone(raw) {
			code := n.Grammar.Parse(raw)
			if code.Valid {
				s.BehaviorScore = code.Value()
			} else {
				issues = append(issues, Issue{
					Line:    row.Line,
					Field:   string(FieldBehaviorType),
					Kind:    IssueMalformedGrammar,
					Value:   raw,
					Message: "kept as-is: " + code.Reason,
				})
			}
		}
	}

	if c := row.Cell(FieldBehaviorNote); !c.IsBlank() {
		s.BehaviorNote = c.Text()
	}
	if c := row.Cell(FieldFixedClass); !c.IsBlank() {
		s.FixedClass = CleanCell(c.Text())
	}

	s.PrevInfo, s.AssignedClass = placement(row)

	return s, issues
}

// placement reads the NEIS placement columns. When the previous 반 is
// present the sheet carries both triples: 반 is the new class and the
// _1 columns describe last year. Otherwise 학년/반/번호 describe last year
// and the new class comes from an explicit assigned_class column.
func placement(row Row) (prevInfo string, assigned *string) {
	text := func(f Field) string {
		if c := row.Cell(f); !c.IsBlank() {
			return CleanCell(c.Text())
		}
		return ""
	}

	if prevClass := text(FieldPrevClass); prevClass != "" {
		return text(FieldPrevGrade) + "-" + prevClass + "-" + text(FieldPrevNumber),
			className(text(FieldClass))
	}

	grade, class := text(FieldGrade), text(FieldClass)
	if grade != "" && class != "" {
		prevInfo = grade + "-" + class + "-" + text(FieldNumber)
	} else {
		prevInfo = text(FieldPrevInfo)
	}
	return prevInfo, className(text(FieldAssignedClass))
}

// className normalises a class label: "3" becomes "3반", labels already
// containing 반 and any other text are kept.
func className(v string) *string {
	if v == "" {
		return nil
	}
	if !strings.Contains(v, "반") && strings.Trim(v, "0123456789") == "" {
		v += "반"
	}
	return &v
}

// requiredText returns the cell text for a required field, recording a
// MissingRequiredField issue and returning "" when it is blank.
func requiredText(row Row, f Field, issues *[]Issue) string {
	c := row.Cell(f)
	if c.IsBlank() {
		*issues = append(*issues, Issue{
			Line:    row.Line,
			Field:   string(f),
			Kind:    IssueMissingRequiredField,
			Message: fmt.Sprintf("required field %q is %s", f, describeBlank(c)),
		})
		return ""
	}
	return c.Text()
}

func describeBlank(c Cell) string {
	switch c.Kind {
	case CellAbsent:
		return "missing"
	case CellNull:
		return "null"
	default:
		return "empty"
	}
}

func describeScore(c Cell) string {
	switch {
	case c.Kind == CellAbsent:
		return "missing"
	case c.IsBlank():
		return "empty"
	default:
		return "non-numeric"
	}
}
