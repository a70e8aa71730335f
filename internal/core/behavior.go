package core

// behavior.go parses the encoded behaviour guidance values used by the roster
// spreadsheet dropdown, for example "행동(-2)" or "리더(+1)".
//
// Grammar:
//
//	value  = LABEL "(" [sign] digits ")"
//	sign   = "+" | "-"
//
// Parsing never rewrites the input. The normalizer passes the raw string
// through and only records an advisory issue when it does not parse.

import (
	"strconv"
	"strings"
)

// DefaultBehaviorLabels are the dropdown labels of the roster template.
var DefaultBehaviorLabels = []string{"리더", "행동", "정서", "LEADER", "BEHAVIOR", "EMOTIONAL"}

// BehaviorCode is the structured result of parsing a behaviour value.
type BehaviorCode struct {
	Label     string
	Sign      byte // '+', '-' or 0 when omitted
	Magnitude int
	Valid     bool
	Reason    string // why Valid is false
}

// Value returns the signed integer encoded by the code.
func (c BehaviorCode) Value() int {
	if c.Sign == '-' {
		return -c.Magnitude
	}
	return c.Magnitude
}

// BehaviorGrammar recognises encoded behaviour values with a fixed set of labels.
type BehaviorGrammar struct {
	labels map[string]bool
}

// NewBehaviorGrammar builds a grammar accepting the given labels.
// With no labels, any non-empty label is accepted.
func NewBehaviorGrammar(labels ...string) BehaviorGrammar {
	g := BehaviorGrammar{labels: make(map[string]bool, len(labels))}
	for _, l := range labels {
		if l = strings.TrimSpace(l); l != "" {
			g.labels[l] = true
		}
	}
	return g
}

// IsNone reports whether s is an explicit "no guidance" marker. Such values
// are not grammar violations.
func IsNone(s string) bool {
	t := strings.TrimSpace(s)
	return t == "해당없음" || strings.EqualFold(t, "none")
}

// Parse scans s against the grammar.
func (g BehaviorGrammar) Parse(s string) BehaviorCode {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return BehaviorCode{Reason: "missing '('"}
	}
	if open == 0 {
		return BehaviorCode{Reason: "missing label"}
	}
	if !strings.HasSuffix(s, ")") {
		return BehaviorCode{Reason: "missing closing ')'"}
	}

	code := BehaviorCode{Label: s[:open]}
	if strings.ContainsAny(code.Label, "()") {
		code.Reason = "unexpected parenthesis in label"
		return code
	}
	if len(g.labels) > 0 && !g.labels[code.Label] {
		code.Reason = "unknown label " + strconv.Quote(code.Label)
		return code
	}

	inner := s[open+1 : len(s)-1]
	if inner != "" && (inner[0] == '+' || inner[0] == '-') {
		code.Sign = inner[0]
		inner = inner[1:]
	}
	if inner == "" {
		code.Reason = "missing digits"
		return code
	}
	for i := 0; i < len(inner); i++ {
		if inner[i] < '0' || inner[i] > '9' {
			code.Reason = "non-digit character in value"
			return code
		}
	}
	n, err := strconv.Atoi(inner)
	if err != nil {
		code.Reason = "value out of range"
		return code
	}

	code.Magnitude = n
	code.Valid = true
	return code
}
