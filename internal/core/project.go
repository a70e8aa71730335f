package core

// project.go gates acceptance of a project snapshot.
//
// Checks run in a fixed order and stop at the first failing category:
//
//  1. structure: valid JSON object with students (array), groups (array)
//     and settings (object), element fields of the right JSON types
//  2. required fields: every student has id, name, gender; every group has id
//  3. id universe: student and group ids, which must be unique per type
//  4. avoid_ids / keep_ids reference existing students
//  5. group_ids reference existing groups
//  6. group members reference existing students
//
// Within a category every violation is reported, so a client can fix a whole
// payload in one round trip. Group members and student group_ids are checked
// independently; they are not required to mirror each other.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Validator checks project snapshots.
type Validator struct {
	defaultScore float64
	now          func() time.Time
}

// NewValidator creates a validator. Scores that are missing or unparseable in
// a snapshot become defaultScore (DefaultAcademicScore when zero).
func NewValidator(defaultScore float64) *Validator {
	if defaultScore == 0 {
		defaultScore = DefaultAcademicScore
	}
	return &Validator{defaultScore: defaultScore, now: time.Now}
}

type studentWire struct {
	ID            *string           `json:"id"`
	Name          *string           `json:"name"`
	Gender        *string           `json:"gender"`
	AcademicScore Cell              `json:"academic_score"`
	BehaviorType  *string           `json:"behavior_type"`
	AvoidIDs      []string          `json:"avoid_ids"`
	KeepIDs       []string          `json:"keep_ids"`
	GroupIDs      []string          `json:"group_ids"`
	BehaviorScore int               `json:"behavior_score"`
	BehaviorNote  string            `json:"behavior_note"`
	PrevInfo      string            `json:"prev_info"`
	FixedClass    string            `json:"fixed_class"`
	AssignedClass *string           `json:"assigned_class"`
	IsPreTransfer bool              `json:"is_pre_transfer"`
	AvoidMemos    map[string]string `json:"avoid_memos"`
	KeepMemos     map[string]string `json:"keep_memos"`
}

type groupWire struct {
	ID      *string  `json:"id"`
	Name    string   `json:"name"`
	Color   string   `json:"color"`
	Members []string `json:"members"`
	// Older saves used member_ids.
	MemberIDs []string `json:"member_ids"`
}

// Validate runs every check on body and returns the accepted snapshot.
// The returned error is always a *Error.
func (v *Validator) Validate(body []byte) (*Snapshot, error) {
	students, groups, settings, err := decodeSnapshot(body)
	if err != nil {
		return nil, err
	}

	if issues := requiredFields(students, groups); len(issues) > 0 {
		return nil, &Error{
			Kind:   KindValidationFailed,
			Op:     "project",
			Detail: fmt.Sprintf("%d required fields are missing", len(issues)),
			Issues: issues,
		}
	}

	studentIDs, groupIDs, issues := idUniverse(students, groups)
	if len(issues) > 0 {
		return nil, &Error{
			Kind:   KindValidationFailed,
			Op:     "project",
			Detail: fmt.Sprintf("%d duplicate ids", len(issues)),
			Issues: issues,
		}
	}

	checks := []func() []Issue{
		func() []Issue { return peerRefs(students, studentIDs) },
		func() []Issue { return groupRefs(students, groupIDs) },
		func() []Issue { return memberRefs(groups, studentIDs) },
	}
	for _, check := range checks {
		if issues := check(); len(issues) > 0 {
			return nil, &Error{
				Kind:   KindReferentialIntegrity,
				Op:     "project",
				Detail: issues[0].Message,
				Issues: issues,
			}
		}
	}

	snap := &Snapshot{
		Students: make([]Student, 0, len(students)),
		Groups:   make([]Group, 0, len(groups)),
		Settings: settings,
	}
	for _, w := range students {
		snap.Students = append(snap.Students, v.student(w))
	}
	for _, w := range groups {
		snap.Groups = append(snap.Groups, group(w))
	}
	return snap, nil
}

// Commit validates body and, on success, installs it as the store's current
// snapshot. On failure the store is not touched.
func (v *Validator) Commit(store *Store, body []byte) (*Snapshot, error) {
	snap, err := v.Validate(body)
	if err != nil {
		return nil, err
	}
	snap.LoadedAt = v.now().UTC()
	store.Replace(snap)
	return snap, nil
}

func decodeSnapshot(body []byte) ([]studentWire, []groupWire, Settings, error) {
	var top map[string]json.RawMessage
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil, nil, malformed("project", nil, "empty body")
	}
	if jsonType(body) != '{' {
		return nil, nil, nil, malformed("project", nil, "body is not a JSON object")
	}
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, nil, nil, malformed("project", err, "invalid JSON")
	}

	for _, want := range []struct {
		key string
		typ byte
	}{{"students", '['}, {"groups", '['}, {"settings", '{'}} {
		raw, ok := top[want.key]
		if !ok {
			return nil, nil, nil, malformed("project", nil, "%q is missing", want.key)
		}
		if jsonType(raw) != want.typ {
			return nil, nil, nil, malformed("project", nil, "%q must be %s", want.key, containerName(want.typ))
		}
	}

	students, err := decodeElements[studentWire](top["students"], "students")
	if err != nil {
		return nil, nil, nil, err
	}
	groups, err := decodeElements[groupWire](top["groups"], "groups")
	if err != nil {
		return nil, nil, nil, err
	}
	var settings Settings
	if err := json.Unmarshal(top["settings"], &settings); err != nil {
		return nil, nil, nil, malformed("project", err, "invalid settings")
	}
	return students, groups, settings, nil
}

func decodeElements[T any](raw json.RawMessage, key string) ([]T, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, malformed("project", err, "invalid %s", key)
	}
	out := make([]T, len(elems))
	for i, e := range elems {
		if jsonType(e) != '{' {
			return nil, malformed("project", nil, "%s[%d] must be an object", key, i)
		}
		if err := json.Unmarshal(e, &out[i]); err != nil {
			return nil, malformed("project", err, "invalid %s[%d]", key, i)
		}
	}
	return out, nil
}

// jsonType returns the first significant byte of a JSON value.
func jsonType(raw []byte) byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	return raw[0]
}

func containerName(typ byte) string {
	if typ == '[' {
		return "an array"
	}
	return "an object"
}

func requiredFields(students []studentWire, groups []groupWire) []Issue {
	var issues []Issue
	missing := func(entity, field string) {
		issues = append(issues, Issue{
			Entity:  entity,
			Field:   field,
			Kind:    IssueMissingRequiredField,
			Message: fmt.Sprintf("%s has no %s", entity, field),
		})
	}

	for i, s := range students {
		entity := entityLabel("student", s.ID, "students", i)
		if blankPtr(s.ID) {
			missing(entity, "id")
		}
		if blankPtr(s.Name) {
			missing(entity, string(FieldName))
		}
		if blankPtr(s.Gender) {
			missing(entity, string(FieldGender))
		}
	}
	for i, g := range groups {
		if blankPtr(g.ID) {
			missing(entityLabel("group", g.ID, "groups", i), "id")
		}
	}
	return issues
}

func idUniverse(students []studentWire, groups []groupWire) (map[string]bool, map[string]bool, []Issue) {
	var issues []Issue
	dup := func(entity, id string) {
		issues = append(issues, Issue{
			Entity:  entity,
			Field:   "id",
			Kind:    IssueDuplicateID,
			Value:   id,
			Message: fmt.Sprintf("%s id %q is used more than once", entity, id),
		})
	}

	studentIDs := make(map[string]bool, len(students))
	for _, s := range students {
		if studentIDs[*s.ID] {
			dup("student", *s.ID)
		}
		studentIDs[*s.ID] = true
	}
	groupIDs := make(map[string]bool, len(groups))
	for _, g := range groups {
		if groupIDs[*g.ID] {
			dup("group", *g.ID)
		}
		groupIDs[*g.ID] = true
	}
	return studentIDs, groupIDs, issues
}

func peerRefs(students []studentWire, studentIDs map[string]bool) []Issue {
	var issues []Issue
	for _, s := range students {
		issues = append(issues, dangling("student "+*s.ID, "avoid_ids", "student", s.AvoidIDs, studentIDs)...)
		issues = append(issues, dangling("student "+*s.ID, "keep_ids", "student", s.KeepIDs, studentIDs)...)
	}
	return issues
}

func groupRefs(students []studentWire, groupIDs map[string]bool) []Issue {
	var issues []Issue
	for _, s := range students {
		issues = append(issues, dangling("student "+*s.ID, "group_ids", "group", s.GroupIDs, groupIDs)...)
	}
	return issues
}

func memberRefs(groups []groupWire, studentIDs map[string]bool) []Issue {
	var issues []Issue
	for _, g := range groups {
		issues = append(issues, dangling("group "+*g.ID, "members", "student", g.members(), studentIDs)...)
	}
	return issues
}

func dangling(entity, field, target string, refs []string, known map[string]bool) []Issue {
	var issues []Issue
	for _, ref := range refs {
		if known[ref] {
			continue
		}
		issues = append(issues, Issue{
			Entity:  entity,
			Field:   field,
			Kind:    IssueDanglingReference,
			Value:   ref,
			Message: fmt.Sprintf("%s %s references unknown %s %q", entity, field, target, ref),
		})
	}
	return issues
}

func (g groupWire) members() []string {
	if g.Members != nil {
		return g.Members
	}
	return g.MemberIDs
}

func (v *Validator) student(w studentWire) Student {
	score, ok := ParseNumber(w.AcademicScore)
	if !ok {
		score = v.defaultScore
	}
	return Student{
		ID:            *w.ID,
		Name:          *w.Name,
		Gender:        *w.Gender,
		AcademicScore: score,
		BehaviorType:  w.BehaviorType,
		AvoidIDs:      nonNil(w.AvoidIDs),
		KeepIDs:       nonNil(w.KeepIDs),
		GroupIDs:      nonNil(w.GroupIDs),
		BehaviorScore: w.BehaviorScore,
		BehaviorNote:  w.BehaviorNote,
		PrevInfo:      w.PrevInfo,
		FixedClass:    w.FixedClass,
		AssignedClass: w.AssignedClass,
		IsPreTransfer: w.IsPreTransfer,
		AvoidMemos:    w.AvoidMemos,
		KeepMemos:     w.KeepMemos,
	}
}

func group(w groupWire) Group {
	return Group{
		ID:      *w.ID,
		Name:    w.Name,
		Color:   w.Color,
		Members: nonNil(w.members()),
	}
}

func entityLabel(kind string, id *string, key string, index int) string {
	if blankPtr(id) {
		return fmt.Sprintf("%s[%d]", key, index)
	}
	return kind + " " + *id
}

func blankPtr(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
