package core

// ingest.go drives the normalizer over every decoded row and decides whether
// the roster as a whole is accepted.
//
// Acceptance is all-or-nothing: a single row with a missing required field
// rejects the upload and no partial roster is returned. Advisory issues
// (defaulted scores, unparsed behaviour values) never reject.

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// Roster is an accepted ingestion.
type Roster struct {
	BatchID  uuid.UUID `json:"batch_id"`
	Students []Student `json:"students"`
	Issues   []Issue   `json:"issues,omitempty"` // advisory only
}

// Defaulted returns how many rows had their score defaulted.
func (r *Roster) Defaulted() int {
	n := 0
	for _, is := range r.Issues {
		if is.Kind == IssueDefaultedField {
			n++
		}
	}
	return n
}

// Ingestor turns decoded rows into a roster.
type Ingestor struct {
	normalizer *Normalizer
}

// NewIngestor creates an ingestor using n for each row.
func NewIngestor(n *Normalizer) *Ingestor {
	return &Ingestor{normalizer: n}
}

// StudentID derives the id of the seq-th student (1-based) of a batch.
// Ids are stable for a given batch and unique across batches.
func StudentID(batch uuid.UUID, seq int) string {
	return uuid.NewSHA1(batch, []byte("row-"+strconv.Itoa(seq))).String()
}

// Ingest normalizes rows. decodeErr is the decoder's own failure signal; when
// non-nil the rows are ignored and the ingestion fails with MalformedInput.
func (in *Ingestor) Ingest(batch uuid.UUID, rows []Row, decodeErr error) (*Roster, error) {
	if decodeErr != nil {
		if KindOf(decodeErr) == KindMalformedInput {
			return nil, decodeErr
		}
		return nil, malformed("ingest", decodeErr, "unreadable spreadsheet")
	}

	students := make([]Student, 0, len(rows))
	var all, advisory []Issue
	bad := 0
	for i, row := range rows {
		s, issues := in.normalizer.Normalize(row)
		s.ID = StudentID(batch, i+1)
		students = append(students, s)
		all = append(all, issues...)

		rejected := false
		for _, is := range issues {
			if is.Fatal() {
				rejected = true
			} else {
				advisory = append(advisory, is)
			}
		}
		if rejected {
			bad++
		}
	}

	if bad > 0 {
		return nil, &Error{
			Kind:   KindValidationFailed,
			Op:     "ingest",
			Detail: fmt.Sprintf("%d of %d rows are missing required fields", bad, len(rows)),
			Issues: all,
		}
	}

	return &Roster{BatchID: batch, Students: students, Issues: advisory}, nil
}
