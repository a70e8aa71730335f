// Package core provides roster ingestion and project state validation.
//
// The package holds all domain logic independent of any transport. It is used
// by the HTTP server and by the rosterctl command without modification.
//
// # Roster ingestion
//
// An uploaded spreadsheet flows through three stages:
//
//  1. [DecodeSpreadsheet] reads an .xlsx or .csv file into [Row] values,
//     mapping header labels through [HeaderAliases]. Each cell is a [Cell]:
//     absent, null, number or string.
//  2. [Normalizer.Normalize] turns one row into a [Student] draft plus field
//     issues. name and gender are required; academic_score defaults to
//     [DefaultAcademicScore]; behavior_type is passed through unchanged and
//     checked against [BehaviorGrammar] for advisories only.
//  3. [Ingestor.Ingest] assigns ids and accepts or rejects the whole roster.
//
// [Service.ParseRoster] runs the stages under an [IngestLimiter] and caches
// accepted rosters in a [ResultCache].
//
// # Project state
//
// A project snapshot is a JSON document with students, groups and settings.
// [Validator.Validate] checks structure, required fields and references in
// a fixed order; [Validator.Commit] installs an accepted snapshot in the
// [Store], which readers access without locking.
//
// # Errors
//
// Every rejection is an [*Error] whose [Kind] is one of MalformedInput,
// ValidationFailed or ReferentialIntegrityError. Field-level findings are
// carried as [Issue] values. [MapError] converts any error into a
// [UserMessage] with a support code.
//
// # Named projects
//
// When a [ProjectArchive] is configured, the current snapshot can be saved
// under a name and loaded back. Loading goes through the same validator.
package core
