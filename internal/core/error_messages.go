// Package core provides the roster ingestion and project state logic.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. Rejections carrying a *Error are classified by kind and
// operation first; everything else falls back to case-insensitive pattern
// matching on the error text.
//
// # Roster Errors (ROS001-ROS099)
//
//	ROS001 - Unreadable spreadsheet: the file could not be decoded
//	         Action: Save the file as .xlsx or UTF-8 .csv and upload again
//	ROS002 - Missing required field: a row has no name or gender
//	         Action: Fill in name and gender for every student row
//
// # Project Errors (PRJ001-PRJ099)
//
//	PRJ001 - Malformed project: the body is not a valid project document
//	         Action: Export the project again and retry
//	PRJ002 - Invalid project: required fields missing or ids duplicated
//	         Action: Ensure every student has id, name and gender
//	PRJ003 - Dangling reference: an id points to a missing student or group
//	         Action: Remove references to deleted students or groups
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large            Patterns: "file too large", "request body too large"
//	FILE004 - No file                   Patterns: "no file provided"
//	FILE005 - Empty file                Patterns: "empty file"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy                Patterns: "too many uploads"
//	UPL003 - Roster expired             Patterns: "upload not found"
//	UPL004 - Request cancelled          Patterns: "context canceled"
//	UPL005 - Request timeout            Patterns: "context deadline exceeded"
//
// # Archive Errors (ARC001-ARC099)
//
//	ARC001 - Project not found          Patterns: "project not found"
//	ARC002 - Archive disabled           Patterns: "archive not configured"
//	ARC003 - Invalid project name       Patterns: "invalid project name"
//	ARC004 - Archive unavailable        Patterns: "connection refused", "database is locked"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Support staff should check application
// logs for the original technical error when users report ERR000.
package core

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgBadSpreadsheet = UserMessage{
		Message: "The spreadsheet could not be read",
		Action:  "Save the file as .xlsx or UTF-8 .csv and upload again",
		Code:    "ROS001",
	}
	msgRosterRequired = UserMessage{
		Message: "Some students are missing a name or gender",
		Action:  "Fill in name and gender for every student row",
		Code:    "ROS002",
	}
	msgBadProject = UserMessage{
		Message: "The project file is not a valid project document",
		Action:  "Export the project again and retry",
		Code:    "PRJ001",
	}
	msgProjectInvalid = UserMessage{
		Message: "The project has students or groups with missing or duplicate fields",
		Action:  "Ensure every student has an id, name and gender",
		Code:    "PRJ002",
	}
	msgProjectDangling = UserMessage{
		Message: "The project references students or groups that do not exist",
		Action:  "Remove references to deleted students or groups",
		Code:    "PRJ003",
	}
)

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so more specific patterns come first.
var errorPatterns = []errorPattern{
	// =========================================================================
	// File Errors (FILE001-FILE005)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Remove unused sheets or split the roster",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Remove unused sheets or split the roster",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a roster spreadsheet to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a spreadsheet with a header row and student rows",
			Code:    "FILE005",
		},
	},

	// =========================================================================
	// Upload Errors (UPL002-UPL005)
	// =========================================================================
	{
		pattern: "too many uploads",
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "upload not found",
		msg: UserMessage{
			Message: "Roster result not found",
			Action:  "The result may have expired. Please upload the file again",
			Code:    "UPL003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		},
	},

	// =========================================================================
	// Archive Errors (ARC001-ARC004)
	// =========================================================================
	{
		pattern: "project not found",
		msg: UserMessage{
			Message: "No saved project with that name",
			Action:  "Check the project list for the exact name",
			Code:    "ARC001",
		},
	},
	{
		pattern: "archive not configured",
		msg: UserMessage{
			Message: "Saving projects is not enabled on this server",
			Action:  "Download the project file instead",
			Code:    "ARC002",
		},
	},
	{
		pattern: "invalid project name",
		msg: UserMessage{
			Message: "Project names may contain letters, digits, spaces, '.', '_' and '-'",
			Action:  "Choose a shorter name without special characters",
			Code:    "ARC003",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Project storage is unavailable",
			Action:  "Please try again in a few moments",
			Code:    "ARC004",
		},
	},
	{
		pattern: "database is locked",
		msg: UserMessage{
			Message: "Project storage is unavailable",
			Action:  "Please try again in a few moments",
			Code:    "ARC004",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Rejections are classified by kind; other errors by the first matching
// pattern. If nothing matches, the ERR000 fallback is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var rej *Error
	if errors.As(err, &rej) {
		return rejectionMessage(rej)
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

func rejectionMessage(e *Error) UserMessage {
	project := e.Op == "project"
	switch e.Kind {
	case KindMalformedInput:
		if project {
			return msgBadProject
		}
		return msgBadSpreadsheet
	case KindValidationFailed:
		if project {
			return msgProjectInvalid
		}
		return msgRosterRequired
	case KindReferentialIntegrity:
		return msgProjectDangling
	}
	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
