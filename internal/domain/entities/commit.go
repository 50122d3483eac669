package entities

import (
	"strings"
	"time"
)

// CommitDateLayout renders commit dates the way git log does by default.
const CommitDateLayout = "Mon Jan 2 15:04:05 2006 -0700"

// CommitRef is a commit identifier with the identifiers of its parents, in
// the order version control reports them.
type CommitRef struct {
	Hash    string
	Parents []string
}

// CommitDetails is what a person needs to recognize a commit.
type CommitDetails struct {
	Hash    string
	Author  string
	Date    time.Time
	Message string
}

// Subject returns the first line of the commit message.
func (c CommitDetails) Subject() string {
	subject, _, _ := strings.Cut(strings.TrimSpace(c.Message), "\n")
	return strings.TrimSpace(subject)
}
