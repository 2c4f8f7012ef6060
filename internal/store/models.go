package store

import "time"

// Generation statuses. PROPOSED is the only non-terminal state; a node moves
// to exactly one of ACCEPTED or REJECTED and stays there. A superseded node
// keeps status ACCEPTED but loses the live flag.
const (
	StatusProposed = "PROPOSED"
	StatusAccepted = "ACCEPTED"
	StatusRejected = "REJECTED"
)

// Generation is one node in a revision lineage tree. ParentID, RootID,
// GeneratedText, and CreatedAt are immutable after insert; revisions always
// produce a new node.
type Generation struct {
	ID                string
	ParentID          *string
	RootID            string
	StoryID           string
	ChapterNumber     *int
	PartNumber        *int
	Synopsis          string
	StyleNote         string
	RequestedLength   int
	Prompt            string
	GeneratedText     string
	IterationFeedback string
	Status            string
	IsAccepted        bool
	CreatedAt         time.Time
}

// IsRoot reports whether the generation starts a lineage tree.
func (g Generation) IsRoot() bool {
	return g.ParentID == nil
}

// CommitInfo describes one commit in a story's accepted-text archive.
type CommitInfo struct {
	Hash      string
	Message   string
	Author    string
	CreatedAt time.Time
	Added     int
	Removed   int
}
