// Package generate abstracts the external text-generation collaborator behind
// a small interface so the orchestrator can be exercised without network
// access.
package generate

import (
	"context"
	"errors"

	"storyloom/api/internal/proposal"
	"storyloom/api/internal/session"
)

// ErrUnavailable wraps any transport or provider failure. The orchestrator
// surfaces it as-is; retry policy belongs to its caller.
var ErrUnavailable = errors.New("generation collaborator unavailable")

// Turn is one prior exchange in the revision conversation, used to carry
// iteration feedback into the next request.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the full bundle sent to the collaborator.
type Request struct {
	Synopsis        string
	StyleNote       string
	RequestedLength int
	AcceptedText    string
	Selection       session.ContextSelection
	UserRequest     string
	PriorHistory    []Turn
}

// Generator produces an edit proposal for a request bundle. Implementations
// must honor ctx cancellation; an abandoned request leaves no state behind.
type Generator interface {
	Propose(ctx context.Context, req Request) (proposal.Proposal, error)
}
