// Package revision is the service boundary of the lineage engine: it creates
// and transitions generations, orchestrates revision requests against the
// generation collaborator, and renders proposals as reviewable diffs.
package revision

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"storyloom/api/internal/archive"
	"storyloom/api/internal/generate"
	"storyloom/api/internal/proposal"
	"storyloom/api/internal/search"
	"storyloom/api/internal/session"
	"storyloom/api/internal/store"
	"storyloom/api/internal/textdiff"
	"storyloom/api/internal/util"
)

type dataStore interface {
	InsertGeneration(context.Context, store.Generation) error
	GetGeneration(context.Context, string) (store.Generation, error)
	ListBranch(context.Context, string) ([]store.Generation, error)
	AcceptGeneration(context.Context, string) error
	RejectGeneration(context.Context, string) (bool, error)
	History(context.Context, string) ([]store.Generation, error)
	ListRecent(context.Context, string, int) ([]store.Generation, error)
}

// Service wires the lineage store, the generation collaborator, and the
// optional archive and search sidecars.
type Service struct {
	store   dataStore
	gen     generate.Generator
	archive *archive.Service
	search  *search.Service
}

// NewService creates the revision service. archiveSvc and searchSvc may be nil;
// accepts then skip the corresponding side effects.
func NewService(dataStore dataStore, gen generate.Generator, archiveSvc *archive.Service, searchSvc *search.Service) *Service {
	return &Service{
		store:   dataStore,
		gen:     gen,
		archive: archiveSvc,
		search:  searchSvc,
	}
}

// CreateRootInput carries the seed parameters of a new lineage tree.
type CreateRootInput struct {
	StoryID         string
	ChapterNumber   *int
	PartNumber      *int
	Synopsis        string
	StyleNote       string
	RequestedLength int
	// GeneratedText, when set, skips the collaborator call and seeds the
	// root with the given text.
	GeneratedText string
}

// CreateRoot starts a new lineage tree. When no seed text is supplied, the
// generation collaborator produces the root text from the synopsis.
func (s *Service) CreateRoot(ctx context.Context, in CreateRootInput) (store.Generation, error) {
	if strings.TrimSpace(in.Synopsis) == "" {
		return store.Generation{}, validationError("synopsis is required")
	}

	g := store.Generation{
		ID:              util.NewID("gen"),
		StoryID:         in.StoryID,
		ChapterNumber:   in.ChapterNumber,
		PartNumber:      in.PartNumber,
		Synopsis:        in.Synopsis,
		StyleNote:       in.StyleNote,
		RequestedLength: in.RequestedLength,
		GeneratedText:   in.GeneratedText,
		Status:          store.StatusProposed,
	}
	g.RootID = g.ID

	if g.GeneratedText == "" {
		req := generate.Request{
			Synopsis:        in.Synopsis,
			StyleNote:       in.StyleNote,
			RequestedLength: in.RequestedLength,
			UserRequest:     "Write the full passage described by the synopsis.",
		}
		g.Prompt = generate.BuildPrompt(req)

		p, err := s.gen.Propose(ctx, req)
		if err != nil {
			return store.Generation{}, s.mapGeneratorErr(err)
		}
		text, err := proposal.Apply(p, "")
		if err != nil {
			return store.Generation{}, malformedProposalError(err.Error())
		}
		g.GeneratedText = text
	}

	if err := s.store.InsertGeneration(ctx, g); err != nil {
		return store.Generation{}, fmt.Errorf("create root generation: %w", err)
	}
	return g, nil
}

// CreateChildInput carries the parameters of a revision node.
type CreateChildInput struct {
	GeneratedText     string
	Prompt            string
	IterationFeedback string
}

// CreateChild appends a node under parentID. The child inherits the parent's
// placement and generation parameters and starts unaccepted.
func (s *Service) CreateChild(ctx context.Context, parentID string, in CreateChildInput) (store.Generation, error) {
	if strings.TrimSpace(in.GeneratedText) == "" {
		return store.Generation{}, validationError("generated text is required")
	}

	parent, err := s.getGeneration(ctx, parentID)
	if err != nil {
		return store.Generation{}, err
	}

	g := store.Generation{
		ID:                util.NewID("gen"),
		ParentID:          &parent.ID,
		RootID:            parent.RootID,
		StoryID:           parent.StoryID,
		ChapterNumber:     parent.ChapterNumber,
		PartNumber:        parent.PartNumber,
		Synopsis:          parent.Synopsis,
		StyleNote:         parent.StyleNote,
		RequestedLength:   parent.RequestedLength,
		Prompt:            in.Prompt,
		GeneratedText:     in.GeneratedText,
		IterationFeedback: in.IterationFeedback,
		Status:            store.StatusProposed,
	}

	if err := s.store.InsertGeneration(ctx, g); err != nil {
		return store.Generation{}, fmt.Errorf("create child generation: %w", err)
	}
	return g, nil
}

// Accept makes the target the single live node of its branch, archives the
// accepted text, and refreshes the search index. Accepting the already-live
// node is a no-op.
func (s *Service) Accept(ctx context.Context, id string) (store.Generation, error) {
	err := s.store.AcceptGeneration(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Generation{}, notFoundError("generation not found")
	}
	if errors.Is(err, store.ErrGenerationRejected) {
		return store.Generation{}, validationError("a rejected generation cannot be accepted")
	}
	if err != nil {
		return store.Generation{}, fmt.Errorf("accept generation: %w", err)
	}

	g, err := s.getGeneration(ctx, id)
	if err != nil {
		return store.Generation{}, err
	}

	if s.archive != nil {
		storyKey := g.StoryID
		if storyKey == "" {
			storyKey = g.RootID
		}
		if _, err := s.archive.CommitAccepted(storyKey, g.GeneratedText, "storyloom", "Accept "+g.ID); err != nil {
			log.Printf("revision: archive accepted text for %s: %v", g.ID, err)
		}
	}
	if s.search != nil {
		s.search.IndexGeneration(search.GenerationRecord{
			ID:       g.ID,
			StoryID:  g.StoryID,
			Synopsis: g.Synopsis,
			Text:     g.GeneratedText,
			Status:   g.Status,
		})
	}
	return g, nil
}

// Reject marks a proposed node rejected. Rejection is terminal for the node
// but it may still parent further attempts.
func (s *Service) Reject(ctx context.Context, id string) (store.Generation, error) {
	changed, err := s.store.RejectGeneration(ctx, id)
	if err != nil {
		return store.Generation{}, fmt.Errorf("reject generation: %w", err)
	}
	g, err := s.getGeneration(ctx, id)
	if err != nil {
		return store.Generation{}, err
	}
	if !changed && g.Status != store.StatusRejected {
		return store.Generation{}, validationError("only a proposed generation can be rejected")
	}
	return g, nil
}

// History returns the path from the root down to id.
func (s *Service) History(ctx context.Context, id string) ([]store.Generation, error) {
	path, err := s.store.History(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFoundError("generation not found")
	}
	if err != nil {
		return nil, fmt.Errorf("lineage history: %w", err)
	}
	if len(path) == 0 {
		return nil, notFoundError("generation not found")
	}
	return path, nil
}

// ListRecent lists a story's generations newest first.
func (s *Service) ListRecent(ctx context.Context, storyID string, limit int) ([]store.Generation, error) {
	items, err := s.store.ListRecent(ctx, storyID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent generations: %w", err)
	}
	return items, nil
}

// RevisionRequest is one orchestrated revision round against a generation
// snapshot.
type RevisionRequest struct {
	GenerationID string
	Selection    session.ContextSelection
	UserRequest  string
}

// RequestRevision assembles the request bundle and delegates to the generation
// collaborator. It validates the returned proposal shape and never mutates
// lineage; committing the proposal is a separate caller action.
func (s *Service) RequestRevision(ctx context.Context, in RevisionRequest) (proposal.Proposal, error) {
	if strings.TrimSpace(in.UserRequest) == "" && in.Selection.Empty() {
		return proposal.Proposal{}, emptyRequestError()
	}

	g, err := s.getGeneration(ctx, in.GenerationID)
	if err != nil {
		return proposal.Proposal{}, err
	}

	req := generate.Request{
		Synopsis:        g.Synopsis,
		StyleNote:       g.StyleNote,
		RequestedLength: g.RequestedLength,
		AcceptedText:    g.GeneratedText,
		Selection:       in.Selection,
		UserRequest:     in.UserRequest,
		PriorHistory:    s.priorHistory(ctx, g),
	}

	p, err := s.gen.Propose(ctx, req)
	if err != nil {
		return proposal.Proposal{}, s.mapGeneratorErr(err)
	}
	if err := p.Validate(); err != nil {
		return proposal.Proposal{}, malformedProposalError(err.Error())
	}
	return p, nil
}

// Review renders a proposal as a diff against the generation's text without
// committing anything.
type Review struct {
	GenerationID string             `json:"generationId"`
	ProposedText string             `json:"proposedText"`
	Segments     []textdiff.Segment `json:"segments"`
	Added        int                `json:"added"`
	Removed      int                `json:"removed"`
}

// Review applies the proposal to the generation's current text and returns the
// resulting edit script. Stale patches surface as STALE_INDEX or
// PATCH_CONFLICT; the base text is never modified.
func (s *Service) Review(ctx context.Context, generationID string, p proposal.Proposal) (Review, error) {
	g, err := s.getGeneration(ctx, generationID)
	if err != nil {
		return Review{}, err
	}

	result, err := proposal.Apply(p, g.GeneratedText)
	if err != nil {
		return Review{}, mapApplyErr(err)
	}

	segments := textdiff.Segments(g.GeneratedText, result)
	added, removed := textdiff.Stats(segments)
	return Review{
		GenerationID: g.ID,
		ProposedText: result,
		Segments:     segments,
		Added:        added,
		Removed:      removed,
	}, nil
}

// CommitProposal materializes a reviewed proposal as a new child generation of
// the node it was computed against. The child starts unaccepted; accepting it
// is still a separate step.
func (s *Service) CommitProposal(ctx context.Context, in RevisionRequest, p proposal.Proposal) (store.Generation, error) {
	g, err := s.getGeneration(ctx, in.GenerationID)
	if err != nil {
		return store.Generation{}, err
	}

	result, err := proposal.Apply(p, g.GeneratedText)
	if err != nil {
		return store.Generation{}, mapApplyErr(err)
	}

	prompt := generate.BuildPrompt(generate.Request{
		Synopsis:        g.Synopsis,
		StyleNote:       g.StyleNote,
		RequestedLength: g.RequestedLength,
		AcceptedText:    g.GeneratedText,
		Selection:       in.Selection,
		UserRequest:     in.UserRequest,
	})
	return s.CreateChild(ctx, g.ID, CreateChildInput{
		GeneratedText:     result,
		Prompt:            prompt,
		IterationFeedback: in.UserRequest,
	})
}

// Search queries the generation index. Returns an empty response when no
// search backend is configured.
func (s *Service) Search(q search.Query) search.Response {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: q.Text}
	}
	return s.search.Search(q)
}

// ArchiveHistory lists the story's accepted drafts newest first.
func (s *Service) ArchiveHistory(storyID string, limit int) ([]store.CommitInfo, error) {
	if s.archive == nil {
		return []store.CommitInfo{}, nil
	}
	return s.archive.History(storyID, limit)
}

func (s *Service) getGeneration(ctx context.Context, id string) (store.Generation, error) {
	g, err := s.store.GetGeneration(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Generation{}, notFoundError("generation not found")
	}
	if err != nil {
		return store.Generation{}, fmt.Errorf("get generation: %w", err)
	}
	return g, nil
}

// priorHistory rebuilds the conversation leading to g from its lineage path.
// A missing path degrades to no history rather than failing the request.
func (s *Service) priorHistory(ctx context.Context, g store.Generation) []generate.Turn {
	if g.IsRoot() {
		return nil
	}
	path, err := s.store.History(ctx, g.ID)
	if err != nil {
		log.Printf("revision: load history for %s: %v", g.ID, err)
		return nil
	}
	turns := make([]generate.Turn, 0, len(path)*2)
	for _, node := range path {
		if node.IterationFeedback != "" {
			turns = append(turns, generate.Turn{Role: "user", Content: node.IterationFeedback})
		}
		turns = append(turns, generate.Turn{Role: "assistant", Content: node.GeneratedText})
	}
	return turns
}

func (s *Service) mapGeneratorErr(err error) error {
	if errors.Is(err, generate.ErrUnavailable) {
		return generationUnavailableError(err.Error())
	}
	return fmt.Errorf("generation collaborator: %w", err)
}

func mapApplyErr(err error) error {
	var conflict *proposal.PatchConflictError
	if errors.As(err, &conflict) {
		return patchConflictError(conflict.Error(), conflict.Index)
	}
	var stale *proposal.StaleIndexError
	if errors.As(err, &stale) {
		return staleIndexError(stale.Error(), stale.Index)
	}
	return malformedProposalError(err.Error())
}
