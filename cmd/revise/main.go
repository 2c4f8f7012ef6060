package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"storyloom/api/internal/archive"
	"storyloom/api/internal/config"
	"storyloom/api/internal/generate"
	"storyloom/api/internal/paragraph"
	"storyloom/api/internal/revision"
	"storyloom/api/internal/search"
	"storyloom/api/internal/session"
	"storyloom/api/internal/store"
	"storyloom/api/internal/textdiff"
	"storyloom/api/internal/util"
)

func main() {
	var (
		demo      = flag.Bool("demo", false, "run against an in-memory store with the offline generator")
		storyID   = flag.String("story", "", "story id (defaults to a fresh id)")
		synopsis  = flag.String("synopsis", "", "synopsis for a new root generation")
		styleNote = flag.String("style", "", "style note for a new root generation")
		length    = flag.Int("length", 0, "requested length in words")
		genID     = flag.String("generation", "", "existing generation to revise (skips root creation)")
		request   = flag.String("request", "", "free-text revision request")
		pins      = flag.String("pin", "", "comma-separated paragraph indices to pin as context")
		accept    = flag.Bool("accept", false, "commit and accept the proposal after review")
		find      = flag.String("search", "", "search accepted generations instead of revising")
	)
	flag.Parse()

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		dataStore  revisionStore
		pgfts      *search.PgFTS
		searchable bool
	)
	if *demo {
		dataStore = store.NewMemoryStore()
	} else {
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		defer db.Close()
		if err := store.EnsureSchema(ctx, db); err != nil {
			log.Fatalf("schema setup failed: %v", err)
		}
		dataStore = store.NewPostgresStore(db)
		pgfts = search.NewPgFTS(db)
		searchable = true
	}

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
		searchable = true
	}
	var searchService *search.Service
	if searchable {
		searchService = search.NewService(meiliClient, pgfts)
	}

	if err := os.MkdirAll(cfg.ArchiveDir, 0o755); err != nil {
		log.Fatalf("failed to create archive dir: %v", err)
	}
	archiveService := archive.New(cfg.ArchiveDir)

	var gen generate.Generator
	if *demo || cfg.OpenAIAPIKey == "" {
		log.Printf("Using offline generator (no OPENAI_API_KEY)")
		gen = generate.Mock{}
	} else {
		openaiGen, err := generate.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
		if err != nil {
			log.Fatalf("openai generator setup failed: %v", err)
		}
		gen = openaiGen
	}

	service := revision.NewService(dataStore, gen, archiveService, searchService)

	if *find != "" {
		runSearch(service, *find, *storyID)
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()

	target, err := resolveTarget(reqCtx, service, *genID, *storyID, *synopsis, *styleNote, *length)
	if err != nil {
		log.Fatalf("resolve generation: %v", err)
	}
	fmt.Printf("Generation %s (story %s)\n\n%s\n\n", target.ID, target.StoryID, target.GeneratedText)

	if strings.TrimSpace(*request) == "" && strings.TrimSpace(*pins) == "" {
		return
	}

	selection, err := buildSelection(ctx, cfg, target, *pins)
	if err != nil {
		log.Fatalf("build selection: %v", err)
	}

	proposalResult, err := service.RequestRevision(reqCtx, revision.RevisionRequest{
		GenerationID: target.ID,
		Selection:    selection,
		UserRequest:  *request,
	})
	if err != nil {
		log.Fatalf("revision request failed: %v", err)
	}

	review, err := service.Review(reqCtx, target.ID, proposalResult)
	if err != nil {
		log.Fatalf("review failed: %v", err)
	}
	printDiff(review)

	if !*accept {
		fmt.Println("\nRe-run with -accept to commit this proposal.")
		return
	}

	child, err := service.CommitProposal(reqCtx, revision.RevisionRequest{
		GenerationID: target.ID,
		Selection:    selection,
		UserRequest:  *request,
	}, proposalResult)
	if err != nil {
		log.Fatalf("commit proposal failed: %v", err)
	}
	accepted, err := service.Accept(reqCtx, child.ID)
	if err != nil {
		log.Fatalf("accept failed: %v", err)
	}
	fmt.Printf("\nAccepted generation %s (+%d -%d lines)\n", accepted.ID, review.Added, review.Removed)
}

// revisionStore is the store surface cmd/revise needs; both the Postgres and
// the in-memory store satisfy it.
type revisionStore interface {
	InsertGeneration(context.Context, store.Generation) error
	GetGeneration(context.Context, string) (store.Generation, error)
	ListBranch(context.Context, string) ([]store.Generation, error)
	AcceptGeneration(context.Context, string) error
	RejectGeneration(context.Context, string) (bool, error)
	History(context.Context, string) ([]store.Generation, error)
	ListRecent(context.Context, string, int) ([]store.Generation, error)
}

func resolveTarget(ctx context.Context, service *revision.Service, genID, storyID, synopsis, styleNote string, length int) (store.Generation, error) {
	if genID != "" {
		path, err := service.History(ctx, genID)
		if err != nil {
			return store.Generation{}, err
		}
		return path[len(path)-1], nil
	}
	if strings.TrimSpace(synopsis) == "" {
		return store.Generation{}, fmt.Errorf("provide -generation or -synopsis")
	}
	if storyID == "" {
		storyID = util.ShortID("story")
	}
	return service.CreateRoot(ctx, revision.CreateRootInput{
		StoryID:         storyID,
		Synopsis:        synopsis,
		StyleNote:       styleNote,
		RequestedLength: length,
	})
}

// buildSelection pins the requested paragraph indices against the target's
// text. When Redis is configured the snapshot is persisted per chat session so
// a later invocation can continue the same selection.
func buildSelection(ctx context.Context, cfg config.Config, target store.Generation, pins string) (session.ContextSelection, error) {
	sess := session.NewSession(target.ID)
	paragraphs := paragraph.Split(target.GeneratedText)

	for _, field := range strings.Split(pins, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		index, err := strconv.Atoi(field)
		if err != nil {
			return session.ContextSelection{}, fmt.Errorf("bad paragraph index %q", field)
		}
		if index < 0 || index >= len(paragraphs) {
			return session.ContextSelection{}, fmt.Errorf("paragraph index %d out of range (document has %d)", index, len(paragraphs))
		}
		sess.Add(paragraphs[index])
	}

	snapshot := sess.Snapshot()
	if strings.TrimSpace(cfg.RedisURL) != "" {
		redisStore, err := session.NewRedisStore(cfg.RedisURL, cfg.SelectionTTL)
		if err != nil {
			log.Printf("redis selection store unavailable: %v", err)
			return snapshot, nil
		}
		defer redisStore.Close()
		if err := redisStore.SaveSelection(ctx, target.ID, snapshot); err != nil {
			log.Printf("persist selection: %v", err)
		}
	}
	return snapshot, nil
}

func printDiff(review revision.Review) {
	fmt.Printf("Proposed change (+%d -%d lines):\n\n", review.Added, review.Removed)
	for _, seg := range review.Segments {
		prefix := "  "
		switch seg.Kind {
		case textdiff.Added:
			prefix = "+ "
		case textdiff.Removed:
			prefix = "- "
		}
		for _, line := range strings.Split(strings.TrimSuffix(seg.Content, "\n"), "\n") {
			fmt.Println(prefix + line)
		}
	}
}

func runSearch(service *revision.Service, query, storyID string) {
	resp := service.Search(search.Query{Text: query, FilterStoryID: storyID, Limit: 10})
	fmt.Printf("%d results for %q\n", resp.Total, resp.Query)
	for _, r := range resp.Results {
		fmt.Printf("  %s [%s] %s\n      %s\n", r.ID, r.Status, r.Synopsis, r.Snippet)
	}
}
