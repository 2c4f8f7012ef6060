// Package archive keeps an auditable git history of each story's accepted
// text. Every accept lands one commit in a story-scoped repository, so the
// full sequence of live texts can be reviewed independently of the lineage
// tree.
package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"storyloom/api/internal/store"
	"storyloom/api/internal/textdiff"
)

const draftFile = "draft.md"

type Service struct {
	baseDir string
	lockMu  sync.Mutex
	locks   map[string]*sync.Mutex
}

func New(baseDir string) *Service {
	return &Service{
		baseDir: baseDir,
		locks:   make(map[string]*sync.Mutex),
	}
}

// CommitAccepted records text as the story's new accepted draft. The commit
// message carries the added/removed line counts against the previous draft.
func (s *Service) CommitAccepted(storyID, text, author, message string) (store.CommitInfo, error) {
	lock := s.storyLock(storyID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := s.ensureRepo(storyID)
	if err != nil {
		return store.CommitInfo{}, err
	}

	previous, _ := s.headText(repo)
	added, removed := textdiff.Stats(textdiff.Segments(previous, text))

	path := s.repoPath(storyID)
	if err := os.WriteFile(filepath.Join(path, draftFile), []byte(text), 0o644); err != nil {
		return store.CommitInfo{}, fmt.Errorf("write draft: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return store.CommitInfo{}, fmt.Errorf("open worktree: %w", err)
	}
	if _, err := worktree.Add(draftFile); err != nil {
		return store.CommitInfo{}, fmt.Errorf("git add draft: %w", err)
	}

	if message == "" {
		message = "Accept revision"
	}
	hash, err := worktree.Commit(fmt.Sprintf("%s (+%d -%d)", message, added, removed), &git.CommitOptions{
		AllowEmptyCommits: true,
		Author: &object.Signature{
			Name:  author,
			Email: fmt.Sprintf("%s@local.storyloom.dev", sanitizeEmail(author)),
			When:  time.Now(),
		},
	})
	if err != nil {
		return store.CommitInfo{}, fmt.Errorf("commit draft: %w", err)
	}

	commitObj, err := repo.CommitObject(hash)
	if err != nil {
		return store.CommitInfo{}, fmt.Errorf("read commit object: %w", err)
	}
	info := toCommitInfo(commitObj)
	info.Added = added
	info.Removed = removed
	return info, nil
}

// HeadText returns the latest archived draft, or "" if the story has no
// archive yet.
func (s *Service) HeadText(storyID string) (string, error) {
	lock := s.storyLock(storyID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(s.repoPath(storyID))
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	return s.headText(repo)
}

// History lists the story's accepted drafts newest first, with line stats
// computed against each commit's parent.
func (s *Service) History(storyID string, limit int) ([]store.CommitInfo, error) {
	lock := s.storyLock(storyID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(s.repoPath(storyID))
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return []store.CommitInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve head: %w", err)
	}
	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	if limit <= 0 {
		limit = 50
	}
	history := make([]store.CommitInfo, 0, limit)
	for len(history) < limit {
		commitObj, err := iter.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterate log: %w", err)
		}
		info := toCommitInfo(commitObj)
		info.Added, info.Removed = commitStats(commitObj)
		history = append(history, info)
	}
	return history, nil
}

func (s *Service) ensureRepo(storyID string) (*git.Repository, error) {
	path := s.repoPath(storyID)
	repo, err := git.PlainOpen(path)
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	repo, err = git.PlainInit(path, false)
	if err != nil {
		return nil, fmt.Errorf("init archive: %w", err)
	}
	return repo, nil
}

func (s *Service) headText(repo *git.Repository) (string, error) {
	head, err := repo.Head()
	if err != nil {
		// Empty repository: no commits yet.
		return "", nil
	}
	commitObj, err := repo.CommitObject(head.Hash())
	if err != nil {
		return "", fmt.Errorf("load head commit: %w", err)
	}
	return draftAt(commitObj)
}

func draftAt(commitObj *object.Commit) (string, error) {
	file, err := commitObj.File(draftFile)
	if errors.Is(err, object.ErrFileNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read draft from commit: %w", err)
	}
	contents, err := file.Contents()
	if err != nil {
		return "", fmt.Errorf("read draft contents: %w", err)
	}
	return contents, nil
}

func commitStats(commitObj *object.Commit) (added, removed int) {
	current, err := draftAt(commitObj)
	if err != nil {
		return 0, 0
	}
	previous := ""
	if commitObj.NumParents() > 0 {
		parent, err := commitObj.Parent(0)
		if err == nil {
			previous, _ = draftAt(parent)
		}
	}
	return textdiff.Stats(textdiff.Segments(previous, current))
}

func toCommitInfo(commitObj *object.Commit) store.CommitInfo {
	return store.CommitInfo{
		Hash:      commitObj.Hash.String(),
		Message:   strings.TrimSpace(commitObj.Message),
		Author:    commitObj.Author.Name,
		CreatedAt: commitObj.Author.When,
	}
}

func (s *Service) repoPath(storyID string) string {
	return filepath.Join(s.baseDir, storyID)
}

func (s *Service) storyLock(storyID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	lock, ok := s.locks[storyID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[storyID] = lock
	}
	return lock
}

func sanitizeEmail(author string) string {
	cleaned := strings.ToLower(strings.TrimSpace(author))
	cleaned = strings.ReplaceAll(cleaned, " ", ".")
	if cleaned == "" {
		return "storyloom"
	}
	return cleaned
}
