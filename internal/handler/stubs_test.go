package handler_test

import (
	"context"
	"sync"
	"time"

	"stitch/internal/model"
	"stitch/internal/service"

	"github.com/PuerkitoBio/goquery"
)

// fragmentServiceStub serves canned fragment bodies keyed by path.
type fragmentServiceStub struct {
	mu           sync.Mutex
	fragments    []model.Fragment
	bodies       map[string]string
	fetchErr     map[string]error
	preview      model.FragmentPreview
	previewErr   error
	refreshErr   error
	refreshCalls int
}

var _ service.FragmentService = (*fragmentServiceStub)(nil)

func newFragmentServiceStub(fragments ...model.Fragment) *fragmentServiceStub {
	return &fragmentServiceStub{
		fragments: fragments,
		bodies:    make(map[string]string),
		fetchErr:  make(map[string]error),
	}
}

func (s *fragmentServiceStub) Fragments() []model.Fragment {
	return s.fragments
}

func (s *fragmentServiceStub) FragmentByName(name string) (model.Fragment, error) {
	for _, fragment := range s.fragments {
		if fragment.Name == name {
			return fragment, nil
		}
	}
	return model.Fragment{}, service.ErrNotFound
}

func (s *fragmentServiceStub) Fetch(ctx context.Context, path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fetchErr[path]; err != nil {
		return "", err
	}
	return s.bodies[path], nil
}

func (s *fragmentServiceStub) InjectInto(doc *goquery.Document, fragment model.Fragment, body string) bool {
	target := doc.Find(fragment.Selector)
	if target.Length() == 0 {
		return false
	}
	target.SetHtml(body)
	return true
}

func (s *fragmentServiceStub) LoadInto(ctx context.Context, doc *goquery.Document, fragment model.Fragment, onDone ...func()) error {
	body, err := s.Fetch(ctx, fragment.Path)
	if err != nil {
		return err
	}
	if s.InjectInto(doc, fragment, body) {
		for _, done := range onDone {
			done()
		}
	}
	return nil
}

func (s *fragmentServiceStub) Preview(ctx context.Context, name string) (model.FragmentPreview, error) {
	if s.previewErr != nil {
		return model.FragmentPreview{}, s.previewErr
	}
	return s.preview, nil
}

func (s *fragmentServiceStub) RefreshAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshCalls++
	return s.refreshErr
}

// cacheRepoStub keeps cached fragments in a map.
type cacheRepoStub struct {
	mu       sync.Mutex
	rows     map[string]model.CachedFragment
	purgeErr error
}

func newCacheRepoStub() *cacheRepoStub {
	return &cacheRepoStub{rows: make(map[string]model.CachedFragment)}
}

func (s *cacheRepoStub) GetByKey(ctx context.Context, key string) (*model.CachedFragment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[key]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (s *cacheRepoStub) Upsert(ctx context.Context, fragment model.CachedFragment) (model.CachedFragment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows[fragment.Key] = fragment
	return fragment, nil
}

func (s *cacheRepoStub) Touch(ctx context.Context, key string, fetchedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[key]
	if ok {
		row.FetchedAt = fetchedAt
		s.rows[key] = row
	}
	return nil
}

func (s *cacheRepoStub) List(ctx context.Context) ([]model.CachedFragment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]model.CachedFragment, 0, len(s.rows))
	for _, row := range s.rows {
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *cacheRepoStub) Purge(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.purgeErr != nil {
		return 0, s.purgeErr
	}
	purged := int64(len(s.rows))
	s.rows = make(map[string]model.CachedFragment)
	return purged, nil
}

// pageServiceStub returns a canned rendered page.
type pageServiceStub struct {
	rendered string
	err      error
}

func (s *pageServiceStub) Render(ctx context.Context, pageName string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.rendered, nil
}
