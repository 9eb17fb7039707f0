//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock
package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"stitch/pkg/logger"
)

var pageNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*\.html$`)

// PageService assembles full pages: it loads a page shell, splices every
// registered fragment into its placeholder, and marks the active menu item.
type PageService interface {
	Render(ctx context.Context, pageName string) (string, error)
}

type pageService struct {
	pagesDir  string
	fragments FragmentService
	menu      MenuService
}

func NewPageService(pagesDir string, fragments FragmentService, menu MenuService) PageService {
	return &pageService{pagesDir: pagesDir, fragments: fragments, menu: menu}
}

func (s *pageService) Render(ctx context.Context, pageName string) (string, error) {
	if !pageNamePattern.MatchString(pageName) {
		return "", ErrInvalid
	}

	shell, err := os.ReadFile(filepath.Join(s.pagesDir, pageName))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("read page shell: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(shell))
	if err != nil {
		return "", fmt.Errorf("parse page shell: %w", err)
	}

	// Fetch all fragments concurrently; injection happens afterwards on the
	// single shared document. A failed fragment is logged and skipped, the
	// rest of the page still renders.
	fragments := s.fragments.Fragments()
	bodies := make([]string, len(fragments))
	failed := make([]bool, len(fragments))

	var group errgroup.Group
	for i, fragment := range fragments {
		group.Go(func() error {
			body, fetchErr := s.fragments.Fetch(ctx, fragment.Path)
			if fetchErr != nil {
				failed[i] = true
				return nil
			}
			bodies[i] = body
			return nil
		})
	}
	_ = group.Wait()

	for i, fragment := range fragments {
		if failed[i] {
			logger.Warn("page fragment skipped", "module", "service", "action", "render", "resource", "page", "result", "partial", "page", pageName, "fragment", fragment.Name)
			continue
		}
		s.fragments.InjectInto(doc, fragment, bodies[i])
	}

	// The menu lives in the header fragment, so highlighting runs only after
	// every load has completed.
	s.menu.Activate(doc, pageName)

	rendered, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}

	logger.Debug("page rendered", "module", "service", "action", "render", "resource", "page", "result", "ok", "page", pageName, "fragments", len(fragments))
	return rendered, nil
}
