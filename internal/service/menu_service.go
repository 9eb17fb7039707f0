//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock
package service

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"stitch/internal/config"
	"stitch/internal/model"
	"stitch/internal/urlutil"
)

// MenuService marks the navigation link for the current page.
type MenuService interface {
	// Activate clears existing marker classes in every configured menu list
	// and applies the current-item or ancestor class for currentPath.
	// Returns the links it touched with their computed classes.
	Activate(doc *goquery.Document, currentPath string) []model.MenuItem
}

type menuService struct {
	selectors     []string
	detailPages   map[string]struct{}
	indexPage     string
	solutionsPage string
}

func NewMenuService() MenuService {
	detail := make(map[string]struct{}, len(config.DefaultDetailPages))
	for _, page := range config.DefaultDetailPages {
		detail[page] = struct{}{}
	}
	return &menuService{
		selectors:     config.DefaultMenuSelectors,
		detailPages:   detail,
		indexPage:     config.IndexPage,
		solutionsPage: config.SolutionsPage,
	}
}

func (s *menuService) Activate(doc *goquery.Document, currentPath string) []model.MenuItem {
	page := urlutil.PageName(currentPath, s.indexPage)
	_, isDetailPage := s.detailPages[page]

	var items []model.MenuItem
	for _, selector := range s.selectors {
		doc.Find(selector).Find("a").Each(func(_ int, link *goquery.Selection) {
			link.RemoveClass(config.CurrentItemClass)
			link.RemoveClass(config.CurrentAncestorClass)

			href, _ := link.Attr("href")
			linkPage := urlutil.PageName(href, "")

			class := ""
			switch {
			case linkPage == page:
				class = config.CurrentItemClass
			case linkPage == "" && page == s.indexPage:
				// bare "/" or "./" links point at the index page
				class = config.CurrentItemClass
			case isDetailPage && linkPage == s.solutionsPage:
				class = config.CurrentAncestorClass
			}
			if class != "" {
				link.AddClass(class)
			}

			items = append(items, model.MenuItem{
				Href:  href,
				Label: strings.TrimSpace(link.Text()),
				Class: class,
			})
		})
	}
	return items
}
