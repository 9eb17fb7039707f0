package config

// Chrome fingerprint headers used by the browser-mode fetcher.
const (
	ChromeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36"
	ChromeSecChUa   = `"Google Chrome";v="143", "Chromium";v="143", "Not;A=Brand";v="99"`
)

// Menu marker classes applied by the highlighter.
const (
	CurrentItemClass     = "current-menu-item"
	CurrentAncestorClass = "current-menu-ancestor"
)

// IndexPage is the page name an empty URL path resolves to.
const IndexPage = "index.html"

// SolutionsPage is the menu entry marked as ancestor for detail pages.
const SolutionsPage = "solutions.html"

// DefaultMenuSelectors are the navigation lists the highlighter scans.
var DefaultMenuSelectors = []string{"#menu", ".mobile-menu ul"}

// DefaultDetailPages are treated as descendants of the Solutions entry.
var DefaultDetailPages = []string{
	"strategic-documentation.html",
	"process-mapping.html",
	"knowledge-audit.html",
}
