//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock
package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Noooste/azuretls-client"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"stitch/internal/config"
	"stitch/internal/hashutil"
	"stitch/internal/model"
	"stitch/internal/repository"
	"stitch/internal/urlutil"
	"stitch/pkg/logger"
	"stitch/pkg/network"
	"stitch/pkg/sanitizer"
)

const (
	// maxConcurrentRefresh limits parallel fragment refreshes to avoid
	// overwhelming the origin.
	maxConcurrentRefresh = 4
	// maxConcurrentPerHost limits parallel requests to the same host to be polite.
	maxConcurrentPerHost = 1
	// hostInterval is the minimum spacing between requests to one host.
	hostInterval = 200 * time.Millisecond

	previewExcerptLen = 200
	maxFragmentSize   = 2 << 20
)

// DefaultFragments binds the known fragment files to their placeholder
// selectors.
var DefaultFragments = []model.Fragment{
	{Name: "header", Path: "header.html", Selector: "#header-placeholder"},
	{Name: "footer", Path: "footer.html", Selector: "#footer-placeholder"},
	{Name: "contact-section", Path: "contact-section.html", Selector: "#contact-placeholder"},
	{Name: "contact-modal", Path: "contact-modal.html", Selector: "#contact-modal-placeholder"},
}

// FragmentService fetches fragment markup and splices it into placeholder
// elements of a document.
type FragmentService interface {
	// Fragments returns the registered fragments.
	Fragments() []model.Fragment
	// FragmentByName resolves a registered fragment.
	FragmentByName(name string) (model.Fragment, error)
	// Fetch returns the fragment body for a path, going through the cache.
	Fetch(ctx context.Context, path string) (string, error)
	// InjectInto replaces the target's contents with body. Returns false and
	// mutates nothing when the target selector matches no element.
	InjectInto(doc *goquery.Document, fragment model.Fragment, body string) bool
	// LoadInto fetches the fragment and injects it, then invokes onDone
	// callbacks. A missing target is a warn-and-return, not an error.
	LoadInto(ctx context.Context, doc *goquery.Document, fragment model.Fragment, onDone ...func()) error
	// Preview returns a plain-text summary of a registered fragment.
	Preview(ctx context.Context, name string) (model.FragmentPreview, error)
	// RefreshAll refetches every registered fragment to warm the cache.
	RefreshAll(ctx context.Context) error
}

type fragmentService struct {
	fragments      []model.Fragment
	cache          repository.FragmentCacheRepository
	clientFactory  *network.ClientFactory
	hosts          *hostLimiter
	baseURL        string
	fetchTimeout   time.Duration
	trustedOrigins map[string]struct{}
	browserOrigins map[string]struct{}
}

func NewFragmentService(cfg config.Config, cache repository.FragmentCacheRepository, clientFactory *network.ClientFactory) FragmentService {
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &fragmentService{
		fragments:      DefaultFragments,
		cache:          cache,
		clientFactory:  clientFactory,
		hosts:          newHostLimiter(hostInterval),
		baseURL:        cfg.BaseURL,
		fetchTimeout:   timeout,
		trustedOrigins: hostSet(cfg.TrustedOrigins),
		browserOrigins: hostSet(cfg.BrowserOrigins),
	}
}

func (s *fragmentService) Fragments() []model.Fragment {
	out := make([]model.Fragment, len(s.fragments))
	copy(out, s.fragments)
	return out
}

func (s *fragmentService) FragmentByName(name string) (model.Fragment, error) {
	for _, fragment := range s.fragments {
		if fragment.Name == name {
			return fragment, nil
		}
	}
	return model.Fragment{}, ErrNotFound
}

func (s *fragmentService) LoadInto(ctx context.Context, doc *goquery.Document, fragment model.Fragment, onDone ...func()) error {
	// Resolve the target before fetching; a missing placeholder aborts the
	// load without an error.
	if doc.Find(fragment.Selector).Length() == 0 {
		logger.Warn("fragment target missing", "module", "service", "action", "load", "resource", "fragment", "result", "skipped", "fragment", fragment.Name, "selector", fragment.Selector)
		return nil
	}

	body, err := s.Fetch(ctx, fragment.Path)
	if err != nil {
		return err
	}

	s.InjectInto(doc, fragment, body)
	for _, done := range onDone {
		done()
	}
	return nil
}

func (s *fragmentService) InjectInto(doc *goquery.Document, fragment model.Fragment, body string) bool {
	target := doc.Find(fragment.Selector)
	if target.Length() == 0 {
		logger.Warn("fragment target missing", "module", "service", "action", "inject", "resource", "fragment", "result", "skipped", "fragment", fragment.Name, "selector", fragment.Selector)
		return false
	}
	target.First().SetHtml(body)
	logger.Debug("fragment injected", "module", "service", "action", "inject", "resource", "fragment", "result", "ok", "fragment", fragment.Name, "selector", fragment.Selector, "bytes", len(body))
	return true
}

func (s *fragmentService) Fetch(ctx context.Context, path string) (string, error) {
	fragmentURL := urlutil.StripFragment(urlutil.Resolve(s.baseURL, path))
	parsed, err := url.Parse(fragmentURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", ErrInvalid
	}
	host := parsed.Host

	if err := s.hosts.acquire(ctx, host); err != nil {
		return "", err
	}
	defer s.hosts.release(host)

	key := hashutil.SHA256Hex(fragmentURL)
	cached, err := s.cache.GetByKey(ctx, key)
	if err != nil {
		return "", err
	}

	body, notModified, validators, err := s.doFetch(ctx, fragmentURL, host, cached)
	if err != nil {
		logger.Error("fragment fetch failed", "module", "service", "action", "fetch", "resource", "fragment", "result", "failed", "host", host, "url_key", hashutil.Short(fragmentURL), "error", err)
		return "", err
	}

	now := time.Now().UTC()
	if notModified {
		logger.Debug("fragment revalidated", "module", "service", "action", "fetch", "resource", "fragment", "result", "ok", "host", host, "cache", "hit")
		if err := s.cache.Touch(ctx, key, now); err != nil {
			logger.Warn("fragment cache touch failed", "module", "service", "action", "save", "resource", "fragment", "result", "failed", "error", err)
		}
		return cached.Body, nil
	}

	if _, trusted := s.trustedOrigins[host]; !trusted {
		body = sanitizer.SanitizeFragment(body)
	}

	stored := model.CachedFragment{
		Key:          key,
		URL:          fragmentURL,
		ETag:         validators.etag,
		LastModified: validators.lastModified,
		Body:         body,
		FetchedAt:    now,
	}
	if cached != nil {
		stored.ID = cached.ID
	}
	if _, err := s.cache.Upsert(ctx, stored); err != nil {
		logger.Warn("fragment cache save failed", "module", "service", "action", "save", "resource", "fragment", "result", "failed", "error", err)
	}

	logger.Info("fragment fetched", "module", "service", "action", "fetch", "resource", "fragment", "result", "ok", "host", host, "bytes", len(body))
	return body, nil
}

func (s *fragmentService) Preview(ctx context.Context, name string) (model.FragmentPreview, error) {
	fragment, err := s.FragmentByName(name)
	if err != nil {
		return model.FragmentPreview{}, err
	}

	body, err := s.Fetch(ctx, fragment.Path)
	if err != nil {
		return model.FragmentPreview{}, err
	}

	preview := model.FragmentPreview{
		Name:     fragment.Name,
		Path:     fragment.Path,
		ByteSize: len(body),
		Excerpt:  sanitizer.Excerpt(body, previewExcerptLen),
	}

	fragmentURL := urlutil.StripFragment(urlutil.Resolve(s.baseURL, fragment.Path))
	if cached, cacheErr := s.cache.GetByKey(ctx, hashutil.SHA256Hex(fragmentURL)); cacheErr == nil && cached != nil {
		fetchedAt := cached.FetchedAt
		preview.FetchedAt = &fetchedAt
	}
	return preview, nil
}

func (s *fragmentService) RefreshAll(ctx context.Context) error {
	var (
		group  errgroup.Group
		mu     sync.Mutex
		failed int
	)
	group.SetLimit(maxConcurrentRefresh)

	for _, fragment := range s.fragments {
		group.Go(func() error {
			if _, err := s.Fetch(ctx, fragment.Path); err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = group.Wait()

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d fragments", ErrFragmentFetch, failed, len(s.fragments))
	}
	return nil
}

type validators struct {
	etag         *string
	lastModified *string
}

// doFetch performs one GET, conditional when cached validators exist.
// Returns notModified=true on a 304.
func (s *fragmentService) doFetch(ctx context.Context, fragmentURL, host string, cached *model.CachedFragment) (string, bool, validators, error) {
	if _, browser := s.browserOrigins[host]; browser {
		return s.doFetchBrowser(ctx, fragmentURL, cached)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fragmentURL, nil)
	if err != nil {
		return "", false, validators{}, ErrFragmentFetch
	}
	req.Header.Set("User-Agent", "stitch/1.0")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	setConditionalHeaders(req.Header, cached)

	resp, err := s.clientFactory.NewHTTPClient(s.fetchTimeout).Do(req)
	if err != nil {
		return "", false, validators{}, fmt.Errorf("%w: %v", ErrFragmentFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && cached != nil {
		return "", true, validators{}, nil
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", false, validators{}, fmt.Errorf("%w: HTTP %d", ErrFragmentFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFragmentSize))
	if err != nil {
		return "", false, validators{}, fmt.Errorf("%w: %v", ErrFragmentFetch, err)
	}

	return string(body), false, responseValidators(resp.Header.Get("ETag"), resp.Header.Get("Last-Modified")), nil
}

// doFetchBrowser fetches with a Chrome TLS fingerprint for origins behind
// fingerprint-sensitive bot protection.
func (s *fragmentService) doFetchBrowser(ctx context.Context, fragmentURL string, cached *model.CachedFragment) (string, bool, validators, error) {
	session := s.clientFactory.NewAzureSession(s.fetchTimeout)
	defer session.Close()

	headers := azuretls.OrderedHeaders{
		{"accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"},
		{"accept-language", "en-US,en;q=0.9"},
		{"sec-ch-ua", config.ChromeSecChUa},
		{"sec-ch-ua-mobile", "?0"},
		{"sec-ch-ua-platform", `"Windows"`},
		{"sec-fetch-dest", "document"},
		{"sec-fetch-mode", "navigate"},
		{"sec-fetch-site", "none"},
		{"upgrade-insecure-requests", "1"},
		{"user-agent", config.ChromeUserAgent},
	}
	if cached != nil {
		if cached.ETag != nil && *cached.ETag != "" {
			headers = append(headers, []string{"if-none-match", *cached.ETag})
		}
		if cached.LastModified != nil && *cached.LastModified != "" {
			headers = append(headers, []string{"if-modified-since", *cached.LastModified})
		}
	}

	resp, err := session.Do(&azuretls.Request{
		Method:         http.MethodGet,
		Url:            fragmentURL,
		OrderedHeaders: headers,
	})
	if err != nil {
		return "", false, validators{}, fmt.Errorf("%w: %v", ErrFragmentFetch, err)
	}

	if resp.StatusCode == http.StatusNotModified && cached != nil {
		return "", true, validators{}, nil
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", false, validators{}, fmt.Errorf("%w: HTTP %d", ErrFragmentFetch, resp.StatusCode)
	}

	return string(resp.Body), false, responseValidators(resp.Header.Get("ETag"), resp.Header.Get("Last-Modified")), nil
}

func setConditionalHeaders(header http.Header, cached *model.CachedFragment) {
	if cached == nil {
		return
	}
	if cached.ETag != nil && *cached.ETag != "" {
		header.Set("If-None-Match", *cached.ETag)
	}
	if cached.LastModified != nil && *cached.LastModified != "" {
		header.Set("If-Modified-Since", *cached.LastModified)
	}
}

func responseValidators(etag, lastModified string) validators {
	return validators{
		etag:         optionalString(etag),
		lastModified: optionalString(lastModified),
	}
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func hostSet(origins []string) map[string]struct{} {
	set := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		host := network.ExtractHost(strings.TrimSpace(origin))
		if host != "" {
			set[host] = struct{}{}
		}
	}
	return set
}

// hostLimiter serializes requests per host and spaces them out with a rate
// limiter.
type hostLimiter struct {
	mu         sync.Mutex
	semaphores map[string]*semaphore.Weighted
	limiters   map[string]*rate.Limiter
	interval   time.Duration
}

func newHostLimiter(interval time.Duration) *hostLimiter {
	return &hostLimiter{
		semaphores: make(map[string]*semaphore.Weighted),
		limiters:   make(map[string]*rate.Limiter),
		interval:   interval,
	}
}

// acquire takes the per-host semaphore, then waits for the host's rate
// limiter. The semaphore must be held while waiting so same-host callers
// queue serially.
func (h *hostLimiter) acquire(ctx context.Context, host string) error {
	h.mu.Lock()
	sem, ok := h.semaphores[host]
	if !ok {
		sem = semaphore.NewWeighted(maxConcurrentPerHost)
		h.semaphores[host] = sem
	}
	limiter, ok := h.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(h.interval), 1)
		h.limiters[host] = limiter
	}
	h.mu.Unlock()

	if err := sem.Acquire(ctx, 1); err != nil {
		return err
	}
	if err := limiter.Wait(ctx); err != nil {
		sem.Release(1)
		return err
	}
	return nil
}

func (h *hostLimiter) release(host string) {
	h.mu.Lock()
	if sem, ok := h.semaphores[host]; ok {
		sem.Release(1)
	}
	h.mu.Unlock()
}
