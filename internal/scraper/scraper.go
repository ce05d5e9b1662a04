// Package scraper fetches a page and pulls out a display title and icon.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

const (
	maxPageSize = 2 << 20
	maxIconSize = 5 << 20

	userAgent = "Mozilla/5.0 (compatible; LinkLeopard/1.0; +https://github.com/jarne/linkleopard)"
)

var ErrTooLarge = errors.New("response too large")

// Metadata holds best-effort page details. Empty fields mean unknown.
type Metadata struct {
	Title string
	Icon  string
}

type Scraper struct {
	client *http.Client
	log    zerolog.Logger
}

// New returns a scraper using client, or a default client when nil. Redirects
// are followed and no timeout is set beyond what the client and the request
// context impose.
func New(client *http.Client, log zerolog.Logger) *Scraper {
	if client == nil {
		client = &http.Client{}
	}
	return &Scraper{
		client: client,
		log:    log.With().Str("component", "scraper").Logger(),
	}
}

// Scrape never fails: network and parse problems are logged and produce
// empty metadata.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) Metadata {
	resp, err := s.get(ctx, rawURL)
	if err != nil {
		s.log.Warn().Err(err).Str("url", rawURL).Msg("Failed to fetch page for metadata")
		return Metadata{}
	}
	defer resp.Body.Close()

	md, err := Extract(io.LimitReader(resp.Body, maxPageSize), resp.Request.URL)
	if err != nil {
		s.log.Warn().Err(err).Str("url", rawURL).Msg("Failed to parse page for metadata")
		return Metadata{}
	}
	return md
}

// Download fetches an icon. Non-2xx responses are errors.
func (s *Scraper) Download(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := s.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to download %s: %s", rawURL, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxIconSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rawURL, err)
	}
	if len(data) > maxIconSize {
		return nil, fmt.Errorf("%w: %s", ErrTooLarge, rawURL)
	}
	return data, nil
}

// SaveFunc stores icon bytes and returns the stored reference.
type SaveFunc func(ctx context.Context, data []byte) (string, error)

// Resolve scrapes rawURL and replaces the discovered icon with a stored
// copy produced by save. If the icon cannot be downloaded or saved the
// result has no icon; the title is kept either way.
func (s *Scraper) Resolve(ctx context.Context, rawURL string, save SaveFunc) Metadata {
	md := s.Scrape(ctx, rawURL)
	if md.Icon == "" {
		return md
	}

	iconURL := md.Icon
	md.Icon = ""

	data, err := s.Download(ctx, iconURL)
	if err != nil {
		s.log.Warn().Err(err).Str("icon", iconURL).Msg("Failed to download favicon")
		return md
	}

	ref, err := save(ctx, data)
	if err != nil {
		s.log.Warn().Err(err).Str("icon", iconURL).Msg("Failed to store favicon")
		return md
	}

	md.Icon = ref
	return md
}

func (s *Scraper) get(ctx context.Context, rawURL string) (*http.Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	return s.client.Do(req)
}

// Extract reads HTML and returns the first title found in the order
// og:title, twitter:title, <title>, and the first icon in the order
// apple-touch-icon, icon, shortcut icon. Icon hrefs are resolved against
// base when it is non-nil.
func Extract(r io.Reader, base *url.URL) (Metadata, error) {
	var (
		ogTitle, twitterTitle, docTitle string
		appleIcon, icon, shortcutIcon   string
		inTitle                         bool
		titleText                       strings.Builder
	)

	z := html.NewTokenizer(r)
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return Metadata{}, err
			}
			break
		}

		tok := z.Token()
		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			switch tok.Data {
			case "meta":
				key := strings.ToLower(attr(tok, "property"))
				if key == "" {
					key = strings.ToLower(attr(tok, "name"))
				}
				content := strings.TrimSpace(attr(tok, "content"))
				if content == "" {
					continue
				}
				switch key {
				case "og:title":
					setOnce(&ogTitle, content)
				case "twitter:title":
					setOnce(&twitterTitle, content)
				}
			case "link":
				href := strings.TrimSpace(attr(tok, "href"))
				if href == "" {
					continue
				}
				switch strings.ToLower(strings.TrimSpace(attr(tok, "rel"))) {
				case "apple-touch-icon":
					setOnce(&appleIcon, href)
				case "icon":
					setOnce(&icon, href)
				case "shortcut icon":
					setOnce(&shortcutIcon, href)
				}
			case "title":
				if docTitle == "" && tt == html.StartTagToken {
					inTitle = true
					titleText.Reset()
				}
			}
		case html.TextToken:
			if inTitle {
				titleText.WriteString(tok.Data)
			}
		case html.EndTagToken:
			if tok.Data == "title" && inTitle {
				inTitle = false
				setOnce(&docTitle, strings.TrimSpace(titleText.String()))
			}
		}
	}

	md := Metadata{
		Title: firstNonEmpty(ogTitle, twitterTitle, docTitle),
		Icon:  firstNonEmpty(appleIcon, icon, shortcutIcon),
	}
	if md.Icon != "" && base != nil {
		if ref, err := base.Parse(md.Icon); err == nil {
			md.Icon = ref.String()
		}
	}
	return md, nil
}

func attr(tok html.Token, name string) string {
	for _, a := range tok.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func setOnce(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
