// Package scraper fetches the public t.me page of a username. The page is
// unauthenticated and cheap, so it serves as a staleness check before
// spending quota on the rate-limited API.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/html"

	"github.com/blockedby/resolver-os/internal/logger"
	"github.com/blockedby/resolver-os/internal/models"
)

// ErrInvalidUsername means the page lacks the extra-info block entirely,
// the primary signal that the username does not exist.
var ErrInvalidUsername = errors.New("scraper: username invalid")

// Result is the triple of information the public page exposes.
type Result struct {
	Name string
	Bio  string
	Kind models.ChatKind
}

// Scraper fetches and parses public chat pages. The HTTP client is injected
// and shared so connections are pooled across requests.
type Scraper struct {
	httpClient *http.Client
	baseURL    string
	log        *logger.Logger
}

// New creates a scraper over a shared HTTP client. baseURL is the public
// page prefix, usually https://t.me/.
func New(httpClient *http.Client, baseURL string) *Scraper {
	if baseURL == "" {
		baseURL = "https://t.me/"
	}
	return &Scraper{
		httpClient: httpClient,
		baseURL:    baseURL,
		log:        logger.Get(),
	}
}

// Fetch loads the public page for a username and extracts display name,
// biography and the chat kind signal.
func (s *Scraper) Fetch(ctx context.Context, username string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+username, nil)
	if err != nil {
		return nil, fmt.Errorf("build scrape request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scrape %s: %w", username, err)
	}
	defer resp.Body.Close()

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page for %s: %w", username, err)
	}

	return extract(doc, username)
}

func extract(doc *html.Node, username string) (*Result, error) {
	name, ok := metaContent(doc, "og:title")
	if !ok {
		// a page without og:title is malformed, not an invalid username
		return nil, fmt.Errorf("page for %s has no og:title", username)
	}

	bio := ""
	if div := findDivByClass(doc, "tgme_page_description"); div != nil {
		bio = flattenText(div)
	}

	extraDiv := findDivByClass(doc, "tgme_page_extra")
	if extraDiv == nil {
		return nil, fmt.Errorf("%w: %s has no extra block", ErrInvalidUsername, username)
	}
	extra := strings.TrimSpace(flattenText(extraDiv))

	// the extra block is the @username for users, the member count for
	// channels, and member count plus online count for supergroups
	var kind models.ChatKind
	switch {
	case strings.HasPrefix(extra, "@"):
		kind = models.KindPrivate
	case strings.Contains(extra, "online"):
		kind = models.KindSupergroup
	default:
		kind = models.KindChannel
	}

	return &Result{Name: name, Bio: bio, Kind: kind}, nil
}

// metaContent finds <meta property="..." content="..."> in the document.
// The parser already unescapes HTML entities in attribute values.
func metaContent(n *html.Node, property string) (string, bool) {
	if n.Type == html.ElementNode && n.Data == "meta" {
		var prop, content string
		for _, a := range n.Attr {
			switch a.Key {
			case "property":
				prop = a.Val
			case "content":
				content = a.Val
			}
		}
		if prop == property {
			return content, true
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if content, ok := metaContent(c, property); ok {
			return content, true
		}
	}
	return "", false
}

// findDivByClass returns the first div whose class attribute contains the
// given class name.
func findDivByClass(n *html.Node, class string) *html.Node {
	if n.Type == html.ElementNode && n.Data == "div" {
		for _, a := range n.Attr {
			if a.Key == "class" && hasClass(a.Val, class) {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findDivByClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

func hasClass(attr, class string) bool {
	for _, c := range strings.Fields(attr) {
		if c == class {
			return true
		}
	}
	return false
}

// flattenText collects the text content of a node. <br> becomes a newline,
// every other inline tag is flattened to its text.
func flattenText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case c.Type == html.TextNode:
				b.WriteString(c.Data)
			case c.Type == html.ElementNode && c.Data == "br":
				b.WriteString("\n")
			case c.Type == html.ElementNode:
				walk(c)
			}
		}
	}
	walk(n)
	return b.String()
}
