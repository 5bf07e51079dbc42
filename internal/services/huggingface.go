package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/Thagi/paper-scope/internal/domain"
	"github.com/Thagi/paper-scope/internal/platform/logger"
)

const (
	huggingFaceSourceName = "huggingface"
	huggingFaceBaseURL    = "https://huggingface.co"
	crawlerUserAgent      = "Mozilla/5.0 (compatible; PaperScopeBot/1.0; +https://paperscope.ai)"
)

// HuggingFaceClient scrapes the Hugging Face daily papers page. The page
// embeds its listing as a JSON payload in a data-props attribute; that is the
// primary extraction path, with the article markup as fallback when the
// payload yields fewer records than asked for.
type HuggingFaceClient struct {
	endpoint string
	client   *http.Client
	log      *logger.Logger
}

func NewHuggingFaceClient(endpoint string, log *logger.Logger) *HuggingFaceClient {
	return &HuggingFaceClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
		log:      log.With("source", huggingFaceSourceName),
	}
}

func (h *HuggingFaceClient) Name() string { return huggingFaceSourceName }

func (h *HuggingFaceClient) Fetch(ctx context.Context, limit int) ([]domain.PaperRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("huggingface: build request: %w", err)
	}
	req.Header.Set("User-Agent", crawlerUserAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("huggingface: fetch trending page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("huggingface: trending page returned status %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("huggingface: parse html: %w", err)
	}

	records := h.extractFromDataProps(doc, limit)
	if len(records) < limit {
		seen := make(map[string]bool, len(records))
		for _, r := range records {
			seen[r.ExternalID] = true
		}
		for _, article := range findArticles(doc) {
			if len(records) >= limit {
				break
			}
			record, err := h.parseArticle(article)
			if err != nil {
				h.log.Debug("skipping unparseable trending entry", "error", err)
				continue
			}
			if seen[record.ExternalID] {
				continue
			}
			seen[record.ExternalID] = true
			records = append(records, record)
		}
	}
	return records, nil
}

func (h *HuggingFaceClient) extractFromDataProps(doc *html.Node, limit int) []domain.PaperRecord {
	records := make([]domain.PaperRecord, 0, limit)
	seen := make(map[string]bool)
	for _, container := range findNodes(doc, func(n *html.Node) bool {
		return n.Data == "div" && attrValue(n, "data-target") == "DailyPapers" && attrValue(n, "data-props") != ""
	}) {
		var payload struct {
			DailyPapers []map[string]any `json:"dailyPapers"`
		}
		if err := json.Unmarshal([]byte(attrValue(container, "data-props")), &payload); err != nil {
			continue
		}
		for _, entry := range payload.DailyPapers {
			data := entry
			if paper, ok := entry["paper"].(map[string]any); ok {
				data = paper
			}
			record, err := h.parsePayload(data)
			if err != nil {
				h.log.Debug("skipping unparseable trending payload entry", "error", err)
				continue
			}
			if seen[record.ExternalID] {
				continue
			}
			seen[record.ExternalID] = true
			records = append(records, record)
			if len(records) >= limit {
				return records
			}
		}
	}
	return records
}

func (h *HuggingFaceClient) parsePayload(data map[string]any) (domain.PaperRecord, error) {
	externalID := firstString(data, "id", "paperId", "arxivId", "slug")
	if externalID == "" {
		return domain.PaperRecord{}, fmt.Errorf("payload entry missing external identifier")
	}

	landingURL := firstString(data, "url", "paperUrl")
	if landingURL == "" {
		landingURL = huggingFaceBaseURL + "/papers/" + externalID
	}

	pdfURL := firstString(data, "pdfUrl", "pdf_url")
	if pdfURL == "" {
		if arxivURL := asString(data["arxivUrl"]); strings.Contains(arxivURL, "/abs/") {
			pdfURL = strings.Replace(arxivURL, "/abs/", "/pdf/", 1) + ".pdf"
		}
	}
	if pdfURL == "" {
		pdfURL = resolvePDFURL(firstString(data, "arxivUrl", "arxiv_id"), externalID)
	}

	authors := make([]string, 0)
	for _, raw := range asList(data["authors"]) {
		switch author := raw.(type) {
		case map[string]any:
			if name := firstString(author, "name", "fullname", "fullName"); name != "" {
				authors = append(authors, name)
			}
		case string:
			authors = append(authors, author)
		}
	}

	tags := make([]string, 0)
	switch raw := firstPresent(data, "ai_keywords", "tags").(type) {
	case []any:
		for _, t := range raw {
			if s := asString(t); s != "" {
				tags = append(tags, s)
			}
		}
	case string:
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}

	title := firstString(data, "title", "paperTitle")
	if title == "" {
		title = "Untitled"
	}

	return domain.PaperRecord{
		ExternalID:  externalID,
		Source:      huggingFaceSourceName,
		Title:       title,
		Abstract:    firstString(data, "summary", "ai_summary"),
		Authors:     authors,
		PDFURL:      pdfURL,
		LandingURL:  landingURL,
		PublishedAt: parseWhen(firstString(data, "publishedAt", "published_at")),
		Tags:        tags,
	}, nil
}

func (h *HuggingFaceClient) parseArticle(article *html.Node) (domain.PaperRecord, error) {
	titleLink := findNode(article, func(n *html.Node) bool {
		return n.Data == "a" && attrValue(n, "href") != "" && closestAncestorIs(n, "h3")
	})
	if titleLink == nil {
		return domain.PaperRecord{}, fmt.Errorf("missing title link")
	}
	title := strings.TrimSpace(nodeText(titleLink))
	if title == "" {
		title = "Untitled"
	}
	landingURL := resolveURL(huggingFaceBaseURL, attrValue(titleLink, "href"))
	externalID, err := externalIDFromLanding(landingURL)
	if err != nil {
		return domain.PaperRecord{}, err
	}

	abstract := ""
	if p := findNode(article, func(n *html.Node) bool { return n.Data == "p" }); p != nil {
		abstract = strings.TrimSpace(nodeText(p))
	}

	authors := make([]string, 0)
	for _, item := range findNodes(article, func(n *html.Node) bool {
		return n.Data == "li" && attrValue(n, "title") != ""
	}) {
		authors = append(authors, strings.TrimSpace(attrValue(item, "title")))
	}

	tags := make([]string, 0)
	for _, link := range findNodes(article, func(n *html.Node) bool {
		return n.Data == "a" && strings.Contains(attrValue(n, "href"), "/papers?tag=")
	}) {
		if label := strings.TrimSpace(nodeText(link)); label != "" {
			tags = append(tags, label)
		}
	}

	var publishedAt *time.Time
	for _, span := range findNodes(article, func(n *html.Node) bool { return n.Data == "span" }) {
		text := strings.TrimSpace(nodeText(span))
		if strings.Contains(text, "Published on") {
			publishedAt = parseWhen(strings.TrimSpace(strings.Replace(text, "Published on", "", 1)))
			break
		}
	}

	arxivURL := ""
	if link := findNode(article, func(n *html.Node) bool {
		return n.Data == "a" && strings.Contains(attrValue(n, "href"), "arxiv.org")
	}); link != nil {
		arxivURL = resolveURL(huggingFaceBaseURL, attrValue(link, "href"))
	}

	return domain.PaperRecord{
		ExternalID:  externalID,
		Source:      huggingFaceSourceName,
		Title:       title,
		Abstract:    abstract,
		Authors:     authors,
		PDFURL:      resolvePDFURL(arxivURL, externalID),
		LandingURL:  landingURL,
		PublishedAt: publishedAt,
		Tags:        tags,
	}, nil
}

func resolvePDFURL(arxivURL, externalID string) string {
	if arxivURL != "" {
		if strings.Contains(arxivURL, "/pdf/") {
			if strings.HasSuffix(arxivURL, ".pdf") {
				return arxivURL
			}
			return arxivURL + ".pdf"
		}
		if strings.Contains(arxivURL, "/abs/") {
			return strings.Replace(arxivURL, "/abs/", "/pdf/", 1) + ".pdf"
		}
	}
	return "https://arxiv.org/pdf/" + externalID + ".pdf"
}

func externalIDFromLanding(landingURL string) (string, error) {
	parsed, err := url.Parse(landingURL)
	if err != nil {
		return "", fmt.Errorf("invalid landing url: %w", err)
	}
	segments := strings.Split(strings.TrimRight(parsed.Path, "/"), "/")
	externalID := segments[len(segments)-1]
	if externalID == "" {
		return "", fmt.Errorf("unable to derive external id from %s", landingURL)
	}
	return externalID, nil
}

func resolveURL(base, href string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}

func parseWhen(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, strings.Replace(value, "Z", "+00:00", 1)); err == nil {
		return &t
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t
	}
	if t, err := time.Parse("Jan 2, 2006", value); err == nil {
		return &t
	}
	return nil
}

func firstString(data map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := asString(data[key]); s != "" {
			return s
		}
	}
	return ""
}

func firstPresent(data map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := data[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func findNodes(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return out
}

func findNode(root *html.Node, match func(*html.Node) bool) *html.Node {
	nodes := findNodes(root, match)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

func findArticles(doc *html.Node) []*html.Node {
	main := findNode(doc, func(n *html.Node) bool { return n.Data == "main" })
	if main == nil {
		return nil
	}
	return findNodes(main, func(n *html.Node) bool { return n.Data == "article" })
}

func closestAncestorIs(n *html.Node, tag string) bool {
	for parent := n.Parent; parent != nil; parent = parent.Parent {
		if parent.Type == html.ElementNode {
			return parent.Data == tag
		}
	}
	return false
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return sb.String()
}
