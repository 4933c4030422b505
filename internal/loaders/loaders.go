package loaders

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/ledongthuc/pdf"

	"docqa/internal/domain"
)

// Source kinds attached to loaded documents.
const (
	KindPDF     = "pdf"
	KindWebpage = "webpage"
	KindYouTube = "youtube"
	KindText    = "text"
)

// LoadError reports a failed content fetch or parse, carrying the locator
// and the underlying cause.
type LoadError struct {
	Locator string
	Err     error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load %s: %v", e.Locator, e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

var httpClient = &http.Client{Timeout: 30 * time.Second}

// FromURL fetches a webpage and extracts its readable text.
func FromURL(ctx context.Context, pageURL string) (domain.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return domain.Document{}, &LoadError{Locator: pageURL, Err: err}
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; docqa/1.0)")
	resp, err := httpClient.Do(req)
	if err != nil {
		return domain.Document{}, &LoadError{Locator: pageURL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return domain.Document{}, &LoadError{Locator: pageURL, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	article, err := readability.FromReader(resp.Body, resp.Request.URL)
	if err != nil {
		return domain.Document{}, &LoadError{Locator: pageURL, Err: err}
	}
	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = pageURL
	}
	return domain.Document{
		Content:    strings.TrimSpace(article.TextContent),
		Title:      title,
		SourceKind: KindWebpage,
	}, nil
}

var youtubeIDPattern = regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11})`)

// FromYouTube fetches the English transcript of a video via the timedtext
// endpoint.
func FromYouTube(ctx context.Context, videoURL string) (domain.Document, error) {
	m := youtubeIDPattern.FindStringSubmatch(videoURL)
	if m == nil {
		return domain.Document{}, &LoadError{Locator: videoURL, Err: fmt.Errorf("not a YouTube video URL")}
	}
	videoID := m[1]
	transcriptURL := fmt.Sprintf("https://video.google.com/timedtext?lang=en&v=%s", videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, transcriptURL, nil)
	if err != nil {
		return domain.Document{}, &LoadError{Locator: videoURL, Err: err}
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return domain.Document{}, &LoadError{Locator: videoURL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return domain.Document{}, &LoadError{Locator: videoURL, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Document{}, &LoadError{Locator: videoURL, Err: err}
	}
	text, err := parseTimedText(body)
	if err != nil {
		return domain.Document{}, &LoadError{Locator: videoURL, Err: err}
	}
	if text == "" {
		return domain.Document{}, &LoadError{Locator: videoURL, Err: fmt.Errorf("no transcript available")}
	}
	return domain.Document{Content: text, Title: "YouTube " + videoID, SourceKind: KindYouTube}, nil
}

// parseTimedText joins the caption lines of a timedtext XML payload.
func parseTimedText(payload []byte) (string, error) {
	var doc struct {
		Texts []struct {
			Value string `xml:",chardata"`
		} `xml:"text"`
	}
	if err := xml.Unmarshal(payload, &doc); err != nil {
		return "", fmt.Errorf("parse transcript: %w", err)
	}
	parts := make([]string, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		if line := strings.TrimSpace(html.UnescapeString(t.Value)); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " "), nil
}

// FromPDF extracts the plain text of a PDF given as raw bytes. name is used
// as the document title.
func FromPDF(data []byte, name string) (domain.Document, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return domain.Document{}, &LoadError{Locator: name, Err: err}
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return domain.Document{}, &LoadError{Locator: name, Err: err}
	}
	var b strings.Builder
	if _, err := io.Copy(&b, plain); err != nil {
		return domain.Document{}, &LoadError{Locator: name, Err: err}
	}
	return domain.Document{Content: b.String(), Title: name, SourceKind: KindPDF}, nil
}

// FromText wraps pasted text into a document. The title may stay empty;
// untitled pastes then get a distinct generated document id at ingestion.
func FromText(text, title string) domain.Document {
	return domain.Document{Content: text, Title: title, SourceKind: KindText}
}
