package loaders

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromText(t *testing.T) {
	doc := FromText("pasted content", "my notes")
	assert.Equal(t, "pasted content", doc.Content)
	assert.Equal(t, "my notes", doc.Title)
	assert.Equal(t, KindText, doc.SourceKind)

	// no title default: untitled pastes keep an empty title so ingestion
	// generates a distinct document id for each of them
	doc = FromText("untitled content", "")
	assert.Empty(t, doc.Title)
}

func TestFromURLExtractsReadableText(t *testing.T) {
	page := `<html><head><title>Release Notes</title></head><body>
		<nav>Home | About | Contact</nav>
		<article>
			<h1>Release Notes</h1>
			<p>` + strings.Repeat("The importer now supports very large CSV files without buffering them fully in memory. ", 5) + `</p>
			<p>` + strings.Repeat("Error messages include the offending line number so failures can be diagnosed quickly. ", 5) + `</p>
		</article>
	</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	doc, err := FromURL(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, KindWebpage, doc.SourceKind)
	assert.Equal(t, "Release Notes", doc.Title)
	assert.Contains(t, doc.Content, "very large CSV files")
	assert.NotContains(t, doc.Content, "Home | About")
}

func TestFromURLBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := FromURL(context.Background(), srv.URL)
	require.Error(t, err)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, srv.URL, le.Locator)
}

func TestFromYouTubeRejectsNonVideoURL(t *testing.T) {
	_, err := FromYouTube(context.Background(), "https://example.com/watch")
	require.Error(t, err)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Contains(t, le.Err.Error(), "not a YouTube video URL")
}

func TestYouTubeIDPattern(t *testing.T) {
	for _, u := range []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ",
	} {
		m := youtubeIDPattern.FindStringSubmatch(u)
		require.NotNil(t, m, u)
		assert.Equal(t, "dQw4w9WgXcQ", m[1])
	}
}

func TestParseTimedText(t *testing.T) {
	payload := []byte(`<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.0" dur="2.5">Hello and welcome.</text>
  <text start="2.5" dur="3.0">Today we talk about &amp;quot;chunking&amp;quot;.</text>
  <text start="5.5" dur="1.0">   </text>
</transcript>`)
	text, err := parseTimedText(payload)
	require.NoError(t, err)
	assert.Equal(t, `Hello and welcome. Today we talk about "chunking".`, text)
}

func TestParseTimedTextInvalidXML(t *testing.T) {
	_, err := parseTimedText([]byte("<transcript><text>unclosed"))
	require.Error(t, err)
}

func TestLoadErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &LoadError{Locator: "x", Err: cause}
	assert.Equal(t, "load x: boom", err.Error())
	assert.True(t, errors.Is(err, cause))
}
