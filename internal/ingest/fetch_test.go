package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postingPage(body string) string {
	return fmt.Sprintf(`<html>
<head><title>Job Board</title></head>
<body>
	<nav>Home | Jobs | About</nav>
	<div class="sidebar">Trending searches</div>
	<div class="job-description">%s</div>
	<footer>Copyright 2026</footer>
</body>
</html>`, body)
}

func TestExtractPostingTextPrefersJobSelectors(t *testing.T) {
	text, err := ExtractPostingText(postingPage("Senior Platform Engineer\nBuild the deployment pipeline."))
	require.NoError(t, err)

	assert.Equal(t, "Senior Platform Engineer\nBuild the deployment pipeline.", text)
	assert.NotContains(t, text, "Trending searches")
	assert.NotContains(t, text, "Copyright")
}

func TestExtractPostingTextFallsBackToBody(t *testing.T) {
	text, err := ExtractPostingText(`<html><body><p>We are hiring a Go engineer.</p><script>analytics()</script></body></html>`)
	require.NoError(t, err)

	assert.Equal(t, "We are hiring a Go engineer.", text)
	assert.NotContains(t, text, "analytics")
}

func TestExtractPostingTextSelectorPriority(t *testing.T) {
	html := `<html><body>
		<main>generic main content</main>
		<div class="job-details">the actual posting</div>
	</body></html>`

	text, err := ExtractPostingText(html)
	require.NoError(t, err)
	assert.Equal(t, "the actual posting", text)
}

func TestCleanWhitespace(t *testing.T) {
	in := "  Senior Engineer  \n\n\n   Remote  \n\t\n Requirements:\n"
	assert.Equal(t, "Senior Engineer\nRemote\nRequirements:", cleanWhitespace(in))
}

func TestNeedsBrowser(t *testing.T) {
	assert.True(t, needsBrowser(""))
	assert.True(t, needsBrowser("   \n  "))
	assert.True(t, needsBrowser("Loading..."))
	assert.False(t, needsBrowser(strings.Repeat("job description text ", 50)))
}

func TestFetchPostingFromStaticPage(t *testing.T) {
	// Enough text that the SPA fallback never triggers.
	body := strings.Repeat("We build resilient infrastructure for payments. ", 20)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		fmt.Fprint(w, postingPage(body))
	}))
	defer srv.Close()

	text, err := FetchPosting(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, text, "resilient infrastructure")
	assert.NotContains(t, text, "Trending searches")
}

func TestFetchPostingInvalidURL(t *testing.T) {
	_, err := FetchPosting(context.Background(), "not a url")

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, fetchErr.Message, "invalid URL")
}

func TestFetchPostingHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := FetchPosting(context.Background(), srv.URL)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, fetchErr.Message, "404")
	assert.Equal(t, srv.URL, fetchErr.URL)
}
