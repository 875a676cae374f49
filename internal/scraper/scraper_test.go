package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockedby/resolver-os/internal/models"
)

const privatePage = `<!DOCTYPE html>
<html>
<head>
<meta property="og:title" content="Jane &amp; Doe">
</head>
<body>
<div class="tgme_page">
  <div class="tgme_page_title"><span dir="auto">Jane &amp; Doe</span></div>
  <div class="tgme_page_extra">@janedoe</div>
  <div class="tgme_page_description">First line<br/>Second <b>bold</b> line</div>
</div>
</body>
</html>`

const channelPage = `<!DOCTYPE html>
<html>
<head>
<meta property="og:title" content="News Channel">
</head>
<body>
<div class="tgme_page">
  <div class="tgme_page_extra">
  12 345 subscribers
</div>
</div>
</body>
</html>`

const supergroupPage = `<!DOCTYPE html>
<html>
<head>
<meta property="og:title" content="Chatty Group">
</head>
<body>
<div class="tgme_page">
  <div class="tgme_page_extra">5 432 members, 123 online</div>
</div>
</body>
</html>`

const invalidPage = `<!DOCTYPE html>
<html>
<head>
<meta property="og:title" content="Telegram">
</head>
<body>
<div class="tgme_page">
  <div class="tgme_page_description">If you have Telegram, you can contact us right away.</div>
</div>
</body>
</html>`

const titlelessPage = `<!DOCTYPE html><html><head></head><body></body></html>`

func newTestScraper(t *testing.T, pages map[string]string) *Scraper {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err := w.Write([]byte(page)); err != nil {
			_ = err
		}
	}))
	t.Cleanup(srv.Close)
	return New(srv.Client(), srv.URL+"/")
}

func TestScraper_PrivateChat(t *testing.T) {
	s := newTestScraper(t, map[string]string{"/janedoe": privatePage})

	res, err := s.Fetch(context.Background(), "janedoe")
	require.NoError(t, err)

	assert.Equal(t, "Jane & Doe", res.Name, "entities must be unescaped")
	assert.Equal(t, "First line\nSecond bold line", res.Bio, "br becomes newline, inline tags flatten")
	assert.Equal(t, models.KindPrivate, res.Kind)
}

func TestScraper_Channel(t *testing.T) {
	s := newTestScraper(t, map[string]string{"/news": channelPage})

	res, err := s.Fetch(context.Background(), "news")
	require.NoError(t, err)

	assert.Equal(t, "News Channel", res.Name)
	assert.Equal(t, "", res.Bio)
	assert.Equal(t, models.KindChannel, res.Kind)
}

func TestScraper_Supergroup(t *testing.T) {
	s := newTestScraper(t, map[string]string{"/chatty": supergroupPage})

	res, err := s.Fetch(context.Background(), "chatty")
	require.NoError(t, err)

	assert.Equal(t, models.KindSupergroup, res.Kind)
}

func TestScraper_MissingExtraBlockIsInvalidUsername(t *testing.T) {
	s := newTestScraper(t, map[string]string{"/ghost": invalidPage})

	_, err := s.Fetch(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrInvalidUsername)
}

func TestScraper_MissingTitleIsNotInvalidUsername(t *testing.T) {
	s := newTestScraper(t, map[string]string{"/weird": titlelessPage})

	_, err := s.Fetch(context.Background(), "weird")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidUsername, "a malformed page is not an invalid username")
}

func TestScraper_TransportErrorIsNotInvalidUsername(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	client := srv.Client()
	srv.Close() // connection refused from here on

	s := New(client, srv.URL+"/")
	_, err := s.Fetch(context.Background(), "anyone")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidUsername)
}
