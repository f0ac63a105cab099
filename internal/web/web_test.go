package web_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/trivia-pot/internal/factory"
	"github.com/mcoot/trivia-pot/internal/model"
	"github.com/mcoot/trivia-pot/internal/storage"
	"github.com/mcoot/trivia-pot/internal/testutil"
	"github.com/mcoot/trivia-pot/internal/web"
	"github.com/mcoot/trivia-pot/internal/web/middleware"
)

// webTestServer provides a test server for web interface testing
type webTestServer struct {
	t       *testing.T
	handler http.Handler
	app     *factory.TestApp
	cookies *cookieJar
}

// newWebTestServer creates a new test server with all dependencies wired
func newWebTestServer(t *testing.T) *webTestServer {
	t.Helper()
	return newWebTestServerWithApp(t, factory.NewTestApp())
}

func newWebTestServerWithApp(t *testing.T, app *factory.TestApp) *webTestServer {
	t.Helper()

	router := web.NewRouter(web.RouterConfig{
		Logger:             testutil.NopLogger(),
		AuthService:        app.AuthService,
		GameController:     app.GameController,
		LobbyController:    app.LobbyController,
		LeaderboardService: app.LeaderboardService,
		RealtimeManager:    app.RealtimeManager,
		EnableMetrics:      true,
	})

	return &webTestServer{
		t:       t,
		handler: router,
		app:     app,
		cookies: newCookieJar(),
	}
}

// request makes an HTTP request and returns the response
func (ts *webTestServer) request(method, path string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	// Add cookies from jar
	ts.cookies.addTo(req)

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	// Extract Set-Cookie headers into jar
	ts.cookies.extract(rr)

	return rr
}

// get makes a GET request
func (ts *webTestServer) get(path string) *httptest.ResponseRecorder {
	return ts.request(http.MethodGet, path, nil)
}

// post makes a POST request with form data
func (ts *webTestServer) post(path string, form url.Values) *httptest.ResponseRecorder {
	return ts.request(http.MethodPost, path, form)
}

// followRedirect follows a redirect response
func (ts *webTestServer) followRedirect(rr *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	ts.t.Helper()
	require.Equal(ts.t, http.StatusSeeOther, rr.Code, "Expected redirect")
	location := rr.Header().Get("Location")
	require.NotEmpty(ts.t, location, "Expected Location header for redirect")
	return ts.get(location)
}

// parseHTML parses the response body as HTML
func parseHTML(r io.Reader) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		panic(err)
	}
	return doc
}

// cookieJar maintains cookies across requests (like a browser would)
type cookieJar struct {
	cookies map[string]*http.Cookie
}

func newCookieJar() *cookieJar {
	return &cookieJar{
		cookies: make(map[string]*http.Cookie),
	}
}

// addTo adds all cookies to the request
func (j *cookieJar) addTo(req *http.Request) {
	for _, cookie := range j.cookies {
		req.AddCookie(cookie)
	}
}

// extract extracts Set-Cookie headers from response
func (j *cookieJar) extract(rr *httptest.ResponseRecorder) {
	for _, cookie := range rr.Result().Cookies() {
		if cookie.MaxAge < 0 {
			// Cookie being deleted
			delete(j.cookies, cookie.Name)
		} else {
			j.cookies[cookie.Name] = cookie
		}
	}
}

// hasSession returns true if the admin session cookie is set
func (j *cookieJar) hasSession() bool {
	_, ok := j.cookies[middleware.SessionCookieName]
	return ok
}

// Helper functions for common test operations

func address(n int) string {
	return fmt.Sprintf("0x%040d", n)
}

// loginAdmin creates an admin and logs in through the form
func (ts *webTestServer) loginAdmin() {
	ts.t.Helper()
	_, err := ts.app.AuthService.CreateAdmin(ts.t.Context(), "admin", "hunter22")
	require.NoError(ts.t, err)

	rr := ts.post("/admin/login", url.Values{"username": {"admin"}, "password": {"hunter22"}})
	require.Equal(ts.t, http.StatusSeeOther, rr.Code, "Expected redirect after login")
	require.True(ts.t, ts.cookies.hasSession(), "Expected session cookie to be set")
}

// createGame creates a pending game through the controller
func (ts *webTestServer) createGame(maxPlayers int, answers ...string) *model.Game {
	ts.t.Helper()
	g, err := ts.app.CreateTestGame(ts.t.Context(), maxPlayers, answers...)
	require.NoError(ts.t, err)
	return g
}

// join registers an address through the join form
func (ts *webTestServer) join(gameID model.GameID, n int) {
	ts.t.Helper()
	rr := ts.post(gamePath(gameID, "join"), url.Values{"ethereum_address": {address(n)}})
	require.Equal(ts.t, http.StatusSeeOther, rr.Code, "Expected redirect after join")
}

func (ts *webTestServer) startGame(gameID model.GameID) {
	ts.t.Helper()
	_, err := ts.app.GameController.StartGame(ts.t.Context(), gameID)
	require.NoError(ts.t, err)
}

func gamePath(id model.GameID, page string) string {
	return fmt.Sprintf("/game/%d/%s", id, page)
}

// Assertion helpers

// assertContainsElement asserts that the document contains an element matching the selector
func assertContainsElement(t *testing.T, doc *goquery.Document, selector string) {
	t.Helper()
	if doc.Find(selector).Length() == 0 {
		t.Errorf("Expected to find element matching %q, but none found", selector)
	}
}

// assertNotContainsElement asserts that the document does not contain an element matching the selector
func assertNotContainsElement(t *testing.T, doc *goquery.Document, selector string) {
	t.Helper()
	if doc.Find(selector).Length() > 0 {
		t.Errorf("Expected NOT to find element matching %q, but found %d", selector, doc.Find(selector).Length())
	}
}

// assertContainsText asserts that the element matching the selector contains the text
func assertContainsText(t *testing.T, doc *goquery.Document, selector, text string) {
	t.Helper()
	el := doc.Find(selector)
	if el.Length() == 0 {
		t.Errorf("Expected to find element matching %q, but none found", selector)
		return
	}
	if !strings.Contains(el.Text(), text) {
		t.Errorf("Expected element %q to contain %q, but got %q", selector, text, el.Text())
	}
}

// failingStorage fails every game listing with a transient error
type failingStorage struct {
	storage.Storage
}

func (f failingStorage) ListGames(_ context.Context, _ storage.GameFilter) ([]*model.Game, error) {
	return nil, storage.Transient(errors.New("connection refused"))
}
