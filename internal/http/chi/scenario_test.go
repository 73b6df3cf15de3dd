package chi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/marcelsud/bookshelf-api/book"
	"github.com/marcelsud/bookshelf-api/book/memory"
	"github.com/marcelsud/bookshelf-api/internal/auth"
	"github.com/marcelsud/bookshelf-api/internal/user"
	"github.com/marcelsud/bookshelf-api/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stack struct {
	server *httptest.Server
	token  string
}

func newStack(t *testing.T, opts ...book.Option) *stack {
	t.Helper()
	return newStackWith(t, opts)
}

func newStackWith(t *testing.T, serviceOpts []book.Option, handlerOpts ...Option) *stack {
	t.Helper()

	repo := memory.NewRepository()
	service := book.NewService(repo, serviceOpts...)

	jwt, err := auth.NewJWT(strings.Repeat("s", 32), time.Hour)
	require.NoError(t, err)
	token, err := jwt.IssueToken(user.User{ID: userID})
	require.NoError(t, err)

	exporter, err := metrics.NewOTelExporter(repo, nil)
	require.NoError(t, err)
	t.Cleanup(func() { exporter.Shutdown(context.Background()) })

	server := httptest.NewServer(Handlers(context.Background(), service, jwt, exporter, handlerOpts...))
	t.Cleanup(server.Close)

	return &stack{server: server, token: token}
}

func (s *stack) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, s.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBook(t *testing.T, resp *http.Response) bookResponse {
	t.Helper()

	var b bookResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&b))
	return b
}

func TestScenario_Dune(t *testing.T) {
	s := newStack(t)

	resp := s.do(t, http.MethodPost, "/v1/books",
		`{"title":"Dune","description":"Desert planet","author":"Frank Herbert","price":19.99,"category":"FICTION"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBook(t, resp)
	assert.True(t, book.ValidID(created.ID))
	assert.Equal(t, userID, created.User)

	resp = s.do(t, http.MethodGet, "/v1/books/"+created.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBook(t, resp)
	assert.Equal(t, created.Title, got.Title)
	assert.Equal(t, created.Author, got.Author)
	assert.Equal(t, created.Price, got.Price)
	assert.Equal(t, "FICTION", got.Category)

	resp = s.do(t, http.MethodPut, "/v1/books/"+created.ID, `{"title":"Dune Messiah"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBook(t, resp)
	assert.Equal(t, "Dune Messiah", updated.Title)
	assert.Equal(t, "Desert planet", updated.Description)
	assert.Equal(t, 19.99, updated.Price)

	resp = s.do(t, http.MethodDelete, "/v1/books/"+created.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/v1/books/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = s.do(t, http.MethodDelete, "/v1/books/"+created.ID, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func (s *stack) seed(t *testing.T, titles ...string) {
	t.Helper()

	for _, title := range titles {
		resp := s.do(t, http.MethodPost, "/v1/books",
			`{"title":"`+title+`","description":"d","author":"a","price":1,"category":"FICTION"}`)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
}

func decodeList(t *testing.T, resp *http.Response) []bookResponse {
	t.Helper()

	var list []bookResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	return list
}

func TestScenario_DefaultListsEverything(t *testing.T) {
	s := newStack(t)
	s.seed(t, "Dune", "Emma", "Ulysses")

	resp := s.do(t, http.MethodGet, "/v1/books", "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeList(t, resp), 3)
}

func TestScenario_Paging(t *testing.T) {
	s := newStackWith(t, nil, WithPerPage(2))
	s.seed(t, "Dune", "Emma", "Ulysses")

	resp := s.do(t, http.MethodGet, "/v1/books?page=2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeList(t, resp), 1)

	resp = s.do(t, http.MethodGet, "/v1/books?page=4611686018427387905", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(body))
}

func TestScenario_NoTimeout(t *testing.T) {
	s := newStackWith(t, nil, WithTimeout(0))
	s.seed(t, "Dune")

	resp := s.do(t, http.MethodGet, "/v1/books", "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeList(t, resp), 1)
}

func TestScenario_InvalidIDAndStrictUpdate(t *testing.T) {
	s := newStack(t, book.WithStrictUpdate())

	resp := s.do(t, http.MethodGet, "/v1/books/not-an-id", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, http.MethodPut, "/v1/books/"+bookID, `{"title":"x"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestScenario_UpdateAbsentIsNull(t *testing.T) {
	s := newStack(t)

	resp := s.do(t, http.MethodPut, "/v1/books/"+bookID, `{"title":"x"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var v any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	assert.Nil(t, v)
}

func TestScenario_Metrics(t *testing.T) {
	s := newStack(t)

	resp := s.do(t, http.MethodPost, "/v1/books",
		`{"title":"Emma","author":"Jane Austen","price":9,"category":"CLASSICS"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `book_category="CLASSICS"`)
	assert.Contains(t, string(body), `http_status_code="201"`)
}
