package restapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizwizz-play/internal/domain"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/api/", time.Second)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestListQuizzesSortedByName(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/quizzes/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		writeJSON(w, http.StatusOK, []domain.QuizSummary{
			{ID: "2", Name: "zoology"},
			{ID: "1", Name: "Algebra"},
			{ID: "3", Name: "biology"},
		})
	})
	c := newTestClient(t, mux)

	quizzes, err := c.ListQuizzes(context.Background())
	require.NoError(t, err)
	require.Len(t, quizzes, 3)
	assert.Equal(t, []string{"1", "3", "2"}, []string{quizzes[0].ID, quizzes[1].ID, quizzes[2].ID})
}

func TestGetQuizNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/quizzes/missing/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
	})
	c := newTestClient(t, mux)

	_, err := c.GetQuiz(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrQuizNotFound), "got %v", err)
}

func TestFieldErrorsFormatted(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/quizzes/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"name":      []string{"This field is required."},
			"questions": []any{"Too short.", "Invalid."},
		})
	})
	c := newTestClient(t, mux)

	_, err := c.CreateQuiz(context.Background(), domain.QuizPayload{})
	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "name: This field is required.\nquestions: Too short., Invalid.", apiErr.Message)
}

func TestAPIErrorMessages(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"detail", `{"detail":"Authentication credentials were not provided."}`, "Authentication credentials were not provided."},
		{"not json", `<html>boom</html>`, "request failed (500)"},
		{"empty", ``, "request failed (500)"},
		{"nested", `{"options":{"0":["blank"]}}`, "options: 0: blank"},
		{"list", `["quiz is locked"]`, "quiz is locked"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, newAPIError(500, []byte(tc.body)).Message)
		})
	}
}

func TestUnauthorizedMapsToSentinel(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/favorites/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "nope"})
	})
	c := newTestClient(t, mux)

	_, err := c.Favorites(context.Background())
	assert.True(t, errors.Is(err, domain.ErrUnauthorized), "got %v", err)
}

func TestLoginSessionAndCSRF(t *testing.T) {
	var gotToken string
	var gotBody map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "tok-1", Path: "/"})
		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "s-1", Path: "/"})
		writeJSON(w, http.StatusOK, map[string]any{"user": domain.User{ID: 7, Username: "ann"}})
	})
	mux.HandleFunc("/api/quizzes/q1/like/", func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-CSRFToken")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		writeJSON(w, http.StatusOK, domain.ReactionCounts{Likes: 3, Dislikes: 1})
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	user, err := c.Login(ctx, "ann", "secret")
	require.NoError(t, err)
	assert.Equal(t, 7, user.ID)

	counts, err := c.React(ctx, "q1", "like", "", "like")
	require.NoError(t, err)
	assert.Equal(t, domain.ReactionCounts{Likes: 3, Dislikes: 1}, counts)
	assert.Equal(t, "tok-1", gotToken)
	assert.Nil(t, gotBody["previous"])
	assert.Equal(t, "like", gotBody["current"])
}

func TestCurrentUserAnonymous(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/current-user/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"user": nil})
	})
	c := newTestClient(t, mux)

	_, ok, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFavoritesSkipMissingQuizzes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/favorites/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"quiz":{"id":"a","name":"A"}},{"quiz":null}]`)
	})
	c := newTestClient(t, mux)

	favs, err := c.Favorites(context.Background())
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, "a", favs[0].ID)
}

func TestCommentsPaging(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/quizzes/q1/comments/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("page_size"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"results":[{"id":1,"user":"ann","text":"nice"}],"next_page":null}`)
	})
	c := newTestClient(t, mux)

	page, err := c.Comments(context.Background(), "q1", 2)
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, 0, page.NextPage)
}

func TestSentSharesNotFoundIsEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/quiz-shares/sent/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	c := newTestClient(t, mux)

	shares, err := c.SentShares(context.Background())
	require.NoError(t, err)
	assert.Empty(t, shares)
}
