package api_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"kbdump/internal/api"
	"kbdump/internal/kb"
	"kbdump/internal/model"
	"kbdump/internal/testutil"
)

func newTestClient(t *testing.T, srv *httptest.Server, opts api.Options) *api.Client {
	t.Helper()
	opts.BaseURL = srv.URL
	if opts.Token == "" {
		opts.Token = "perm:test-token"
	}
	if opts.Logger == nil {
		opts.Logger = testutil.NewCaptureLogger()
	}
	client, err := api.New(opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatalf("encoding response: %v", err)
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := api.New(api.Options{Token: "perm:x"}); err == nil {
		t.Fatal("expected an error for a missing base URL")
	}
}

func TestRequestHeaders(t *testing.T) {
	var gotAuth, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		writeJSON(t, w, model.User{ID: "u1", Name: "Alice"})
	}))
	defer srv.Close()

	client := newTestClient(t, srv, api.Options{Token: "perm:abc123"})
	if _, err := client.Me(t.Context()); err != nil {
		t.Fatalf("Me failed: %v", err)
	}

	if gotAuth != "Bearer perm:abc123" {
		t.Errorf("Authorization = %q, want Bearer perm:abc123", gotAuth)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q, want application/json", gotAccept)
	}
}

func TestStatusClassification(t *testing.T) {
	t.Run("unauthorized is fatal", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		client := newTestClient(t, srv, api.Options{})
		_, err := client.Article(t.Context(), "1-1")
		if !errors.Is(err, kb.ErrUnauthorized) {
			t.Fatalf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("not found is absence", func(t *testing.T) {
		logger := testutil.NewCaptureLogger()
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		client := newTestClient(t, srv, api.Options{Logger: logger})
		article, err := client.Article(t.Context(), "1-1")
		if err != nil {
			t.Fatalf("err = %v, want nil", err)
		}
		if article != nil {
			t.Errorf("article = %+v, want nil", article)
		}
		if !logger.HasWarningContaining("not found") {
			t.Errorf("missing warning, got %v", logger.Warnings())
		}
	})

	t.Run("server error is absence with warning", func(t *testing.T) {
		logger := testutil.NewCaptureLogger()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := newTestClient(t, srv, api.Options{Logger: logger})
		comments, err := client.Comments(t.Context(), "1-1")
		if err != nil {
			t.Fatalf("err = %v, want nil", err)
		}
		if comments != nil {
			t.Errorf("comments = %v, want nil", comments)
		}
		if !logger.HasWarningContaining("unexpected response") {
			t.Errorf("missing warning, got %v", logger.Warnings())
		}
	})
}

// listServer serves a fixed article collection honoring $skip/$top and
// records the offsets it was asked for.
func listServer(t *testing.T, total int) (*httptest.Server, *[]int) {
	articles := make([]model.Article, total)
	for i := range articles {
		articles[i] = model.Article{ID: fmt.Sprintf("1-%d", i), IDReadable: fmt.Sprintf("A-%d", i)}
	}

	var skips []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		skip, _ := strconv.Atoi(r.URL.Query().Get("$skip"))
		top, _ := strconv.Atoi(r.URL.Query().Get("$top"))
		skips = append(skips, skip)

		end := skip + top
		if skip > len(articles) {
			skip = len(articles)
		}
		if end > len(articles) {
			end = len(articles)
		}
		writeJSON(t, w, articles[skip:end])
	}))
	return srv, &skips
}

func TestListArticlesPagination(t *testing.T) {
	t.Run("short final page terminates", func(t *testing.T) {
		srv, skips := listServer(t, 5)
		defer srv.Close()

		client := newTestClient(t, srv, api.Options{PageSize: 2})
		articles, err := client.ListArticles(t.Context())
		if err != nil {
			t.Fatalf("ListArticles failed: %v", err)
		}

		if len(articles) != 5 {
			t.Errorf("got %d articles, want 5", len(articles))
		}
		for i, a := range articles {
			if want := fmt.Sprintf("1-%d", i); a.ID != want {
				t.Errorf("article %d has id %q, want %q", i, a.ID, want)
			}
		}
		wantSkips := []int{0, 2, 4}
		if fmt.Sprint(*skips) != fmt.Sprint(wantSkips) {
			t.Errorf("offsets = %v, want %v", *skips, wantSkips)
		}
	})

	t.Run("exact multiple needs one empty page", func(t *testing.T) {
		srv, skips := listServer(t, 4)
		defer srv.Close()

		client := newTestClient(t, srv, api.Options{PageSize: 2})
		articles, err := client.ListArticles(t.Context())
		if err != nil {
			t.Fatalf("ListArticles failed: %v", err)
		}

		if len(articles) != 4 {
			t.Errorf("got %d articles, want 4", len(articles))
		}
		if len(*skips) != 3 {
			t.Errorf("server saw %d requests, want 3: %v", len(*skips), *skips)
		}
	})

	t.Run("page cap returns partial listing", func(t *testing.T) {
		srv, skips := listServer(t, 100)
		defer srv.Close()

		logger := testutil.NewCaptureLogger()
		client := newTestClient(t, srv, api.Options{PageSize: 10, MaxPages: 3, Logger: logger})
		articles, err := client.ListArticles(t.Context())
		if err != nil {
			t.Fatalf("ListArticles failed: %v", err)
		}

		if len(articles) != 30 {
			t.Errorf("got %d articles, want 30", len(articles))
		}
		if len(*skips) != 3 {
			t.Errorf("server saw %d requests, want 3", len(*skips))
		}
		if !logger.HasWarningContaining("pagination cap") {
			t.Errorf("missing cap warning, got %v", logger.Warnings())
		}
	})
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/files/f1":
			fmt.Fprint(w, "binary-data")
		case "/files/denied":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv, api.Options{})

	t.Run("relative url resolves against base", func(t *testing.T) {
		rc, err := client.Download(t.Context(), "/files/f1")
		if err != nil {
			t.Fatalf("Download failed: %v", err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("reading stream: %v", err)
		}
		if string(data) != "binary-data" {
			t.Errorf("got %q, want binary-data", data)
		}
	})

	t.Run("absolute url passes through", func(t *testing.T) {
		rc, err := client.Download(t.Context(), srv.URL+"/files/f1")
		if err != nil {
			t.Fatalf("Download failed: %v", err)
		}
		rc.Close()
	})

	t.Run("unauthorized is fatal", func(t *testing.T) {
		_, err := client.Download(t.Context(), "/files/denied")
		if !errors.Is(err, kb.ErrUnauthorized) {
			t.Fatalf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("not found is an error", func(t *testing.T) {
		if _, err := client.Download(t.Context(), "/files/missing"); err == nil {
			t.Fatal("expected an error for a missing file")
		}
	})
}

func TestTypedEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/me":
			writeJSON(t, w, model.User{ID: "u1", Name: "Alice"})
		case "/articles/1-1":
			writeJSON(t, w, model.Article{ID: "1-1", IDReadable: "A-1", Summary: "Hello"})
		case "/articles/1-1/comments":
			writeJSON(t, w, []model.Comment{{ID: "c1", Text: "hi"}})
		case "/articles/1-1/attachments":
			writeJSON(t, w, []model.Attachment{{ID: "f1", Name: "a.png"}})
		case "/articles/1-1/childArticles":
			writeJSON(t, w, []model.ArticleRef{{ID: "2-1", IDReadable: "A-2"}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv, api.Options{})
	ctx := t.Context()

	t.Run("me", func(t *testing.T) {
		me, err := client.Me(ctx)
		if err != nil || me == nil {
			t.Fatalf("Me = %v, %v", me, err)
		}
		if me.Name != "Alice" {
			t.Errorf("Name = %q, want Alice", me.Name)
		}
	})

	t.Run("article", func(t *testing.T) {
		a, err := client.Article(ctx, "1-1")
		if err != nil || a == nil {
			t.Fatalf("Article = %v, %v", a, err)
		}
		if a.Summary != "Hello" {
			t.Errorf("Summary = %q, want Hello", a.Summary)
		}
	})

	t.Run("comments", func(t *testing.T) {
		comments, err := client.Comments(ctx, "1-1")
		if err != nil || len(comments) != 1 {
			t.Fatalf("Comments = %v, %v", comments, err)
		}
	})

	t.Run("attachments", func(t *testing.T) {
		attachments, err := client.Attachments(ctx, "1-1")
		if err != nil || len(attachments) != 1 {
			t.Fatalf("Attachments = %v, %v", attachments, err)
		}
	})

	t.Run("children", func(t *testing.T) {
		children, err := client.Children(ctx, "1-1")
		if err != nil || len(children) != 1 {
			t.Fatalf("Children = %v, %v", children, err)
		}
	})
}
