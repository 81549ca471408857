package testutil

import (
	"bytes"
	"context"
	"io"
	"sync"

	"kbdump/internal/kb"
	"kbdump/internal/model"
)

// FakeClient is an in-memory kb.Client backed by maps. Resources that are
// not present behave like a 404 from the real client: (nil, nil). Err, when
// set, is returned from every call, which is how tests simulate a revoked
// token (kb.ErrUnauthorized) mid-run.
type FakeClient struct {
	User            *model.User
	Listing         []model.Article
	Details         map[string]*model.Article
	CommentsByID    map[string][]model.Comment
	AttachmentsByID map[string][]model.Attachment
	ChildrenByID    map[string][]model.ArticleRef
	Downloads       map[string][]byte

	// Err fails every call when set.
	Err error
	// AttachmentsErr fails the attachments fetch for specific article ids
	// with a recoverable error.
	AttachmentsErr map[string]error
	// DownloadErr fails specific download URLs.
	DownloadErr map[string]error

	mu    sync.Mutex
	calls []string
}

// NewFakeClient creates an empty FakeClient.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		Details:         make(map[string]*model.Article),
		CommentsByID:    make(map[string][]model.Comment),
		AttachmentsByID: make(map[string][]model.Attachment),
		ChildrenByID:    make(map[string][]model.ArticleRef),
		Downloads:       make(map[string][]byte),
		AttachmentsErr:  make(map[string]error),
		DownloadErr:     make(map[string]error),
	}
}

// AddArticle registers an article in both the listing and the detail map.
func (c *FakeClient) AddArticle(a model.Article) {
	c.Listing = append(c.Listing, a)
	detail := a
	c.Details[a.ID] = &detail
}

// Calls returns the ordered method log, e.g. "Article(a1)".
func (c *FakeClient) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *FakeClient) logCall(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, s)
}

func (c *FakeClient) Me(ctx context.Context) (*model.User, error) {
	c.logCall("Me()")
	if c.Err != nil {
		return nil, c.Err
	}
	return c.User, nil
}

func (c *FakeClient) ListArticles(ctx context.Context) ([]model.Article, error) {
	c.logCall("ListArticles()")
	if c.Err != nil {
		return nil, c.Err
	}
	return append([]model.Article(nil), c.Listing...), nil
}

func (c *FakeClient) Article(ctx context.Context, id string) (*model.Article, error) {
	c.logCall("Article(" + id + ")")
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Details[id], nil
}

func (c *FakeClient) Comments(ctx context.Context, id string) ([]model.Comment, error) {
	c.logCall("Comments(" + id + ")")
	if c.Err != nil {
		return nil, c.Err
	}
	return c.CommentsByID[id], nil
}

func (c *FakeClient) Attachments(ctx context.Context, id string) ([]model.Attachment, error) {
	c.logCall("Attachments(" + id + ")")
	if c.Err != nil {
		return nil, c.Err
	}
	if err := c.AttachmentsErr[id]; err != nil {
		return nil, err
	}
	return c.AttachmentsByID[id], nil
}

func (c *FakeClient) Children(ctx context.Context, id string) ([]model.ArticleRef, error) {
	c.logCall("Children(" + id + ")")
	if c.Err != nil {
		return nil, c.Err
	}
	return c.ChildrenByID[id], nil
}

func (c *FakeClient) Download(ctx context.Context, url string) (io.ReadCloser, error) {
	c.logCall("Download(" + url + ")")
	if c.Err != nil {
		return nil, c.Err
	}
	if err := c.DownloadErr[url]; err != nil {
		return nil, err
	}
	data, ok := c.Downloads[url]
	if !ok {
		return nil, io.ErrUnexpectedEOF
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Compile-time check that FakeClient implements kb.Client
var _ kb.Client = (*FakeClient)(nil)
