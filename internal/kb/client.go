package kb

import (
	"context"
	"errors"
	"io"

	"kbdump/internal/model"
)

// ErrUnauthorized is returned when the API rejects the auth token.
// It is fatal: no partial export is trustworthy without valid auth, so
// callers must abort the entire run when any call returns it.
var ErrUnauthorized = errors.New("unauthorized: the API rejected the token")

// Client is the read-only view of the knowledge-base API that the export
// pipeline needs. Implementations return (nil, nil) for resources the
// server reports as absent (404 or other recoverable non-200 statuses);
// only transport failures and ErrUnauthorized surface as errors.
type Client interface {
	// Me fetches the current user, verifying connectivity and auth.
	Me(ctx context.Context) (*model.User, error)

	// ListArticles fetches the complete article collection, following
	// pagination to the end.
	ListArticles(ctx context.Context) ([]model.Article, error)

	// Article fetches the full detail record for one article.
	Article(ctx context.Context, id string) (*model.Article, error)

	// Comments fetches all comments on an article.
	Comments(ctx context.Context, id string) ([]model.Comment, error)

	// Attachments fetches attachment metadata for an article.
	Attachments(ctx context.Context, id string) ([]model.Attachment, error)

	// Children fetches the direct child articles (references only).
	Children(ctx context.Context, id string) ([]model.ArticleRef, error)

	// Download opens the binary content behind an attachment URL.
	// The URL may be absolute or relative to the API base URL.
	// The caller must close the returned reader.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}
