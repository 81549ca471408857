package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"kbdump/internal/kb"
	"kbdump/internal/model"
)

// Field-selection strings for each endpoint. The listing asks for just
// enough to partition and group; the detail fetch asks for everything the
// renderer needs.
const (
	userFields        = "id,name"
	articleListFields = "id,idReadable,summary,project(id,shortName),parentArticle(id)"
	articleFields     = "id,idReadable,summary,content,created,updated,project(id,shortName),reporter(id,name),parentArticle(id,idReadable,summary)"
	commentFields     = "id,author(id,name),text,created,visibility(permittedGroups(name),permittedUsers(id,name))"
	attachmentFields  = "id,name,author(id,name),created,updated,size,mimeType,extension,url"
	childFields       = "id,idReadable,summary"
)

// Me fetches the current user identity. A nil user with nil error means
// the endpoint was unavailable; callers treat that as a failed check.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	body, err := c.get(ctx, "users/me?fields="+userFields)
	if err != nil || body == nil {
		return nil, err
	}
	var u model.User
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("decoding current user: %w", err)
	}
	return &u, nil
}

// ListArticles fetches the complete article collection, polling with
// $skip/$top offsets until a short page, an absent result, or the page
// cap. The concatenation preserves server order.
func (c *Client) ListArticles(ctx context.Context) ([]model.Article, error) {
	var all []model.Article
	for page := 0; ; page++ {
		if page >= c.maxPages {
			c.logger.Warn("pagination cap reached, returning partial listing",
				"pages", page, "articles", len(all))
			break
		}

		path := fmt.Sprintf("articles?fields=%s&$skip=%d&$top=%d",
			articleListFields, page*c.pageSize, c.pageSize)
		body, err := c.get(ctx, path)
		if err != nil {
			return all, err
		}
		if body == nil {
			break
		}

		var batch []model.Article
		if err := json.Unmarshal(body, &batch); err != nil {
			return all, fmt.Errorf("decoding article page %d: %w", page, err)
		}
		all = append(all, batch...)
		if len(batch) < c.pageSize {
			break
		}
	}
	return all, nil
}

// Article fetches the full detail record for one article.
func (c *Client) Article(ctx context.Context, id string) (*model.Article, error) {
	body, err := c.get(ctx, fmt.Sprintf("articles/%s?fields=%s", url.PathEscape(id), articleFields))
	if err != nil || body == nil {
		return nil, err
	}
	var a model.Article
	if err := json.Unmarshal(body, &a); err != nil {
		return nil, fmt.Errorf("decoding article %s: %w", id, err)
	}
	return &a, nil
}

// Comments fetches all comments on an article.
func (c *Client) Comments(ctx context.Context, id string) ([]model.Comment, error) {
	body, err := c.get(ctx, fmt.Sprintf("articles/%s/comments?fields=%s", url.PathEscape(id), commentFields))
	if err != nil || body == nil {
		return nil, err
	}
	var comments []model.Comment
	if err := json.Unmarshal(body, &comments); err != nil {
		return nil, fmt.Errorf("decoding comments for %s: %w", id, err)
	}
	return comments, nil
}

// Attachments fetches attachment metadata for an article.
func (c *Client) Attachments(ctx context.Context, id string) ([]model.Attachment, error) {
	body, err := c.get(ctx, fmt.Sprintf("articles/%s/attachments?fields=%s", url.PathEscape(id), attachmentFields))
	if err != nil || body == nil {
		return nil, err
	}
	var attachments []model.Attachment
	if err := json.Unmarshal(body, &attachments); err != nil {
		return nil, fmt.Errorf("decoding attachments for %s: %w", id, err)
	}
	return attachments, nil
}

// Children fetches the direct child articles of an article.
func (c *Client) Children(ctx context.Context, id string) ([]model.ArticleRef, error) {
	body, err := c.get(ctx, fmt.Sprintf("articles/%s/childArticles?fields=%s", url.PathEscape(id), childFields))
	if err != nil || body == nil {
		return nil, err
	}
	var children []model.ArticleRef
	if err := json.Unmarshal(body, &children); err != nil {
		return nil, fmt.Errorf("decoding children for %s: %w", id, err)
	}
	return children, nil
}

// Download opens the binary stream behind an attachment URL. Unlike get,
// any non-200 status is an error here: the caller owns the decision to
// treat a single failed download as recoverable.
func (c *Client) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	resp, err := c.do(ctx, c.resolveURL(rawURL))
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, nil
	case http.StatusUnauthorized:
		resp.Body.Close()
		return nil, fmt.Errorf("downloading %s: %w", rawURL, kb.ErrUnauthorized)
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("downloading %s: unexpected status %s", rawURL, resp.Status)
	}
}

// Compile-time check that Client implements the pipeline's client interface.
var _ kb.Client = (*Client)(nil)
