package kb

import (
	"context"
	"errors"
	"path"
	"strings"

	"kbdump/internal/model"
)

// workItem is one pending node in the depth-first walk: an article
// reference, the destination directory it materializes under, and its
// depth below the root.
type workItem struct {
	ref   model.ArticleRef
	dir   string
	depth int
}

// exportTree materializes one root article and all of its descendants.
// The walk is an explicit LIFO stack rather than recursion so the depth
// cap and the visited set are enforced in one place; children are pushed
// in reverse so processing order matches the API response order.
//
// A non-nil error is returned only for run-fatal conditions (bad auth,
// cancelled context). Every per-node failure is logged, counted, and
// contained to the subtree rooted at that node.
func (e *Exporter) exportTree(ctx context.Context, root model.ArticleRef, projectDir string, sum *Summary) error {
	stack := []workItem{{ref: root, dir: projectDir, depth: 0}}
	visited := make(map[string]bool)

	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[item.ref.ID] {
			e.warn(sum, "skipping article: already visited (cyclic parent/child data?)",
				"article", refLabel(item.ref))
			continue
		}
		visited[item.ref.ID] = true

		if item.depth > e.maxDepth {
			e.warn(sum, "skipping article: depth cap exceeded",
				"article", refLabel(item.ref), "depth", item.depth)
			continue
		}

		articleDir, children, err := e.exportArticle(ctx, item, sum)
		if err != nil {
			return err
		}
		if articleDir == "" {
			// Node skipped; its subtree goes with it.
			continue
		}

		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, workItem{
				ref:   children[i],
				dir:   articleDir,
				depth: item.depth + 1,
			})
		}
	}

	return nil
}

// exportArticle materializes a single article: detail fetch, directory,
// attachments, rendered markdown. It returns the article's directory and
// its direct children, or an empty directory when the node was skipped.
func (e *Exporter) exportArticle(ctx context.Context, item workItem, sum *Summary) (string, []model.ArticleRef, error) {
	article, err := e.client.Article(ctx, item.ref.ID)
	if err != nil {
		if fatal(err) {
			return "", nil, err
		}
		article = nil
	}
	if article == nil {
		sum.ArticlesSkipped++
		e.warn(sum, "skipping article: detail unavailable", "article", refLabel(item.ref))
		return "", nil, nil
	}

	// The directory name is the readable id alone, never the title: titles
	// are long and unbounded, ids keep nested paths short. The full title
	// lives inside the rendered document.
	name := article.IDReadable
	if name == "" {
		name = article.ID
	}
	articleDir := path.Join(item.dir, name)

	if err := e.dest.EnsureDir(articleDir); err != nil {
		sum.ArticlesSkipped++
		e.warn(sum, "skipping article: cannot create directory",
			"article", refLabel(item.ref), "error", err)
		return "", nil, nil
	}

	comments, err := e.client.Comments(ctx, article.ID)
	if err != nil {
		if fatal(err) {
			return "", nil, err
		}
		e.warn(sum, "comments unavailable, continuing without",
			"article", article.IDReadable, "error", err)
		comments = nil
	}

	attachments, err := e.client.Attachments(ctx, article.ID)
	if err != nil {
		if fatal(err) {
			return "", nil, err
		}
		e.warn(sum, "attachments unavailable, continuing without",
			"article", article.IDReadable, "error", err)
		attachments = nil
	}

	if err := e.downloadAttachments(ctx, articleDir, article, attachments, sum); err != nil {
		return "", nil, err
	}

	doc := RenderArticle(article, comments, attachments)
	readme := path.Join(articleDir, "README.md")
	if err := e.dest.WriteFile(readme, strings.NewReader(doc), int64(len(doc))); err != nil {
		e.warn(sum, "failed to write article document",
			"article", article.IDReadable, "error", err)
	} else {
		sum.ArticlesExported++
		e.logger.Info("article exported", "article", article.IDReadable, "path", readme)
	}

	children, err := e.client.Children(ctx, article.ID)
	if err != nil {
		if fatal(err) {
			return "", nil, err
		}
		e.warn(sum, "children listing unavailable, subtree ends here",
			"article", article.IDReadable, "error", err)
		children = nil
	}

	return articleDir, children, nil
}

// downloadAttachments streams each attachment binary into
// <articleDir>/attachments/<safe-name>. Each attachment is an independent
// unit of failure: one bad download never aborts its siblings or the
// article.
func (e *Exporter) downloadAttachments(ctx context.Context, articleDir string, article *model.Article, attachments []model.Attachment, sum *Summary) error {
	if len(attachments) == 0 {
		return nil
	}

	attachDir := path.Join(articleDir, "attachments")
	if err := e.dest.EnsureDir(attachDir); err != nil {
		e.warn(sum, "cannot create attachments directory",
			"article", article.IDReadable, "error", err)
		sum.AttachmentsFailed += len(attachments)
		return nil
	}

	for _, a := range attachments {
		name := SafeFileName(a.Name, DefaultMaxNameLength)
		if name == "" {
			name = "attachment_" + a.ID
		}
		if err := e.downloadOne(ctx, path.Join(attachDir, name), a); err != nil {
			if fatal(err) {
				return err
			}
			sum.AttachmentsFailed++
			e.warn(sum, "attachment download failed",
				"article", article.IDReadable, "attachment", a.Name, "error", err)
			continue
		}
		sum.AttachmentsDownloaded++
		e.logger.Debug("attachment downloaded",
			"article", article.IDReadable, "attachment", name, "bytes", a.Size)
	}

	return nil
}

func (e *Exporter) downloadOne(ctx context.Context, destPath string, a model.Attachment) error {
	rc, err := e.client.Download(ctx, a.URL)
	if err != nil {
		return err
	}
	defer rc.Close()

	// The advertised size is metadata only; the stream is authoritative.
	return e.dest.WriteFile(destPath, rc, -1)
}

// fatal reports whether an error must abort the whole run instead of
// being contained to the current unit of work.
func fatal(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// refLabel names an article in log output, preferring the readable id.
func refLabel(ref model.ArticleRef) string {
	if ref.IDReadable != "" {
		return ref.IDReadable
	}
	return ref.ID
}
