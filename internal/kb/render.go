package kb

import (
	"fmt"
	"strings"

	"kbdump/internal/model"
)

// document accumulates markdown blocks in order and renders them at the
// end. Each block is a self-contained section; empty blocks are skipped so
// optional sections disappear cleanly.
type document struct {
	blocks []string
}

func (d *document) add(block string) {
	if block != "" {
		d.blocks = append(d.blocks, block)
	}
}

func (d *document) String() string {
	return strings.Join(d.blocks, "\n\n") + "\n"
}

// RenderArticle produces the markdown document for one article from its
// detail record, comments, and attachment metadata. It is a pure function:
// all placeholder substitution for absent fields happens here, at the
// rendering boundary, not in the pipeline.
func RenderArticle(article *model.Article, comments []model.Comment, attachments []model.Attachment) string {
	var doc document
	doc.add(renderTitle(article))
	doc.add(renderMetadata(article))
	doc.add(renderContent(article))
	doc.add(renderAttachments(attachments))
	doc.add(renderComments(comments))
	return doc.String()
}

func renderTitle(article *model.Article) string {
	title := article.Summary
	if title == "" {
		title = "Untitled"
	}
	return "# " + title
}

func renderMetadata(article *model.Article) string {
	var b strings.Builder
	b.WriteString("## Metadata\n\n")
	b.WriteString("| Field | Value |\n")
	b.WriteString("|-------|-------|\n")

	id := article.IDReadable
	if id == "" {
		id = unknownValue
	}
	fmt.Fprintf(&b, "| ID | %s |\n", id)

	project := article.ProjectShortName()
	if project == "" {
		project = unknownValue
	}
	fmt.Fprintf(&b, "| Project | %s |\n", project)

	if article.Reporter != nil && article.Reporter.Name != "" {
		fmt.Fprintf(&b, "| Author | %s |\n", article.Reporter.Name)
	}

	fmt.Fprintf(&b, "| Created | %s |\n", FormatTimestamp(article.Created))
	fmt.Fprintf(&b, "| Updated | %s |\n", FormatTimestamp(article.Updated))

	if p := article.ParentArticle; p != nil {
		fmt.Fprintf(&b, "| Parent Article | %s: %s |\n", p.IDReadable, p.Summary)
	}

	return strings.TrimRight(b.String(), "\n")
}

func renderContent(article *model.Article) string {
	content := article.Content
	if content == "" {
		content = "*No content available*"
	}
	return "## Content\n\n" + content
}

func renderAttachments(attachments []model.Attachment) string {
	if len(attachments) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("## Attachments\n")
	for _, a := range attachments {
		name := SafeFileName(a.Name, DefaultMaxNameLength)
		author := unknownValue
		if a.Author != nil && a.Author.Name != "" {
			author = a.Author.Name
		}
		sizeKB := float64(a.Size) / 1024
		fmt.Fprintf(&b, "\n- [%s](attachments/%s) (%.2f KB) - %s - %s",
			name, name, sizeKB, author, FormatTimestamp(a.Created))
	}
	return b.String()
}

func renderComments(comments []model.Comment) string {
	if len(comments) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("## Comments")
	for i, c := range comments {
		author := unknownValue
		if c.Author != nil && c.Author.Name != "" {
			author = c.Author.Name
		}
		text := c.Text
		if text == "" {
			text = "*No text*"
		}
		fmt.Fprintf(&b, "\n\n### Comment %d - %s (%s)\n\n%s\n\n---", i+1, author, FormatTimestamp(c.Created), text)
	}
	return b.String()
}
