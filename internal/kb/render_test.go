package kb_test

import (
	"strings"
	"testing"

	"kbdump/internal/kb"
	"kbdump/internal/model"
)

func fullArticle() *model.Article {
	return &model.Article{
		ID:         "1-1",
		IDReadable: "KB-A-1",
		Summary:    "Getting Started",
		Content:    "Welcome to the knowledge base.",
		Created:    1705314600000,
		Updated:    1705318200000,
		Project:    &model.Project{ID: "0-1", ShortName: "KB"},
		Reporter:   &model.User{ID: "u1", Name: "Alice"},
		ParentArticle: &model.ArticleRef{
			ID: "1-0", IDReadable: "KB-A-0", Summary: "Handbook",
		},
	}
}

func TestRenderArticleSections(t *testing.T) {
	doc := kb.RenderArticle(fullArticle(),
		[]model.Comment{{ID: "c1", Author: &model.User{Name: "Bob"}, Text: "Nice.", Created: 1705314600000}},
		[]model.Attachment{{ID: "a1", Name: "diagram.png", Author: &model.User{Name: "Alice"}, Size: 2048, Created: 1705314600000}},
	)

	for _, want := range []string{
		"# Getting Started",
		"## Metadata",
		"| Field | Value |",
		"| ID | KB-A-1 |",
		"| Project | KB |",
		"| Author | Alice |",
		"| Parent Article | KB-A-0: Handbook |",
		"## Content",
		"Welcome to the knowledge base.",
		"## Attachments",
		"- [diagram.png](attachments/diagram.png) (2.00 KB) - Alice - ",
		"## Comments",
		"### Comment 1 - Bob (",
		"Nice.",
		"---",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q:\n%s", want, doc)
		}
	}

	if !strings.HasSuffix(doc, "\n") {
		t.Error("document does not end with a newline")
	}
}

func TestRenderArticleDefaults(t *testing.T) {
	article := &model.Article{ID: "1-2"}
	doc := kb.RenderArticle(article, nil, nil)

	t.Run("empty title renders Untitled", func(t *testing.T) {
		if !strings.Contains(doc, "# Untitled") {
			t.Errorf("missing Untitled heading:\n%s", doc)
		}
	})

	t.Run("absent fields render Unknown", func(t *testing.T) {
		for _, want := range []string{"| ID | Unknown |", "| Project | Unknown |", "| Created | Unknown |", "| Updated | Unknown |"} {
			if !strings.Contains(doc, want) {
				t.Errorf("missing %q:\n%s", want, doc)
			}
		}
	})

	t.Run("empty content renders placeholder", func(t *testing.T) {
		if !strings.Contains(doc, "## Content\n\n*No content available*") {
			t.Errorf("missing content placeholder:\n%s", doc)
		}
	})

	t.Run("no author row without reporter", func(t *testing.T) {
		if strings.Contains(doc, "| Author |") {
			t.Errorf("unexpected author row:\n%s", doc)
		}
	})

	t.Run("no parent row for root article", func(t *testing.T) {
		if strings.Contains(doc, "| Parent Article |") {
			t.Errorf("unexpected parent row:\n%s", doc)
		}
	})

	t.Run("empty sections omitted", func(t *testing.T) {
		if strings.Contains(doc, "## Attachments") {
			t.Errorf("unexpected attachments section:\n%s", doc)
		}
		if strings.Contains(doc, "## Comments") {
			t.Errorf("unexpected comments section:\n%s", doc)
		}
	})
}

func TestRenderArticleComments(t *testing.T) {
	comments := []model.Comment{
		{ID: "c1", Text: "first"},
		{ID: "c2", Author: &model.User{Name: "Bob"}, Text: ""},
	}
	doc := kb.RenderArticle(fullArticle(), comments, nil)

	t.Run("numbering starts at one", func(t *testing.T) {
		if !strings.Contains(doc, "### Comment 1 - Unknown (Unknown)") {
			t.Errorf("missing first comment heading:\n%s", doc)
		}
		if !strings.Contains(doc, "### Comment 2 - Bob (Unknown)") {
			t.Errorf("missing second comment heading:\n%s", doc)
		}
	})

	t.Run("empty text renders placeholder", func(t *testing.T) {
		if !strings.Contains(doc, "*No text*") {
			t.Errorf("missing text placeholder:\n%s", doc)
		}
	})

	t.Run("each comment has a separator", func(t *testing.T) {
		if got := strings.Count(doc, "\n---"); got != 2 {
			t.Errorf("got %d separators, want 2:\n%s", got, doc)
		}
	})
}

func TestRenderArticleAttachmentNames(t *testing.T) {
	attachments := []model.Attachment{
		{ID: "a1", Name: `bad?name<1>.txt`, Size: 512},
	}
	doc := kb.RenderArticle(fullArticle(), nil, attachments)

	// The link must use the sanitized on-disk name so the markdown resolves.
	if !strings.Contains(doc, "- [bad_name_1_.txt](attachments/bad_name_1_.txt) (0.50 KB) - Unknown - Unknown") {
		t.Errorf("attachment link not sanitized:\n%s", doc)
	}
}
