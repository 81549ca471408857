// Package model contains the wire types returned by the knowledge-base API.
// All timestamps are epoch milliseconds as sent by the server; zero means
// the field was absent. Optional nested objects are pointers so a missing
// field decodes to nil rather than a zero struct.
package model

// User identifies an account on the remote system.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Project is the owning project of an article, identified by its short code.
type Project struct {
	ID        string `json:"id"`
	ShortName string `json:"shortName"`
}

// ArticleRef is the minimal reference to an article: enough to name it in
// a parent link or a children listing, not enough to render it.
type ArticleRef struct {
	ID         string `json:"id"`
	IDReadable string `json:"idReadable"`
	Summary    string `json:"summary"`
}

// Article is the full detail record for one knowledge-base article.
type Article struct {
	ID            string      `json:"id"`
	IDReadable    string      `json:"idReadable"`
	Summary       string      `json:"summary"`
	Content       string      `json:"content"`
	Created       int64       `json:"created"`
	Updated       int64       `json:"updated"`
	Project       *Project    `json:"project"`
	Reporter      *User       `json:"reporter"`
	ParentArticle *ArticleRef `json:"parentArticle"`
}

// IsRoot reports whether the article has no parent reference.
func (a *Article) IsRoot() bool {
	return a.ParentArticle == nil
}

// ProjectShortName returns the owning project's short code, or the empty
// string when the project field is absent.
func (a *Article) ProjectShortName() string {
	if a.Project == nil {
		return ""
	}
	return a.Project.ShortName
}

// Visibility restricts who may see a comment. It is captured but the
// renderer does not treat restricted comments differently.
type Visibility struct {
	PermittedGroups []struct {
		Name string `json:"name"`
	} `json:"permittedGroups"`
	PermittedUsers []User `json:"permittedUsers"`
}

// Comment is a single comment on an article.
type Comment struct {
	ID         string      `json:"id"`
	Author     *User       `json:"author"`
	Text       string      `json:"text"`
	Created    int64       `json:"created"`
	Visibility *Visibility `json:"visibility"`
}

// Attachment is the metadata record for a binary attached to an article.
// URL may be absolute or relative to the API base URL.
type Attachment struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Author    *User  `json:"author"`
	Created   int64  `json:"created"`
	Updated   int64  `json:"updated"`
	Size      int64  `json:"size"`
	MimeType  string `json:"mimeType"`
	Extension string `json:"extension"`
	URL       string `json:"url"`
}
