package spacetravelling

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/eringen/spacetravelling/prismic"
	"github.com/eringen/spacetravelling/richtext"
)

// ErrInvalidDocument is returned when a CMS document lacks a field every
// post needs.
var ErrInvalidDocument = errors.New("invalid post document")

type postDocumentData struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Author   string `json:"author"`
	Banner   struct {
		URL string `json:"url"`
	} `json:"banner"`
	Content []struct {
		Heading string            `json:"heading"`
		Body    richtext.RichText `json:"body"`
	} `json:"content"`
}

// PostFromDocument narrows a raw CMS document into a Post. The uid and title
// are required; every other field defaults to its zero value.
func PostFromDocument(doc prismic.Document) (Post, error) {
	if strings.TrimSpace(doc.UID) == "" {
		return Post{}, fmt.Errorf("%w: document %s has no uid", ErrInvalidDocument, doc.ID)
	}
	var data postDocumentData
	if len(doc.Data) > 0 {
		if err := json.Unmarshal(doc.Data, &data); err != nil {
			return Post{}, fmt.Errorf("%w: %s: decode data: %v", ErrInvalidDocument, doc.UID, err)
		}
	}
	if strings.TrimSpace(data.Title) == "" {
		return Post{}, fmt.Errorf("%w: %s has no title", ErrInvalidDocument, doc.UID)
	}

	last := doc.LastPublicationDate
	if last == "" {
		last = doc.FirstPublicationDate
	}
	post := Post{
		ID:                   doc.ID,
		UID:                  doc.UID,
		FirstPublicationDate: doc.FirstPublicationDate,
		LastPublicationDate:  last,
		Data: PostData{
			Title:    data.Title,
			Subtitle: data.Subtitle,
			Author:   data.Author,
			Banner:   Banner{URL: data.Banner.URL},
			Content:  make([]ContentBlock, 0, len(data.Content)),
		},
	}
	for _, c := range data.Content {
		post.Data.Content = append(post.Data.Content, ContentBlock{Heading: c.Heading, Body: c.Body})
	}
	return post, nil
}

// NavPostFromDocument narrows a raw CMS document into a NavPost.
func NavPostFromDocument(doc prismic.Document) (NavPost, error) {
	if strings.TrimSpace(doc.UID) == "" {
		return NavPost{}, fmt.Errorf("%w: document %s has no uid", ErrInvalidDocument, doc.ID)
	}
	var data struct {
		Title string `json:"title"`
	}
	if len(doc.Data) > 0 {
		if err := json.Unmarshal(doc.Data, &data); err != nil {
			return NavPost{}, fmt.Errorf("%w: %s: decode data: %v", ErrInvalidDocument, doc.UID, err)
		}
	}
	return NavPost{UID: doc.UID, Data: NavPostData{Title: data.Title}}, nil
}

// PostPath returns the site path of a post.
func PostPath(uid string) string {
	return "/post/" + uid + "/"
}
