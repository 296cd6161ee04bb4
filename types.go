package spacetravelling

import (
	"time"

	"github.com/eringen/spacetravelling/richtext"
)

// Post is a blog post mapped from a CMS document.
type Post struct {
	ID                   string   `json:"id"`
	UID                  string   `json:"uid"`
	FirstPublicationDate string   `json:"first_publication_date"`
	LastPublicationDate  string   `json:"last_publication_date,omitempty"`
	Data                 PostData `json:"data"`
}

// PostData holds the custom-type fields of a post.
type PostData struct {
	Title    string         `json:"title"`
	Subtitle string         `json:"subtitle,omitempty"`
	Author   string         `json:"author"`
	Banner   Banner         `json:"banner"`
	Content  []ContentBlock `json:"content"`
}

// Banner is the hero image of a post.
type Banner struct {
	URL string `json:"url"`
}

// ContentBlock is one section of a post: a heading and a rich-text body.
type ContentBlock struct {
	Heading string            `json:"heading"`
	Body    richtext.RichText `json:"body"`
}

// IsEdited reports whether the post was republished after its first publication.
func (p Post) IsEdited() bool {
	return p.FirstPublicationDate != p.LastPublicationDate
}

// PostPagination is one page of the listing. An empty NextPage means there
// are no further pages.
type PostPagination struct {
	NextPage string `json:"next_page"`
	Results  []Post `json:"results"`
}

// NavPost is the minimal reference used for previous/next links.
type NavPost struct {
	UID  string      `json:"uid"`
	Data NavPostData `json:"data"`
}

// NavPostData holds the title of a sibling post.
type NavPostData struct {
	Title string `json:"title"`
}

// PostSummary is a listing entry: a post and its formatted publication date.
type PostSummary struct {
	Post          Post   `json:"post"`
	FormattedDate string `json:"formatted_date"`
}

// HomeProps are the props of the listing page.
type HomeProps struct {
	Posts    []PostSummary `json:"posts"`
	NextPage string        `json:"next_page"`
	Preview  bool          `json:"preview"`
}

// PostProps are the props of a post page.
type PostProps struct {
	Post          Post     `json:"post"`
	IsPostEdited  bool     `json:"is_post_edited"`
	PublishedDate string   `json:"published_date"`
	EditedDate    string   `json:"edited_date,omitempty"`
	ReadingTime   int      `json:"reading_time"`
	Previous      *NavPost `json:"previous,omitempty"`
	Next          *NavPost `json:"next,omitempty"`
	Preview       bool     `json:"preview"`
}

// Redirect replaces a page's props when generation decides the page should
// send the visitor elsewhere.
type Redirect struct {
	Destination string `json:"destination"`
	Permanent   bool   `json:"permanent"`
}

// StaticResult is the outcome of a generation function: either props or a
// redirect, valid for Revalidate before it should be regenerated.
type StaticResult[P any] struct {
	Props      P             `json:"props"`
	Redirect   *Redirect     `json:"redirect,omitempty"`
	Revalidate time.Duration `json:"revalidate"`
}

// StaticPaths is the set of slugs known at build time. Fallback allows
// slugs outside the set to be generated on demand.
type StaticPaths struct {
	Slugs    []string
	Fallback bool
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
}
