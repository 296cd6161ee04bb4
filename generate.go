package spacetravelling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eringen/spacetravelling/prismic"
	"github.com/eringen/spacetravelling/richtext"
)

// ContentSource is the subset of the CMS client the generation functions use.
type ContentSource interface {
	Query(ctx context.Context, predicates []prismic.Predicate, opts prismic.QueryOptions) (*prismic.Response, error)
	GetByUID(ctx context.Context, docType, uid string, opts prismic.QueryOptions) (*prismic.Document, error)
	GetByID(ctx context.Context, id string, opts prismic.QueryOptions) (*prismic.Document, error)
	FetchPage(ctx context.Context, cursor string) (*prismic.Response, error)
}

// Logger is satisfied by echo.Logger.
type Logger interface {
	Warnf(format string, args ...interface{})
}

// pathsPageSize is the page size used when enumerating every post.
const pathsPageSize = 100

// Generator runs the static generation functions against the CMS.
type Generator struct {
	src        ContentSource
	postType   string
	pageSize   int
	revalidate time.Duration
	dates      *DateFormatter
	logger     Logger
}

// NewGenerator creates a Generator for documents of postType.
func NewGenerator(src ContentSource, postType string, pageSize int, revalidate time.Duration, dates *DateFormatter, logger Logger) *Generator {
	return &Generator{
		src:        src,
		postType:   postType,
		pageSize:   pageSize,
		revalidate: revalidate,
		dates:      dates,
		logger:     logger,
	}
}

// Dates returns the formatter used for publication dates.
func (g *Generator) Dates() *DateFormatter {
	return g.dates
}

func (g *Generator) warnf(format string, args ...interface{}) {
	if g.logger != nil {
		g.logger.Warnf(format, args...)
	}
}

func (g *Generator) typePredicate() []prismic.Predicate {
	return []prismic.Predicate{prismic.At("document.type", g.postType)}
}

// IndexEntry is one post in the site index used by the sitemap.
type IndexEntry struct {
	UID                 string `json:"uid"`
	Title               string `json:"title"`
	LastPublicationDate string `json:"last_publication_date"`
}

// Index lists every post, following cursors until the CMS reports no
// further page.
func (g *Generator) Index(ctx context.Context) ([]IndexEntry, error) {
	resp, err := g.src.Query(ctx, g.typePredicate(), prismic.QueryOptions{
		PageSize: pathsPageSize,
		Fetch:    []string{g.postType + ".title"},
	})
	if err != nil {
		return nil, fmt.Errorf("query post index: %w", err)
	}
	var entries []IndexEntry
	for {
		for _, doc := range resp.Results {
			nav, err := NavPostFromDocument(doc)
			if err != nil {
				g.warnf("skipping document: %v", err)
				continue
			}
			last := doc.LastPublicationDate
			if last == "" {
				last = doc.FirstPublicationDate
			}
			entries = append(entries, IndexEntry{UID: nav.UID, Title: nav.Data.Title, LastPublicationDate: last})
		}
		if resp.NextPage == "" {
			return entries, nil
		}
		resp, err = g.src.FetchPage(ctx, resp.NextPage)
		if err != nil {
			return nil, fmt.Errorf("fetch post index: %w", err)
		}
	}
}

// IndexResult wraps Index as a generation result so the index can be cached
// like a page.
func (g *Generator) IndexResult(ctx context.Context) (StaticResult[[]IndexEntry], error) {
	entries, err := g.Index(ctx)
	if err != nil {
		return StaticResult[[]IndexEntry]{}, err
	}
	return StaticResult[[]IndexEntry]{Props: entries, Revalidate: g.revalidate}, nil
}

// StaticPaths returns the slug of every post. Slugs outside the set are
// generated on demand.
func (g *Generator) StaticPaths(ctx context.Context) (StaticPaths, error) {
	entries, err := g.Index(ctx)
	if err != nil {
		return StaticPaths{}, err
	}
	paths := StaticPaths{Slugs: make([]string, 0, len(entries)), Fallback: true}
	for _, e := range entries {
		paths.Slugs = append(paths.Slugs, e.UID)
	}
	return paths, nil
}

// HomeProps generates the first page of the listing. A non-empty ref
// selects preview content.
func (g *Generator) HomeProps(ctx context.Context, ref string) (StaticResult[HomeProps], error) {
	resp, err := g.src.Query(ctx, g.typePredicate(), prismic.QueryOptions{
		Ref:       ref,
		PageSize:  g.pageSize,
		Orderings: []prismic.Ordering{{Field: "document.first_publication_date", Desc: true}},
		Fetch:     []string{g.postType + ".title", g.postType + ".subtitle", g.postType + ".author"},
	})
	if err != nil {
		return StaticResult[HomeProps]{}, fmt.Errorf("query posts: %w", err)
	}
	page := g.pagination(resp)
	props := HomeProps{
		Posts:    make([]PostSummary, 0, len(page.Results)),
		NextPage: page.NextPage,
		Preview:  ref != "",
	}
	for _, p := range page.Results {
		props.Posts = append(props.Posts, Summarize(p, g.dates))
	}
	return StaticResult[HomeProps]{Props: props, Revalidate: g.revalidate}, nil
}

// FetchNextPage dereferences a listing cursor.
func (g *Generator) FetchNextPage(ctx context.Context, cursor string) (PostPagination, error) {
	resp, err := g.src.FetchPage(ctx, cursor)
	if err != nil {
		return PostPagination{}, fmt.Errorf("fetch next page: %w", err)
	}
	return g.pagination(resp), nil
}

func (g *Generator) pagination(resp *prismic.Response) PostPagination {
	page := PostPagination{
		NextPage: resp.NextPage,
		Results:  make([]Post, 0, len(resp.Results)),
	}
	for _, doc := range resp.Results {
		p, err := PostFromDocument(doc)
		if err != nil {
			g.warnf("skipping document: %v", err)
			continue
		}
		page.Results = append(page.Results, p)
	}
	return page
}

// PostProps generates the page of one post. An unknown slug yields a
// temporary redirect to the listing.
func (g *Generator) PostProps(ctx context.Context, slug, ref string) (StaticResult[PostProps], error) {
	doc, err := g.src.GetByUID(ctx, g.postType, slug, prismic.QueryOptions{Ref: ref})
	if errors.Is(err, prismic.ErrNotFound) {
		return StaticResult[PostProps]{
			Redirect:   &Redirect{Destination: "/", Permanent: false},
			Revalidate: g.revalidate,
		}, nil
	}
	if err != nil {
		return StaticResult[PostProps]{}, fmt.Errorf("get post %s: %w", slug, err)
	}
	p, err := PostFromDocument(*doc)
	if err != nil {
		return StaticResult[PostProps]{}, err
	}

	props := PostProps{
		Post:          p,
		IsPostEdited:  p.IsEdited(),
		PublishedDate: g.dates.Date(p.FirstPublicationDate),
		ReadingTime:   EstimateReadingTime(p.Data.Content),
		Preview:       ref != "",
	}
	if props.IsPostEdited {
		props.EditedDate = g.dates.DateTime(p.LastPublicationDate)
	}

	props.Previous, err = g.sibling(ctx, p.ID, ref, prismic.Ordering{Field: "document.first_publication_date"})
	if err != nil {
		return StaticResult[PostProps]{}, fmt.Errorf("previous post of %s: %w", slug, err)
	}
	props.Next, err = g.sibling(ctx, p.ID, ref, prismic.Ordering{Field: "document.last_publication_date", Desc: true})
	if err != nil {
		return StaticResult[PostProps]{}, fmt.Errorf("next post of %s: %w", slug, err)
	}
	return StaticResult[PostProps]{Props: props, Revalidate: g.revalidate}, nil
}

// sibling returns the first post after id in the given order, or nil.
func (g *Generator) sibling(ctx context.Context, id, ref string, order prismic.Ordering) (*NavPost, error) {
	resp, err := g.src.Query(ctx, g.typePredicate(), prismic.QueryOptions{
		Ref:       ref,
		PageSize:  1,
		After:     id,
		Orderings: []prismic.Ordering{order},
		Fetch:     []string{g.postType + ".title"},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	nav, err := NavPostFromDocument(resp.Results[0])
	if err != nil {
		g.warnf("skipping sibling: %v", err)
		return nil, nil
	}
	return &nav, nil
}

// LinkResolver maps rich-text links to site paths: post documents resolve
// to their page, web links to their URL.
func (g *Generator) LinkResolver(d richtext.SpanData) string {
	if d.LinkType == "Document" && d.Type == g.postType && d.UID != "" {
		return PostPath(d.UID)
	}
	return richtext.DefaultLinkResolver(d)
}

// ResolveDocument returns the site path that displays doc.
func (g *Generator) ResolveDocument(doc prismic.Document) string {
	if doc.Type == g.postType && doc.UID != "" {
		return PostPath(doc.UID)
	}
	return "/"
}
