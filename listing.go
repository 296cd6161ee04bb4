package spacetravelling

import "context"

// PageFetcher dereferences a listing cursor.
type PageFetcher interface {
	FetchNextPage(ctx context.Context, cursor string) (PostPagination, error)
}

// Listing is the state behind the "load more" button: the posts shown so
// far, the cursor of the next page and the page counter. HandleNextPage is
// its only mutator.
type Listing struct {
	posts       []PostSummary
	nextPage    string
	currentPage int

	fetcher PageFetcher
	dates   *DateFormatter
}

// NewListing seeds a listing from the first page of posts.
func NewListing(posts []PostSummary, nextPage string, fetcher PageFetcher, dates *DateFormatter) *Listing {
	return ResumeListing(posts, nextPage, 1, fetcher, dates)
}

// ResumeListing rebuilds a listing that has already loaded currentPage pages.
func ResumeListing(posts []PostSummary, nextPage string, currentPage int, fetcher PageFetcher, dates *DateFormatter) *Listing {
	if currentPage < 1 {
		currentPage = 1
	}
	return &Listing{
		posts:       append([]PostSummary(nil), posts...),
		nextPage:    nextPage,
		currentPage: currentPage,
		fetcher:     fetcher,
		dates:       dates,
	}
}

// Posts returns a copy of the loaded posts in display order.
func (l *Listing) Posts() []PostSummary {
	return append([]PostSummary(nil), l.posts...)
}

// NextPage returns the cursor of the next page, or "" when exhausted.
func (l *Listing) NextPage() string {
	return l.nextPage
}

// CurrentPage returns the number of pages loaded so far.
func (l *Listing) CurrentPage() int {
	return l.currentPage
}

// HandleNextPage loads the next page and appends it. It reports whether a
// fetch was attempted. On page 1 a fetch is attempted even without a cursor;
// after that an empty cursor makes it a no-op. A failed fetch leaves the
// listing unchanged.
func (l *Listing) HandleNextPage(ctx context.Context) (bool, error) {
	if l.currentPage != 1 && l.nextPage == "" {
		return false, nil
	}

	page, err := l.fetcher.FetchNextPage(ctx, l.nextPage)
	if err != nil {
		return true, err
	}

	for _, p := range page.Results {
		l.posts = append(l.posts, Summarize(p, l.dates))
	}
	l.nextPage = page.NextPage
	l.currentPage++
	return true, nil
}

// Summarize pairs a post with its formatted publication date.
func Summarize(p Post, dates *DateFormatter) PostSummary {
	formatted := p.FirstPublicationDate
	if dates != nil {
		formatted = dates.Date(p.FirstPublicationDate)
	}
	return PostSummary{Post: p, FormattedDate: formatted}
}
