package spacetravelling

import (
	"context"
	"errors"
	"testing"
)

type fakeFetcher struct {
	calls []string
	pages map[string]PostPagination
	err   error
}

func (f *fakeFetcher) FetchNextPage(_ context.Context, cursor string) (PostPagination, error) {
	f.calls = append(f.calls, cursor)
	if f.err != nil {
		return PostPagination{}, f.err
	}
	return f.pages[cursor], nil
}

func post(uid, date string) Post {
	return Post{
		UID:                  uid,
		FirstPublicationDate: date,
		LastPublicationDate:  date,
		Data:                 PostData{Title: uid},
	}
}

func uids(ps []PostSummary) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Post.UID
	}
	return out
}

func testDates(t *testing.T) *DateFormatter {
	t.Helper()
	f, err := NewDateFormatter("pt-BR", "UTC")
	if err != nil {
		t.Fatalf("NewDateFormatter: %v", err)
	}
	return f
}

func TestHandleNextPageAppendsInOrder(t *testing.T) {
	dates := testDates(t)
	fetcher := &fakeFetcher{pages: map[string]PostPagination{
		"cursor-2": {NextPage: "cursor-3", Results: []Post{post("c", "2021-03-01T00:00:00+0000"), post("d", "2021-02-01T00:00:00+0000")}},
		"cursor-3": {NextPage: "", Results: []Post{post("e", "2021-01-01T00:00:00+0000")}},
	}}
	initial := []PostSummary{Summarize(post("a", "2021-05-01T00:00:00+0000"), dates), Summarize(post("b", "2021-04-01T00:00:00+0000"), dates)}
	l := NewListing(initial, "cursor-2", fetcher, dates)

	if fetched, err := l.HandleNextPage(context.Background()); err != nil || !fetched {
		t.Fatalf("HandleNextPage = %v, %v", fetched, err)
	}
	if got := uids(l.Posts()); len(got) != 4 || got[0] != "a" || got[1] != "b" || got[2] != "c" || got[3] != "d" {
		t.Fatalf("posts = %v, want [a b c d]", got)
	}
	if l.NextPage() != "cursor-3" || l.CurrentPage() != 2 {
		t.Errorf("nextPage = %q, currentPage = %d", l.NextPage(), l.CurrentPage())
	}
	if l.Posts()[2].FormattedDate != "01 mar 2021" {
		t.Errorf("formatted date = %q", l.Posts()[2].FormattedDate)
	}

	if _, err := l.HandleNextPage(context.Background()); err != nil {
		t.Fatalf("HandleNextPage: %v", err)
	}
	if got := uids(l.Posts()); len(got) != 5 || got[4] != "e" {
		t.Fatalf("posts = %v", got)
	}

	// Exhausted on page 3: no further fetches.
	fetched, err := l.HandleNextPage(context.Background())
	if err != nil || fetched {
		t.Errorf("HandleNextPage after exhaustion = %v, %v", fetched, err)
	}
	if len(fetcher.calls) != 2 {
		t.Errorf("fetch calls = %v, want 2", fetcher.calls)
	}
}

func TestHandleNextPageFirstPageQuirk(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]PostPagination{}}
	l := NewListing(nil, "", fetcher, nil)

	fetched, err := l.HandleNextPage(context.Background())
	if err != nil {
		t.Fatalf("HandleNextPage: %v", err)
	}
	if !fetched || len(fetcher.calls) != 1 || fetcher.calls[0] != "" {
		t.Fatalf("expected one fetch with empty cursor on page 1, calls = %q", fetcher.calls)
	}
}

func TestHandleNextPageNoFetchPastFirstPage(t *testing.T) {
	fetcher := &fakeFetcher{}
	l := ResumeListing(nil, "", 2, fetcher, nil)

	fetched, err := l.HandleNextPage(context.Background())
	if err != nil || fetched {
		t.Errorf("HandleNextPage = %v, %v, want no-op", fetched, err)
	}
	if len(fetcher.calls) != 0 {
		t.Errorf("fetch calls = %v, want none", fetcher.calls)
	}
}

func TestHandleNextPageFailureKeepsState(t *testing.T) {
	boom := errors.New("network down")
	fetcher := &fakeFetcher{err: boom}
	initial := []PostSummary{{Post: post("a", "")}}
	l := NewListing(initial, "cursor-2", fetcher, nil)

	fetched, err := l.HandleNextPage(context.Background())
	if !errors.Is(err, boom) || !fetched {
		t.Fatalf("HandleNextPage = %v, %v, want attempted fetch with error", fetched, err)
	}
	if got := uids(l.Posts()); len(got) != 1 || got[0] != "a" {
		t.Errorf("posts = %v, want [a]", got)
	}
	if l.NextPage() != "cursor-2" || l.CurrentPage() != 1 {
		t.Errorf("state changed: nextPage = %q, currentPage = %d", l.NextPage(), l.CurrentPage())
	}
}

func TestHandleNextPageKeepsDuplicates(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]PostPagination{
		"c": {Results: []Post{post("a", "")}},
	}}
	l := NewListing([]PostSummary{{Post: post("a", "")}}, "c", fetcher, nil)
	if _, err := l.HandleNextPage(context.Background()); err != nil {
		t.Fatalf("HandleNextPage: %v", err)
	}
	if got := uids(l.Posts()); len(got) != 2 {
		t.Errorf("posts = %v, want duplicate entries kept", got)
	}
}

func TestListingPostsIsACopy(t *testing.T) {
	l := NewListing([]PostSummary{{Post: post("a", "")}}, "", &fakeFetcher{}, nil)
	ps := l.Posts()
	ps[0].Post.UID = "mutated"
	if l.Posts()[0].Post.UID != "a" {
		t.Error("Posts() exposed internal state")
	}
}
