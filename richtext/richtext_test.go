package richtext

import (
	"encoding/json"
	"strings"
	"testing"
)

func para(text string, spans ...Span) Block {
	return Block{Type: "paragraph", Text: text, Spans: spans}
}

func TestRenderSpans(t *testing.T) {
	tests := []struct {
		name     string
		block    Block
		expected string
	}{
		{
			"plain",
			para("Hello world"),
			"<p>Hello world</p>",
		},
		{
			"strong",
			para("Hello world", Span{Start: 0, End: 5, Type: "strong"}),
			"<p><strong>Hello</strong> world</p>",
		},
		{
			"nested",
			para("abcdef", Span{Start: 0, End: 6, Type: "strong"}, Span{Start: 2, End: 4, Type: "em"}),
			"<p><strong>ab<em>cd</em>ef</strong></p>",
		},
		{
			"overlapping",
			para("abcdef", Span{Start: 0, End: 4, Type: "strong"}, Span{Start: 2, End: 6, Type: "em"}),
			"<p><strong>ab<em>cd</em></strong><em>ef</em></p>",
		},
		{
			"out of range spans are clamped",
			para("abc", Span{Start: 1, End: 99, Type: "em"}, Span{Start: 2, End: 2, Type: "strong"}),
			"<p>a<em>bc</em></p>",
		},
		{
			"escaping and line breaks",
			para("a<b\nc"),
			"<p>a&lt;b<br />c</p>",
		},
		{
			"utf16 offsets",
			para("😀 hi", Span{Start: 3, End: 5, Type: "strong"}),
			"<p>😀 <strong>hi</strong></p>",
		},
		{
			"label",
			para("note", Span{Start: 0, End: 4, Type: "label", Data: &SpanData{Label: "codespan"}}),
			`<p><span class="codespan">note</span></p>`,
		},
		{
			"heading",
			Block{Type: "heading2", Text: "Title"},
			"<h2>Title</h2>",
		},
		{
			"preformatted",
			Block{Type: "preformatted", Text: "x := 1"},
			"<pre>x := 1</pre>",
		},
	}
	for _, tt := range tests {
		got := RichText{tt.block}.HTML(nil)
		if got != tt.expected {
			t.Errorf("%s:\n  got:  %q\n  want: %q", tt.name, got, tt.expected)
		}
	}
}

func TestRenderHyperlinks(t *testing.T) {
	tests := []struct {
		data     SpanData
		expected string
	}{
		{
			SpanData{LinkType: "Web", URL: "https://example.com"},
			`<p><a href="https://example.com">link</a></p>`,
		},
		{
			SpanData{LinkType: "Web", URL: "https://example.com", Target: "_blank"},
			`<p><a href="https://example.com" target="_blank" rel="noopener noreferrer">link</a></p>`,
		},
		{
			SpanData{LinkType: "Web", URL: "javascript:alert(1)"},
			`<p><a>link</a></p>`,
		},
		{
			SpanData{LinkType: "Document", UID: "other", Type: "posts"},
			`<p><a href="/">link</a></p>`,
		},
	}
	for _, tt := range tests {
		data := tt.data
		got := RichText{para("link", Span{Start: 0, End: 4, Type: "hyperlink", Data: &data})}.HTML(nil)
		if got != tt.expected {
			t.Errorf("HTML(%+v)\n  got:  %q\n  want: %q", tt.data, got, tt.expected)
		}
	}
}

func TestRenderCustomResolver(t *testing.T) {
	resolve := func(d SpanData) string {
		if d.LinkType == "Document" {
			return "/post/" + d.UID + "/"
		}
		return d.URL
	}
	rt := RichText{para("see", Span{Start: 0, End: 3, Type: "hyperlink", Data: &SpanData{LinkType: "Document", UID: "next"}})}
	got := rt.HTML(resolve)
	want := `<p><a href="/post/next/">see</a></p>`
	if got != want {
		t.Errorf("HTML = %q, want %q", got, want)
	}
}

func TestRenderLists(t *testing.T) {
	rt := RichText{
		{Type: "list-item", Text: "a"},
		{Type: "list-item", Text: "b"},
		{Type: "o-list-item", Text: "one"},
		para("c"),
		{Type: "list-item", Text: "d"},
	}
	got := rt.HTML(nil)
	want := "<ul><li>a</li><li>b</li></ul><ol><li>one</li></ol><p>c</p><ul><li>d</li></ul>"
	if got != want {
		t.Errorf("HTML = %q, want %q", got, want)
	}
}

func TestRenderImageAndEmbed(t *testing.T) {
	rt := RichText{
		{Type: "image", URL: "https://images.prismic.io/x.png", Alt: `a "cat"`, Dimensions: &Dimensions{Width: 10, Height: 20}},
		{Type: "image", URL: "javascript:alert(1)"},
		{Type: "embed", Oembed: &Embed{Type: "video", EmbedURL: "https://youtu.be/x", ProviderName: "YouTube", HTML: "<iframe></iframe>"}},
	}
	got := rt.HTML(nil)
	want := `<p class="block-img"><img src="https://images.prismic.io/x.png" alt="a &#34;cat&#34;" width="10" height="20" loading="lazy" decoding="async"/></p>` +
		`<div data-oembed="https://youtu.be/x" data-oembed-type="video" data-oembed-provider="youtube"><iframe></iframe></div>`
	if got != want {
		t.Errorf("HTML\n  got:  %q\n  want: %q", got, want)
	}
}

func TestText(t *testing.T) {
	rt := RichText{para("first block"), {Type: "list-item", Text: "second"}}
	if got := rt.Text(); got != "first block second" {
		t.Errorf("Text() = %q", got)
	}
	if got := (RichText{}).Text(); got != "" {
		t.Errorf("empty Text() = %q", got)
	}
}

func TestDecodePrismicJSON(t *testing.T) {
	raw := `[{"type":"paragraph","text":"Go is fun","spans":[{"start":6,"end":9,"type":"hyperlink","data":{"link_type":"Web","url":"https://go.dev"}}]},
		{"type":"image","url":"https://images.prismic.io/a.png","alt":null,"dimensions":{"width":1,"height":1}}]`
	var rt RichText
	if err := json.Unmarshal([]byte(raw), &rt); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	got := rt.HTML(nil)
	if !strings.Contains(got, `Go is <a href="https://go.dev">fun</a>`) {
		t.Errorf("HTML = %q", got)
	}
	if !strings.Contains(got, `alt=""`) {
		t.Errorf("null alt should render empty: %q", got)
	}
}

func TestSafeURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://example.com/a?b=1&c=2", "https://example.com/a?b=1&amp;c=2"},
		{"/relative", "/relative"},
		{"#anchor", "#anchor"},
		{"mailto:me@example.com", "mailto:me@example.com"},
		{"javascript:alert(1)", ""},
		{"data:text/html;base64,xx", ""},
		{"no-scheme", ""},
		{"  ", ""},
	}
	for _, tt := range tests {
		if got := SafeURL(tt.input); got != tt.expected {
			t.Errorf("SafeURL(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
