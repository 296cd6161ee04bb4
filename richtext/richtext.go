// Package richtext renders Prismic structured text to HTML and plain text.
package richtext

import (
	"bytes"
	"html"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"
)

// RichText is a Prismic structured-text field: an ordered list of blocks.
type RichText []Block

// Block is one paragraph-level element.
type Block struct {
	Type       string      `json:"type"`
	Text       string      `json:"text"`
	Spans      []Span      `json:"spans"`
	URL        string      `json:"url,omitempty"`
	Alt        string      `json:"alt,omitempty"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
	Oembed     *Embed      `json:"oembed,omitempty"`
}

// Span marks up Text[Start:End]. Offsets count UTF-16 code units.
type Span struct {
	Start int       `json:"start"`
	End   int       `json:"end"`
	Type  string    `json:"type"`
	Data  *SpanData `json:"data,omitempty"`
}

// SpanData carries the link target of a hyperlink span or the name of a label.
type SpanData struct {
	LinkType string `json:"link_type,omitempty"`
	URL      string `json:"url,omitempty"`
	Target   string `json:"target,omitempty"`
	ID       string `json:"id,omitempty"`
	UID      string `json:"uid,omitempty"`
	Type     string `json:"type,omitempty"`
	Label    string `json:"label,omitempty"`
}

// Dimensions of an image block.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Embed is the oEmbed payload of an embed block.
type Embed struct {
	Type         string `json:"type"`
	EmbedURL     string `json:"embed_url"`
	ProviderName string `json:"provider_name"`
	HTML         string `json:"html"`
}

// LinkResolver maps a hyperlink span to an href.
type LinkResolver func(SpanData) string

// DefaultLinkResolver follows web and media links and points document
// links at the site root.
func DefaultLinkResolver(d SpanData) string {
	switch d.LinkType {
	case "Web", "Media":
		return d.URL
	case "Document":
		return "/"
	default:
		return ""
	}
}

// Text returns the plain text of every block joined by a single space.
func (rt RichText) Text() string {
	parts := make([]string, len(rt))
	for i, b := range rt {
		parts[i] = b.Text
	}
	return strings.Join(parts, " ")
}

// HTML renders rt. A nil resolver means DefaultLinkResolver.
func (rt RichText) HTML(resolve LinkResolver) string {
	var buf bytes.Buffer
	Render(&buf, rt, resolve)
	return buf.String()
}

// Render writes the HTML representation of rt to buf. Consecutive list
// items are grouped into a single <ul> or <ol>.
func Render(buf *bytes.Buffer, rt RichText, resolve LinkResolver) {
	if resolve == nil {
		resolve = DefaultLinkResolver
	}
	list := ""
	flushList := func() {
		if list != "" {
			buf.WriteString("</" + list + ">")
			list = ""
		}
	}

	for _, b := range rt {
		if b.Type == "list-item" || b.Type == "o-list-item" {
			tag := "ul"
			if b.Type == "o-list-item" {
				tag = "ol"
			}
			if list != tag {
				flushList()
				buf.WriteString("<" + tag + ">")
				list = tag
			}
			buf.WriteString("<li>")
			writeSpans(buf, b.Text, b.Spans, resolve)
			buf.WriteString("</li>")
			continue
		}
		flushList()

		switch b.Type {
		case "heading1", "heading2", "heading3", "heading4", "heading5", "heading6":
			tag := "h" + b.Type[len("heading"):]
			buf.WriteString("<" + tag + ">")
			writeSpans(buf, b.Text, b.Spans, resolve)
			buf.WriteString("</" + tag + ">")
		case "paragraph":
			buf.WriteString("<p>")
			writeSpans(buf, b.Text, b.Spans, resolve)
			buf.WriteString("</p>")
		case "preformatted":
			buf.WriteString("<pre>")
			writeSpans(buf, b.Text, b.Spans, resolve)
			buf.WriteString("</pre>")
		case "image":
			src := SafeURL(b.URL)
			if src == "" {
				continue
			}
			buf.WriteString(`<p class="block-img"><img src="` + src + `" alt="` + html.EscapeString(b.Alt) + `"`)
			if b.Dimensions != nil && b.Dimensions.Width > 0 && b.Dimensions.Height > 0 {
				buf.WriteString(` width="` + strconv.Itoa(b.Dimensions.Width) + `" height="` + strconv.Itoa(b.Dimensions.Height) + `"`)
			}
			buf.WriteString(` loading="lazy" decoding="async"/></p>`)
		case "embed":
			if b.Oembed == nil {
				continue
			}
			buf.WriteString(`<div data-oembed="` + html.EscapeString(b.Oembed.EmbedURL) +
				`" data-oembed-type="` + html.EscapeString(b.Oembed.Type) +
				`" data-oembed-provider="` + html.EscapeString(strings.ToLower(b.Oembed.ProviderName)) + `">`)
			// Embed markup comes from the CMS oEmbed proxy and is written as is.
			buf.WriteString(b.Oembed.HTML)
			buf.WriteString("</div>")
		}
	}
	flushList()
}

// writeSpans writes text with its spans applied. Spans may overlap; a span
// that is still open when an inner one closes is closed and reopened so the
// output stays well nested.
func writeSpans(buf *bytes.Buffer, text string, spans []Span, resolve LinkResolver) {
	units := utf16.Encode([]rune(text))
	n := len(units)

	valid := make([]Span, 0, len(spans))
	points := []int{0, n}
	for _, s := range spans {
		s.Start = clamp(s.Start, 0, n)
		s.End = clamp(s.End, 0, n)
		if s.Start >= s.End {
			continue
		}
		valid = append(valid, s)
		points = append(points, s.Start, s.End)
	}
	points = uniqueSorted(points)

	var stack []Span
	for i, p := range points {
		idx := -1
		for j := range stack {
			if stack[j].End <= p {
				idx = j
				break
			}
		}
		if idx >= 0 {
			var reopen []Span
			for k := len(stack) - 1; k >= idx; k-- {
				buf.WriteString(closeTag(stack[k]))
				if stack[k].End > p {
					reopen = append(reopen, stack[k])
				}
			}
			stack = stack[:idx]
			for k := len(reopen) - 1; k >= 0; k-- {
				buf.WriteString(openTag(reopen[k], resolve))
				stack = append(stack, reopen[k])
			}
		}

		var starting []Span
		for _, s := range valid {
			if s.Start == p {
				starting = append(starting, s)
			}
		}
		sort.SliceStable(starting, func(a, b int) bool { return starting[a].End > starting[b].End })
		for _, s := range starting {
			buf.WriteString(openTag(s, resolve))
			stack = append(stack, s)
		}

		if i+1 < len(points) {
			writeText(buf, units[p:points[i+1]])
		}
	}
}

func writeText(buf *bytes.Buffer, units []uint16) {
	s := html.EscapeString(string(utf16.Decode(units)))
	buf.WriteString(strings.ReplaceAll(s, "\n", "<br />"))
}

func openTag(s Span, resolve LinkResolver) string {
	switch s.Type {
	case "strong":
		return "<strong>"
	case "em":
		return "<em>"
	case "hyperlink":
		if s.Data == nil {
			return "<a>"
		}
		href := SafeURL(resolve(*s.Data))
		if href == "" {
			return "<a>"
		}
		attrs := `href="` + href + `"`
		if s.Data.Target != "" {
			attrs += ` target="` + html.EscapeString(s.Data.Target) + `" rel="noopener noreferrer"`
		}
		return "<a " + attrs + ">"
	case "label":
		if s.Data != nil && s.Data.Label != "" {
			return `<span class="` + html.EscapeString(s.Data.Label) + `">`
		}
		return "<span>"
	default:
		return "<span>"
	}
}

func closeTag(s Span) string {
	switch s.Type {
	case "strong":
		return "</strong>"
	case "em":
		return "</em>"
	case "hyperlink":
		return "</a>"
	default:
		return "</span>"
	}
}

// SafeURL validates and sanitizes a URL for use in HTML attributes.
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func uniqueSorted(vals []int) []int {
	sort.Ints(vals)
	out := make([]int, 0, len(vals))
	for _, v := range vals {
		if len(out) == 0 || out[len(out)-1] != v {
			out = append(out, v)
		}
	}
	return out
}
