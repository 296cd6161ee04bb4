package spacetravelling

import (
	"encoding/json"
	"net/url"
	"path"
	"strconv"
	"strings"
)

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// urlOrigin returns scheme://host of an absolute URL, or "" for relative ones.
func urlOrigin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// moreLink builds the "load more" request for a listing that has loaded
// page pages and continues at cursor.
func moreLink(cursor string, page int) MoreLink {
	if cursor == "" {
		return MoreLink{}
	}
	q := url.Values{}
	q.Set("cursor", cursor)
	q.Set("page", strconv.Itoa(page))
	return MoreLink{URL: "/posts/more/?" + q.Encode()}
}

// WebsiteJsonLD returns a JSON-LD string for a WebSite schema.
func WebsiteJsonLD(page PageContext) string {
	data := map[string]interface{}{
		"@context":    "https://schema.org",
		"@type":       "WebSite",
		"name":        page.SiteName,
		"url":         BuildURL(page.SiteURL),
		"description": page.Meta.Description,
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// BlogPostingJsonLD returns a JSON-LD string for a BlogPosting schema.
func BlogPostingJsonLD(props PostProps, page PageContext) string {
	p := props.Post
	postURL := BuildURL(page.SiteURL, "post", p.UID)
	data := map[string]interface{}{
		"@context":      "https://schema.org",
		"@type":         "BlogPosting",
		"headline":      p.Data.Title,
		"description":   p.Data.Subtitle,
		"datePublished": p.FirstPublicationDate,
		"dateModified":  p.LastPublicationDate,
		"url":           postURL,
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if p.Data.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  p.Data.Author,
		}
	}
	if page.SiteName != "" {
		data["publisher"] = map[string]string{
			"@type": "Organization",
			"name":  page.SiteName,
		}
	}
	if p.Data.Banner.URL != "" {
		data["image"] = p.Data.Banner.URL
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
