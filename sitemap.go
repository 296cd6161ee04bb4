package spacetravelling

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// writeSitemap encodes the sitemap of the listing and every indexed post.
func writeSitemap(w io.Writer, base string, entries []IndexEntry) error {
	urls := []sitemapURL{
		{Loc: BuildURL(base)},
	}
	for _, e := range entries {
		lastMod := ""
		if t, ok := ParsePublicationDate(e.LastPublicationDate); ok {
			lastMod = t.UTC().Format("2006-01-02")
		}
		urls = append(urls, sitemapURL{
			Loc:     BuildURL(base, "post", e.UID),
			LastMod: lastMod,
		})
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	return xml.NewEncoder(w).Encode(sitemap)
}

// writeRobots writes a robots.txt that allows everything and points at the
// sitemap.
func writeRobots(w io.Writer, base string) error {
	_, err := fmt.Fprintf(w, "User-agent: *\nAllow: /\n\nSitemap: %s\n", strings.TrimSuffix(BuildURL(base), "/")+"/sitemap.xml")
	return err
}
