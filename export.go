package spacetravelling

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/a-h/templ"
)

// ExportStats summarizes a static export.
type ExportStats struct {
	ListingPages int
	Posts        int
	Banners      int
}

// Export writes the whole site as static files under dir: the listing pages,
// every post, the feed, sitemap and robots.txt, and the assets. Banners are
// downloaded and downscaled so the export does not depend on the CMS CDN.
func (a *App) Export(ctx context.Context, dir string) (ExportStats, error) {
	var stats ExportStats
	if err := a.initContent(); err != nil {
		return stats, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return stats, err
	}
	if err := a.exportAssets(dir); err != nil {
		return stats, fmt.Errorf("export assets: %w", err)
	}

	home, err := a.Generator.HomeProps(ctx, "")
	if err != nil {
		return stats, err
	}
	if stats.ListingPages, err = a.exportListing(ctx, dir, home.Props); err != nil {
		return stats, err
	}

	index, err := a.Generator.Index(ctx)
	if err != nil {
		return stats, err
	}
	httpClient := &http.Client{Timeout: a.Config.HTTPTimeout}
	for _, entry := range index {
		res, err := a.Generator.PostProps(ctx, entry.UID, "")
		if err != nil {
			return stats, err
		}
		if res.Redirect != nil {
			continue
		}
		if a.localizeBanner(ctx, httpClient, dir, &res.Props.Post) {
			stats.Banners++
		}
		page := a.exportPageContext(a.postMeta(res.Props.Post))
		if err := writeComponent(ctx, filepath.Join(dir, "post", entry.UID, "index.html"), a.Views.Post(res.Props, page)); err != nil {
			return stats, err
		}
		stats.Posts++
	}

	if err := writeFile(filepath.Join(dir, "sitemap.xml"), func(w io.Writer) error {
		if _, err := io.WriteString(w, xml.Header); err != nil {
			return err
		}
		return writeSitemap(w, a.Config.URL, index)
	}); err != nil {
		return stats, err
	}
	if err := writeFile(filepath.Join(dir, "feed.xml"), func(w io.Writer) error {
		if _, err := io.WriteString(w, xml.Header); err != nil {
			return err
		}
		return writeFeed(w, a.Config, home.Props.Posts)
	}); err != nil {
		return stats, err
	}
	if err := writeFile(filepath.Join(dir, "robots.txt"), func(w io.Writer) error {
		return writeRobots(w, a.Config.URL)
	}); err != nil {
		return stats, err
	}
	if err := writeComponent(ctx, filepath.Join(dir, "404.html"), a.Views.NotFound(a.exportPageContext(a.homeMeta()))); err != nil {
		return stats, err
	}
	return stats, nil
}

func (a *App) exportPageContext(meta PageMeta) PageContext {
	page := a.pageContext(nil, meta)
	page.Static = true
	return page
}

// exportListing writes index.html and page/<n>/index.html for every further
// page, following the cursors.
func (a *App) exportListing(ctx context.Context, dir string, first HomeProps) (int, error) {
	props := first
	for n := 1; ; n++ {
		more := MoreLink{}
		if props.NextPage != "" {
			more = MoreLink{URL: "/page/" + strconv.Itoa(n+1) + "/", Static: true}
		}
		path := filepath.Join(dir, "index.html")
		if n > 1 {
			path = filepath.Join(dir, "page", strconv.Itoa(n), "index.html")
		}
		if err := writeComponent(ctx, path, a.Views.Home(props, more, a.exportPageContext(a.homeMeta()))); err != nil {
			return n - 1, err
		}
		if props.NextPage == "" {
			return n, nil
		}

		next, err := a.Generator.FetchNextPage(ctx, props.NextPage)
		if err != nil {
			return n, err
		}
		props = HomeProps{NextPage: next.NextPage}
		for _, p := range next.Results {
			props.Posts = append(props.Posts, Summarize(p, a.Generator.Dates()))
		}
	}
}

// localizeBanner replaces the banner URL of p with a downscaled local copy.
// Failures are logged and keep the remote URL.
func (a *App) localizeBanner(ctx context.Context, client *http.Client, dir string, p *Post) bool {
	if p.Data.Banner.URL == "" {
		return false
	}
	data, err := fetchImage(ctx, client, p.Data.Banner.URL)
	if err == nil {
		data, _, err = processImage(bytes.NewReader(data), maxBannerWidth)
	}
	if err == nil {
		err = writeFile(filepath.Join(dir, "banners", p.UID+".jpg"), func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		})
	}
	if err != nil {
		a.Logger().Warnf("banner of %s: %v", p.UID, err)
		return false
	}
	p.Data.Banner.URL = "/banners/" + p.UID + ".jpg"
	return true
}

// exportAssets copies the embedded assets and the user's static dir into
// dir/public.
func (a *App) exportAssets(dir string) error {
	embeddedFS, err := fs.Sub(EmbeddedAssets, "embedded")
	if err != nil {
		return err
	}
	if err := copyFS(filepath.Join(dir, "public"), embeddedFS); err != nil {
		return err
	}
	favicon, err := fs.ReadFile(embeddedFS, "favicon.svg")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "favicon.svg"), favicon, 0o644); err != nil {
		return err
	}
	if info, err := os.Stat(a.staticDir); err == nil && info.IsDir() {
		return copyFS(filepath.Join(dir, "public"), os.DirFS(a.staticDir))
	}
	return nil
}

func copyFS(dst string, src fs.FS) error {
	return fs.WalkDir(src, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(dst, filepath.FromSlash(path))
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := fs.ReadFile(src, path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}

func writeComponent(ctx context.Context, path string, cmp templ.Component) error {
	return writeFile(path, func(w io.Writer) error {
		return cmp.Render(ctx, w)
	})
}

// writeFile creates path and its parent directories and fills it with write.
func writeFile(path string, write func(w io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
