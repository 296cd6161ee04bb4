package spacetravelling

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetravelling/prismic"
)

func (a *App) pageContext(c echo.Context, meta PageMeta) PageContext {
	return PageContext{
		SiteName: a.Config.Name,
		SiteURL:  a.Config.URL,
		HTMXURL:  a.Config.HTMXURL,
		Meta:     meta,
		Comments: a.Config.Comments,
		Preview:  c != nil && previewRef(c) != "",
		Resolve:  a.Generator.LinkResolver,
	}
}

func (a *App) homeMeta() PageMeta {
	return PageMeta{
		Title:       a.Config.Name,
		Description: a.Config.Description,
		URL:         BuildURL(a.Config.URL),
		OGType:      "website",
	}
}

func (a *App) postMeta(p Post) PageMeta {
	return PageMeta{
		Title:       p.Data.Title + " | " + a.Config.Name,
		Description: p.Data.Subtitle,
		URL:         BuildURL(a.Config.URL, "post", p.UID),
		OGType:      "article",
		Image:       p.Data.Banner.URL,
	}
}

func (a *App) homeResult(c echo.Context) (StaticResult[HomeProps], error) {
	ctx := c.Request().Context()
	if ref := previewRef(c); ref != "" {
		return a.Generator.HomeProps(ctx, ref)
	}
	snap, err := a.Cache.Get(ctx, "/", KindHome, a.homeGenerator(), 0)
	if err != nil {
		return StaticResult[HomeProps]{}, err
	}
	return decodeResult[HomeProps](snap)
}

func (a *App) handleHome(c echo.Context) error {
	res, err := a.homeResult(c)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Home(res.Props, moreLink(res.Props.NextPage, 1), a.pageContext(c, a.homeMeta())))
}

func (a *App) handlePost(c echo.Context) error {
	ctx := c.Request().Context()
	slug := c.Param("slug")

	var res StaticResult[PostProps]
	if ref := previewRef(c); ref != "" {
		var err error
		if res, err = a.Generator.PostProps(ctx, slug, ref); err != nil {
			return err
		}
	} else {
		snap, err := a.Cache.Get(ctx, PostPath(slug), KindPost, a.postGenerator(slug), a.Config.FallbackTimeout)
		if errors.Is(err, ErrPending) {
			c.Response().Header().Set("Cache-Control", "no-store")
			return Render(c, a.Views.PostFallback(a.pageContext(c, PageMeta{Title: a.Config.Name, URL: BuildURL(a.Config.URL, "post", slug)})))
		}
		if err != nil {
			return err
		}
		if res, err = decodeResult[PostProps](snap); err != nil {
			return err
		}
	}

	if res.Redirect != nil {
		code := http.StatusTemporaryRedirect
		if res.Redirect.Permanent {
			code = http.StatusPermanentRedirect
		}
		return c.Redirect(code, res.Redirect.Destination)
	}
	return Render(c, a.Views.Post(res.Props, a.pageContext(c, a.postMeta(res.Props.Post))))
}

// handleMore serves the next page of the listing as a partial for the
// "load more" button.
func (a *App) handleMore(c echo.Context) error {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		page = 1
	}
	l := ResumeListing(nil, c.QueryParam("cursor"), page, a.Generator, a.Generator.Dates())

	fetched, err := l.HandleNextPage(c.Request().Context())
	if !fetched {
		return c.NoContent(http.StatusNoContent)
	}
	if err != nil {
		if errors.Is(err, prismic.ErrForeignCursor) || errors.Is(err, prismic.ErrEmptyCursor) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid cursor")
		}
		return err
	}
	return Render(c, a.Views.PostList(l.Posts(), moreLink(l.NextPage(), l.CurrentPage())))
}

func (a *App) handleSitemap(c echo.Context) error {
	ctx := c.Request().Context()
	snap, err := a.Cache.Get(ctx, "/sitemap.xml", KindIndex, a.indexGenerator(), 0)
	if err != nil {
		return err
	}
	res, err := decodeResult[[]IndexEntry](snap)
	if err != nil {
		return err
	}
	return renderXML(c, "application/xml; charset=utf-8", func(w *echo.Response) error {
		return writeSitemap(w, a.Config.URL, res.Props)
	})
}

func (a *App) handleFeed(c echo.Context) error {
	snap, err := a.Cache.Get(c.Request().Context(), "/", KindHome, a.homeGenerator(), 0)
	if err != nil {
		return err
	}
	res, err := decodeResult[HomeProps](snap)
	if err != nil {
		return err
	}
	return renderXML(c, "application/rss+xml; charset=utf-8", func(w *echo.Response) error {
		return writeFeed(w, a.Config, res.Props.Posts)
	})
}

func (a *App) handleRobots(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextPlainCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return writeRobots(c.Response(), a.Config.URL)
}

// handleRevalidate is the CMS publish webhook. It drops every snapshot and
// prerenders the site again in the background.
func (a *App) handleRevalidate(c echo.Context) error {
	if !a.apiLimiter.Allow(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many requests. Try again later.")
	}
	if a.Config.RevalidateSecret == "" {
		return echo.ErrNotFound
	}
	var hook struct {
		Secret string `json:"secret"`
	}
	if err := c.Bind(&hook); err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(hook.Secret), []byte(a.Config.RevalidateSecret)) != 1 {
		return c.String(http.StatusUnauthorized, "Invalid secret")
	}

	n, err := a.Cache.InvalidateAll()
	if err != nil {
		return err
	}
	c.Logger().Infof("webhook dropped %d snapshots", n)
	a.startPrerender()
	return c.JSON(http.StatusOK, map[string]int{"invalidated": n})
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.pageContext(c, a.homeMeta())))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError(a.pageContext(c, a.homeMeta())))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
