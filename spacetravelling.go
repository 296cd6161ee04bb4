// Package spacetravelling is a blog front-end that renders posts from the
// Prismic headless CMS with Go, Echo, and templ.
//
// Pages are produced by generation functions and kept as snapshots that are
// regenerated in the background once they are older than the revalidate
// interval. The same functions drive a static export.
//
// Users provide their own templ templates via the ViewFuncs struct; the
// views package ships a default set.
package spacetravelling

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetravelling/prismic"
	"github.com/eringen/spacetravelling/richtext"
)

// PageContext is the site-wide data every full page needs.
type PageContext struct {
	SiteName string
	SiteURL  string
	HTMXURL  string
	Meta     PageMeta
	Comments CommentsConfig
	Preview  bool
	// Static is set for exported pages: navigation uses plain links.
	Static  bool
	Resolve richtext.LinkResolver
}

// MoreLink is the "load more" control under the listing. An empty URL hides
// it. Static links navigate to the next exported page instead of fetching
// a partial.
type MoreLink struct {
	URL    string
	Static bool
}

// ViewFuncs holds user-provided templ components that the framework calls
// when rendering pages.
type ViewFuncs struct {
	Home         func(props HomeProps, more MoreLink, page PageContext) templ.Component
	PostList     func(posts []PostSummary, more MoreLink) templ.Component
	Post         func(props PostProps, page PageContext) templ.Component
	PostFallback func(page PageContext) templ.Component
	NotFound     func(page PageContext) templ.Component
	ServerError  func(page PageContext) templ.Component
}

// App is the central application. It wires together the content client,
// generation functions, snapshot cache, handlers, middleware, and views.
type App struct {
	Config    SiteConfig
	Echo      *echo.Echo
	Store     *Store
	Cache     *PageCache
	Generator *Generator
	Views     ViewFuncs

	source       ContentSource
	apiLimiter   *RateLimiter
	bgCtx        context.Context
	stopBg       context.CancelFunc
	bg           sync.WaitGroup
	customRoutes []func(*App)
	staticDir    string
	noStore      bool
	contentReady bool
	serverReady  bool
}

// New creates a new App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		staticDir: "public",
	}
	a.Echo.HideBanner = true

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Logger returns the logger shared by requests and background work.
func (a *App) Logger() echo.Logger {
	return a.Echo.Logger
}

// initContent sets up the content client and generation functions.
func (a *App) initContent() error {
	if a.contentReady {
		return nil
	}
	if a.source == nil {
		if a.Config.PrismicEndpoint == "" {
			return ErrNoEndpoint
		}
		client, err := prismic.NewClient(a.Config.PrismicEndpoint, a.Config.PrismicAccessToken, a.Config.HTTPTimeout)
		if err != nil {
			return fmt.Errorf("spacetravelling: init content client: %w", err)
		}
		a.source = client
	}
	dates, err := NewDateFormatter(a.Config.Locale, a.Config.TimeZone)
	if err != nil {
		return fmt.Errorf("spacetravelling: %w", err)
	}
	a.Generator = NewGenerator(a.source, a.Config.PostType, a.Config.PageSize, a.Config.Revalidate, dates, a.Logger())
	a.contentReady = true
	return nil
}

// Init prepares the store, cache, middleware, and routes without starting
// the server.
func (a *App) Init() error {
	if a.serverReady {
		return nil
	}
	if err := a.initContent(); err != nil {
		return err
	}

	if a.Config.SessionSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return fmt.Errorf("spacetravelling: generate session secret: %w", err)
		}
		a.Config.SessionSecret = secret
		a.Logger().Warn("no session secret configured; preview sessions end on restart")
	}

	if !a.noStore {
		store, err := NewStore(a.Config.DatabasePath)
		if err != nil {
			return fmt.Errorf("spacetravelling: init store: %w", err)
		}
		a.Store = store
	}
	a.Cache = NewPageCache(a.Store, a.Config.HTTPTimeout*3, a.Logger())
	a.apiLimiter = NewRateLimiter(10, time.Minute)
	a.bgCtx, a.stopBg = context.WithCancel(context.Background())

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.serverReady = true
	return nil
}

// Start initializes the app, prerenders known pages in the background, and
// starts the server.
func (a *App) Start() error {
	if err := a.Init(); err != nil {
		return err
	}

	a.startPrerender()

	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Prerender generates the listing and every known post into the cache.
// Pages that already have a snapshot are left alone.
func (a *App) Prerender(ctx context.Context) error {
	if _, err := a.Cache.Get(ctx, "/", KindHome, a.homeGenerator(), 0); err != nil {
		return fmt.Errorf("prerender home: %w", err)
	}
	paths, err := a.Generator.StaticPaths(ctx)
	if err != nil {
		return err
	}
	for _, slug := range paths.Slugs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := a.Cache.Get(ctx, PostPath(slug), KindPost, a.postGenerator(slug), 0); err != nil {
			a.Logger().Warnf("prerender %s: %v", slug, err)
		}
	}
	a.Logger().Infof("prerendered %d posts", len(paths.Slugs))
	return nil
}

// startPrerender runs Prerender in the background until Shutdown or Close.
func (a *App) startPrerender() {
	if a.bgCtx == nil || a.bgCtx.Err() != nil {
		return
	}
	a.bg.Add(1)
	go func() {
		defer a.bg.Done()
		if err := a.Prerender(a.bgCtx); err != nil && !errors.Is(err, context.Canceled) {
			a.Logger().Warnf("prerender: %v", err)
		}
	}()
}

func (a *App) homeGenerator() GenerateFunc {
	return func(ctx context.Context) ([]byte, time.Duration, error) {
		return encodeResult(a.Generator.HomeProps(ctx, ""))
	}
}

func (a *App) postGenerator(slug string) GenerateFunc {
	return func(ctx context.Context) ([]byte, time.Duration, error) {
		return encodeResult(a.Generator.PostProps(ctx, slug, ""))
	}
}

func (a *App) indexGenerator() GenerateFunc {
	return func(ctx context.Context) ([]byte, time.Duration, error) {
		return encodeResult(a.Generator.IndexResult(ctx))
	}
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Embedded framework assets are served under /public/ ahead of the
	// user's static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := echo.WrapHandler(http.StripPrefix("/public/", http.FileServer(http.FS(embeddedFS))))
	entries, _ := fs.ReadDir(embeddedFS, ".")
	for _, entry := range entries {
		if !entry.IsDir() {
			e.GET("/public/"+entry.Name(), embeddedHandler)
		}
	}

	e.Static("/public", a.staticDir)
	e.FileFS("/favicon.svg", "embedded/favicon.svg", EmbeddedAssets)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	e.GET("/", a.handleHome)
	e.GET("/post/:slug/", a.handlePost)
	e.GET("/posts/more/", a.handleMore)

	e.GET("/api/preview", a.handlePreview)
	e.GET("/api/exit-preview", handleExitPreview)
	e.POST("/api/revalidate", a.handleRevalidate)
}

// Shutdown stops the server and background prerendering, and waits for
// running generations.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Echo.Shutdown(ctx)
	a.stopBackground()
	return err
}

func (a *App) stopBackground() {
	if a.stopBg != nil {
		a.stopBg()
	}
	a.bg.Wait()
	if a.Cache != nil {
		a.Cache.Wait()
	}
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	a.stopBackground()
	if a.apiLimiter != nil {
		a.apiLimiter.Stop()
	}
	if a.Store != nil {
		err := a.Store.Close()
		a.Store = nil
		return err
	}
	return nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
