package spacetravelling

import (
	"errors"
	"time"
)

// SiteConfig holds all configuration for a spacetravelling site.
type SiteConfig struct {
	Name        string `mapstructure:"name"`        // Site name (default "spacetraveling")
	URL         string `mapstructure:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string `mapstructure:"description"` // Site description for RSS and meta tags

	Addr         string `mapstructure:"addr"`          // Listen address (default ":3000")
	DatabasePath string `mapstructure:"database_path"` // Snapshot SQLite path (default "data/pages.db")

	PrismicEndpoint    string        `mapstructure:"prismic_endpoint"`     // Required: e.g. https://repo.cdn.prismic.io/api/v2
	PrismicAccessToken string        `mapstructure:"prismic_access_token"` // Optional for public repositories
	PostType           string        `mapstructure:"post_type"`            // Custom type of posts (default "posts")
	PageSize           int           `mapstructure:"page_size"`            // Listing page size (default 5)
	HTTPTimeout        time.Duration `mapstructure:"http_timeout"`         // CMS request timeout (default 10s)

	Revalidate      time.Duration `mapstructure:"revalidate"`       // Snapshot lifetime (default 30min)
	FallbackTimeout time.Duration `mapstructure:"fallback_timeout"` // Wait before the loading page (default 3s)

	SessionSecret    string `mapstructure:"session_secret"`    // Preview cookie secret; random when empty
	CookieSecure     bool   `mapstructure:"cookie_secure"`     // Set true for HTTPS
	RevalidateSecret string `mapstructure:"revalidate_secret"` // CMS webhook secret; the webhook is off when empty

	Locale   string `mapstructure:"locale"`    // Date locale (default "pt-BR")
	TimeZone string `mapstructure:"time_zone"` // Date time zone (default "UTC")

	HTMXURL  string         `mapstructure:"htmx_url"` // htmx script URL
	Comments CommentsConfig `mapstructure:"comments"`
}

// ErrNoEndpoint is returned when the CMS endpoint is not configured.
var ErrNoEndpoint = errors.New("spacetravelling: PrismicEndpoint is required")

const defaultHTMXURL = "https://unpkg.com/htmx.org@2.0.4/dist/htmx.min.js"

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "spacetraveling"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/pages.db"
	}
	if c.PostType == "" {
		c.PostType = "posts"
	}
	if c.PageSize <= 0 {
		c.PageSize = 5
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = 10 * time.Second
	}
	if c.Revalidate == 0 {
		c.Revalidate = 30 * time.Minute
	}
	if c.FallbackTimeout == 0 {
		c.FallbackTimeout = 3 * time.Second
	}
	if c.Locale == "" {
		c.Locale = "pt-BR"
	}
	if c.TimeZone == "" {
		c.TimeZone = "UTC"
	}
	if c.HTMXURL == "" {
		c.HTMXURL = defaultHTMXURL
	}
	c.Comments.setDefaults()
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithContentSource replaces the Prismic client, e.g. with a fake in tests.
func WithContentSource(src ContentSource) Option {
	return func(a *App) {
		a.source = src
	}
}

// WithoutStore keeps snapshots in memory only.
func WithoutStore() Option {
	return func(a *App) {
		a.noStore = true
	}
}
