// Package views provides the default page templates. They are html/template
// files wrapped as templ components, loaded from the embedded set or from a
// directory that can be watched for changes.
package views

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"sync"

	"github.com/a-h/templ"

	st "github.com/eringen/spacetravelling"
	"github.com/eringen/spacetravelling/richtext"
)

//go:embed templates/*.html
var embedded embed.FS

// Template names every set must define.
const (
	tmplHome        = "home"
	tmplPostList    = "post-list"
	tmplPost        = "post"
	tmplFallback    = "fallback"
	tmplNotFound    = "not-found"
	tmplServerError = "server-error"
)

var required = []string{tmplHome, tmplPostList, tmplPost, tmplFallback, tmplNotFound, tmplServerError}

// Set is a reloadable set of page templates.
type Set struct {
	mu   sync.RWMutex
	tmpl *template.Template
	dir  string
}

// Load parses the templates in dir, or the embedded templates when dir is
// empty.
func Load(dir string) (*Set, error) {
	s := &Set{dir: dir}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Default returns the view functions of the embedded templates.
func Default() st.ViewFuncs {
	s, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("views: embedded templates: %v", err))
	}
	return s.ViewFuncs()
}

// Dir returns the directory the set is loaded from, or "" for the embedded set.
func (s *Set) Dir() string {
	return s.dir
}

// Reload parses the templates again. On error the previous set stays active.
func (s *Set) Reload() error {
	var fsys fs.FS = os.DirFS(s.dir)
	pattern := "*.html"
	if s.dir == "" {
		fsys = embedded
		pattern = "templates/*.html"
	}
	tmpl, err := template.New("").Funcs(funcs).ParseFS(fsys, pattern)
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	for _, name := range required {
		if tmpl.Lookup(name) == nil {
			return fmt.Errorf("parse templates: %q is not defined", name)
		}
	}
	s.mu.Lock()
	s.tmpl = tmpl
	s.mu.Unlock()
	return nil
}

// component renders the named template with data, resolving the template at
// render time so reloads take effect on the next request.
func (s *Set) component(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		s.mu.RLock()
		t := s.tmpl.Lookup(name)
		s.mu.RUnlock()
		return templ.FromGoHTML(t, data).Render(ctx, w)
	})
}

type homeData struct {
	Page  st.PageContext
	Props st.HomeProps
	More  st.MoreLink
}

type listData struct {
	Posts []st.PostSummary
	More  st.MoreLink
}

type postData struct {
	Page  st.PageContext
	Props st.PostProps
}

type pageData struct {
	Page st.PageContext
}

// ViewFuncs adapts the set to the App's view functions.
func (s *Set) ViewFuncs() st.ViewFuncs {
	return st.ViewFuncs{
		Home: func(props st.HomeProps, more st.MoreLink, page st.PageContext) templ.Component {
			return s.component(tmplHome, homeData{Page: page, Props: props, More: more})
		},
		PostList: func(posts []st.PostSummary, more st.MoreLink) templ.Component {
			return s.component(tmplPostList, listData{Posts: posts, More: more})
		},
		Post: func(props st.PostProps, page st.PageContext) templ.Component {
			return s.component(tmplPost, postData{Page: page, Props: props})
		},
		PostFallback: func(page st.PageContext) templ.Component {
			return s.component(tmplFallback, pageData{Page: page})
		},
		NotFound: func(page st.PageContext) templ.Component {
			return s.component(tmplNotFound, pageData{Page: page})
		},
		ServerError: func(page st.PageContext) templ.Component {
			return s.component(tmplServerError, pageData{Page: page})
		},
	}
}

var funcs = template.FuncMap{
	"richtext": func(rt richtext.RichText, resolve richtext.LinkResolver) template.HTML {
		return template.HTML(rt.HTML(resolve))
	},
	"websiteJsonLD": func(page st.PageContext) template.JS {
		return template.JS(st.WebsiteJsonLD(page))
	},
	"postJsonLD": func(props st.PostProps, page st.PageContext) template.JS {
		return template.JS(st.BlogPostingJsonLD(props, page))
	},
	"commentAttrs": commentAttrs,
}

// commentAttrs encodes the widget script attributes for the mount script.
func commentAttrs(c st.CommentsConfig) string {
	type attr struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	attrs := c.ScriptAttrs()
	out := make([]attr, len(attrs))
	for i, a := range attrs {
		out[i] = attr{Name: a.Name, Value: a.Value}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// RichText renders rich text as a templ component for templ-based views.
func RichText(rt richtext.RichText, resolve richtext.LinkResolver) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, rt.HTML(resolve))
		return err
	})
}
