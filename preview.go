package spacetravelling

import (
	"errors"
	"net/http"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/eringen/spacetravelling/prismic"
)

const (
	sessionName   = "preview_session"
	sessionRefKey = "ref"
)

// handlePreview enters preview mode: it checks the preview token against the
// CMS, stores it as the session ref, and redirects to the previewed document.
func (a *App) handlePreview(c echo.Context) error {
	if !a.apiLimiter.Allow(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many preview requests. Try again later.")
	}
	token := c.QueryParam("token")
	if token == "" {
		return c.String(http.StatusUnauthorized, "Invalid preview token")
	}

	dest, err := a.resolvePreview(c, token, c.QueryParam("documentId"))
	if err != nil {
		var apiErr *prismic.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
			return c.String(http.StatusUnauthorized, "Invalid preview token")
		}
		return err
	}

	if err := setPreviewRef(c, token); err != nil {
		return err
	}
	return c.Redirect(http.StatusTemporaryRedirect, dest)
}

// resolvePreview returns the path that displays documentID under ref, or the
// listing when no document is given. Either way the ref is queried once so an
// unknown token is rejected.
func (a *App) resolvePreview(c echo.Context, ref, documentID string) (string, error) {
	ctx := c.Request().Context()
	if documentID == "" {
		_, err := a.source.Query(ctx, nil, prismic.QueryOptions{Ref: ref, PageSize: 1})
		return "/", err
	}
	doc, err := a.source.GetByID(ctx, documentID, prismic.QueryOptions{Ref: ref})
	if errors.Is(err, prismic.ErrNotFound) {
		return "/", nil
	}
	if err != nil {
		return "", err
	}
	return a.Generator.ResolveDocument(*doc), nil
}

func handleExitPreview(c echo.Context) error {
	if err := clearPreviewRef(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusTemporaryRedirect, "/")
}

// previewRef returns the preview ref of the current session, or "".
func previewRef(c echo.Context) string {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return ""
	}
	ref, _ := sess.Values[sessionRefKey].(string)
	return ref
}

func setPreviewRef(c echo.Context, ref string) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Values[sessionRefKey] = ref
	return sess.Save(c.Request(), c.Response())
}

func clearPreviewRef(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	delete(sess.Values, sessionRefKey)
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}
