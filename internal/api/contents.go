package api

import (
	"net/http"

	"aurora/internal/core/models"
	"aurora/internal/services"

	"github.com/go-chi/chi/v5"
)

func parseKind(r *http.Request) (models.Kind, error) {
	kind, ok := models.ParseKind(r.URL.Query().Get("tipo"))
	if !ok {
		return "", &services.ValidationError{Field: "tipo", Message: "must be MOVIE or SERIES_EPISODE"}
	}
	return kind, nil
}

// parseListQuery reads tipo, page and limit.
func parseListQuery(r *http.Request) (services.ListQuery, error) {
	var q services.ListQuery
	var err error
	if q.Kind, err = parseKind(r); err != nil {
		return q, err
	}
	if q.Page, err = queryInt(r, "page"); err != nil {
		return q, err
	}
	if q.Limit, err = queryInt(r, "limit"); err != nil {
		return q, err
	}
	return q, nil
}

func (app *Application) contentHandler(w http.ResponseWriter, r *http.Request) {
	detail, err := app.Catalog.ContentBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, detail)
}

func (app *Application) discoverHandler(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	q.Genre = r.URL.Query().Get("genero")

	page, err := app.Catalog.Discover(r.Context(), q)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	app.cacheable(w)
	app.writeJSON(w, http.StatusOK, page)
}

func (app *Application) groupedHandler(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(r)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	perGenre, err := queryInt(r, "limit")
	if err != nil {
		app.writeError(w, r, err)
		return
	}

	view, err := app.Catalog.Grouped(r.Context(), kind, perGenre)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	app.cacheable(w)
	app.writeJSON(w, http.StatusOK, view)
}

func (app *Application) featuredHandler(w http.ResponseWriter, r *http.Request) {
	contents, err := app.Catalog.Featured(r.Context())
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	app.cacheable(w)
	app.writeJSON(w, http.StatusOK, map[string]interface{}{"contents": contents})
}

func (app *Application) newReleasesHandler(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r)
	if err != nil {
		app.writeError(w, r, err)
		return
	}

	page, err := app.Catalog.NewReleases(r.Context(), q.Page, q.Limit)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	app.cacheable(w)
	app.writeJSON(w, http.StatusOK, page)
}

func (app *Application) genresHandler(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(r)
	if err != nil {
		app.writeError(w, r, err)
		return
	}

	genres, err := app.Catalog.Genres(r.Context(), kind)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	app.cacheable(w)
	app.writeJSON(w, http.StatusOK, map[string]interface{}{"generos": genres})
}

func (app *Application) searchHandler(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	q.Search = r.URL.Query().Get("q")

	page, err := app.Catalog.Search(r.Context(), q)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	app.cacheable(w)
	app.writeJSON(w, http.StatusOK, page)
}
