package api

import (
	"net/http"

	"aurora/internal/auth"
	"aurora/internal/services"
)

type watchlistBody struct {
	UserID    string `json:"userId"`
	ContentID string `json:"contentId"`
}

func (app *Application) listWatchlistHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := app.Watchlist.List(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, map[string]interface{}{"watchlist": entries})
}

func (app *Application) addWatchlistHandler(w http.ResponseWriter, r *http.Request) {
	var body watchlistBody
	if err := readJSON(w, r, &body); err != nil {
		app.writeError(w, r, err)
		return
	}

	entry, err := app.Watchlist.Add(r.Context(), body.UserID, body.ContentID)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": entry})
}

func (app *Application) removeWatchlistHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if err := app.Watchlist.Remove(r.Context(), query.Get("userId"), query.Get("contentId")); err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (app *Application) checkWatchlistHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	in, err := app.Watchlist.Contains(r.Context(), query.Get("userId"), query.Get("contentId"))
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, map[string]bool{"inWatchlist": in})
}

type progressBody struct {
	UserID    string  `json:"user_id"`
	ContentID string  `json:"content_id"`
	CurrentT  float64 `json:"current_t"`
	Duration  float64 `json:"duration"`
}

func (app *Application) continueWatchingHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		app.writeError(w, r, err)
		return
	}

	entries, err := app.History.ContinueWatching(r.Context(), r.URL.Query().Get("user_id"), limit)
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, map[string]interface{}{"history": entries})
}

// reportProgressHandler also serves navigator.sendBeacon, whose callers never
// read the response.
func (app *Application) reportProgressHandler(w http.ResponseWriter, r *http.Request) {
	var body progressBody
	if err := readJSON(w, r, &body); err != nil {
		app.writeError(w, r, err)
		return
	}

	entry, err := app.History.Report(r.Context(), services.ProgressReport{
		UserID:    body.UserID,
		ContentID: body.ContentID,
		CurrentT:  body.CurrentT,
		Duration:  body.Duration,
	})
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	if entry == nil {
		app.writeJSON(w, http.StatusOK, map[string]interface{}{"history": nil, "skipped": true})
		return
	}
	app.writeJSON(w, http.StatusOK, map[string]interface{}{"history": entry})
}

func (app *Application) userStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := app.History.Stats(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, map[string]interface{}{"stats": stats})
}

type requestBody struct {
	UserID      string  `json:"userId"`
	ContentName string  `json:"contentName"`
	ContentType string  `json:"contentType"`
	SourceInfo  *string `json:"sourceInfo"`
}

func (app *Application) listRequestsHandler(w http.ResponseWriter, r *http.Request) {
	requests, err := app.Requests.List(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, map[string]interface{}{"requests": requests})
}

func (app *Application) submitRequestHandler(w http.ResponseWriter, r *http.Request) {
	var body requestBody
	if err := readJSON(w, r, &body); err != nil {
		app.writeError(w, r, err)
		return
	}

	req, err := app.Requests.Submit(r.Context(), services.SubmitRequest{
		UserID:      body.UserID,
		ContentName: body.ContentName,
		ContentType: body.ContentType,
		SourceInfo:  body.SourceInfo,
	})
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "request": req})
}

type syncBody struct {
	FirebaseUID string  `json:"firebaseUid"`
	Email       string  `json:"email"`
	DisplayName *string `json:"displayName"`
	PhotoURL    *string `json:"photoUrl"`
}

func (app *Application) syncUserHandler(w http.ResponseWriter, r *http.Request) {
	var body syncBody
	if err := readJSON(w, r, &body); err != nil {
		app.writeError(w, r, err)
		return
	}
	token, _ := auth.BearerToken(r)

	res, err := app.Users.Sync(r.Context(), services.SyncRequest{
		FirebaseUID: body.FirebaseUID,
		Email:       body.Email,
		DisplayName: body.DisplayName,
		PhotoURL:    body.PhotoURL,
		IDToken:     token,
	})
	if err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, res)
}

func (app *Application) signOutHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FirebaseUID string `json:"firebaseUid"`
	}
	if err := readJSON(w, r, &body); err != nil {
		app.writeError(w, r, err)
		return
	}
	token, _ := auth.BearerToken(r)

	if err := app.Users.SignOut(r.Context(), body.FirebaseUID, token); err != nil {
		app.writeError(w, r, err)
		return
	}
	app.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
