package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"stackit/internal/core"
	applog "stackit/internal/log"
)

type api struct {
	deps Deps
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *api) handleReady(w http.ResponseWriter, r *http.Request) {
	if a.deps.Ready != nil {
		if err := a.deps.Ready(r.Context()); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err.Error())
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "store unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (a *api) listBalances(w http.ResponseWriter, r *http.Request) {
	items, err := a.deps.Ledger.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(items))
}

func (a *api) upsertBalance(w http.ResponseWriter, r *http.Request) {
	var b core.MonthlyBalance
	if err := decodeJSON(w, r, &b); err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := a.deps.Ledger.Upsert(r.Context(), b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/monthlybalances/%d", saved.ID))
	writeJSON(w, http.StatusCreated, saved)
}

func (a *api) deleteBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	removed, err := a.deps.Ledger.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, removed)
}

func (a *api) listGoals(w http.ResponseWriter, r *http.Request) {
	items, err := a.deps.Goals.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(items))
}

func (a *api) createGoal(w http.ResponseWriter, r *http.Request) {
	var g core.Goal
	if err := decodeJSON(w, r, &g); err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := a.deps.Goals.Create(r.Context(), g)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/savinggoals/%d", saved.ID))
	writeJSON(w, http.StatusCreated, saved)
}

func (a *api) deleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	removed, err := a.deps.Goals.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, removed)
}

// goalProgress answers 200 with an empty list when no balance is recorded.
func (a *api) goalProgress(w http.ResponseWriter, r *http.Request) {
	goals, err := a.deps.Progress.Compute(r.Context())
	if errors.Is(err, core.ErrNoDataAvailable) {
		applog.FromContext(r.Context()).InfoContext(r.Context(), "No balance recorded, returning empty goal progress")
		writeJSON(w, http.StatusOK, []core.Goal{})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(goals))
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid id %q", core.ErrMalformedInput, raw)
	}
	return id, nil
}
