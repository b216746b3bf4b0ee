package httpapi

import (
	"errors"
	"net/http"
	"time"

	"jobmonitor/internal/domain"
	"jobmonitor/internal/pipeline"
	"jobmonitor/internal/poll"
)

type RunsHandler struct {
	Poller *poll.Poller
}

func (h RunsHandler) Status(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Poller.Status())
}

type listingView struct {
	ID       string   `json:"id"`
	Company  string   `json:"company"`
	Title    string   `json:"title"`
	Location string   `json:"location,omitempty"`
	URL      string   `json:"url"`
	Posted   string   `json:"posted,omitempty"`
	Score    int      `json:"score"`
	Tier     string   `json:"tier"`
	Tags     []string `json:"tags,omitempty"`
}

type lastRunView struct {
	RunID    string                  `json:"run_id"`
	Mode     string                  `json:"mode"`
	At       time.Time               `json:"at"`
	Listings []listingView           `json:"listings"`
	Stats    []pipeline.CompanyStats `json:"stats"`
	Warnings []string                `json:"warnings,omitempty"`
}

func viewListing(l domain.ScoredListing) listingView {
	return listingView{
		ID:       l.ID,
		Company:  l.Company,
		Title:    l.Title,
		Location: l.Location,
		URL:      l.URL,
		Posted:   l.Posted,
		Score:    l.Score,
		Tier:     string(l.Tier),
		Tags:     l.Tags(),
	}
}

func (h RunsHandler) Last(w http.ResponseWriter, r *http.Request) {
	res, ok := h.Poller.Last()
	if !ok {
		WriteError(w, r, http.StatusNotFound, "no_runs", "no run has completed yet")
		return
	}
	out := lastRunView{
		RunID:    res.RunID,
		Mode:     res.Mode.String(),
		At:       res.At,
		Listings: make([]listingView, 0, len(res.Listings)),
		Stats:    res.Stats,
		Warnings: res.Warnings,
	}
	for _, l := range res.Listings {
		out.Listings = append(out.Listings, viewListing(l))
	}
	WriteJSON(w, http.StatusOK, out)
}

// Trigger starts a run in the background. ?mode=preview runs without
// touching the seen store.
func (h RunsHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	mode := pipeline.ModeNew
	switch r.URL.Query().Get("mode") {
	case "", "new":
	case "preview", "all":
		mode = pipeline.ModePreview
	default:
		WriteError(w, r, http.StatusBadRequest, "bad_mode", "mode must be new or preview")
		return
	}

	if err := h.Poller.Trigger(r.Context(), mode); err != nil {
		if errors.Is(err, poll.ErrBusy) {
			WriteError(w, r, http.StatusConflict, "busy", err.Error())
			return
		}
		WriteError(w, r, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true, "mode": mode.String()})
}
