package handlers

import "net/http"

// DashboardHandler serves channel statistics.
type DashboardHandler struct {
	Views ViewStore
}

// Stats handles GET /api/v1/videos/{channelId}/stats.
func (h DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	channelID, err := pathID(r, "channelId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	stats, err := h.Views.ChannelStats(ctx, channelID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, stats, "channel stats fetched successfully")
}

// Videos handles GET /api/v1/videos/{channelId}.
func (h DashboardHandler) Videos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	channelID, err := pathID(r, "channelId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	videos, err := h.Views.ChannelVideos(ctx, channelID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, videos, "channel videos fetched successfully")
}
