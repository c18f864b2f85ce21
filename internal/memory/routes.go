package memory

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts thread inspection endpoints under /api/chat.
func RegisterRoutes(r chi.Router, store *Store) {
	// Registered as full paths rather than a Route("/api/chat") subrouter:
	// mounting a subrouter there would shadow the POST /api/chat endpoint
	// registered on the parent router.
	r.Get("/api/chat/thread/{threadID}", handleGetThread(store))
	r.Get("/api/chat/briefing/{threadID}", handleGetBriefing(store))
	r.Get("/api/chat/threads", handleUserThreads(store))
}

func handleGetThread(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		threadID := chi.URLParam(r, "threadID")

		thread, err := store.GetThread(r.Context(), threadID)
		if err != nil {
			if errors.Is(err, ErrThreadNotFound) {
				writeJSONError(w, http.StatusNotFound, "Thread not found")
				return
			}
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"threadId": thread.ThreadID,
				"messages": thread.Messages,
				"metadata": thread.Metadata,
			},
		})
	}
}

func handleGetBriefing(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		threadID := chi.URLParam(r, "threadID")

		briefing, err := store.GenerateBriefing(r.Context(), threadID)
		if err != nil {
			if errors.Is(err, ErrThreadNotFound) {
				writeJSONError(w, http.StatusNotFound, "Thread not found")
				return
			}
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    briefing,
		})
	}
}

func handleUserThreads(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user")
		if userID == "" {
			writeJSONError(w, http.StatusBadRequest, "user query parameter is required")
			return
		}

		limit := 20
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				limit = n
			}
		}

		threads, err := store.UserThreads(r.Context(), userID, limit)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    threads,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}
