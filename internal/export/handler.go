// Package export serves map documents as downloadable JSON files.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/gridforge/gridforge/internal/auth"
	"github.com/gridforge/gridforge/internal/mapstore"
	"github.com/gridforge/gridforge/internal/scene"
)

type Handler struct {
	maps *mapstore.Service
}

func NewHandler(maps *mapstore.Service) *Handler {
	return &Handler{maps: maps}
}

// ExportMap handles GET /api/maps/{mapId}/export: the latest snapshot
// as an attachment, re-validated through the document parser so a
// corrupt snapshot never leaves the server looking like a good file.
// ?pretty=1 indents the output for hand editing.
func (h *Handler) ExportMap(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	mapID := mux.Vars(r)["mapId"]
	m, err := h.maps.Get(r.Context(), mapID, userID)
	if err != nil {
		switch {
		case errors.Is(err, mapstore.ErrNotFound):
			http.Error(w, "map not found", http.StatusNotFound)
		case errors.Is(err, mapstore.ErrForbidden):
			http.Error(w, "forbidden", http.StatusForbidden)
		default:
			slog.Error("export: fetch map", "map", mapID, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	raw, version, err := h.maps.LatestSnapshot(r.Context(), mapID)
	if err != nil {
		slog.Error("export: fetch snapshot", "map", mapID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	doc, err := scene.ParseDocument(raw)
	if err != nil {
		slog.Error("export: corrupt snapshot", "map", mapID, "version", version, "error", err)
		http.Error(w, "stored document is corrupt", http.StatusInternalServerError)
		return
	}

	data, err := doc.Encode()
	if err != nil {
		slog.Error("export: encode document", "map", mapID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if r.URL.Query().Get("pretty") == "1" {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err == nil {
			data = buf.Bytes()
		}
	}

	filename := sanitizeFilename(m.Name)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.map.json"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)

	slog.Info("map exported", "map", mapID, "version", version, "size", len(data))
}

func sanitizeFilename(name string) string {
	out := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
	if out == "" {
		out = "map"
	}
	return out
}
