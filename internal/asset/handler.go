// Package asset stores and serves the uploadable level-building files:
// glTF meshes plus their PNG thumbnails for the asset palette.
package asset

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gridforge/gridforge/internal/typeid"
)

const (
	maxMeshSize  = 50 << 20 // 50MB
	maxThumbSize = 4 << 20  // 4MB
)

// UploadResponse is returned from the upload endpoint. File and
// Thumbnail are paths the client drops straight into the map's asset
// store entry.
type UploadResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	File      string `json:"file"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// Handler serves asset upload and retrieval endpoints.
type Handler struct {
	dir string
}

// NewHandler creates an asset handler that stores files in dir.
func NewHandler(dir string) *Handler {
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("create asset dir", "error", err, "dir", dir)
	}
	return &Handler{dir: dir}
}

// Upload handles POST /assets/upload: a multipart form with a "file"
// field holding a .glb or .gltf mesh and an optional "thumbnail" image.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxMeshSize+maxThumbSize)

	if err := r.ParseMultipartForm(maxMeshSize); err != nil {
		http.Error(w, "upload too large (max 50MB)", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".glb" && ext != ".gltf" {
		http.Error(w, "only .glb and .gltf meshes are supported", http.StatusBadRequest)
		return
	}

	assetID := typeid.NewAssetID()
	meshName := assetID + ext
	if err := writeFile(filepath.Join(h.dir, meshName), file); err != nil {
		slog.Error("save mesh file", "error", err)
		http.Error(w, "failed to save file", http.StatusInternalServerError)
		return
	}

	resp := UploadResponse{
		ID:   assetID,
		Name: strings.TrimSuffix(header.Filename, ext),
		File: fmt.Sprintf("/assets/%s", meshName),
	}

	// The thumbnail is optional; a bad one fails the upload rather than
	// leaving a palette entry with no preview.
	if thumb, _, err := r.FormFile("thumbnail"); err == nil {
		defer thumb.Close()
		thumbName := assetID + ".thumb.png"
		if err := h.saveThumbnail(filepath.Join(h.dir, thumbName), thumb); err != nil {
			os.Remove(filepath.Join(h.dir, meshName))
			http.Error(w, "invalid thumbnail: "+err.Error(), http.StatusBadRequest)
			return
		}
		resp.Thumbnail = fmt.Sprintf("/assets/%s", thumbName)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// saveThumbnail decodes the uploaded image and re-encodes it as PNG, so
// the palette always serves one format regardless of what was uploaded.
func (h *Handler) saveThumbnail(path string, src io.Reader) error {
	img, _, err := image.Decode(io.LimitReader(src, maxThumbSize))
	if err != nil {
		return err
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	return png.Encode(out, img)
}

// Serve returns an http.Handler that serves stored asset files. Asset
// ids are unique, so every file is immutable.
func (h *Handler) Serve() http.Handler {
	fs := http.FileServer(http.Dir(h.dir))
	return http.StripPrefix("/assets/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	}))
}

// Delete removes an asset's files from disk.
func (h *Handler) Delete(assetID string) error {
	removed := false
	for _, ext := range []string{".glb", ".gltf", ".thumb.png"} {
		if err := os.Remove(filepath.Join(h.dir, assetID+ext)); err == nil {
			removed = true
		}
	}
	if !removed {
		return fmt.Errorf("asset not found: %s", assetID)
	}
	return nil
}

func writeFile(dst string, src io.Reader) error {
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, src); err != nil {
		os.Remove(dst)
		return err
	}
	return nil
}
