package handlers

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type uploadResponse struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

// HandleUpload обслуживает POST /api/upload (админ)
// Принимает multipart/form-data с полем file, сохраняет файл в UploadDir,
// регистрирует его в реестре media и возвращает { "id": N, "url": "/uploads/имяфайла" }.
// По id слои конфига могут ссылаться на картинку числом.
func (e *Env) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !e.requireAdmin(w, r) {
		return
	}

	if e.UploadDir == "" {
		e.UploadDir = "./uploads"
	}
	if err := os.MkdirAll(e.UploadDir, 0755); err != nil {
		e.writeError(w, http.StatusInternalServerError, "cannot create upload dir: "+err.Error())
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil { // 10 МБ
		e.writeError(w, http.StatusBadRequest, "bad multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		e.writeError(w, http.StatusBadRequest, "file field is required: "+err.Error())
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
	default:
		e.writeError(w, http.StatusBadRequest, "only image files are allowed")
		return
	}
	nameOnly := strings.TrimSuffix(filepath.Base(header.Filename), filepath.Ext(header.Filename))
	nameOnly = sanitizeFilename(nameOnly)

	filename := time.Now().Format("20060102_150405") + "_" + nameOnly + ext
	dstPath := filepath.Join(e.UploadDir, filename)

	dst, err := os.Create(dstPath)
	if err != nil {
		e.writeError(w, http.StatusInternalServerError, "cannot create file: "+err.Error())
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		e.writeError(w, http.StatusInternalServerError, "cannot save file: "+err.Error())
		return
	}

	publicURL := "/uploads/" + filename

	id, err := e.Media.AddMedia(r.Context(), publicURL)
	if err != nil {
		e.Log.Errorw("register media failed", "url", publicURL, "err", err)
		e.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	e.Log.Infow("media uploaded", "id", id, "url", publicURL)
	e.writeJSON(w, uploadResponse{ID: id, URL: publicURL})
}

func sanitizeFilename(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "file"
	}
	// простая зачистка
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
