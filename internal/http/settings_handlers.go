package httpapi

import (
	"net/http"
	"path/filepath"
	"strings"
)

// GetSettings returns the current settings.
func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(h.settings.Get()))
}

// ExportSettings returns the settings with version and export date.
func (h *Handlers) ExportSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(h.settings.Export()))
}

// PutSettings merges the body over the defaults and saves it.
func (h *Handlers) PutSettings(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("failed to read body"))
		return
	}
	s, err := h.settings.Import(body)
	if err != nil {
		h.writeError(w, "PutSettings", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(s))
}

// ResetSettings restores the defaults.
func (h *Handlers) ResetSettings(w http.ResponseWriter, r *http.Request) {
	if err := h.settings.Reset(); err != nil {
		h.writeError(w, "ResetSettings", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(h.settings.Get()))
}

// BackupSettings writes a settings copy into the backup directory.
func (h *Handlers) BackupSettings(w http.ResponseWriter, r *http.Request) {
	path, err := h.settings.Backup()
	if err != nil {
		h.writeError(w, "BackupSettings", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"path": path}))
}

type restoreRequest struct {
	File string `json:"file"`
}

// RestoreSettings restores a backup by file name. Only files inside the
// configured backup directory can be restored.
func (h *Handlers) RestoreSettings(w http.ResponseWriter, r *http.Request) {
	var req restoreRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	name := filepath.Base(strings.TrimSpace(req.File))
	if name == "." || name == string(filepath.Separator) || name == "" {
		writeJSON(w, http.StatusBadRequest, Fail("file is required"))
		return
	}

	path := filepath.Join(h.settings.Get().Paths.BackupPath, name)
	if err := h.settings.Restore(path); err != nil {
		h.writeError(w, "RestoreSettings", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(h.settings.Get()))
}
