package api

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/Veraticus/sheetbooks/internal/backup"
	"github.com/go-chi/chi/v5"
)

// BackupResponse reports a backup run.
type BackupResponse struct {
	Rows    map[string]int    `json:"rows"`
	Skipped map[string]string `json:"skipped,omitempty"`
	Path    string            `json:"path"`
}

// RestoreResponse reports a restore.
type RestoreResponse struct {
	Errors   []string `json:"errors,omitempty"`
	Restored int      `json:"restored"`
}

func (s *Server) handleListBackups(w http.ResponseWriter, _ *http.Request) {
	infos, err := backup.List(s.backupDir)
	if err != nil {
		writeError(w, err)
		return
	}
	if infos == nil {
		infos = []backup.Info{}
	}
	writeData(w, http.StatusOK, infos, "")
}

func (s *Server) handleCreateBackup(w http.ResponseWriter, r *http.Request) {
	result, err := backup.Create(r.Context(), s.tables, s.tables.Registry().Names(), s.backupDir, s.now())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := BackupResponse{Rows: result.Rows, Path: result.Path}
	for table, skipErr := range result.Skipped {
		if resp.Skipped == nil {
			resp.Skipped = make(map[string]string)
		}
		resp.Skipped[table] = skipErr.Error()
	}
	writeData(w, http.StatusCreated, resp, "backup created")
}

func (s *Server) handleRestoreBackup(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, ok := backup.ParseFileName(name); !ok {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid backup name %q", name))
		return
	}

	snapshot, err := backup.Restore(filepath.Join(s.backupDir, name))
	if err != nil {
		writeError(w, err)
		return
	}

	restored, err := backup.Apply(r.Context(), s.tables, snapshot)
	resp := RestoreResponse{Restored: restored}
	if err != nil {
		resp.Errors = append(resp.Errors, err.Error())
	}
	status := http.StatusOK
	if restored == 0 && err != nil {
		status = http.StatusBadGateway
	}
	writeData(w, status, resp, fmt.Sprintf("%d of %d table(s) restored", restored, len(snapshot)))
}
