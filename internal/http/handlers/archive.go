package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"

	"tryon/internal/catalog"
	"tryon/internal/domain"
	"tryon/internal/infra"
	"tryon/pkg/zip"
)

// ImageArchive streams the persisted files of a completed image job as a zip.
func (a *App) ImageArchive(w http.ResponseWriter, r *http.Request) {
	job, err := a.loadJob(r, domain.JobKindImage)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if job.Status != domain.JobStatusCompleted {
		a.error(w, http.StatusConflict, "not_ready", "job has not completed")
		return
	}

	var entries []zip.Entry
	for _, f := range job.Files {
		// no_download jobs only hold remote URLs
		if catalog.IsAsset(f) {
			continue
		}
		entries = append(entries, zip.Entry{Name: filepath.Base(f), Path: f})
	}
	if len(entries) == 0 {
		a.error(w, http.StatusConflict, "no_files", "job has no persisted files")
		return
	}
	if job.MetadataFile != "" {
		entries = append(entries, zip.Entry{Name: filepath.Base(job.MetadataFile), Path: job.MetadataFile})
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=job-%s.zip", job.ID))
	w.WriteHeader(http.StatusOK)
	if err := zip.Stream(w, entries); err != nil {
		infra.OrDiscard(a.Logger).Error().Err(err).Str("job_id", job.ID).Msg("archive stream failed")
	}
}
