package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tryon/internal/domain"
	"tryon/internal/jobs"
	"tryon/internal/middleware"
	"tryon/internal/pipeline"
)

type generateRequest struct {
	PersonImage  string `json:"person_image"`
	FaceImage    string `json:"face_image"`
	OutfitTop    string `json:"outfit_top"`
	OutfitBottom string `json:"outfit_bottom"`
	Background   string `json:"background"`
	Environment  string `json:"environment"`
	Description  string `json:"description"`
	NoDownload   bool   `json:"no_download"`
	Model        string `json:"model"`
}

// jobPayload is what the registry keeps about the request; uploads are not
// retained.
type jobPayload struct {
	OutfitTop    string `json:"outfit_top,omitempty"`
	OutfitBottom string `json:"outfit_bottom,omitempty"`
	Background   string `json:"background,omitempty"`
	Model        string `json:"model,omitempty"`
	Motion       string `json:"motion_description,omitempty"`
	DurationSec  int    `json:"duration_sec,omitempty"`
	Persist      bool   `json:"persist"`
}

type acceptedResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !a.decode(w, r, &req) {
		return
	}
	person, err := parseUpload("person_image", req.PersonImage)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var face *domain.Reference
	if req.FaceImage != "" {
		ref, err := parseUpload("face_image", req.FaceImage)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		face = &ref
	}
	if err := a.Images.CheckModel(req.Model); err != nil {
		a.fail(w, r, err)
		return
	}

	outfit := pipeline.ResolveOutfit(a.Catalog, req.OutfitTop, req.OutfitBottom)
	input := pipeline.ImageInput{
		Person: pipeline.DefaultPerson(),
		Environment: pipeline.EnvironmentAttributes{
			ApparelType:     outfit.Apparel,
			InferredSetting: pipeline.Setting(a.Catalog, req.Background),
			VisualCues:      req.Environment,
		},
		Description:  req.Description,
		PersonImage:  person,
		FaceImage:    face,
		OutfitImages: outfit.References,
		Model:        req.Model,
	}
	persist := !req.NoDownload
	payload := jobPayload{OutfitTop: req.OutfitTop, OutfitBottom: req.OutfitBottom, Background: req.Background, Model: req.Model, Persist: persist}

	job, err := a.Jobs.Submit(r.Context(), domain.JobKindImage, payload, func(ctx context.Context) (*domain.Result, error) {
		return a.Images.Run(ctx, input, persist)
	}, jobs.WithCountry(middleware.CountryFromContext(r.Context())))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, acceptedResponse{
		JobID:   job.ID,
		Status:  string(job.Status),
		Message: "Image generation started",
	})
}

type statusResponse struct {
	JobID        string     `json:"job_id"`
	Status       string     `json:"status"`
	ImageFile    *string    `json:"image_file,omitempty"`
	VideoFile    *string    `json:"video_file,omitempty"`
	VideoModel   *string    `json:"video_model,omitempty"`
	LatencySec   *float64   `json:"latency_sec"`
	Error        *string    `json:"error"`
	Files        []string   `json:"files,omitempty"`
	MetadataFile *string    `json:"metadata_file,omitempty"`
	Model        *string    `json:"model,omitempty"`
	Country      *string    `json:"country,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

func newStatusResponse(job domain.Job) statusResponse {
	resp := statusResponse{
		JobID:        job.ID,
		Status:       string(job.Status),
		Error:        nullable(job.Error),
		Files:        job.Files,
		MetadataFile: nullable(job.MetadataFile),
		Model:        nullable(job.Model),
		Country:      nullable(job.Country),
		CreatedAt:    job.CreatedAt,
	}
	if job.Status.IsTerminal() {
		updated := job.UpdatedAt
		resp.UpdatedAt = &updated
	}
	if job.Status == domain.JobStatusCompleted {
		latency := job.LatencySec
		resp.LatencySec = &latency
	}
	return resp
}

// loadJob returns the job when it exists and has the wanted kind.
func (a *App) loadJob(r *http.Request, kind domain.JobKind) (domain.Job, error) {
	job, err := a.Jobs.Get(chi.URLParam(r, "job_id"))
	if err != nil {
		return domain.Job{}, err
	}
	if job.Kind != kind {
		return domain.Job{}, domain.ErrNotFound
	}
	return job, nil
}

func (a *App) ImageStatus(w http.ResponseWriter, r *http.Request) {
	job, err := a.loadJob(r, domain.JobKindImage)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	resp := newStatusResponse(job)
	resp.ImageFile = nullable(job.Asset)
	a.json(w, http.StatusOK, resp)
}
