package handlers

import (
	"context"
	"net/http"
	"strings"

	"tryon/internal/domain"
	"tryon/internal/jobs"
	"tryon/internal/middleware"
	"tryon/internal/pipeline"
)

const defaultMotion = "stands naturally, shifts weight slightly and turns a little toward the camera."

type videoRequest struct {
	ImageFile    string `json:"image_file"`
	OutfitTop    string `json:"outfit_top"`
	OutfitBottom string `json:"outfit_bottom"`
	Motion       string `json:"motion_description"`
	Model        string `json:"model"`
	DurationSec  int    `json:"duration_sec"`
	NoDownload   bool   `json:"no_download"`
}

func (a *App) VideoGenerate(w http.ResponseWriter, r *http.Request) {
	var req videoRequest
	if !a.decode(w, r, &req) {
		return
	}
	ref, err := parseUpload("image_file", req.ImageFile)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	motion := strings.TrimSpace(req.Motion)
	if motion == "" {
		motion = defaultMotion
	}
	input := pipeline.VideoInput{
		Reference:   ref,
		Apparel:     pipeline.ApparelDescription(req.OutfitTop, req.OutfitBottom),
		Motion:      motion,
		Model:       req.Model,
		DurationSec: req.DurationSec,
	}
	// reject bad models and durations before a job exists
	gen, prepared, err := a.Videos.Prepare(input)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	persist := !req.NoDownload
	payload := jobPayload{
		OutfitTop:    req.OutfitTop,
		OutfitBottom: req.OutfitBottom,
		Model:        string(gen.Model()),
		Motion:       motion,
		DurationSec:  prepared.DurationSec,
		Persist:      persist,
	}
	input.Model = string(gen.Model())
	job, err := a.Jobs.Submit(r.Context(), domain.JobKindVideo, payload, func(ctx context.Context) (*domain.Result, error) {
		return a.Videos.Run(ctx, input, persist)
	}, jobs.WithCountry(middleware.CountryFromContext(r.Context())))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, acceptedResponse{
		JobID:   job.ID,
		Status:  string(job.Status),
		Message: "Video generation started",
	})
}

func (a *App) VideoStatus(w http.ResponseWriter, r *http.Request) {
	job, err := a.loadJob(r, domain.JobKindVideo)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	resp := newStatusResponse(job)
	resp.VideoFile = nullable(job.Asset)
	resp.VideoModel = nullable(job.Model)
	if p, ok := job.Payload.(jobPayload); ok && resp.VideoModel == nil {
		resp.VideoModel = nullable(p.Model)
	}
	a.json(w, http.StatusOK, resp)
}
