package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"medharvest-backend/lib/adapters/medportal"
	"medharvest-backend/lib/blobstore"
	"medharvest-backend/lib/events"
	"medharvest-backend/lib/util/serviceutil"
	"medharvest-backend/services/orchestrator"
	"medharvest-backend/services/orchestrator/httpengine"
	"medharvest-backend/services/resume"
	"medharvest-backend/services/tenantstore"
)

func InitOrchestrator(
	mux *http.ServeMux,
	tenants *tenantstore.Store,
	blobs blobstore.Store,
	sink events.Sink,
	accessToken string,
) *orchestrator.Manager {
	adapters := orchestrator.NewAdapterRegistry()
	medportal.Register(adapters)

	manager := orchestrator.NewManager(
		httpengine.New(),
		adapters,
		tenants,
		resume.NewCheckpointStore(tenants, blobs),
		sink,
	)

	api := &jobAPI{manager: manager}
	mux.Handle("POST /jobs", serviceutil.VerifyAccessToken(accessToken, http.HandlerFunc(api.start)))
	mux.Handle("POST /jobs/{id}/confirm", serviceutil.VerifyAccessToken(accessToken, http.HandlerFunc(api.confirm)))
	mux.Handle("POST /jobs/{id}/cancel", serviceutil.VerifyAccessToken(accessToken, http.HandlerFunc(api.cancel)))
	mux.Handle("GET /jobs", serviceutil.VerifyAccessToken(accessToken, http.HandlerFunc(api.list)))
	mux.Handle("GET /jobs/{id}", serviceutil.VerifyAccessToken(accessToken, http.HandlerFunc(api.get)))
	return manager
}

type jobAPI struct {
	manager *orchestrator.Manager
}

type startJobRequest struct {
	ID                  string `json:"id"`
	TargetURL           string `json:"target_url"`
	Portal              string `json:"portal"`
	Mode                string `json:"mode"`
	UnitIdentifier      string `json:"unit_identifier"`
	Tenant              string `json:"tenant"`
	ContentFilter       string `json:"content_filter"`
	StartDate           string `json:"start_date"`
	StopDate            string `json:"stop_date"`
	ConfirmationTimeout string `json:"confirmation_timeout"`
	Profile             string `json:"profile"`
	Resume              bool   `json:"resume"`
}

type jobView struct {
	ID      string              `json:"id"`
	Status  string              `json:"status"`
	Error   string              `json:"error,omitempty"`
	Results []resume.UnitResult `json:"results,omitempty"`
}

func viewOf(job *orchestrator.Job) jobView {
	return jobView{
		ID:      job.Spec.ID,
		Status:  string(job.Status()),
		Error:   job.Err(),
		Results: job.Results(),
	}
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(value)
	if err != nil {
		slog.Warn("failed to encode response", "err", err)
	}
}

func (a *jobAPI) start(w http.ResponseWriter, r *http.Request) {
	var req startJobRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	spec, err := specFromRequest(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	job, started := a.manager.StartJob(r.Context(), spec)
	if !started {
		http.Error(w, "a job with this id is already running", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusAccepted, viewOf(job))
}

func specFromRequest(req startJobRequest) (orchestrator.JobSpec, error) {
	spec := orchestrator.JobSpec{
		ID:             req.ID,
		TargetURL:      req.TargetURL,
		Portal:         req.Portal,
		Mode:           orchestrator.ExtractionMode(req.Mode),
		UnitIdentifier: req.UnitIdentifier,
		Tenant:         req.Tenant,
		ContentFilter:  req.ContentFilter,
		Profile:        req.Profile,
		Resume:         req.Resume,
	}
	if spec.Mode == "" {
		spec.Mode = orchestrator.ModeAllUnits
	}

	var err error
	if req.StartDate != "" {
		spec.StartDate, err = time.Parse(time.DateOnly, req.StartDate)
		if err != nil {
			return spec, err
		}
	}
	if req.StopDate != "" {
		spec.StopDate, err = time.Parse(time.DateOnly, req.StopDate)
		if err != nil {
			return spec, err
		}
	}
	if req.ConfirmationTimeout != "" {
		spec.ConfirmationTimeout, err = time.ParseDuration(req.ConfirmationTimeout)
		if err != nil {
			return spec, err
		}
	}
	return spec, nil
}

func (a *jobAPI) confirm(w http.ResponseWriter, r *http.Request) {
	if !a.manager.SignalConfirmation(r.PathValue("id")) {
		http.Error(w, "job is not waiting for confirmation", http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (a *jobAPI) cancel(w http.ResponseWriter, r *http.Request) {
	if !a.manager.Cancel(r.PathValue("id")) {
		http.Error(w, "no such active job", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (a *jobAPI) list(w http.ResponseWriter, r *http.Request) {
	jobs := a.manager.ListActive()
	views := make([]jobView, 0, len(jobs))
	for _, job := range jobs {
		views = append(views, viewOf(job))
	}
	writeJSON(w, http.StatusOK, views)
}

func (a *jobAPI) get(w http.ResponseWriter, r *http.Request) {
	job, ok := a.manager.Get(r.PathValue("id"))
	if !ok {
		http.Error(w, "no such active job", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(job))
}
