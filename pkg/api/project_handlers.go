package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/tally/pkg/httputil"
	"github.com/platinummonkey/tally/pkg/middleware"
	"github.com/platinummonkey/tally/pkg/projects"
)

// ProjectHandlers handles the account's projects
type ProjectHandlers struct {
	store projects.Store
}

// NewProjectHandlers creates new project handlers
func NewProjectHandlers(store projects.Store) *ProjectHandlers {
	return &ProjectHandlers{store: store}
}

// RegisterRoutes registers project routes
func (h *ProjectHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/projects", h.listProjects).Methods("GET")
	router.HandleFunc("/projects", h.createProject).Methods("POST")
	router.HandleFunc("/projects/{id}", h.getProject).Methods("GET")
	router.HandleFunc("/projects/{id}", h.updateProject).Methods("PUT")
	router.HandleFunc("/projects/{id}", h.deleteProject).Methods("DELETE")
}

func (h *ProjectHandlers) listProjects(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List(r.Context(), middleware.GetAccountContext(r).AccountID())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []*projects.Project{}
	}
	httputil.WriteSuccess(w, list)
}

func (h *ProjectHandlers) createProject(w http.ResponseWriter, r *http.Request) {
	var in projects.Input
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}

	project, err := h.store.Create(r.Context(), middleware.GetAccountContext(r).AccountID(), &in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteCreated(w, project)
}

func (h *ProjectHandlers) getProject(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	project, err := h.store.Get(r.Context(), middleware.GetAccountContext(r).AccountID(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, project)
}

func (h *ProjectHandlers) updateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}
	var in projects.Input
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}

	project, err := h.store.Update(r.Context(), middleware.GetAccountContext(r).AccountID(), id, &in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, project)
}

func (h *ProjectHandlers) deleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), middleware.GetAccountContext(r).AccountID(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}
