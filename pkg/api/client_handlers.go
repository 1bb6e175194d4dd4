package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/tally/pkg/clients"
	"github.com/platinummonkey/tally/pkg/httputil"
	"github.com/platinummonkey/tally/pkg/middleware"
)

// ClientHandlers handles the account's client book
type ClientHandlers struct {
	store clients.Store
}

// NewClientHandlers creates new client handlers
func NewClientHandlers(store clients.Store) *ClientHandlers {
	return &ClientHandlers{store: store}
}

// RegisterRoutes registers client routes
func (h *ClientHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/clients", h.listClients).Methods("GET")
	router.HandleFunc("/clients", h.createClient).Methods("POST")
	router.HandleFunc("/clients/{id}", h.getClient).Methods("GET")
	router.HandleFunc("/clients/{id}", h.updateClient).Methods("PUT")
	router.HandleFunc("/clients/{id}", h.deleteClient).Methods("DELETE")
}

func (h *ClientHandlers) listClients(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List(r.Context(), middleware.GetAccountContext(r).AccountID())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []*clients.Client{}
	}
	httputil.WriteSuccess(w, list)
}

func (h *ClientHandlers) createClient(w http.ResponseWriter, r *http.Request) {
	var in clients.Input
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}

	client, err := h.store.Create(r.Context(), middleware.GetAccountContext(r).AccountID(), &in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteCreated(w, client)
}

func (h *ClientHandlers) getClient(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	client, err := h.store.Get(r.Context(), middleware.GetAccountContext(r).AccountID(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, client)
}

func (h *ClientHandlers) updateClient(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}
	var in clients.Input
	if !httputil.ParseJSONOrError(w, r, &in) {
		return
	}

	client, err := h.store.Update(r.Context(), middleware.GetAccountContext(r).AccountID(), id, &in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, client)
}

func (h *ClientHandlers) deleteClient(w http.ResponseWriter, r *http.Request) {
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
