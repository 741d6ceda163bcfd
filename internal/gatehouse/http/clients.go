package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tradelane/gatehouse/internal/gatehouse/domain"
	"github.com/tradelane/gatehouse/internal/gatehouse/service"
	"github.com/tradelane/gatehouse/pkg/gatesdk"
	"github.com/tradelane/gatehouse/pkg/httpx"
	"github.com/tradelane/gatehouse/pkg/slogx"
)

// ClientsHandler serves the machine-client admin surface. Every route is
// gated on a machine token carrying the clients:admin scope; that check
// lives in the router middleware, not here.
type ClientsHandler struct {
	Directory *service.DirectoryService
}

// HandleCreate serves POST /v1/clients.
func (h *ClientsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	var req gatesdk.ClientUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		gatesdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if req.Name == "" || len(req.Scopes) == 0 {
		gatesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	client, secret, err := h.Directory.CreateClient(r.Context(), service.ClientInput{
		Name:         req.Name,
		Description:  req.Description,
		ContactEmail: req.ContactEmail,
		ServiceType:  req.ServiceType,
		Scopes:       req.Scopes,
	})
	if err != nil {
		log.Error("failed to create client", "err", err)
		gatesdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, gatesdk.ClientCreatedResponse{
		Client:       clientRecord(client),
		ClientSecret: secret,
	})
}

// HandleList serves GET /v1/clients.
func (h *ClientsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Directory.ListClients(r.Context())
	if err != nil {
		slogx.FromContext(r.Context()).Error("failed to list clients", "err", err)
		gatesdk.ErrServerError.WriteError(w)
		return
	}

	records := make([]gatesdk.ClientRecord, len(clients))
	for i, c := range clients {
		records[i] = clientRecord(c)
	}
	httpx.WriteJSON(w, http.StatusOK, records)
}

// HandleGet serves GET /v1/clients/{id}.
func (h *ClientsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	client, err := h.Directory.GetClient(r.Context(), r.PathValue("id"))
	if err != nil {
		writeClientError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, clientRecord(client))
}

// HandleUpdate serves PUT /v1/clients/{id}.
func (h *ClientsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req gatesdk.ClientUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		gatesdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if req.Name == "" || len(req.Scopes) == 0 {
		gatesdk.ErrInvalidRequest.WriteError(w)
		return
	}

	client, err := h.Directory.UpdateClient(r.Context(), r.PathValue("id"), service.ClientInput{
		Name:         req.Name,
		Description:  req.Description,
		ContactEmail: req.ContactEmail,
		ServiceType:  req.ServiceType,
		Scopes:       req.Scopes,
	})
	if err != nil {
		writeClientError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, clientRecord(client))
}

// HandleDelete serves DELETE /v1/clients/{id}.
func (h *ClientsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Directory.DeleteClient(r.Context(), r.PathValue("id")); err != nil {
		writeClientError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRotateSecret serves POST /v1/clients/{id}/secret.
func (h *ClientsHandler) HandleRotateSecret(w http.ResponseWriter, r *http.Request) {
	clientID := r.PathValue("id")

	secret, err := h.Directory.RotateSecret(r.Context(), clientID)
	if err != nil {
		writeClientError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, gatesdk.SecretRotatedResponse{
		ClientID:     clientID,
		ClientSecret: secret,
	})
}

func writeClientError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrClientNotFound):
		gatesdk.NewOAuth2Error(http.StatusNotFound, gatesdk.ErrorCodeInvalidRequest, "client not found").WriteError(w)
	case errors.Is(err, service.ErrClientProtected):
		gatesdk.ErrAccessDenied.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("client admin operation failed", "err", err)
		gatesdk.ErrServerError.WriteError(w)
	}
}

func clientRecord(c domain.Client) gatesdk.ClientRecord {
	return gatesdk.ClientRecord{
		ID:           c.ID,
		Name:         c.Name,
		Description:  c.Description,
		ContactEmail: c.ContactEmail,
		ServiceType:  c.ServiceType,
		Scopes:       c.Scopes,
		Protected:    c.Protected,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}
