// Package httpapi exposes the REST endpoints surrounding the relay:
// login, message history, and the clear endpoint used by test automation.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/samber/lo"

	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/services"
)

type Handler struct {
	log  *slog.Logger
	auth services.IAuthService
	chat services.IChatService
}

// NewRouter wires the REST routes and mounts the WebSocket endpoint.
func NewRouter(log *slog.Logger, authService services.IAuthService,
	chatService services.IChatService, wsHandler http.Handler) *mux.Router {
	h := &Handler{log: log, auth: authService, chat: chatService}

	r := mux.NewRouter()
	r.HandleFunc("/api/login", h.login).Methods(http.MethodPost)
	r.HandleFunc("/api/register", h.register).Methods(http.MethodPost)
	r.HandleFunc("/api/messages", h.history).Methods(http.MethodGet)
	r.HandleFunc("/api/messages/clear", h.clear).Methods(http.MethodDelete)
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/ws", wsHandler)
	return r
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// messageResponse is the history record shape consumers rely on.
type messageResponse struct {
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := auth.ValidateLogin(req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	token, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		// Reported to the requester only; the failure never reaches
		// other sessions.
		h.writeError(w, errors.MapToHTTPStatus(err), "Invalid credentials")
		return
	}
	h.writeJSON(w, http.StatusOK, loginResponse{Token: string(token), Username: req.Username})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := h.auth.Register(req.Username, req.Password)
	if err != nil {
		h.writeError(w, errors.MapToHTTPStatus(err), err.Error())
		return
	}
	h.writeJSON(w, http.StatusCreated, loginResponse{Token: string(token), Username: req.Username})
}

// history returns all messages oldest first. The optional cursor query
// parameter resumes a previous scan; the next cursor comes back in the
// X-Next-Cursor header so the body stays a plain array.
func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	var cursor *string
	if raw := r.URL.Query().Get("cursor"); raw != "" {
		cursor = &raw
	}

	messages, next, err := h.chat.History(cursor)
	if err != nil {
		h.writeError(w, errors.MapToHTTPStatus(err), "Server error")
		return
	}

	if next != nil {
		w.Header().Set("X-Next-Cursor", *next)
	}
	response := lo.Map(messages, func(item domain.Message, _ int) messageResponse {
		return messageResponse{
			Username:  item.Username,
			Message:   item.Content,
			Timestamp: item.SentAt.Format("2006-01-02T15:04:05.000Z07:00"),
		}
	})
	h.writeJSON(w, http.StatusOK, response)
}

func (h *Handler) clear(w http.ResponseWriter, _ *http.Request) {
	if err := h.chat.Clear(); err != nil {
		h.writeError(w, errors.MapToHTTPStatus(err), "Server error")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "All messages cleared successfully"})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("Response encoding failed", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
