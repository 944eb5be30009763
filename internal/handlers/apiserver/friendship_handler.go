package apiserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/joaoc-dev/blueledger-sub001/internal/middleware"
	"github.com/joaoc-dev/blueledger-sub001/internal/services"
)

// FriendshipHandler handles HTTP requests for the friendship lifecycle.
type FriendshipHandler struct {
	friendshipService services.FriendshipService
}

// NewFriendshipHandler creates a new FriendshipHandler.
func NewFriendshipHandler(fs services.FriendshipService) *FriendshipHandler {
	return &FriendshipHandler{friendshipService: fs}
}

// RequestFriendshipPayload is the expected JSON body for a friend request.
type RequestFriendshipPayload struct {
	RecipientID uint `json:"recipientId"`
}

// RequestFriendshipHandler handles POST /api/v1/friendships
func (h *FriendshipHandler) RequestFriendshipHandler(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "missing authenticated user", http.StatusUnauthorized)
		return
	}

	var payload RequestFriendshipPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if payload.RecipientID == 0 {
		writeJSONError(w, "missing recipientId", http.StatusBadRequest)
		return
	}

	friendship, err := h.friendshipService.RequestFriendship(r.Context(), requesterID, payload.RecipientID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, friendship)
}

// TransitionFriendshipHandler returns a handler applying the given
// transition to the friendship in the URL. All four single-record
// transitions share this shape; only the service method differs.
func (h *FriendshipHandler) TransitionFriendshipHandler(
	apply func(r *http.Request, actorID, friendshipID uint) (interface{}, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			writeJSONError(w, "missing authenticated user", http.StatusUnauthorized)
			return
		}

		friendshipID, err := pathID(r, "friendshipID")
		if err != nil {
			writeJSONError(w, "invalid friendship id", http.StatusBadRequest)
			return
		}

		result, err := apply(r, actorID, friendshipID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSONResponse(w, http.StatusOK, result)
	}
}

// AcceptFriendshipHandler handles POST /api/v1/friendships/{friendshipID}/accept
func (h *FriendshipHandler) AcceptFriendshipHandler() http.HandlerFunc {
	return h.TransitionFriendshipHandler(func(r *http.Request, actorID, id uint) (interface{}, error) {
		return h.friendshipService.AcceptFriendship(r.Context(), actorID, id)
	})
}

// DeclineFriendshipHandler handles POST /api/v1/friendships/{friendshipID}/decline
func (h *FriendshipHandler) DeclineFriendshipHandler() http.HandlerFunc {
	return h.TransitionFriendshipHandler(func(r *http.Request, actorID, id uint) (interface{}, error) {
		return h.friendshipService.DeclineFriendship(r.Context(), actorID, id)
	})
}

// CancelFriendshipHandler handles POST /api/v1/friendships/{friendshipID}/cancel
func (h *FriendshipHandler) CancelFriendshipHandler() http.HandlerFunc {
	return h.TransitionFriendshipHandler(func(r *http.Request, actorID, id uint) (interface{}, error) {
		return h.friendshipService.CancelFriendship(r.Context(), actorID, id)
	})
}

// RemoveFriendshipHandler handles POST /api/v1/friendships/{friendshipID}/remove
func (h *FriendshipHandler) RemoveFriendshipHandler() http.HandlerFunc {
	return h.TransitionFriendshipHandler(func(r *http.Request, actorID, id uint) (interface{}, error) {
		return h.friendshipService.RemoveFriendship(r.Context(), actorID, id)
	})
}

// ListFriendsHandler handles GET /api/v1/friendships
func (h *FriendshipHandler) ListFriendsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "missing authenticated user", http.StatusUnauthorized)
		return
	}

	friends, err := h.friendshipService.ListFriends(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, friends)
}

// ListPendingRequestsHandler handles GET /api/v1/friendships/pending
func (h *FriendshipHandler) ListPendingRequestsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "missing authenticated user", http.StatusUnauthorized)
		return
	}

	pending, err := h.friendshipService.ListPendingRequests(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, pending)
}

// pathID extracts a uint path variable from the route.
func pathID(r *http.Request, name string) (uint, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
