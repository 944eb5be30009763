package apiserver

import (
	"encoding/json"
	"net/http"

	"github.com/joaoc-dev/blueledger-sub001/internal/middleware"
	"github.com/joaoc-dev/blueledger-sub001/internal/services"
)

// GroupHandler handles HTTP requests for groups and their memberships.
type GroupHandler struct {
	groupService services.GroupService
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(gs services.GroupService) *GroupHandler {
	return &GroupHandler{groupService: gs}
}

// CreateGroupPayload is the expected JSON body for group creation.
type CreateGroupPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateGroupHandler handles POST /api/v1/groups
func (h *GroupHandler) CreateGroupHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "missing authenticated user", http.StatusUnauthorized)
		return
	}

	var payload CreateGroupPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if payload.Name == "" {
		writeJSONError(w, "missing group name", http.StatusBadRequest)
		return
	}

	group, err := h.groupService.CreateGroup(r.Context(), ownerID, payload.Name, payload.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, group)
}

// InvitePayload is the expected JSON body for a group invite.
type InvitePayload struct {
	RecipientID uint `json:"recipientId"`
}

// InviteToGroupHandler handles POST /api/v1/groups/{groupID}/invites
func (h *GroupHandler) InviteToGroupHandler(w http.ResponseWriter, r *http.Request) {
	inviterID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "missing authenticated user", http.StatusUnauthorized)
		return
	}

	groupID, err := pathID(r, "groupID")
	if err != nil {
		writeJSONError(w, "invalid group id", http.StatusBadRequest)
		return
	}

	var payload InvitePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if payload.RecipientID == 0 {
		writeJSONError(w, "missing recipientId", http.StatusBadRequest)
		return
	}

	membership, err := h.groupService.InviteToGroup(r.Context(), inviterID, payload.RecipientID, groupID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, membership)
}

// transitionMembershipHandler shares the URL parsing and error mapping for
// the membership transitions keyed on membership id.
func (h *GroupHandler) transitionMembershipHandler(
	apply func(r *http.Request, actorID, membershipID uint) (interface{}, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			writeJSONError(w, "missing authenticated user", http.StatusUnauthorized)
			return
		}

		membershipID, err := pathID(r, "membershipID")
		if err != nil {
			writeJSONError(w, "invalid membership id", http.StatusBadRequest)
			return
		}

		result, err := apply(r, actorID, membershipID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSONResponse(w, http.StatusOK, result)
	}
}

// AcceptInviteHandler handles POST /api/v1/memberships/{membershipID}/accept
func (h *GroupHandler) AcceptInviteHandler() http.HandlerFunc {
	return h.transitionMembershipHandler(func(r *http.Request, actorID, id uint) (interface{}, error) {
		return h.groupService.AcceptGroupInvite(r.Context(), actorID, id)
	})
}

// DeclineInviteHandler handles POST /api/v1/memberships/{membershipID}/decline
func (h *GroupHandler) DeclineInviteHandler() http.HandlerFunc {
	return h.transitionMembershipHandler(func(r *http.Request, actorID, id uint) (interface{}, error) {
		return h.groupService.DeclineGroupInvite(r.Context(), actorID, id)
	})
}

// CancelInviteHandler handles POST /api/v1/memberships/{membershipID}/cancel
func (h *GroupHandler) CancelInviteHandler() http.HandlerFunc {
	return h.transitionMembershipHandler(func(r *http.Request, actorID, id uint) (interface{}, error) {
		return h.groupService.CancelGroupInvite(r.Context(), actorID, id)
	})
}

// KickMemberHandler handles POST /api/v1/memberships/{membershipID}/kick
func (h *GroupHandler) KickMemberHandler() http.HandlerFunc {
	return h.transitionMembershipHandler(func(r *http.Request, actorID, id uint) (interface{}, error) {
		return h.groupService.KickMember(r.Context(), actorID, id)
	})
}

// LeaveGroupHandler handles POST /api/v1/groups/{groupID}/leave
func (h *GroupHandler) LeaveGroupHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "missing authenticated user", http.StatusUnauthorized)
		return
	}

	groupID, err := pathID(r, "groupID")
	if err != nil {
		writeJSONError(w, "invalid group id", http.StatusBadRequest)
		return
	}

	membership, err := h.groupService.LeaveGroup(r.Context(), actorID, groupID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, membership)
}

// TransferOwnershipPayload names the two memberships involved in a transfer.
type TransferOwnershipPayload struct {
	FromMembershipID uint `json:"fromMembershipId"`
	ToMembershipID   uint `json:"toMembershipId"`
}

// TransferOwnershipHandler handles POST /api/v1/groups/{groupID}/transfer-ownership
func (h *GroupHandler) TransferOwnershipHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "missing authenticated user", http.StatusUnauthorized)
		return
	}

	var payload TransferOwnershipPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if payload.FromMembershipID == 0 || payload.ToMembershipID == 0 {
		writeJSONError(w, "missing membership ids", http.StatusBadRequest)
		return
	}

	if err := h.groupService.TransferOwnership(r.Context(), actorID, payload.FromMembershipID, payload.ToMembershipID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "ownership transferred"})
}

// ListMembersHandler handles GET /api/v1/groups/{groupID}/members
func (h *GroupHandler) ListMembersHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "missing authenticated user", http.StatusUnauthorized)
		return
	}

	groupID, err := pathID(r, "groupID")
	if err != nil {
		writeJSONError(w, "invalid group id", http.StatusBadRequest)
		return
	}

	members, err := h.groupService.ListMembers(r.Context(), actorID, groupID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, members)
}

// ListUserGroupsHandler handles GET /api/v1/groups
func (h *GroupHandler) ListUserGroupsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "missing authenticated user", http.StatusUnauthorized)
		return
	}

	groups, err := h.groupService.ListUserGroups(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, groups)
}
