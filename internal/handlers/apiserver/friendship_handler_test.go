package apiserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joaoc-dev/blueledger-sub001/internal/apperr"
	"github.com/joaoc-dev/blueledger-sub001/internal/middleware"
	"github.com/joaoc-dev/blueledger-sub001/internal/models"
	"github.com/joaoc-dev/blueledger-sub001/internal/services"
)

// stubFriendshipService returns canned results so the handler layer can be
// tested for routing, payload parsing, and error mapping in isolation.
type stubFriendshipService struct {
	friendship *models.Friendship
	err        error

	lastActorID  uint
	lastTargetID uint
}

func (s *stubFriendshipService) RequestFriendship(_ context.Context, requesterID, recipientID uint) (*models.Friendship, error) {
	s.lastActorID, s.lastTargetID = requesterID, recipientID
	return s.friendship, s.err
}

func (s *stubFriendshipService) AcceptFriendship(_ context.Context, actorID, friendshipID uint) (*models.Friendship, error) {
	s.lastActorID, s.lastTargetID = actorID, friendshipID
	return s.friendship, s.err
}

func (s *stubFriendshipService) DeclineFriendship(_ context.Context, actorID, friendshipID uint) (*models.Friendship, error) {
	s.lastActorID, s.lastTargetID = actorID, friendshipID
	return s.friendship, s.err
}

func (s *stubFriendshipService) CancelFriendship(_ context.Context, actorID, friendshipID uint) (*models.Friendship, error) {
	s.lastActorID, s.lastTargetID = actorID, friendshipID
	return s.friendship, s.err
}

func (s *stubFriendshipService) RemoveFriendship(_ context.Context, actorID, friendshipID uint) (*models.Friendship, error) {
	s.lastActorID, s.lastTargetID = actorID, friendshipID
	return s.friendship, s.err
}

func (s *stubFriendshipService) ListFriends(context.Context, uint) ([]*services.FriendshipWithCounterpart, error) {
	return []*services.FriendshipWithCounterpart{}, s.err
}

func (s *stubFriendshipService) ListPendingRequests(context.Context, uint) ([]*services.FriendshipWithCounterpart, error) {
	return []*services.FriendshipWithCounterpart{}, s.err
}

func newFriendshipRouter(stub *stubFriendshipService) *mux.Router {
	h := NewFriendshipHandler(stub)
	r := mux.NewRouter()
	r.HandleFunc("/friendships", h.RequestFriendshipHandler).Methods(http.MethodPost)
	r.Handle("/friendships/{friendshipID:[0-9]+}/accept", h.AcceptFriendshipHandler()).Methods(http.MethodPost)
	return r
}

func authenticated(r *http.Request, userID uint) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.UserIDKey, userID)
	return r.WithContext(ctx)
}

func TestRequestFriendshipHandler(t *testing.T) {
	t.Run("valid request returns 201", func(t *testing.T) {
		f := &models.Friendship{RequesterID: 1, RecipientID: 2, Status: models.FriendshipStatusPending}
		f.ID = 5
		stub := &stubFriendshipService{friendship: f}
		router := newFriendshipRouter(stub)

		req := httptest.NewRequest(http.MethodPost, "/friendships", strings.NewReader(`{"recipientId":2}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authenticated(req, 1))

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, uint(1), stub.lastActorID)
		assert.Equal(t, uint(2), stub.lastTargetID)
		assert.Contains(t, rec.Body.String(), `"status":"pending"`)
	})

	t.Run("missing identity returns 401", func(t *testing.T) {
		router := newFriendshipRouter(&stubFriendshipService{})

		req := httptest.NewRequest(http.MethodPost, "/friendships", strings.NewReader(`{"recipientId":2}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		router := newFriendshipRouter(&stubFriendshipService{})

		req := httptest.NewRequest(http.MethodPost, "/friendships", strings.NewReader(`{`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authenticated(req, 1))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing recipient returns 400", func(t *testing.T) {
		router := newFriendshipRouter(&stubFriendshipService{})

		req := httptest.NewRequest(http.MethodPost, "/friendships", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authenticated(req, 1))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found maps to 404", apperr.NotFoundf("friendship 5"), http.StatusNotFound},
		{"forbidden maps to 403", apperr.Forbiddenf("wrong party"), http.StatusForbidden},
		{"conflict maps to 409", apperr.Conflictf("stale status"), http.StatusConflict},
		{"self reference maps to 400", apperr.SelfReferencef("same user"), http.StatusBadRequest},
		{"internal maps to 500", apperr.Internalf("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newFriendshipRouter(&stubFriendshipService{err: tt.err})

			req := httptest.NewRequest(http.MethodPost, "/friendships/5/accept", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, authenticated(req, 1))

			require.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusInternalServerError {
				// Internal details stay out of the response body.
				assert.NotContains(t, rec.Body.String(), "db down")
			}
		})
	}
}

func TestTransitionHandlerParsesPathID(t *testing.T) {
	f := &models.Friendship{Status: models.FriendshipStatusAccepted}
	f.ID = 37
	stub := &stubFriendshipService{friendship: f}
	router := newFriendshipRouter(stub)

	req := httptest.NewRequest(http.MethodPost, "/friendships/37/accept", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authenticated(req, 9))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint(9), stub.lastActorID)
	assert.Equal(t, uint(37), stub.lastTargetID)
}
