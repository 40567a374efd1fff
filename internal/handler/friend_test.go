package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatroom/internal/domain"
)

func TestFriendRequestFlow(t *testing.T) {
	srv := newTestServer(t, testConfig())
	alice := srv.login(t, "alice")
	bob := srv.login(t, "bob")

	w := srv.do(t, http.MethodPost, "/api/friend-requests", alice.Token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "to_user_id is required", errorOf(t, w))

	w = srv.do(t, http.MethodPost, "/api/friend-requests", alice.Token, gin.H{"to_user_id": uuid.NewString()})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", errorOf(t, w))

	w = srv.do(t, http.MethodPost, "/api/friend-requests", alice.Token, gin.H{"to_user_id": bob.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Request domain.FriendRequest `json:"request"`
	}
	decode(t, w, &created)
	assert.Equal(t, domain.FriendRequestPending, created.Request.Status)
	assert.Equal(t, bob.ID, created.Request.ToUserID)

	w = srv.do(t, http.MethodPost, "/api/friend-requests", bob.Token, gin.H{"to_user_id": alice.ID})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Friend request already pending", errorOf(t, w))

	w = srv.do(t, http.MethodGet, "/api/friend-requests", bob.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pending struct {
		Received []domain.FriendRequest `json:"received"`
		Sent     []domain.FriendRequest `json:"sent"`
	}
	decode(t, w, &pending)
	require.Len(t, pending.Received, 1)
	assert.Empty(t, pending.Sent)
	require.NotNil(t, pending.Received[0].FromUser)
	assert.Equal(t, "alice", pending.Received[0].FromUser.DisplayName)

	path := fmt.Sprintf("/api/friend-requests/%d", created.Request.ID)

	w = srv.do(t, http.MethodPatch, path, bob.Token, gin.H{"action": "maybe"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid action", errorOf(t, w))

	w = srv.do(t, http.MethodPatch, path, alice.Token, gin.H{"action": "accepted"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = srv.do(t, http.MethodPatch, "/api/friend-requests/9999", bob.Token, gin.H{"action": "accepted"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = srv.do(t, http.MethodPatch, path, bob.Token, gin.H{"action": "accepted"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"accepted"`)

	w = srv.do(t, http.MethodPatch, path, bob.Token, gin.H{"action": "declined"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = srv.do(t, http.MethodPost, "/api/friend-requests", alice.Token, gin.H{"to_user_id": bob.ID})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Already friends", errorOf(t, w))

	w = srv.do(t, http.MethodGet, "/api/friends", alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var friends struct {
		Friends []domain.UserWithPresence `json:"friends"`
	}
	decode(t, w, &friends)
	require.Len(t, friends.Friends, 1)
	assert.Equal(t, bob.ID, friends.Friends[0].ID)
	assert.False(t, friends.Friends[0].IsOnline)
}

func TestListUsers(t *testing.T) {
	srv := newTestServer(t, testConfig())
	alice := srv.login(t, "alice")
	srv.login(t, "bob")
	srv.login(t, "carol")

	w := srv.do(t, http.MethodGet, "/api/users", alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Users []domain.UserWithPresence `json:"users"`
	}
	decode(t, w, &body)
	require.Len(t, body.Users, 2)
	for _, u := range body.Users {
		assert.NotEqual(t, alice.ID, u.ID)
	}
}
