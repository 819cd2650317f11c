package service

import (
	"testing"

	"brainjar/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatFixture() (ChatService, RelationshipService, *fakeChatRepo) {
	relRepo := newFakeRelationshipRepo()
	userRepo := newFakeUserRepo(
		testUser(aliceID, "alice", 40, 12),
		testUser(bobID, "bob", 25, 3),
	)
	relService := NewRelationshipService(relRepo, userRepo, nil)
	chatRepo := newFakeChatRepo()
	return NewChatService(chatRepo, userRepo, relService), relService, chatRepo
}

func befriend(t *testing.T, relService RelationshipService, requesterID, targetID string) {
	t.Helper()
	_, err := relService.SendRequest(requesterID, targetID)
	require.NoError(t, err)
	_, err = relService.Respond(targetID, requesterID, true)
	require.NoError(t, err)
}

func TestSendMessageRequiresFriendship(t *testing.T) {
	svc, _, chatRepo := newChatFixture()

	// No relationship at all
	_, err := svc.SendMessage(aliceID, bobID, "hey")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	count, err := chatRepo.GetUnreadCount(bobID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSendMessagePendingIsNotEnough(t *testing.T) {
	svc, relService, chatRepo := newChatFixture()

	_, err := relService.SendRequest(aliceID, bobID)
	require.NoError(t, err)

	_, err = svc.SendMessage(aliceID, bobID, "hey")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	count, err := chatRepo.GetUnreadCount(bobID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSendMessageBetweenFriends(t *testing.T) {
	svc, relService, _ := newChatFixture()
	befriend(t, relService, aliceID, bobID)

	msg, err := svc.SendMessage(aliceID, bobID, "hey")
	require.NoError(t, err)
	assert.Equal(t, aliceID, msg.SenderID)
	assert.Equal(t, bobID, msg.ReceiverID)
	assert.Equal(t, "hey", msg.Content)
	assert.False(t, msg.IsRead)

	// The gate is symmetric: the other side can message back
	_, err = svc.SendMessage(bobID, aliceID, "hi")
	require.NoError(t, err)
}

func TestSendMessageBlockedAfterRemoval(t *testing.T) {
	svc, relService, _ := newChatFixture()
	befriend(t, relService, aliceID, bobID)
	require.NoError(t, relService.RemoveFriend(aliceID, bobID))

	_, err := svc.SendMessage(aliceID, bobID, "hey")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestSendMessageValidation(t *testing.T) {
	svc, relService, _ := newChatFixture()
	befriend(t, relService, aliceID, bobID)

	_, err := svc.SendMessage(aliceID, bobID, "")
	assert.ErrorIs(t, err, apperr.ErrInvalidRequest)

	_, err = svc.SendMessage(aliceID, aliceID, "hey")
	assert.ErrorIs(t, err, apperr.ErrInvalidRequest)

	_, err = svc.SendMessage(aliceID, "9f00aabb-0000-4000-8000-444444444444", "hey")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestConversationAndUnreadFlow(t *testing.T) {
	svc, relService, _ := newChatFixture()
	befriend(t, relService, aliceID, bobID)

	_, err := svc.SendMessage(aliceID, bobID, "first")
	require.NoError(t, err)
	_, err = svc.SendMessage(bobID, aliceID, "second")
	require.NoError(t, err)
	_, err = svc.SendMessage(aliceID, bobID, "third")
	require.NoError(t, err)

	messages, err := svc.GetConversation(aliceID, bobID, 50, 0)
	require.NoError(t, err)
	assert.Len(t, messages, 3)

	count, err := svc.GetUnreadCount(bobID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, svc.MarkAsRead(bobID, aliceID))

	count, err = svc.GetUnreadCount(bobID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
