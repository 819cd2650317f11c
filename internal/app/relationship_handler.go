package app

import (
	"net/http"

	"brainjar/internal/model"
	"brainjar/internal/service"
	"brainjar/internal/util"

	"github.com/gin-gonic/gin"
)

type RelationshipHandler struct {
	relationshipService service.RelationshipService
	suggestionService   service.SuggestionService
}

func NewRelationshipHandler(
	relationshipService service.RelationshipService,
	suggestionService service.SuggestionService,
) *RelationshipHandler {
	return &RelationshipHandler{
		relationshipService: relationshipService,
		suggestionService:   suggestionService,
	}
}

// Fixed response shapes, one per operation

type relationshipResponse struct {
	Relationship *model.Relationship `json:"relationship"`
}

type relationshipListResponse struct {
	Relationships []*model.Relationship `json:"relationships"`
	Count         int                   `json:"count"`
}

type friendshipStatusResponse struct {
	AreFriends bool `json:"are_friends"`
}

type suggestionListResponse struct {
	Suggestions []*service.Suggestion `json:"suggestions"`
	Count       int                   `json:"count"`
}

// SendRequest handles sending a friend request
// POST /api/v1/relationships/request
func (h *RelationshipHandler) SendRequest(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	var req struct {
		TargetID string `json:"target_id" binding:"required,uuid"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	rel, err := h.relationshipService.SendRequest(userID.(string), req.TargetID)
	if err != nil {
		util.EngineError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusCreated, "Friend request sent successfully",
		relationshipResponse{Relationship: rel})
}

// Accept handles accepting a pending request from the given user
// POST /api/v1/relationships/:userID/accept
func (h *RelationshipHandler) Accept(c *gin.Context) {
	h.respond(c, true)
}

// Decline handles declining a pending request from the given user
// POST /api/v1/relationships/:userID/decline
func (h *RelationshipHandler) Decline(c *gin.Context) {
	h.respond(c, false)
}

func (h *RelationshipHandler) respond(c *gin.Context, accept bool) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	otherUserID := c.Param("userID")
	if otherUserID == "" {
		util.BadRequest(c, "User ID is required")
		return
	}

	rel, err := h.relationshipService.Respond(userID.(string), otherUserID, accept)
	if err != nil {
		util.EngineError(c, err)
		return
	}

	message := "Friend request declined successfully"
	if accept {
		message = "Friend request accepted successfully"
	}
	util.SuccessResponse(c, http.StatusOK, message, relationshipResponse{Relationship: rel})
}

// Remove handles dissolving a friendship with the given user
// DELETE /api/v1/relationships/:userID
func (h *RelationshipHandler) Remove(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	otherUserID := c.Param("userID")
	if otherUserID == "" {
		util.BadRequest(c, "User ID is required")
		return
	}

	if err := h.relationshipService.RemoveFriend(userID.(string), otherUserID); err != nil {
		util.EngineError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Friend removed successfully", nil)
}

// ListFriends handles listing accepted friendships
// GET /api/v1/relationships/friends
func (h *RelationshipHandler) ListFriends(c *gin.Context) {
	h.list(c, h.relationshipService.ListFriends)
}

// ListIncomingPending handles listing requests awaiting the user's response
// GET /api/v1/relationships/pending/incoming
func (h *RelationshipHandler) ListIncomingPending(c *gin.Context) {
	h.list(c, h.relationshipService.ListIncomingPending)
}

// ListOutgoingPending handles listing requests the user has sent
// GET /api/v1/relationships/pending/outgoing
func (h *RelationshipHandler) ListOutgoingPending(c *gin.Context) {
	h.list(c, h.relationshipService.ListOutgoingPending)
}

func (h *RelationshipHandler) list(c *gin.Context, load func(string) ([]*model.Relationship, error)) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	rels, err := load(userID.(string))
	if err != nil {
		util.EngineError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Relationships fetched successfully",
		relationshipListResponse{Relationships: rels, Count: len(rels)})
}

// Status reports whether the acting user and the given user are friends
// GET /api/v1/relationships/status/:userID
func (h *RelationshipHandler) Status(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	otherUserID := c.Param("userID")
	if otherUserID == "" {
		util.BadRequest(c, "User ID is required")
		return
	}

	friends, err := h.relationshipService.AreFriends(userID.(string), otherUserID)
	if err != nil {
		util.EngineError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Friendship status fetched successfully",
		friendshipStatusResponse{AreFriends: friends})
}

// Suggestions handles ranked friend suggestions
// GET /api/v1/relationships/suggestions?limit=10
func (h *RelationshipHandler) Suggestions(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	var query struct {
		Limit int `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	suggestions, err := h.suggestionService.Suggest(userID.(string), query.Limit)
	if err != nil {
		util.EngineError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Suggestions fetched successfully",
		suggestionListResponse{Suggestions: suggestions, Count: len(suggestions)})
}
