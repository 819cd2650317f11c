package app

import (
	"net/http"
	"strconv"
	"time"

	"brainjar/internal/model"
	"brainjar/internal/service"
	"brainjar/internal/util"
	"brainjar/internal/websocket"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatService service.ChatService
	wsHub       *websocket.Hub
}

func NewChatHandler(chatService service.ChatService, wsHub *websocket.Hub) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		wsHub:       wsHub,
	}
}

type chatMessageResponse struct {
	Message *model.ChatMessage `json:"message"`
}

type conversationResponse struct {
	Messages []*model.ChatMessage `json:"messages"`
	Count    int                  `json:"count"`
}

type unreadCountResponse struct {
	Count int64 `json:"count"`
}

// SendMessage handles sending a direct message; the relationship gate runs
// inside the chat service before anything is stored
// POST /api/v1/chat/messages
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	var req struct {
		ReceiverID string `json:"receiver_id" binding:"required,uuid"`
		Content    string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	msg, err := h.chatService.SendMessage(userID.(string), req.ReceiverID, req.Content)
	if err != nil {
		util.EngineError(c, err)
		return
	}

	// Push to the receiver if they are connected
	if h.wsHub != nil {
		h.wsHub.BroadcastToUser(req.ReceiverID, map[string]interface{}{
			"type":       "chat_message",
			"id":         msg.ID,
			"sender_id":  msg.SenderID,
			"content":    msg.Content,
			"created_at": msg.CreatedAt.Format(time.RFC3339),
		})
	}

	util.SuccessResponse(c, http.StatusCreated, "Message sent successfully",
		chatMessageResponse{Message: msg})
}

// GetConversation handles fetching message history with another user
// GET /api/v1/chat/messages?user_id=...&limit=50&offset=0
func (h *ChatHandler) GetConversation(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	otherUserID := c.Query("user_id")
	if otherUserID == "" {
		util.BadRequest(c, "user_id query parameter is required")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	messages, err := h.chatService.GetConversation(userID.(string), otherUserID, limit, offset)
	if err != nil {
		util.EngineError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Conversation fetched successfully",
		conversationResponse{Messages: messages, Count: len(messages)})
}

// MarkAsRead handles marking a sender's messages as read
// PUT /api/v1/chat/read/:senderID
func (h *ChatHandler) MarkAsRead(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	senderID := c.Param("senderID")
	if senderID == "" {
		util.BadRequest(c, "Sender ID is required")
		return
	}

	if err := h.chatService.MarkAsRead(userID.(string), senderID); err != nil {
		util.EngineError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Messages marked as read", nil)
}

// GetUnreadCount handles fetching the total unread message count
// GET /api/v1/chat/unread/count
func (h *ChatHandler) GetUnreadCount(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	count, err := h.chatService.GetUnreadCount(userID.(string))
	if err != nil {
		util.EngineError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Unread count fetched successfully",
		unreadCountResponse{Count: count})
}
