package app

import (
	"net/http"
	"strconv"
	"strings"

	"brainjar/internal/model"
	"brainjar/internal/repository"
	"brainjar/internal/util"

	"github.com/gin-gonic/gin"
)

// UserHandler exposes the read-only user directory. User rows are owned by
// the identity collaborator; this service only looks them up.
type UserHandler struct {
	userRepo repository.UserRepository
}

func NewUserHandler(userRepo repository.UserRepository) *UserHandler {
	return &UserHandler{userRepo: userRepo}
}

type userResponse struct {
	User *model.User `json:"user"`
}

type userListResponse struct {
	Users []*model.User `json:"users"`
	Count int           `json:"count"`
}

// GetUser handles fetching a user profile
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		util.BadRequest(c, "User ID is required")
		return
	}

	user, err := h.userRepo.FindByID(id)
	if err != nil {
		util.EngineError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "User fetched successfully", userResponse{User: user})
}

// SearchUsers handles username search
// GET /api/v1/users/search?q=...&limit=20
func (h *UserHandler) SearchUsers(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	keyword := strings.ToLower(strings.TrimSpace(c.Query("q")))
	if keyword == "" {
		util.BadRequest(c, "q query parameter is required")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	users, err := h.userRepo.SearchByUsername(keyword, userID.(string), limit)
	if err != nil {
		util.EngineError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Users fetched successfully",
		userListResponse{Users: users, Count: len(users)})
}
