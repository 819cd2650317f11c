package app

import (
	"net/http"

	"brainjar/internal/model"
	"brainjar/internal/service"
	"brainjar/internal/util"

	"github.com/gin-gonic/gin"
)

type CharacterHandler struct {
	characterService service.CharacterService
}

func NewCharacterHandler(characterService service.CharacterService) *CharacterHandler {
	return &CharacterHandler{characterService: characterService}
}

type characterResponse struct {
	Character *model.Character `json:"character"`
}

type avatarResponse struct {
	AvatarURL string `json:"avatar_url"`
}

// GetCharacter handles fetching the acting user's character
// GET /api/v1/characters/me
func (h *CharacterHandler) GetCharacter(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	character, err := h.characterService.GetByUserID(userID.(string))
	if err != nil {
		util.EngineError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Character fetched successfully",
		characterResponse{Character: character})
}

// SaveCharacter handles creating or updating the acting user's character
// PUT /api/v1/characters/me
func (h *CharacterHandler) SaveCharacter(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	var req struct {
		Name              *string  `json:"name" binding:"omitempty,max=100"`
		Bio               *string  `json:"bio" binding:"omitempty,max=500"`
		PersonalityTraits []string `json:"personality_traits" binding:"max=10,dive,min=1,max=50"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	character, err := h.characterService.Save(userID.(string), req.Name, req.Bio, req.PersonalityTraits)
	if err != nil {
		util.EngineError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Character saved successfully",
		characterResponse{Character: character})
}

// UploadAvatar handles avatar image upload
// POST /api/v1/characters/me/avatar
func (h *CharacterHandler) UploadAvatar(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		util.Unauthorized(c, "User not authenticated")
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		util.BadRequest(c, "avatar file is required")
		return
	}
	if fileHeader.Size > 5<<20 {
		util.BadRequest(c, "avatar file must be 5MB or smaller")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.BadRequest(c, "failed to read avatar file")
		return
	}
	defer file.Close()

	url, err := h.characterService.UploadAvatar(c.Request.Context(), userID.(string), file)
	if err != nil {
		util.EngineError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Avatar uploaded successfully",
		avatarResponse{AvatarURL: url})
}
