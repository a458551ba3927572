// internal/handlers/club.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/footfed/licences-backend/internal/services"
	"github.com/footfed/licences-backend/internal/utils"
)

type ClubHandler struct {
	clubService *services.ClubService
}

func NewClubHandler(clubService *services.ClubService) *ClubHandler {
	return &ClubHandler{
		clubService: clubService,
	}
}

// GET /clubs
func (h *ClubHandler) ListClubs(c *gin.Context) {
	clubs, err := h.clubService.ListClubs()
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"clubs": clubs,
	})
}

// GET /clubs/:id
func (h *ClubHandler) GetClub(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	club, err := h.clubService.GetClub(id)
	if err != nil {
		utils.NotFoundResponse(c, "club")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"club": club,
	})
}
