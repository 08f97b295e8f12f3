package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/classhub/internal/app/models/dto"
	"github.com/yigit/classhub/internal/app/services"
	"github.com/yigit/classhub/internal/middleware"
)

// ReactionController handles like and dislike clicks on posts
type ReactionController struct {
	reactionService services.ReactionService
	logger          zerolog.Logger
}

// NewReactionController creates a new ReactionController
func NewReactionController(reactionService services.ReactionService, logger zerolog.Logger) *ReactionController {
	return &ReactionController{reactionService: reactionService, logger: logger}
}

// React records a like or dislike click. Clicking the current reaction again
// clears it; clicking the other one switches sides.
// @Summary React to a post
// @Tags reactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Param request body dto.ReactionRequest true "Reaction"
// @Success 200 {object} dto.ReactionResponse
// @Failure 400 {object} dto.ErrorResponse "Missing userId or isLike"
// @Failure 401 {object} dto.ErrorResponse "Not authenticated"
// @Failure 403 {object} dto.ErrorResponse "userId is not the session user"
// @Failure 404 {object} dto.ErrorResponse "Post not found"
// @Router /posts/{id}/like [post]
func (c *ReactionController) React(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	var req dto.ReactionRequest
	if !middleware.ValidateRequest(ctx, &req) {
		return
	}

	state, err := c.reactionService.React(ctx.Request.Context(), actor, ctx.Param("id"), req.UserID, *req.IsLike)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewReactionResponse(state))
}
