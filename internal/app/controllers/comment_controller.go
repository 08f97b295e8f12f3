package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/classhub/internal/app/models/dto"
	"github.com/yigit/classhub/internal/app/services"
	"github.com/yigit/classhub/internal/middleware"
)

// CommentController handles comment endpoints
type CommentController struct {
	commentService services.CommentService
	logger         zerolog.Logger
}

// NewCommentController creates a new CommentController
func NewCommentController(commentService services.CommentService, logger zerolog.Logger) *CommentController {
	return &CommentController{commentService: commentService, logger: logger}
}

// ListComments returns the comments of a post as a one level tree
// @Summary List comments
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param postId query string true "Post ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.CommentResponse}
// @Failure 400 {object} dto.ErrorResponse "postId missing"
// @Failure 404 {object} dto.ErrorResponse "Post not found"
// @Router /comments [get]
func (c *CommentController) ListComments(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	comments, err := c.commentService.ListComments(ctx.Request.Context(), actor, ctx.Query("postId"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(comments, ""))
}

// CreateComment adds a comment or a reply
// @Summary Create comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateCommentRequest true "Comment"
// @Success 201 {object} dto.APIResponse{data=dto.CommentResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid parent"
// @Failure 404 {object} dto.ErrorResponse "Post not found"
// @Router /comments [post]
func (c *CommentController) CreateComment(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	var req dto.CreateCommentRequest
	if !middleware.ValidateRequest(ctx, &req) {
		return
	}

	comment, err := c.commentService.CreateComment(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(comment, "Comment created"))
}

// DeleteComment soft deletes a comment and its replies
// @Summary Delete comment
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Comment ID"
// @Success 200 {object} dto.APIResponse
// @Failure 403 {object} dto.ErrorResponse "Not the author"
// @Router /comments/{id} [delete]
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	if err := c.commentService.DeleteComment(ctx.Request.Context(), actor, ctx.Param("id")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Comment deleted"))
}

// ToggleLike likes a comment, or removes the like
// @Summary Toggle comment like
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Comment ID"
// @Success 200 {object} dto.CommentLikeResponse
// @Failure 404 {object} dto.ErrorResponse "Comment not found"
// @Router /comments/{id}/like [post]
func (c *CommentController) ToggleLike(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	resp, err := c.commentService.ToggleLike(ctx.Request.Context(), actor, ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
