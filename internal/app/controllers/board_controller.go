package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/classhub/internal/app/models/dto"
	"github.com/yigit/classhub/internal/app/services"
	"github.com/yigit/classhub/internal/middleware"
)

// BoardController handles board endpoints
type BoardController struct {
	boardService services.BoardService
	logger       zerolog.Logger
}

// NewBoardController creates a new BoardController
func NewBoardController(boardService services.BoardService, logger zerolog.Logger) *BoardController {
	return &BoardController{boardService: boardService, logger: logger}
}

// ListBoards lists every board
// @Summary List boards
// @Tags boards
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Board}
// @Router /boards [get]
func (c *BoardController) ListBoards(ctx *gin.Context) {
	boards, err := c.boardService.ListBoards(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(boards, ""))
}

// CreateBoard creates a board, or returns the board that already has the key
// @Summary Create board
// @Tags boards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateBoardRequest true "Board"
// @Success 201 {object} dto.APIResponse{data=models.Board}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse "Admins only"
// @Router /boards [post]
func (c *BoardController) CreateBoard(ctx *gin.Context) {
	var req dto.CreateBoardRequest
	if !middleware.ValidateRequest(ctx, &req) {
		return
	}

	board, err := c.boardService.CreateBoard(ctx.Request.Context(), req.Key, req.Name)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(board, "Board ready"))
}
