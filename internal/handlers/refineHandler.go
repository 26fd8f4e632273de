package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/llmgate/promptcoder/internal/utils"
	"github.com/llmgate/promptcoder/models"
	"github.com/llmgate/promptcoder/promptassembler"
)

// Refiner is the part of refine.Service the handlers need.
type Refiner interface {
	RefineRequest(ctx context.Context, request models.RefinePromptRequest) (models.RefinedPrompt, error)
}

type RefineHandler struct {
	refiner Refiner
}

func NewRefineHandler(refiner Refiner) *RefineHandler {
	return &RefineHandler{
		refiner: refiner,
	}
}

func (h *RefineHandler) RefinePrompt(c *gin.Context) {
	var request models.RefinePromptRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.ProcessGenericBadRequest(c)
		return
	}

	refined, err := h.refiner.RefineRequest(c.Request.Context(), request)
	if err != nil {
		if c.Request.Context().Err() != nil {
			// client went away; nobody is reading the response
			c.Abort()
			return
		}
		utils.ProcessRefineError(c, err)
		return
	}

	c.JSON(http.StatusOK, refined)
}

func (h *RefineHandler) AssemblePrompt(c *gin.Context) {
	var request models.AssemblePromptRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.ProcessGenericBadRequest(c)
		return
	}

	c.JSON(http.StatusOK, models.AssemblePromptResponse{
		Prompt: promptassembler.Assemble(request.Fields),
	})
}
