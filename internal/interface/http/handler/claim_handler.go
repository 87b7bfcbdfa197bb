package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/lostfound-backend/internal/interface/http/dto"
	"github.com/ignatzorin/lostfound-backend/internal/interface/http/response"
	"github.com/ignatzorin/lostfound-backend/internal/usecase/claim"
)

type ClaimHandler struct {
	mintPinUC   *claim.MintPinUseCase
	verifyPinUC *claim.VerifyPinUseCase
}

func NewClaimHandler(mintPinUC *claim.MintPinUseCase, verifyPinUC *claim.VerifyPinUseCase) *ClaimHandler {
	return &ClaimHandler{mintPinUC: mintPinUC, verifyPinUC: verifyPinUC}
}

// MintPin обрабатывает POST /api/items/:id/pin. PIN видит только претендент.
func (h *ClaimHandler) MintPin(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	itemID, err := parseItemID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	pin, err := h.mintPinUC.Execute(c.Request.Context(), itemID, principal.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	response.Success(c, dto.MintPinResponse{ItemID: itemID, Pin: pin.String()})
}

// VerifyPin обрабатывает POST /api/items/:id/verify.
func (h *ClaimHandler) VerifyPin(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	itemID, err := parseItemID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.VerifyPinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректное тело запроса")
		return
	}

	result, err := h.verifyPinUC.Execute(c.Request.Context(), itemID, principal.ID, req.Pin)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.VerifyPinResponse{Resolved: result.Resolved, Reputation: result.Reputation})
}
