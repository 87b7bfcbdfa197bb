package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/lostfound-backend/internal/interface/http/dto"
	"github.com/ignatzorin/lostfound-backend/internal/interface/http/response"
	"github.com/ignatzorin/lostfound-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lostfound-backend/internal/usecase/messaging"
)

type MessagingHandler struct {
	postMessageUC   *messaging.PostMessageUseCase
	getThreadUC     *messaging.GetThreadUseCase
	getThreadWithUC *messaging.GetThreadWithUseCase
}

func NewMessagingHandler(
	postMessageUC *messaging.PostMessageUseCase,
	getThreadUC *messaging.GetThreadUseCase,
	getThreadWithUC *messaging.GetThreadWithUseCase,
) *MessagingHandler {
	return &MessagingHandler{
		postMessageUC:   postMessageUC,
		getThreadUC:     getThreadUC,
		getThreadWithUC: getThreadWithUC,
	}
}

// PostMessage обрабатывает POST /api/items/:id/messages.
func (h *MessagingHandler) PostMessage(c *gin.Context) {
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

	var req dto.PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректное тело запроса")
		return
	}

	receiverID, err := uuid.Parse(req.ReceiverID)
	if err != nil {
		response.Error(c, apperror.New(apperror.ErrCodeValidation, "некорректный receiver_id"))
		return
	}

	msg, err := h.postMessageUC.Execute(c.Request.Context(), itemID, principal.ID, receiverID, req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToMessageResponse(msg))
}

// GetThread обрабатывает GET /api/items/:id/thread.
func (h *MessagingHandler) GetThread(c *gin.Context) {
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

	view, err := h.getThreadUC.Execute(c.Request.Context(), itemID, principal.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToThreadResponse(view))
}

// GetThreadWith обрабатывает GET /api/items/:id/thread/:otherUserId.
func (h *MessagingHandler) GetThreadWith(c *gin.Context) {
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

	otherUserID, err := uuid.Parse(c.Param("otherUserId"))
	if err != nil {
		response.Error(c, apperror.ErrUserNotFound)
		return
	}

	messages, err := h.getThreadWithUC.ExecuteForItemOwner(c.Request.Context(), itemID, principal.ID, otherUserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToMessageResponses(messages))
}
