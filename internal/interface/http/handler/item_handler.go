package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/lostfound-backend/internal/domain/repository"
	"github.com/ignatzorin/lostfound-backend/internal/interface/http/dto"
	"github.com/ignatzorin/lostfound-backend/internal/interface/http/response"
	"github.com/ignatzorin/lostfound-backend/internal/pkg/apperror"
	"github.com/ignatzorin/lostfound-backend/internal/usecase/item"
)

type ItemHandler struct {
	createUC      *item.CreateItemUseCase
	getUC         *item.GetItemUseCase
	listUC        *item.ListItemsUseCase
	attachImageUC *item.AttachImageUseCase
}

func NewItemHandler(
	createUC *item.CreateItemUseCase,
	getUC *item.GetItemUseCase,
	listUC *item.ListItemsUseCase,
	attachImageUC *item.AttachImageUseCase,
) *ItemHandler {
	return &ItemHandler{
		createUC:      createUC,
		getUC:         getUC,
		listUC:        listUC,
		attachImageUC: attachImageUC,
	}
}

// CreateItem обрабатывает POST /api/items.
func (h *ItemHandler) CreateItem(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректное тело запроса")
		return
	}

	created, err := h.createUC.Execute(c.Request.Context(), principal, item.CreateItemInput{
		Title:       req.Title,
		Type:        req.Type,
		Location:    req.Location,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToItemResponse(created))
}

// ListItems обрабатывает GET /api/items.
func (h *ItemHandler) ListItems(c *gin.Context) {
	filter := repository.ItemFilter{
		Type:   c.Query("type"),
		Status: c.Query("status"),
		Limit:  parseIntQuery(c, "limit", 0),
		Offset: parseIntQuery(c, "offset", 0),
	}

	page, err := h.listUC.Execute(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = len(page.Items)
	}
	response.Paginated(c, dto.ToItemResponses(page.Items), page.Total, limit, filter.Offset)
}

// GetItem обрабатывает GET /api/items/:id.
func (h *ItemHandler) GetItem(c *gin.Context) {
	itemID, err := parseItemID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	found, err := h.getUC.Execute(c.Request.Context(), itemID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToItemResponse(found))
}

// UploadImage обрабатывает POST /api/items/:id/image (multipart, поле file).
func (h *ItemHandler) UploadImage(c *gin.Context) {
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

	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "поле file обязательно")
		return
	}

	src, err := file.Open()
	if err != nil {
		response.Error(c, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось открыть файл"))
		return
	}
	defer src.Close()

	updated, err := h.attachImageUC.Execute(c.Request.Context(), itemID, principal.ID, file.Filename, src)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToItemResponse(updated))
}
