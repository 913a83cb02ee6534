package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"wedge-matrix/internal/domain"
	"wedge-matrix/internal/service"
)

const downloadFilename = "wedge-matrix.pdf"

// WedgeMatrixHandler expone el CRUD de matrices del usuario autenticado.
type WedgeMatrixHandler struct {
	logger     *zap.Logger
	matrixServ *service.WedgeMatrixService
}

func NewWedgeMatrixHandler(logger *zap.Logger, matrixServ *service.WedgeMatrixService) *WedgeMatrixHandler {
	useJSONFieldNames()
	return &WedgeMatrixHandler{
		logger:     logger,
		matrixServ: matrixServ,
	}
}

type createWedgeMatrixRequest struct {
	Label *string `json:"label" binding:"omitempty,max=255"`
}

type yardageCellRequest struct {
	CarryValue *float64 `json:"carry_value" binding:"omitempty,min=0"`
	TotalValue *float64 `json:"total_value" binding:"omitempty,min=0"`
}

type updateWedgeMatrixRequest struct {
	Label                    *string                 `json:"label" binding:"omitempty,max=255"`
	NumberOfRows             *int                    `json:"number_of_rows" binding:"omitempty,min=1,max=6"`
	NumberOfColumns          *int                    `json:"number_of_columns" binding:"omitempty,min=1,max=4"`
	ColumnHeaders            []string                `json:"column_headers" binding:"omitempty,min=1,max=4,dive,required,max=255"`
	ClubLabels               []string                `json:"club_labels" binding:"omitempty,min=1,max=6,dive,oneof=LW SW GW AW UW PW"`
	SelectedRowDisplayOption *string                 `json:"selected_row_display_option" binding:"omitempty,oneof=Both Carry Total"`
	YardageValues            [][]*yardageCellRequest `json:"yardage_values" binding:"omitempty,min=1,max=6,dive,min=1,max=4,dive,required"`
}

func (r updateWedgeMatrixRequest) toPatch() domain.WedgeMatrixPatch {
	patch := domain.WedgeMatrixPatch{
		Label:                    r.Label,
		NumberOfRows:             r.NumberOfRows,
		NumberOfColumns:          r.NumberOfColumns,
		ColumnHeaders:            r.ColumnHeaders,
		ClubLabels:               r.ClubLabels,
		SelectedRowDisplayOption: r.SelectedRowDisplayOption,
	}
	if r.YardageValues != nil {
		grid := make([][]domain.YardageCell, len(r.YardageValues))
		for i, row := range r.YardageValues {
			grid[i] = make([]domain.YardageCell, len(row))
			for j, cell := range row {
				if cell != nil {
					grid[i][j] = domain.YardageCell{CarryValue: cell.CarryValue, TotalValue: cell.TotalValue}
				}
			}
		}
		patch.YardageValues = grid
	}
	return patch
}

// Index maneja GET /wedge-matrix.
func (h *WedgeMatrixHandler) Index(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		abortUnauthenticated(c)
		return
	}
	matrices, err := h.matrixServ.List(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Unexpected error while fetching wedge matrices"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"wedge_matrices": matrices})
}

// Store maneja POST /wedge-matrix.
func (h *WedgeMatrixHandler) Store(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		abortUnauthenticated(c)
		return
	}
	var req createWedgeMatrixRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	matrix, err := h.matrixServ.Create(c.Request.Context(), *user, req.Label)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWedgeMatrixLimitReached):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Wedge matrix limit reached"})
		case errors.Is(err, service.ErrCouldNotCreateWedgeMatrix):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Could not create wedge matrix"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Unexpected server error while creating wedge matrix"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"wedge_matrix": matrix})
}

// Update maneja PUT /wedge-matrix/:id. La pertenencia se valida antes que el body.
func (h *WedgeMatrixHandler) Update(c *gin.Context) {
	matrix, ok := h.authorizedMatrix(c)
	if !ok {
		return
	}
	var req updateWedgeMatrixRequest
	if !bindJSON(c, &req) {
		return
	}

	if _, err := h.matrixServ.Update(c.Request.Context(), matrix, req.toPatch()); err != nil {
		switch {
		case errors.Is(err, service.ErrWedgeMatrixNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Wedge matrix not found"})
		case errors.Is(err, service.ErrCouldNotUpdateWedgeMatrix):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Could not update wedge matrix"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Unexpected server error while updating wedge matrix"})
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// Destroy maneja DELETE /wedge-matrix/:id.
func (h *WedgeMatrixHandler) Destroy(c *gin.Context) {
	matrix, ok := h.authorizedMatrix(c)
	if !ok {
		return
	}

	if err := h.matrixServ.Delete(c.Request.Context(), matrix); err != nil {
		switch {
		case errors.Is(err, service.ErrCannotDeleteLastWedgeMatrix):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Cannot delete the last wedge matrix"})
		case errors.Is(err, service.ErrWedgeMatrixNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Wedge matrix not found"})
		case errors.Is(err, service.ErrCouldNotDeleteWedgeMatrix):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Could not delete wedge matrix"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Unexpected server error while deleting wedge matrix"})
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// Download maneja GET /wedge-matrix/:id/download.
func (h *WedgeMatrixHandler) Download(c *gin.Context) {
	matrix, ok := h.authorizedMatrix(c)
	if !ok {
		return
	}

	doc, err := h.matrixServ.Download(c.Request.Context(), matrix)
	if err != nil {
		if errors.Is(err, service.ErrCouldNotDownloadWedgeMatrix) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Could not download wedge matrix"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Unexpected server error while downloading wedge matrix"})
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+downloadFilename)
	c.Data(http.StatusOK, "application/pdf", doc)
}

// authorizedMatrix carga la matriz del path y exige que pertenezca al usuario autenticado.
func (h *WedgeMatrixHandler) authorizedMatrix(c *gin.Context) (domain.WedgeMatrix, bool) {
	user, ok := CurrentUser(c)
	if !ok {
		abortUnauthenticated(c)
		return domain.WedgeMatrix{}, false
	}
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Wedge matrix not found"})
		return domain.WedgeMatrix{}, false
	}

	matrix, err := h.matrixServ.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrWedgeMatrixNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Wedge matrix not found"})
			return domain.WedgeMatrix{}, false
		}
		h.logger.Error("load wedge matrix failed", zap.Error(err), zap.String("wedge_matrix_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Unexpected server error"})
		return domain.WedgeMatrix{}, false
	}
	if !domain.CanAccess(user, matrix) {
		c.JSON(http.StatusForbidden, gin.H{"message": "This action is unauthorized."})
		return domain.WedgeMatrix{}, false
	}
	return matrix, true
}
