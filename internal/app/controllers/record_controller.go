package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cagri/classroom/internal/app/models"
	"github.com/cagri/classroom/internal/app/models/dto"
	"github.com/cagri/classroom/internal/app/services"
	"github.com/cagri/classroom/internal/middleware"
	"github.com/cagri/classroom/internal/pkg/helpers"
)

// RecordController serves the CRUD endpoints for every record kind. The
// handlers are parameterized by kind so one controller covers the whole
// collection surface; the schema layer supplies the per-kind behavior.
type RecordController struct {
	recordService services.RecordService
}

// NewRecordController creates a new RecordController
func NewRecordController(recordService services.RecordService) *RecordController {
	return &RecordController{
		recordService: recordService,
	}
}

// List handles paginated listing of a collection
// @Summary List records
// @Description Retrieves a paginated page of records of the given kind
// @Tags records
// @Accept json
// @Produce json
// @Param page query int false "Page number (1-based)"
// @Param size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.RecordListResponse} "Records retrieved successfully"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /{resource} [get]
func (c *RecordController) List(kind models.Kind) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		page, size := helpers.ParsePaginationParams(ctx)
		offset, limit := helpers.CalculateOffsetLimit(page, size)

		records, total, err := c.recordService.List(ctx, kind, offset, limit)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		if records == nil {
			records = []models.Record{}
		}

		ctx.JSON(http.StatusOK, dto.APIResponse{
			Data: dto.RecordListResponse{
				Items:      records,
				Pagination: helpers.NewPaginationInfo(total, page, size),
			},
			Timestamp: time.Now(),
		})
	}
}

// GetByID handles retrieval of a single record
// @Summary Get record by ID
// @Description Retrieves a single record of the given kind by its ID
// @Tags records
// @Accept json
// @Produce json
// @Param id path int true "Record ID"
// @Success 200 {object} dto.APIResponse "Record retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid record ID"
// @Failure 404 {object} dto.ErrorResponse "Record not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /{resource}/{id} [get]
func (c *RecordController) GetByID(kind models.Kind) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, ok := parseID(ctx)
		if !ok {
			return
		}

		record, err := c.recordService.Get(ctx, kind, id)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}

		ctx.JSON(http.StatusOK, dto.APIResponse{
			Data:      record,
			Timestamp: time.Now(),
		})
	}
}

// Create handles record creation
// @Summary Create a new record
// @Description Validates the submitted fields against the kind's schema and
// @Description creates the record. All validation failures are reported in one
// @Description response.
// @Tags records
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object true "Record fields"
// @Success 201 {object} dto.APIResponse "Record created successfully"
// @Failure 400 {object} dto.ErrorResponse "Validation failed"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 409 {object} dto.ErrorResponse "Record conflicts with an existing one"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /{resource} [post]
func (c *RecordController) Create(kind models.Kind) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		fields, ok := bindFields(ctx)
		if !ok {
			return
		}

		record, err := c.recordService.Create(ctx, kind, fields)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}

		ctx.JSON(http.StatusCreated, dto.APIResponse{
			Data:      record,
			Timestamp: time.Now(),
		})
	}
}

// Update handles partial record updates
// @Summary Update a record
// @Description Validates only the submitted fields and applies them to the
// @Description existing record. Omitted fields keep their stored values.
// @Tags records
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Record ID"
// @Param request body object true "Fields to update"
// @Success 200 {object} dto.APIResponse "Record updated successfully"
// @Failure 400 {object} dto.ErrorResponse "Validation failed"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.ErrorResponse "Record not found"
// @Failure 409 {object} dto.ErrorResponse "Record conflicts with an existing one"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /{resource}/{id} [put]
func (c *RecordController) Update(kind models.Kind) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, ok := parseID(ctx)
		if !ok {
			return
		}
		fields, ok := bindFields(ctx)
		if !ok {
			return
		}

		record, err := c.recordService.Update(ctx, kind, id, fields)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}

		ctx.JSON(http.StatusOK, dto.APIResponse{
			Data:      record,
			Timestamp: time.Now(),
		})
	}
}

// Delete handles record deletion
// @Summary Delete a record
// @Description Deletes the record and all records that depend on it
// @Tags records
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Record ID"
// @Success 200 {object} dto.APIResponse "Record deleted successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid record ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.ErrorResponse "Record not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /{resource}/{id} [delete]
func (c *RecordController) Delete(kind models.Kind) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, ok := parseID(ctx)
		if !ok {
			return
		}

		if err := c.recordService.Delete(ctx, kind, id); err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}

		ctx.JSON(http.StatusOK, dto.APIResponse{
			Data:      gin.H{"message": "Record deleted successfully"},
			Timestamp: time.Now(),
		})
	}
}

// parseID reads the id path parameter, writing a 400 response on failure.
func parseID(ctx *gin.Context) (int64, bool) {
	idStr := ctx.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid record ID")
		errorDetail = errorDetail.WithDetails("Record ID must be a positive number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}

// bindFields decodes the JSON body into a field bundle, writing a 400
// response on malformed input.
func bindFields(ctx *gin.Context) (models.Fields, bool) {
	var fields models.Fields
	if err := ctx.ShouldBindJSON(&fields); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request body")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return nil, false
	}
	return fields, true
}
