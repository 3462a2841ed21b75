package controller

import (
	"errors"
	"net/http"

	"github.com/devradar-app/devradar-backend/config"
	"github.com/devradar-app/devradar-backend/model"
	"github.com/devradar-app/devradar-backend/service"
	"github.com/gin-gonic/gin"
)

type APIController interface {
	GetAccounts(ctx *gin.Context)
	GetAccount(ctx *gin.Context)
}

type apiController struct {
	aggregationService service.AggregationService
	config             config.Config
}

func NewAPIController(config config.Config, aggregationService service.AggregationService) APIController {
	return apiController{
		aggregationService: aggregationService,
		config:             config,
	}
}

func (s apiController) GetAccounts(c *gin.Context) {
	accounts, err := s.aggregationService.GetAccounts(c.Request.Context())

	if err != nil {
		c.JSON(statusForError(err), model.NewAPIError(err))
		return
	}

	c.JSON(http.StatusOK, accounts)
}

func (s apiController) GetAccount(c *gin.Context) {
	username := c.Param("username")

	detail, err := s.aggregationService.GetAccount(c.Request.Context(), username)

	if err != nil {
		c.JSON(statusForError(err), model.NewAPIError(err))
		return
	}

	c.JSON(http.StatusOK, detail)
}

// statusForError map the stable error codes to HTTP statuses
func statusForError(err error) int {
	var upstreamErr *model.UpstreamError

	if !errors.As(err, &upstreamErr) {
		return http.StatusInternalServerError
	}

	switch upstreamErr.Code {
	case model.ErrCodeNotFound:
		return http.StatusNotFound
	case model.ErrCodeRateLimitReached:
		return http.StatusTooManyRequests
	case model.ErrCodeUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
