package estimate

import (
	"construction-backend/internal/api"
	"construction-backend/internal/errors"
	"construction-backend/internal/estimate"
	"construction-backend/internal/model"
	"encoding/json"

	"github.com/gin-gonic/gin"
)

// EstimateService 计算表单和已保存估算
type EstimateService interface {
	Concrete(in estimate.ConcreteInput) (*estimate.ConcreteResult, error)
	Steel(in estimate.SteelInput) (*estimate.SteelResult, error)
	Price(in estimate.PriceInput) (*estimate.PriceResult, error)
	Cost(in estimate.CostInput) (*estimate.CostResult, error)
	SimpleCost(in estimate.SimpleCostInput) (*estimate.SimpleCostResult, error)
	SaveEstimate(viewer model.Viewer, projectID int, kind string, input json.RawMessage) (*model.Estimate, error)
	ListEstimates(viewer model.Viewer, projectID int) ([]model.Estimate, error)
	GetEstimate(viewer model.Viewer, id int) (*model.Estimate, error)
	DeleteEstimate(viewer model.Viewer, id int) error
}

type EstimateHandler struct {
	estimateService EstimateService
}

func NewEstimateHandler(estimateService EstimateService) *EstimateHandler {
	return &EstimateHandler{estimateService}
}

// calculate 绑定输入并执行一次计算
func calculate[In any, Out any](c *gin.Context, run func(In) (Out, error)) {
	var in In
	if err := c.ShouldBindJSON(&in); err != nil {
		errors.HandleValidationError(c, err)
		return
	}
	res, err := run(in)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, res, "")
}

func (h *EstimateHandler) Concrete(c *gin.Context) {
	calculate(c, h.estimateService.Concrete)
}

func (h *EstimateHandler) Steel(c *gin.Context) {
	calculate(c, h.estimateService.Steel)
}

func (h *EstimateHandler) Price(c *gin.Context) {
	calculate(c, h.estimateService.Price)
}

func (h *EstimateHandler) Cost(c *gin.Context) {
	calculate(c, h.estimateService.Cost)
}

func (h *EstimateHandler) SimpleCost(c *gin.Context) {
	calculate(c, h.estimateService.SimpleCost)
}

// SaveEstimate 在服务端重新计算后保存
func (h *EstimateHandler) SaveEstimate(c *gin.Context) {
	viewer, ok := api.Viewer(c)
	if !ok {
		return
	}
	projectID, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	var body struct {
		Kind  string          `json:"kind" binding:"required"`
		Input json.RawMessage `json:"input" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		errors.HandleValidationError(c, err)
		return
	}

	e, err := h.estimateService.SaveEstimate(viewer, projectID, body.Kind, body.Input)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleCreated(c, e, "Estimate saved")
}

func (h *EstimateHandler) ListEstimates(c *gin.Context) {
	viewer, ok := api.Viewer(c)
	if !ok {
		return
	}
	projectID, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	estimates, err := h.estimateService.ListEstimates(viewer, projectID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	if estimates == nil {
		estimates = []model.Estimate{}
	}
	errors.HandleSuccess(c, estimates, "")
}

func (h *EstimateHandler) GetEstimate(c *gin.Context) {
	viewer, ok := api.Viewer(c)
	if !ok {
		return
	}
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	e, err := h.estimateService.GetEstimate(viewer, id)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, e, "")
}

func (h *EstimateHandler) DeleteEstimate(c *gin.Context) {
	viewer, ok := api.Viewer(c)
	if !ok {
		return
	}
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.estimateService.DeleteEstimate(viewer, id); err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, nil, "Estimate deleted")
}
