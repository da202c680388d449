package service

import (
	"construction-backend/internal/errors"
	"construction-backend/internal/estimate"
	"construction-backend/internal/model"
	"construction-backend/internal/repository/interfaces"
	"construction-backend/internal/util"
	"encoding/json"
	stderrors "errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EstimateService 执行各个计算表单，并把结果保存到项目下
type EstimateService struct {
	repo     interfaces.EstimateRepository
	projects *ProjectService
	settings *SettingsService
}

func NewEstimateService(repo interfaces.EstimateRepository, projects *ProjectService, settings *SettingsService) *EstimateService {
	return &EstimateService{repo: repo, projects: projects, settings: settings}
}

// calculationError 把计算输入错误转换为带字段信息的应用错误
func calculationError(err error) error {
	var ie *estimate.InputError
	if stderrors.As(err, &ie) {
		return errors.Wrap(errors.ErrCalculation, ie.Error(), err)
	}
	return errors.Wrap(errors.ErrInternal, "calculation failed", err)
}

func (s *EstimateService) Concrete(in estimate.ConcreteInput) (*estimate.ConcreteResult, error) {
	res, err := estimate.CalculateConcrete(in)
	if err != nil {
		return nil, calculationError(err)
	}
	return res, nil
}

func (s *EstimateService) Steel(in estimate.SteelInput) (*estimate.SteelResult, error) {
	res, err := estimate.CalculateSteel(in)
	if err != nil {
		return nil, calculationError(err)
	}
	return res, nil
}

func (s *EstimateService) Price(in estimate.PriceInput) (*estimate.PriceResult, error) {
	in.Currency = s.currency(in.Currency)
	res, err := estimate.CalculatePrice(in)
	if err != nil {
		return nil, calculationError(err)
	}
	return res, nil
}

func (s *EstimateService) Cost(in estimate.CostInput) (*estimate.CostResult, error) {
	in.Currency = s.currency(in.Currency)
	res, err := estimate.CalculateCost(in)
	if err != nil {
		return nil, calculationError(err)
	}
	return res, nil
}

func (s *EstimateService) SimpleCost(in estimate.SimpleCostInput) (*estimate.SimpleCostResult, error) {
	in.Currency = s.currency(in.Currency)
	res, err := estimate.CalculateSimpleCost(in)
	if err != nil {
		return nil, calculationError(err)
	}
	return res, nil
}

// currency 未填写货币时使用系统默认货币
func (s *EstimateService) currency(c string) string {
	if strings.TrimSpace(c) != "" {
		return c
	}
	settings, err := s.settings.Get()
	if err != nil {
		return model.DefaultSystemSettings().DefaultCurrency
	}
	return settings.DefaultCurrency
}

// run 按类型解析输入并计算，返回结果、总价和货币
func (s *EstimateService) run(kind string, input json.RawMessage) (interface{}, float64, string, error) {
	decode := func(v interface{}) error {
		if err := json.Unmarshal(input, v); err != nil {
			return errors.Wrap(errors.ErrBadRequest, "invalid estimate input", err)
		}
		return nil
	}

	switch kind {
	case model.EstimateConcrete:
		var in estimate.ConcreteInput
		if err := decode(&in); err != nil {
			return nil, 0, "", err
		}
		res, err := s.Concrete(in)
		if err != nil {
			return nil, 0, "", err
		}
		return res, 0, "", nil
	case model.EstimateSteel:
		var in estimate.SteelInput
		if err := decode(&in); err != nil {
			return nil, 0, "", err
		}
		res, err := s.Steel(in)
		if err != nil {
			return nil, 0, "", err
		}
		return res, 0, "", nil
	case model.EstimatePrice:
		var in estimate.PriceInput
		if err := decode(&in); err != nil {
			return nil, 0, "", err
		}
		res, err := s.Price(in)
		if err != nil {
			return nil, 0, "", err
		}
		return res, res.Total, res.Currency, nil
	case model.EstimateCost:
		var in estimate.CostInput
		if err := decode(&in); err != nil {
			return nil, 0, "", err
		}
		res, err := s.Cost(in)
		if err != nil {
			return nil, 0, "", err
		}
		return res, res.Total, res.Price.Currency, nil
	case model.EstimateSimpleCost:
		var in estimate.SimpleCostInput
		if err := decode(&in); err != nil {
			return nil, 0, "", err
		}
		res, err := s.SimpleCost(in)
		if err != nil {
			return nil, 0, "", err
		}
		return res, res.Total, res.Currency, nil
	}
	return nil, 0, "", errors.New(errors.ErrValidation, "unknown estimate kind")
}

// SaveEstimate 重新计算输入并把输入和结果一起保存
func (s *EstimateService) SaveEstimate(viewer model.Viewer, projectID int, kind string, input json.RawMessage) (*model.Estimate, error) {
	util.Logger.Info("开始保存估算",
		zap.Int("project_id", projectID),
		zap.String("kind", kind),
		zap.Int("user_id", viewer.UserID))

	if _, err := s.projects.loadVisible(viewer, projectID); err != nil {
		return nil, err
	}
	if !model.ValidEstimateKind(kind) {
		return nil, errors.New(errors.ErrValidation, "unknown estimate kind")
	}

	result, total, currency, err := s.run(kind, input)
	if err != nil {
		util.Logger.Warn("估算计算失败", zap.Error(err), zap.String("kind", kind))
		return nil, err
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInternal, "failed to encode result", err)
	}
	if currency == "" {
		currency = s.currency("")
	}

	e := &model.Estimate{
		Reference: uuid.NewString(),
		ProjectID: projectID,
		Kind:      kind,
		Input:     input,
		Result:    resultJSON,
		Total:     total,
		Currency:  currency,
		CreatedBy: viewer.UserID,
	}
	if err := s.repo.Create(e); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to save estimate", err)
	}

	util.Logger.Info("估算保存成功", zap.Int("estimate_id", e.ID), zap.String("reference", e.Reference))
	return e, nil
}

func (s *EstimateService) ListEstimates(viewer model.Viewer, projectID int) ([]model.Estimate, error) {
	if _, err := s.projects.loadVisible(viewer, projectID); err != nil {
		return nil, err
	}
	estimates, err := s.repo.ListByProject(projectID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to list estimates", err)
	}
	return estimates, nil
}

func (s *EstimateService) GetEstimate(viewer model.Viewer, id int) (*model.Estimate, error) {
	e, err := s.repo.FindByID(id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to get estimate", err)
	}
	if e == nil {
		return nil, errors.New(errors.ErrEstimateNotFound, "estimate not found")
	}
	if _, err := s.projects.loadVisible(viewer, e.ProjectID); err != nil {
		return nil, err
	}
	return e, nil
}

// DeleteEstimate 创建者、项目业主或管理员可以删除
func (s *EstimateService) DeleteEstimate(viewer model.Viewer, id int) error {
	e, err := s.GetEstimate(viewer, id)
	if err != nil {
		return err
	}
	if e.CreatedBy != viewer.UserID {
		if _, err := s.projects.loadManaged(viewer, e.ProjectID); err != nil {
			return err
		}
	}
	if err := s.repo.Delete(id); err != nil {
		return errors.Wrap(errors.ErrDatabase, "failed to delete estimate", err)
	}
	util.Logger.Info("估算已删除", zap.Int("estimate_id", id), zap.Int("user_id", viewer.UserID))
	return nil
}
