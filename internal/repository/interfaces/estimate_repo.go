package interfaces

import "construction-backend/internal/model"

type EstimateRepository interface {
	Create(estimate *model.Estimate) error
	FindByID(id int) (*model.Estimate, error)
	ListByProject(projectID int) ([]model.Estimate, error)
	Delete(id int) error
	Count() (int, error)
	// SumLatestTotals 业主名下每个项目最近一次估算的总价之和
	SumLatestTotals(ownerID int) (float64, error)
}
