package service

import (
	"construction-backend/internal/errors"
	"construction-backend/internal/model"
	"construction-backend/internal/repository/interfaces"

	"golang.org/x/sync/errgroup"
)

const recentProjectCount = 5

// ErrorCounter 提供按错误码统计的请求错误数
type ErrorCounter interface {
	GetErrorCounts() map[errors.ErrorCode]int
}

// DashboardService 汇总各角色看板数据，各项查询并发执行
type DashboardService struct {
	userRepo     interfaces.UserRepository
	projectRepo  interfaces.ProjectRepository
	estimateRepo interfaces.EstimateRepository
	errCounter   ErrorCounter
}

func NewDashboardService(userRepo interfaces.UserRepository, projectRepo interfaces.ProjectRepository, estimateRepo interfaces.EstimateRepository, counter ErrorCounter) *DashboardService {
	return &DashboardService{
		userRepo:     userRepo,
		projectRepo:  projectRepo,
		estimateRepo: estimateRepo,
		errCounter:   counter,
	}
}

// ForViewer 根据角色返回对应的看板
func (s *DashboardService) ForViewer(viewer model.Viewer) (interface{}, error) {
	switch viewer.Role {
	case model.RoleAdmin:
		return s.Admin()
	case model.RoleEngineer:
		return s.Engineer(viewer.UserID)
	case model.RoleOwner:
		return s.Owner(viewer.UserID)
	}
	return nil, errors.New(errors.ErrForbidden, "unknown role")
}

func (s *DashboardService) Admin() (*model.AdminDashboard, error) {
	d := &model.AdminDashboard{}
	var g errgroup.Group

	g.Go(func() (err error) {
		d.UsersByRole, err = s.userRepo.CountByRole()
		return err
	})
	g.Go(func() (err error) {
		d.PendingUsers, err = s.userRepo.CountByStatus(model.StatusPending)
		return err
	})
	g.Go(func() (err error) {
		d.ProjectsByStatus, err = s.projectRepo.CountByStatus(model.ProjectScope{})
		return err
	})
	g.Go(func() (err error) {
		d.TotalEstimates, err = s.estimateRepo.Count()
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to load dashboard", err)
	}

	if s.errCounter != nil {
		d.ErrorCounts = make(map[int]int)
		for code, n := range s.errCounter.GetErrorCounts() {
			d.ErrorCounts[int(code)] = n
		}
	}
	return d, nil
}

func (s *DashboardService) Owner(ownerID int) (*model.OwnerDashboard, error) {
	scope := model.ProjectScope{OwnerID: ownerID}
	d := &model.OwnerDashboard{}
	var g errgroup.Group

	g.Go(func() (err error) {
		d.ProjectsByStatus, err = s.projectRepo.CountByStatus(scope)
		return err
	})
	g.Go(func() (err error) {
		d.TotalBudget, err = s.projectRepo.SumBudget(scope)
		return err
	})
	g.Go(func() (err error) {
		d.TotalEstimatedCost, err = s.estimateRepo.SumLatestTotals(ownerID)
		return err
	})
	g.Go(func() (err error) {
		d.RecentProjects, _, err = s.projectRepo.List(scope, 1, recentProjectCount)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to load dashboard", err)
	}
	return d, nil
}

func (s *DashboardService) Engineer(engineerID int) (*model.EngineerDashboard, error) {
	scope := model.ProjectScope{EngineerID: engineerID}
	d := &model.EngineerDashboard{}
	var g errgroup.Group

	g.Go(func() (err error) {
		d.ProjectsByStatus, err = s.projectRepo.CountByStatus(scope)
		return err
	})
	g.Go(func() (err error) {
		d.OpenStages, err = s.projectRepo.CountOpenStages(engineerID)
		return err
	})
	g.Go(func() (err error) {
		d.RecentProjects, _, err = s.projectRepo.List(scope, 1, recentProjectCount)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to load dashboard", err)
	}
	return d, nil
}
