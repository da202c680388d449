package interfaces

import "construction-backend/internal/model"

type ProjectRepository interface {
	Create(project *model.Project) error
	FindByID(id int) (*model.Project, error)
	Update(project *model.Project) error
	UpdateStatus(id int, from, to string) error
	AssignEngineer(projectID, engineerID int) error
	Delete(id int) error
	List(scope model.ProjectScope, page, pageSize int) ([]model.Project, int, error)
	CountByStatus(scope model.ProjectScope) (map[string]int, error)
	SumBudget(scope model.ProjectScope) (float64, error)

	CreateStage(stage *model.ProjectStage) error
	FindStage(id int) (*model.ProjectStage, error)
	ListStages(projectID int) ([]model.ProjectStage, error)
	UpdateStageStatus(id int, status string) error
	CountOpenStages(engineerID int) (int, error)

	CreateDocument(doc *model.ProjectDocument) error
	ListDocuments(projectID int) ([]model.ProjectDocument, error)
}
