package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Project is one tracked project row.
type Project struct {
	ID          int64
	Name        string
	Description string
	OwnerEmail  string
	Status      string
	Budget      decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProjectBinding is the remote backend's answer to a project lookup for a
// signed-in email, used to scope the project chat surface.
type ProjectBinding struct {
	ProjectID       string `json:"project_id"`
	ProjectName     string `json:"project_name"`
	FullProjectInfo string `json:"full_project_info"`
}
