package api

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

// Actions accepted by POST /knowledge/action/execute.
const (
	ActionOpenRepo        = "open-repo"
	ActionFetchDeployment = "fetch-deployment"
	ActionShowBuildStatus = "show-build-status"
	ActionQuery           = "query"
)

// ExecuteActionRequest is the request body for executing a knowledge action.
type ExecuteActionRequest struct {
	Action         string `json:"action" example:"open-repo" validate:"required"`
	RepositoryName string `json:"repositoryName,omitempty" example:"ansuz"`
	Environment    string `json:"environment,omitempty" example:"Production"`
	Query          string `json:"query,omitempty" example:"production url"`
}

// Validate checks that the action is present and known, and that repository
// actions name a repository. The returned error matches apperr.ErrValidation.
func (r *ExecuteActionRequest) Validate() error {
	r.Action = strings.TrimSpace(r.Action)
	action := strings.ToLower(r.Action)
	repoAction := action == ActionOpenRepo || action == ActionFetchDeployment || action == ActionShowBuildStatus

	err := validation.ValidateStruct(r,
		validation.Field(&r.Action,
			validation.Required.Error("Action is required"),
			validation.By(knownAction),
		),
		validation.Field(&r.RepositoryName,
			validation.When(repoAction, validation.Required.Error("RepositoryName is required")),
		),
	)
	if err == nil {
		return nil
	}

	var errs validation.Errors
	if errors.As(err, &errs) {
		for _, field := range []string{"action", "repositoryName"} {
			if fe, ok := errs[field]; ok {
				return apperr.Validation(fe.Error())
			}
		}
	}
	return apperr.Validation(err.Error())
}

func knownAction(v any) error {
	s, _ := v.(string)
	switch strings.ToLower(s) {
	case ActionOpenRepo, ActionFetchDeployment, ActionShowBuildStatus, ActionQuery:
		return nil
	}
	return validation.NewError("unknown_action", "Unknown action: "+s)
}

// RepositoryWithInfo pairs a repository name with its knowledge base link.
type RepositoryWithInfo struct {
	Name string                 `json:"name" example:"ansuz" validate:"required"`
	Info *models.RepositoryLink `json:"info" validate:"required"`
}
