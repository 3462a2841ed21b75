package service

import (
	"context"

	"github.com/devradar-app/devradar-backend/model"

	log "github.com/sirupsen/logrus"
)

type BudgetGuard interface {
	CheckBudget(ctx context.Context, minRequired int) (*model.RateBudget, error)
}

type budgetGuard struct {
	githubService GithubService
}

func NewBudgetGuard(githubService GithubService) BudgetGuard {
	return budgetGuard{
		githubService: githubService,
	}
}

// CheckBudget issue a fresh budget query and deny when the remaining call count
// is below the given minimum. the minimum must cover the worst case of the gated
// operation so it is never started and then starved halfway through
func (g budgetGuard) CheckBudget(ctx context.Context, minRequired int) (*model.RateBudget, error) {
	budget, err := g.githubService.GetRateBudget(ctx)

	if err != nil {
		return nil, err
	}

	if budget.Remaining < minRequired {
		log.WithFields(log.Fields{
			"remaining": budget.Remaining,
			"required":  minRequired,
			"resetAt":   budget.ResetAt,
		}).Warning("not enought remaining requests on github budget for this operation")

		resetAt := budget.ResetAt
		remaining := budget.Remaining
		return nil, model.NewRateLimitError(&resetAt, &remaining)
	}

	return budget, nil
}
