package controllers

import (
	"context"
	"strings"

	"homestay-registration-backend/bleve/repositories"
	"homestay-registration-backend/db/models"
	"homestay-registration-backend/middleware"
	"homestay-registration-backend/utils"
	"homestay-registration-backend/utils/apperrors"
	"homestay-registration-backend/utils/pagination"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// UserLookup resolves the reviewer behind a token so results can be scoped
// to their district.
type UserLookup interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type SearchController struct {
	Repo  repositories.BleveRepositoryInterface
	Users UserLookup
}

func NewSearchController(repo repositories.BleveRepositoryInterface, users UserLookup) *SearchController {
	return &SearchController{Repo: repo, Users: users}
}

// SearchApplicationsController runs a full-text search over submitted
// applications. Reviewers with a district only see that district.
func (sc *SearchController) SearchApplicationsController(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "User not authenticated",
			"error":   "unauthenticated",
		})
	}

	params := pagination.ParsePaginationParams(c)
	if err := pagination.ValidatePaginationParams(params); err != nil {
		return utils.RespondError(c, err)
	}

	filter := repositories.SearchFilter{
		Query:    params.Filters["q"],
		Status:   models.ApplicationStatus(strings.TrimSpace(params.Filters["status"])),
		Kind:     models.ApplicationKind(strings.TrimSpace(params.Filters["kind"])),
		Page:     params.Page,
		PageSize: params.PageSize,
	}
	if filter.Kind != "" && !filter.Kind.Valid() {
		return utils.RespondError(c, apperrors.Validation("invalid_kind", "Unknown application kind %q", filter.Kind))
	}

	if actor.Role != models.AdminRole {
		user, err := sc.Users.GetUser(c.UserContext(), actor.UserID)
		if err != nil {
			return utils.RespondError(c, err)
		}
		if user.District != nil {
			filter.District = *user.District
		}
	}

	result, err := sc.Repo.SearchApplications(filter)
	if err != nil {
		return utils.RespondError(c, apperrors.Infrastructure("search_failed", err))
	}

	return utils.RespondData(c, fiber.StatusOK, "Search results retrieved",
		pagination.NewPaginatedResponse(c, result.Hits, int64(result.Total), params))
}
