package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/analytics"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no user matches the id.
var ErrNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "user not found")

// UserSummary is the admin roster row with purchase totals.
type UserSummary struct {
	UserDTO
	OrderCount      int   `json:"order_count"`
	TotalSpentCents int64 `json:"total_spent_cents"`
}

type statsProvider interface {
	CustomerStats(ctx context.Context) (map[uuid.UUID]analytics.CustomerStat, error)
}

// Service exposes profile reads and edits plus the admin roster.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*UserDTO, error)
	List(ctx context.Context, search string) ([]UserSummary, error)
}

type service struct {
	repo  *Repository
	stats statsProvider
	now   func() time.Time
}

// NewService builds the users service. stats may be nil, in which case the
// roster is returned without purchase totals.
func NewService(repo *Repository, stats statsProvider) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo, stats: stats, now: time.Now}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "db: load user")
	}
	return FromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*UserDTO, error) {
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be blank")
	}
	if err := s.repo.UpdateProfile(ctx, id, update, s.now().UTC()); err != nil {
		return nil, mapRepoError(err, "db: update profile")
	}
	return s.Get(ctx, id)
}

func (s *service) List(ctx context.Context, search string) ([]UserSummary, error) {
	rows, err := s.repo.List(ctx, search)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list users")
	}

	var stats map[uuid.UUID]analytics.CustomerStat
	if s.stats != nil {
		stats, err = s.stats.CustomerStats(ctx)
		if err != nil {
			return nil, err
		}
	}

	out := make([]UserSummary, 0, len(rows))
	for i := range rows {
		stat := stats[rows[i].ID]
		out = append(out, UserSummary{
			UserDTO:         *FromModel(&rows[i]),
			OrderCount:      stat.OrderCount,
			TotalSpentCents: stat.TotalSpentCents,
		})
	}
	return out, nil
}

func mapRepoError(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
