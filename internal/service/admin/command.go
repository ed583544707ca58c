package admin

import (
	"context"
	"fmt"

	"github.com/oshokin/pv-alarm/internal/config"
	domain "github.com/oshokin/pv-alarm/internal/domain/alarm"
	"github.com/oshokin/pv-alarm/internal/logger"
	"github.com/oshokin/pv-alarm/internal/repository"
	"github.com/oshokin/pv-alarm/internal/repository/document"
	"github.com/oshokin/pv-alarm/internal/service/common"
)

// Service runs administrative operations against one repository.
type Service struct {
	// repo is the configuration storage.
	repo document.Repository
	// actor is recorded in the audit log.
	actor common.Actor
}

// NewService creates a service acting on behalf of actor.
func NewService(repo document.Repository, actor common.Actor) *Service {
	return &Service{
		repo:  repo,
		actor: actor,
	}
}

// Open loads the settings, opens the configured repository and detects the actor.
// The returned close function releases the repository.
func Open(ctx context.Context, configPath string) (*Service, func(), error) {
	settings, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load settings: %w", err)
	}

	actor, err := common.DetectActor()
	if err != nil {
		return nil, nil, fmt.Errorf("detect actor: %w", err)
	}

	openCtx, cancel := context.WithTimeout(ctx, settings.Timeout)
	defer cancel()

	repo, err := repository.Open(openCtx, settings.Repository)
	if err != nil {
		return nil, nil, fmt.Errorf("open repository: %w", err)
	}

	closeRepo := func() {
		if closeErr := repo.Close(context.WithoutCancel(ctx)); closeErr != nil {
			logger.Errorf(ctx, "Failed to close repository: %v", closeErr)
		}
	}

	return NewService(repo, actor), closeRepo, nil
}

// SetGroupEnabled switches a stored group on or off.
func (s *Service) SetGroupEnabled(ctx context.Context, name string, enabled bool) error {
	if err := s.repo.SetGroupEnabled(ctx, name, enabled); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Group state updated", "group", name, "enabled", enabled, "actor", s.actor.String())

	return nil
}

// Groups lists the stored groups.
func (s *Service) Groups(ctx context.Context) ([]document.Group, error) {
	return s.repo.Groups(ctx)
}

// CreateGroup stores a new group; it reports false when the name is taken.
func (s *Service) CreateGroup(ctx context.Context, group document.Group) (bool, error) {
	created, err := s.repo.CreateGroup(ctx, group)
	if err != nil {
		return false, err
	}

	if created {
		logger.InfoKV(ctx, "Group created", "group", group.Name, "actor", s.actor.String())
	}

	return created, nil
}

// CreateEntry validates and stores an entry. Rows that could not be monitored
// are rejected with *alarm.ConfigurationError before touching the repository.
func (s *Service) CreateEntry(ctx context.Context, entry document.Entry) (string, error) {
	entry = entry.Normalize()

	// A throwaway group satisfies the constructor; the real one is resolved at load.
	probe, err := domain.NewEntry(entry.Config(), domain.NewGroup(entry.Group, "", false, nil))
	if err != nil {
		return "", err
	}

	_ = probe.Close()

	id, err := s.repo.CreateEntry(ctx, entry)
	if err != nil {
		return "", err
	}

	logger.InfoKV(ctx, "Entry created", "id", id, "pvname", entry.PVName, "actor", s.actor.String())

	return id, nil
}

// Conditions lists the stored conditions collection.
func (s *Service) Conditions(ctx context.Context) ([]document.Condition, error) {
	return s.repo.Conditions(ctx)
}

// InitializeConditions rewrites the conditions collection from the registry.
func (s *Service) InitializeConditions(ctx context.Context) ([]document.Condition, error) {
	conditions := document.SupportedConditions()
	if err := s.repo.InitializeConditions(ctx, conditions); err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Conditions initialized", "count", len(conditions), "actor", s.actor.String())

	return conditions, nil
}
