package repository

import (
	"context"
	"fmt"

	"github.com/oshokin/pv-alarm/internal/config"
	"github.com/oshokin/pv-alarm/internal/repository/document"
	"github.com/oshokin/pv-alarm/internal/repository/file"
	"github.com/oshokin/pv-alarm/internal/repository/mongodb"
)

// Open returns the backend described by settings. Settings must be validated.
func Open(ctx context.Context, settings config.RepositoryConfig) (document.Repository, error) {
	switch settings.Kind {
	case config.RepositoryFile:
		return file.NewRepository(settings.File), nil
	case config.RepositoryMongoDB:
		repo, err := mongodb.Connect(ctx, settings.URI, settings.Database)
		if err != nil {
			return nil, err
		}

		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported repository kind %q", settings.Kind)
	}
}
