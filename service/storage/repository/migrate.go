package repository

import (
	"context"

	"github.com/pitabwire/frame"

	"github.com/soundvault/service-catalog/service/storage/models"
)

func Migrate(ctx context.Context, svc *frame.Service, migrationPath string) error {
	return svc.MigrateDatastore(ctx, migrationPath,
		&models.User{}, &models.Song{}, &models.Playlist{},
		&models.PlaylistSong{}, &models.ListenEvent{}, &models.CatalogAudit{})
}
