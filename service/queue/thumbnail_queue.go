package queue

import (
	"context"
	"encoding/json"

	"github.com/pitabwire/frame"

	"github.com/soundvault/service-catalog/config"
	"github.com/soundvault/service-catalog/service/queue/thumbnailer"
	"github.com/soundvault/service-catalog/service/storage"
	"github.com/soundvault/service-catalog/service/types"
)

// ThumbnailQueueHandler consumes cover upload notifications and generates
// the configured thumbnail renditions in the background.
type ThumbnailQueueHandler struct {
	service *frame.Service
	db      *storage.Database
	store   storage.Store
}

func NewThumbnailQueueHandler(service *frame.Service, db *storage.Database, store storage.Store) *ThumbnailQueueHandler {
	return &ThumbnailQueueHandler{service: service, db: db, store: store}
}

func (tq *ThumbnailQueueHandler) Handle(ctx context.Context, _ map[string]string, payload []byte) error {
	logger := tq.service.Log(ctx)

	coverPayload := map[string]string{}
	err := json.Unmarshal(payload, &coverPayload)
	if err != nil {
		logger.WithError(err).Warn("discarding undecodable thumbnail job")
		return nil
	}

	songID := coverPayload["song_id"]
	song, err := tq.db.Songs.GetByID(ctx, types.SongID(songID))
	if err != nil {
		if frame.ErrorIsNoRows(err) {
			logger.WithField("song_id", songID).Warn("song vanished before thumbnail generation")
			return nil
		}
		return err
	}

	coverRef := song.BlobFor(types.MediaKindCover)
	if !coverRef.IsPresent() {
		return nil
	}

	cfg := tq.service.Config().(*config.CatalogConfig)

	err = thumbnailer.GenerateCoverThumbnails(
		ctx, cfg.ThumbnailSizes, coverRef.Key, coverRef.Public, cfg.AbsBasePath, tq.store, logger,
	)
	if err != nil {
		logger.WithError(err).Warn("Error generating thumbnails")
	}

	return nil
}
