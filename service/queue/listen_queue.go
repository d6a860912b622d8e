package queue

import (
	"context"
	"encoding/json"

	"github.com/pitabwire/util"

	"github.com/soundvault/service-catalog/service/storage"
	"github.com/soundvault/service-catalog/service/storage/models"
)

// ListenQueueHandler consumes listen events published by the API and
// persists them. Malformed messages are dropped rather than redelivered.
type ListenQueueHandler struct {
	db *storage.Database
}

func NewListenQueueHandler(db *storage.Database) *ListenQueueHandler {
	return &ListenQueueHandler{db: db}
}

func (lq *ListenQueueHandler) Handle(ctx context.Context, _ map[string]string, payload []byte) error {
	logger := util.Log(ctx)

	listenPayload := map[string]string{}
	err := json.Unmarshal(payload, &listenPayload)
	if err != nil {
		logger.WithError(err).Warn("discarding undecodable listen event")
		return nil
	}

	songID := listenPayload["song_id"]
	if songID == "" {
		logger.Warn("discarding listen event without a song id")
		return nil
	}

	event := &models.ListenEvent{
		SongID: songID,
		UserID: listenPayload["user_id"],
	}
	event.GenID(ctx)

	return lq.db.Listens.Record(ctx, event)
}
