package repository

import (
	"context"

	"github.com/pitabwire/frame"

	"github.com/soundvault/service-catalog/service/storage/models"
	"github.com/soundvault/service-catalog/service/types"
)

// ListenRepository is the aggregation source for play counts. CountForSong
// never fails on a song with no recorded listens; it reports zero.
type ListenRepository interface {
	Record(ctx context.Context, event *models.ListenEvent) error
	CountForSong(ctx context.Context, songID types.SongID) (int64, error)
}

func NewListenRepository(service *frame.Service) ListenRepository {
	listenRepo := listenRepository{
		service: service,
	}
	return &listenRepo
}

type listenRepository struct {
	service *frame.Service
}

func (lr *listenRepository) Record(ctx context.Context, event *models.ListenEvent) error {
	return lr.service.DB(ctx, false).Save(event).Error
}

func (lr *listenRepository) CountForSong(ctx context.Context, songID types.SongID) (int64, error) {
	var count int64
	err := lr.service.DB(ctx, true).
		Model(&models.ListenEvent{}).
		Where("song_id = ?", string(songID)).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}
