package repository

import (
	"context"
	"time"

	"github.com/pitabwire/frame"

	"github.com/soundvault/service-catalog/service/storage/models"
	"github.com/soundvault/service-catalog/service/types"
)

type PlaylistRepository interface {
	GetByID(ctx context.Context, id types.PlaylistID) (*models.Playlist, error)
	GetByUser(ctx context.Context, userID types.UserID) ([]*models.Playlist, error)
	GetFavorite(ctx context.Context, userID types.UserID) (*models.Playlist, error)
	Search(ctx context.Context, query string) ([]*models.Playlist, error)
	SearchScoped(ctx context.Context, query string, userID types.UserID) ([]*models.Playlist, error)
	Save(ctx context.Context, playlist *models.Playlist) error
	Delete(ctx context.Context, id types.PlaylistID) error
	AddSong(ctx context.Context, id types.PlaylistID, songID types.SongID) error
	RemoveSong(ctx context.Context, id types.PlaylistID, songID types.SongID) error
}

func NewPlaylistRepository(service *frame.Service) PlaylistRepository {
	playlistRepo := playlistRepository{
		service: service,
	}
	return &playlistRepo
}

type playlistRepository struct {
	service *frame.Service
}

func (pr *playlistRepository) GetByID(ctx context.Context, id types.PlaylistID) (*models.Playlist, error) {
	playlist := &models.Playlist{}
	err := pr.service.DB(ctx, true).
		Preload("Songs").
		First(playlist, " id = ?", string(id)).Error
	if err != nil {
		return nil, err
	}

	return playlist, nil
}

func (pr *playlistRepository) GetByUser(ctx context.Context, userID types.UserID) ([]*models.Playlist, error) {
	playlistList := make([]*models.Playlist, 0)
	err := pr.service.DB(ctx, true).
		Preload("Songs").
		Where(" user_id = ? ", string(userID)).
		Order("created_at ASC").
		Find(&playlistList).Error
	if err != nil {
		return nil, err
	}

	return playlistList, nil
}

func (pr *playlistRepository) GetFavorite(ctx context.Context, userID types.UserID) (*models.Playlist, error) {
	playlist := &models.Playlist{}
	err := pr.service.DB(ctx, true).
		Preload("Songs").
		First(playlist, " user_id = ? AND is_favorite = ?", string(userID), true).Error
	if err != nil {
		return nil, err
	}

	return playlist, nil
}

func (pr *playlistRepository) Search(ctx context.Context, query string) ([]*models.Playlist, error) {
	playlistList := make([]*models.Playlist, 0)
	err := pr.service.DB(ctx, true).
		Preload("Songs").
		Where("name LIKE ?", "%"+query+"%").
		Order("created_at ASC").
		Find(&playlistList).Error
	if err != nil {
		return nil, err
	}

	return playlistList, nil
}

func (pr *playlistRepository) SearchScoped(ctx context.Context, query string, userID types.UserID) ([]*models.Playlist, error) {
	playlistList := make([]*models.Playlist, 0)
	err := pr.service.DB(ctx, true).
		Preload("Songs").
		Where("user_id = ? AND name LIKE ?", string(userID), "%"+query+"%").
		Order("created_at ASC").
		Find(&playlistList).Error
	if err != nil {
		return nil, err
	}

	return playlistList, nil
}

func (pr *playlistRepository) Save(ctx context.Context, playlist *models.Playlist) error {
	return pr.service.DB(ctx, false).Save(playlist).Error
}

func (pr *playlistRepository) Delete(ctx context.Context, id types.PlaylistID) error {
	playlist, err := pr.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = pr.service.DB(ctx, false).
		Where("playlist_id = ?", playlist.GetID()).
		Delete(&models.PlaylistSong{}).Error
	if err != nil {
		return err
	}

	return pr.service.DB(ctx, false).Delete(playlist).Error
}

func (pr *playlistRepository) AddSong(ctx context.Context, id types.PlaylistID, songID types.SongID) error {
	entry := &models.PlaylistSong{
		PlaylistID: string(id),
		SongID:     string(songID),
		AddedAt:    time.Now(),
	}
	entry.GenID(ctx)
	return pr.service.DB(ctx, false).Save(entry).Error
}

func (pr *playlistRepository) RemoveSong(ctx context.Context, id types.PlaylistID, songID types.SongID) error {
	return pr.service.DB(ctx, false).
		Where("playlist_id = ? AND song_id = ?", string(id), string(songID)).
		Delete(&models.PlaylistSong{}).Error
}
