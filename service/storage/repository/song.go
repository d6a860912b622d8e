package repository

import (
	"context"

	"github.com/pitabwire/frame"

	"github.com/soundvault/service-catalog/service/storage/models"
	"github.com/soundvault/service-catalog/service/types"
)

type SongRepository interface {
	GetByID(ctx context.Context, id types.SongID) (*models.Song, error)
	GetByUser(ctx context.Context, userID types.UserID) ([]*models.Song, error)
	List(ctx context.Context) ([]*models.Song, error)
	Search(ctx context.Context, query string, genre string) ([]*models.Song, error)
	Save(ctx context.Context, song *models.Song) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)
}

func NewSongRepository(service *frame.Service) SongRepository {
	songRepo := songRepository{
		service: service,
	}
	return &songRepo
}

type songRepository struct {
	service *frame.Service
}

func (sr *songRepository) GetByID(ctx context.Context, id types.SongID) (*models.Song, error) {
	song := &models.Song{}
	err := sr.service.DB(ctx, true).First(song, " id = ?", string(id)).Error
	if err != nil {
		return nil, err
	}

	return song, nil
}

func (sr *songRepository) GetByUser(ctx context.Context, userID types.UserID) ([]*models.Song, error) {
	songList := make([]*models.Song, 0)
	err := sr.service.DB(ctx, true).
		Where(" user_id = ? ", string(userID)).
		Order("created_at ASC").
		Find(&songList).Error
	if err != nil {
		return nil, err
	}

	return songList, nil
}

func (sr *songRepository) List(ctx context.Context) ([]*models.Song, error) {
	songList := make([]*models.Song, 0)
	err := sr.service.DB(ctx, true).Order("created_at DESC").Find(&songList).Error
	if err != nil {
		return nil, err
	}

	return songList, nil
}

func (sr *songRepository) Search(ctx context.Context, query string, genre string) ([]*models.Song, error) {
	songList := make([]*models.Song, 0)

	tx := sr.service.DB(ctx, true)
	if query != "" {
		tx = tx.Where("title LIKE ?", "%"+query+"%")
	}
	if genre != "" {
		tx = tx.Where("genre = ?", genre)
	}

	err := tx.Order("created_at ASC").Find(&songList).Error
	if err != nil {
		return nil, err
	}

	return songList, nil
}

func (sr *songRepository) Save(ctx context.Context, song *models.Song) error {
	return sr.service.DB(ctx, false).Save(song).Error
}

func (sr *songRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	tx := sr.service.DB(ctx, false).Where("id IN ?", ids).Delete(&models.Song{})
	return tx.RowsAffected, tx.Error
}
