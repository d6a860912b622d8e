package business

import (
	"context"

	"github.com/pitabwire/frame"

	"github.com/soundvault/service-catalog/service/storage"
	"github.com/soundvault/service-catalog/service/storage/models"
	"github.com/soundvault/service-catalog/service/types"
)

const (
	favoritePlaylistName = "Favorite"
	favoritePlaylistDesc = "Your favorite songs"
)

// NewPlaylistService creates the playlist curation service.
func NewPlaylistService(db *storage.Database, mediaBaseURL string) PlaylistService {
	return &playlistService{db: db, mediaBaseURL: mediaBaseURL}
}

type playlistService struct {
	db           *storage.Database
	mediaBaseURL string
}

func (ps *playlistService) GetAll(ctx context.Context, userID types.UserID) ([]*types.RankedPlaylist, error) {
	playlists, err := ps.db.Playlists.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ps.project(ctx, playlists)
}

func (ps *playlistService) GetDetail(ctx context.Context, id types.PlaylistID) (*types.RankedPlaylist, error) {
	playlist, err := ps.db.Playlists.GetByID(ctx, id)
	if err != nil {
		if frame.ErrorIsNoRows(err) {
			return nil, &NotFoundError{Kind: "Playlist"}
		}
		return nil, err
	}
	return ps.projectOne(ctx, playlist)
}

// GetFavorite returns the user's favorites playlist, creating it on first
// access so every account always has exactly one.
func (ps *playlistService) GetFavorite(ctx context.Context, userID types.UserID) (*types.RankedPlaylist, error) {
	playlist, err := ps.db.Playlists.GetFavorite(ctx, userID)
	if err != nil {
		if !frame.ErrorIsNoRows(err) {
			return nil, err
		}

		playlist = &models.Playlist{
			UserID:     string(userID),
			Name:       favoritePlaylistName,
			Desc:       favoritePlaylistDesc,
			IsFavorite: true,
		}
		playlist.GenID(ctx)
		if err = ps.db.Playlists.Save(ctx, playlist); err != nil {
			return nil, err
		}
	}
	return ps.projectOne(ctx, playlist)
}

func (ps *playlistService) Create(ctx context.Context, userID types.UserID, name, desc string) (*types.PlaylistView, error) {
	if name == "" {
		return nil, &RequestError{Msg: "name is required"}
	}
	if desc == "" {
		desc = ps.defaultDesc(ctx, userID)
	}

	playlist := &models.Playlist{
		UserID: string(userID),
		Name:   name,
		Desc:   desc,
	}
	playlist.GenID(ctx)

	if err := ps.db.Playlists.Save(ctx, playlist); err != nil {
		return nil, err
	}
	return playlist.ToApi(nil), nil
}

func (ps *playlistService) Edit(ctx context.Context, id types.PlaylistID, userID types.UserID, name, desc string) error {
	playlist, err := ps.owned(ctx, id, userID)
	if err != nil {
		return err
	}

	if name != "" {
		playlist.Name = name
	}
	playlist.Desc = desc
	return ps.db.Playlists.Save(ctx, playlist)
}

func (ps *playlistService) Delete(ctx context.Context, id types.PlaylistID) error {
	playlist, err := ps.db.Playlists.GetByID(ctx, id)
	if err != nil {
		if frame.ErrorIsNoRows(err) {
			return &NotFoundError{Kind: "Playlist"}
		}
		return err
	}

	if playlist.IsFavorite {
		return &ForbiddenError{Msg: "the favorites playlist cannot be deleted"}
	}
	return ps.db.Playlists.Delete(ctx, id)
}

func (ps *playlistService) AddSong(ctx context.Context, id types.PlaylistID, userID types.UserID, songID types.SongID) error {
	if _, err := ps.owned(ctx, id, userID); err != nil {
		return err
	}

	if _, err := ps.db.Songs.GetByID(ctx, songID); err != nil {
		if frame.ErrorIsNoRows(err) {
			return &NotFoundError{Kind: "Song"}
		}
		return err
	}
	return ps.db.Playlists.AddSong(ctx, id, songID)
}

// AddSongNewPlaylist creates a playlist named after the song and adds the
// song to it, for the client flow that files a song without picking a
// playlist first.
func (ps *playlistService) AddSongNewPlaylist(ctx context.Context, userID types.UserID, songID types.SongID) (*types.PlaylistView, error) {
	song, err := ps.db.Songs.GetByID(ctx, songID)
	if err != nil {
		if frame.ErrorIsNoRows(err) {
			return nil, &NotFoundError{Kind: "Song"}
		}
		return nil, err
	}

	playlist := &models.Playlist{
		UserID: string(userID),
		Name:   song.Title,
		Desc:   ps.defaultDesc(ctx, userID),
	}
	playlist.GenID(ctx)

	if err = ps.db.Playlists.Save(ctx, playlist); err != nil {
		return nil, err
	}
	if err = ps.db.Playlists.AddSong(ctx, types.PlaylistID(playlist.GetID()), songID); err != nil {
		return nil, err
	}
	return playlist.ToApi(nil), nil
}

// defaultDesc composes the description used when a client supplies none.
func (ps *playlistService) defaultDesc(ctx context.Context, userID types.UserID) string {
	user, err := ps.db.Users.GetByID(ctx, userID)
	if err != nil {
		return "Playlist"
	}
	return "Playlist - " + user.Name
}

func (ps *playlistService) RemoveSong(ctx context.Context, id types.PlaylistID, songID types.SongID) error {
	if _, err := ps.db.Playlists.GetByID(ctx, id); err != nil {
		if frame.ErrorIsNoRows(err) {
			return &NotFoundError{Kind: "Playlist"}
		}
		return err
	}
	return ps.db.Playlists.RemoveSong(ctx, id, songID)
}

func (ps *playlistService) SearchScoped(ctx context.Context, userID types.UserID, query string) ([]*types.RankedPlaylist, error) {
	playlists, err := ps.db.Playlists.SearchScoped(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return ps.project(ctx, playlists)
}

func (ps *playlistService) owned(ctx context.Context, id types.PlaylistID, userID types.UserID) (*models.Playlist, error) {
	playlist, err := ps.db.Playlists.GetByID(ctx, id)
	if err != nil {
		if frame.ErrorIsNoRows(err) {
			return nil, &NotFoundError{Kind: "Playlist"}
		}
		return nil, err
	}

	if playlist.UserID != string(userID) {
		return nil, &ForbiddenError{Msg: "playlist belongs to another user"}
	}
	return playlist, nil
}

func (ps *playlistService) project(ctx context.Context, playlists []*models.Playlist) ([]*types.RankedPlaylist, error) {
	views := make([]*types.RankedPlaylist, 0, len(playlists))
	for _, playlist := range playlists {
		view, err := ps.projectOne(ctx, playlist)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (ps *playlistService) projectOne(ctx context.Context, playlist *models.Playlist) (*types.RankedPlaylist, error) {
	songs, total, err := rankPlaylistMembers(ctx, ps.db, ps.mediaBaseURL, playlist)
	if err != nil {
		return nil, err
	}
	return &types.RankedPlaylist{
		PlaylistView: *playlist.ToApi(songs),
		TotalListen:  total,
	}, nil
}
