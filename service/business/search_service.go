package business

import (
	"context"
	"sort"
	"strings"

	"github.com/pitabwire/frame"

	"github.com/soundvault/service-catalog/service/storage"
	"github.com/soundvault/service-catalog/service/storage/models"
	"github.com/soundvault/service-catalog/service/types"
)

// NewSearchService creates the federated search aggregator. mediaBaseURL
// prefixes the media URLs embedded in song projections.
func NewSearchService(db *storage.Database, mediaBaseURL string) SearchService {
	return &searchService{db: db, mediaBaseURL: mediaBaseURL}
}

type searchService struct {
	db           *storage.Database
	mediaBaseURL string
}

func (ss *searchService) Search(ctx context.Context, query *types.SearchQuery) (*types.SearchResult, error) {
	result := &types.SearchResult{
		Users:     []*types.RankedUser{},
		Songs:     []*types.RankedSong{},
		Playlists: []*types.RankedPlaylist{},
	}

	text := strings.TrimSpace(query.Text)
	if text == "" {
		return result, nil
	}

	searchType := query.Type
	if searchType == "" {
		searchType = types.SearchTypeAll
	}

	var err error
	switch searchType {
	case types.SearchTypeAll:
		result.Users, err = ss.searchUsers(ctx, text)
		if err != nil {
			return nil, err
		}
		result.Songs, err = ss.searchSongs(ctx, text, query.Genre)
		if err != nil {
			return nil, err
		}
		result.Playlists, err = ss.searchPlaylists(ctx, text)
		if err != nil {
			return nil, err
		}
	case types.SearchTypeUsers:
		result.Users, err = ss.searchUsers(ctx, text)
		if err != nil {
			return nil, err
		}
	case types.SearchTypeSongs:
		result.Songs, err = ss.searchSongs(ctx, text, query.Genre)
		if err != nil {
			return nil, err
		}
	case types.SearchTypeGenres:
		result.Songs, err = ss.searchSongs(ctx, text, query.Genre)
		if err != nil {
			return nil, err
		}
	case types.SearchTypePlaylists:
		result.Playlists, err = ss.searchPlaylists(ctx, text)
		if err != nil {
			return nil, err
		}
	case types.SearchTypeScopedUser:
		// Scoping by user happens before ranking, via SongsByUser. Without
		// a user id there is nothing to scope to, so nothing matches.
		return result, nil
	default:
		return nil, &RequestError{Msg: "unknown search type: " + string(searchType)}
	}

	return result, nil
}

func (ss *searchService) SongsByUser(ctx context.Context, userID types.UserID) ([]*types.RankedSong, error) {
	songs, err := ss.db.Songs.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ss.rankSongs(ctx, songs, false)
}

func (ss *searchService) searchUsers(ctx context.Context, text string) ([]*types.RankedUser, error) {
	users, err := ss.db.Users.Search(ctx, text)
	if err != nil {
		return nil, err
	}

	ranked := make([]*types.RankedUser, 0, len(users))
	for _, user := range users {
		total, totalErr := ss.totalListensForUser(ctx, types.UserID(user.GetID()))
		if totalErr != nil {
			return nil, totalErr
		}
		ranked = append(ranked, &types.RankedUser{
			UserView:    *user.ToApi(),
			TotalListen: total,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalListen > ranked[j].TotalListen
	})
	return ranked, nil
}

func (ss *searchService) searchSongs(ctx context.Context, text, genre string) ([]*types.RankedSong, error) {
	songs, err := ss.db.Songs.Search(ctx, text, genre)
	if err != nil {
		return nil, err
	}
	return ss.rankSongs(ctx, songs, true)
}

func (ss *searchService) searchPlaylists(ctx context.Context, text string) ([]*types.RankedPlaylist, error) {
	playlists, err := ss.db.Playlists.Search(ctx, text)
	if err != nil {
		return nil, err
	}

	ranked := make([]*types.RankedPlaylist, 0, len(playlists))
	for _, playlist := range playlists {
		// Favorites playlists are private curation, never search results.
		if playlist.IsFavorite {
			continue
		}

		songs, total, memberErr := rankPlaylistMembers(ctx, ss.db, ss.mediaBaseURL, playlist)
		if memberErr != nil {
			return nil, memberErr
		}
		if len(songs) == 0 {
			continue
		}

		ranked = append(ranked, &types.RankedPlaylist{
			PlaylistView: *playlist.ToApi(songs),
			TotalListen:  total,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalListen > ranked[j].TotalListen
	})
	return ranked, nil
}

// rankPlaylistMembers resolves a playlist's membership rows into ranked
// songs, silently dropping members whose song has since been deleted.
func rankPlaylistMembers(ctx context.Context, db *storage.Database, mediaBaseURL string, playlist *models.Playlist) ([]*types.RankedSong, int64, error) {
	songs := make([]*types.RankedSong, 0, len(playlist.Songs))
	var total int64

	for _, member := range playlist.Songs {
		song, err := db.Songs.GetByID(ctx, types.SongID(member.SongID))
		if err != nil {
			if frame.ErrorIsNoRows(err) {
				continue
			}
			return nil, 0, err
		}

		count, err := db.Listens.CountForSong(ctx, types.SongID(song.GetID()))
		if err != nil {
			return nil, 0, err
		}

		total += count
		songs = append(songs, &types.RankedSong{
			SongView:    *song.ToApi(mediaBaseURL),
			ListenCount: count,
		})
	}

	return songs, total, nil
}

func (ss *searchService) rankSongs(ctx context.Context, songs []*models.Song, sorted bool) ([]*types.RankedSong, error) {
	ranked := make([]*types.RankedSong, 0, len(songs))
	for _, song := range songs {
		count, err := ss.db.Listens.CountForSong(ctx, types.SongID(song.GetID()))
		if err != nil {
			return nil, err
		}
		ranked = append(ranked, &types.RankedSong{
			SongView:    *song.ToApi(ss.mediaBaseURL),
			ListenCount: count,
		})
	}

	if sorted {
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].ListenCount > ranked[j].ListenCount
		})
	}
	return ranked, nil
}

// totalListensForUser sums the listen counts of every song the user owns.
func (ss *searchService) totalListensForUser(ctx context.Context, userID types.UserID) (int64, error) {
	songs, err := ss.db.Songs.GetByUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, song := range songs {
		count, countErr := ss.db.Listens.CountForSong(ctx, types.SongID(song.GetID()))
		if countErr != nil {
			return 0, countErr
		}
		total += count
	}
	return total, nil
}
