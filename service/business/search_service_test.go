package business

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundvault/service-catalog/service/storage/models"
	"github.com/soundvault/service-catalog/service/types"
)

const testBaseURL = "http://media.test"

func seedCatalogSong(f *fixtures, id, title, genre, userID string, listens int64) *models.Song {
	song := &models.Song{
		UserID:   userID,
		Title:    title,
		Genre:    genre,
		Public:   true,
		AudioKey: "a/" + id + "/content",
	}
	song.ID = id
	f.songs.songs = append(f.songs.songs, song)
	f.listens.counts[id] = listens
	return song
}

func seedUser(f *fixtures, id, name, email string) *models.User {
	user := &models.User{Name: name, Email: email}
	user.ID = id
	f.users.users[id] = user
	return user
}

func seedPlaylist(f *fixtures, id, name, userID string, favorite bool, songIDs ...string) *models.Playlist {
	playlist := &models.Playlist{
		UserID:     userID,
		Name:       name,
		IsFavorite: favorite,
	}
	playlist.ID = id
	for _, songID := range songIDs {
		playlist.Songs = append(playlist.Songs, &models.PlaylistSong{PlaylistID: id, SongID: songID})
	}
	f.playlists.playlists = append(f.playlists.playlists, playlist)
	return playlist
}

func TestSearchEmptyTextTouchesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixtures()
	seedCatalogSong(f, "s1", "night drive", "rock", "u1", 3)

	service := NewSearchService(f.db, testBaseURL)

	for _, text := range []string{"", "   "} {
		result, err := service.Search(ctx, &types.SearchQuery{Text: text, Type: types.SearchTypeAll})
		require.NoError(t, err)
		assert.True(t, result.IsEmpty())
		assert.NotNil(t, result.Users)
		assert.NotNil(t, result.Songs)
		assert.NotNil(t, result.Playlists)
	}

	assert.Zero(t, f.songs.searchCalls)
	assert.Zero(t, f.users.searchCalls)
	assert.Zero(t, f.playlists.searchCalls)
	assert.Zero(t, f.listens.countCalls)
}

func TestSearchSongsRankedByListens(t *testing.T) {
	ctx := context.Background()
	f := newFixtures()
	seedCatalogSong(f, "s1", "night drive", "rock", "u1", 3)
	seedCatalogSong(f, "s2", "night train", "jazz", "u1", 12)
	seedCatalogSong(f, "s3", "night owl", "rock", "u2", 7)
	seedCatalogSong(f, "s4", "daylight", "rock", "u2", 100)

	service := NewSearchService(f.db, testBaseURL)

	result, err := service.Search(ctx, &types.SearchQuery{Text: "night", Type: types.SearchTypeSongs})
	require.NoError(t, err)

	require.Len(t, result.Songs, 3)
	assert.Equal(t, "s2", result.Songs[0].ID)
	assert.Equal(t, int64(12), result.Songs[0].ListenCount)
	assert.Equal(t, "s3", result.Songs[1].ID)
	assert.Equal(t, "s1", result.Songs[2].ID)

	assert.Empty(t, result.Users)
	assert.Empty(t, result.Playlists)

	// Media URLs come from present blobs only.
	assert.Equal(t, testBaseURL+"/api/songs/s2/audio", result.Songs[0].AudioURL)
	assert.Empty(t, result.Songs[0].VideoURL)
}

func TestSearchRankingIsStableOnTies(t *testing.T) {
	ctx := context.Background()
	f := newFixtures()
	seedCatalogSong(f, "s1", "tied one", "rock", "u1", 5)
	seedCatalogSong(f, "s2", "tied two", "rock", "u1", 5)
	seedCatalogSong(f, "s3", "tied three", "rock", "u1", 5)

	service := NewSearchService(f.db, testBaseURL)

	first, err := service.Search(ctx, &types.SearchQuery{Text: "tied", Type: types.SearchTypeSongs})
	require.NoError(t, err)
	second, err := service.Search(ctx, &types.SearchQuery{Text: "tied", Type: types.SearchTypeSongs})
	require.NoError(t, err)

	// Ties keep repository order, and repeated searches agree.
	for i := range first.Songs {
		assert.Equal(t, f.songs.songs[i].GetID(), first.Songs[i].ID)
		assert.Equal(t, first.Songs[i].ID, second.Songs[i].ID)
	}
}

func TestSearchGenreFilter(t *testing.T) {
	ctx := context.Background()
	f := newFixtures()
	seedCatalogSong(f, "s1", "night drive", "rock", "u1", 3)
	seedCatalogSong(f, "s2", "night train", "jazz", "u1", 12)

	service := NewSearchService(f.db, testBaseURL)

	// The genre filter narrows the song sub-search for every type that
	// dispatches to it.
	for _, searchType := range []types.SearchType{
		types.SearchTypeGenres,
		types.SearchTypeSongs,
		types.SearchTypeAll,
	} {
		result, err := service.Search(ctx, &types.SearchQuery{
			Text:  "night",
			Type:  searchType,
			Genre: "jazz",
		})
		require.NoError(t, err, string(searchType))

		require.Len(t, result.Songs, 1, string(searchType))
		assert.Equal(t, "s2", result.Songs[0].ID, string(searchType))
	}
}

func TestSearchScopedTypeWithoutUser(t *testing.T) {
	ctx := context.Background()
	f := newFixtures()
	seedCatalogSong(f, "s1", "night drive", "rock", "u1", 3)

	service := NewSearchService(f.db, testBaseURL)

	// A scoped search without a user to scope to matches nothing.
	result, err := service.Search(ctx, &types.SearchQuery{Text: "night", Type: types.SearchTypeScopedUser})
	require.NoError(t, err)

	assert.True(t, result.IsEmpty())
	assert.Zero(t, f.songs.searchCalls)
	assert.Zero(t, f.users.searchCalls)
	assert.Zero(t, f.playlists.searchCalls)
}

func TestSearchUsersRankedByTotalListens(t *testing.T) {
	ctx := context.Background()
	f := newFixtures()
	seedUser(f, "u1", "anna", "anna@test")
	seedUser(f, "u2", "annabel", "annabel@test")
	seedCatalogSong(f, "s1", "one", "rock", "u1", 5)
	seedCatalogSong(f, "s2", "two", "rock", "u1", 12)
	seedCatalogSong(f, "s3", "three", "rock", "u2", 4)

	service := NewSearchService(f.db, testBaseURL)

	result, err := service.Search(ctx, &types.SearchQuery{Text: "ann", Type: types.SearchTypeUsers})
	require.NoError(t, err)

	require.Len(t, result.Users, 2)
	assert.Equal(t, "u1", result.Users[0].ID)
	assert.Equal(t, int64(17), result.Users[0].TotalListen)
	assert.Equal(t, "u2", result.Users[1].ID)
	assert.Equal(t, int64(4), result.Users[1].TotalListen)
}

func TestSearchPlaylists(t *testing.T) {
	ctx := context.Background()
	f := newFixtures()
	seedCatalogSong(f, "s1", "one", "rock", "u1", 5)
	seedCatalogSong(f, "s2", "two", "rock", "u1", 12)

	seedPlaylist(f, "p1", "mix of the year", "u1", false, "s1", "s2")
	seedPlaylist(f, "p2", "mix without songs", "u1", false)
	seedPlaylist(f, "p3", "mix favorite", "u1", true, "s1")
	seedPlaylist(f, "p4", "mix with ghost", "u1", false, "deleted-song")

	service := NewSearchService(f.db, testBaseURL)

	result, err := service.Search(ctx, &types.SearchQuery{Text: "mix", Type: types.SearchTypePlaylists})
	require.NoError(t, err)

	// Favorites, empty playlists and playlists whose members were all
	// deleted never show up.
	require.Len(t, result.Playlists, 1)
	assert.Equal(t, "p1", result.Playlists[0].ID)
	assert.Equal(t, int64(17), result.Playlists[0].TotalListen)
	assert.Len(t, result.Playlists[0].Songs, 2)
}

func TestSearchAllAggregatesEverySubSearch(t *testing.T) {
	ctx := context.Background()
	f := newFixtures()
	seedUser(f, "u1", "night owl dj", "dj@test")
	seedCatalogSong(f, "s1", "night drive", "rock", "u1", 3)
	seedPlaylist(f, "p1", "night mix", "u1", false, "s1")

	service := NewSearchService(f.db, testBaseURL)

	result, err := service.Search(ctx, &types.SearchQuery{Text: "night", Type: types.SearchTypeAll})
	require.NoError(t, err)

	assert.Len(t, result.Users, 1)
	assert.Len(t, result.Songs, 1)
	assert.Len(t, result.Playlists, 1)
}

func TestSearchFailsFast(t *testing.T) {
	ctx := context.Background()
	f := newFixtures()
	seedUser(f, "u1", "night owl dj", "dj@test")
	f.songs.searchErr = errors.New("datastore gone")

	service := NewSearchService(f.db, testBaseURL)

	_, err := service.Search(ctx, &types.SearchQuery{Text: "night", Type: types.SearchTypeAll})
	require.Error(t, err)

	// The song sub-search failed, so playlists were never consulted.
	assert.Zero(t, f.playlists.searchCalls)
}

func TestSearchUnknownType(t *testing.T) {
	ctx := context.Background()
	f := newFixtures()

	service := NewSearchService(f.db, testBaseURL)

	_, err := service.Search(ctx, &types.SearchQuery{Text: "night", Type: "Albums"})
	require.Error(t, err)
	assert.True(t, IsInvalidRequest(err))
}

func TestSongsByUser(t *testing.T) {
	ctx := context.Background()
	f := newFixtures()
	seedCatalogSong(f, "s1", "one", "rock", "u1", 5)
	seedCatalogSong(f, "s2", "two", "rock", "u1", 12)
	seedCatalogSong(f, "s3", "three", "rock", "u2", 99)

	service := NewSearchService(f.db, testBaseURL)

	songs, err := service.SongsByUser(ctx, "u1")
	require.NoError(t, err)

	// Scoped listing keeps repository order, no ranking.
	require.Len(t, songs, 2)
	assert.Equal(t, "s1", songs[0].ID)
	assert.Equal(t, int64(5), songs[0].ListenCount)
	assert.Equal(t, "s2", songs[1].ID)
}
