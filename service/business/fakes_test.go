package business

import (
	"bytes"
	"context"
	"io"
	"os"

	"gorm.io/gorm"

	"github.com/soundvault/service-catalog/service/storage"
	"github.com/soundvault/service-catalog/service/storage/models"
	"github.com/soundvault/service-catalog/service/types"
)

// The fakes below satisfy the repository and blob store interfaces with
// in-memory state and call counters, so service behaviour can be asserted
// without a datastore.

type fakeUserRepo struct {
	users       map[string]*models.User
	searchCalls int
	searchErr   error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*models.User{}}
}

func (f *fakeUserRepo) GetByID(_ context.Context, id types.UserID) (*models.User, error) {
	user, ok := f.users[string(id)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) Search(_ context.Context, query string) ([]*models.User, error) {
	f.searchCalls++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var matched []*models.User
	for _, user := range f.users {
		if bytes.Contains([]byte(user.Name), []byte(query)) {
			matched = append(matched, user)
		}
	}
	return matched, nil
}

func (f *fakeUserRepo) Save(_ context.Context, user *models.User) error {
	f.users[user.GetID()] = user
	return nil
}

type fakeSongRepo struct {
	songs       []*models.Song
	searchCalls int
	searchErr   error
}

func (f *fakeSongRepo) byID(id string) *models.Song {
	for _, song := range f.songs {
		if song.GetID() == id {
			return song
		}
	}
	return nil
}

func (f *fakeSongRepo) GetByID(_ context.Context, id types.SongID) (*models.Song, error) {
	song := f.byID(string(id))
	if song == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return song, nil
}

func (f *fakeSongRepo) GetByUser(_ context.Context, userID types.UserID) ([]*models.Song, error) {
	var owned []*models.Song
	for _, song := range f.songs {
		if song.UserID == string(userID) {
			owned = append(owned, song)
		}
	}
	return owned, nil
}

func (f *fakeSongRepo) List(_ context.Context) ([]*models.Song, error) {
	return f.songs, nil
}

func (f *fakeSongRepo) Search(_ context.Context, query string, genre string) ([]*models.Song, error) {
	f.searchCalls++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var matched []*models.Song
	for _, song := range f.songs {
		if !bytes.Contains([]byte(song.Title), []byte(query)) {
			continue
		}
		if genre != "" && song.Genre != genre {
			continue
		}
		matched = append(matched, song)
	}
	return matched, nil
}

func (f *fakeSongRepo) Save(_ context.Context, song *models.Song) error {
	if existing := f.byID(song.GetID()); existing == nil {
		f.songs = append(f.songs, song)
	}
	return nil
}

func (f *fakeSongRepo) DeleteMany(_ context.Context, ids []string) (int64, error) {
	var kept []*models.Song
	var deleted int64
	for _, song := range f.songs {
		remove := false
		for _, id := range ids {
			if song.GetID() == id {
				remove = true
				break
			}
		}
		if remove {
			deleted++
		} else {
			kept = append(kept, song)
		}
	}
	f.songs = kept
	return deleted, nil
}

type fakePlaylistRepo struct {
	playlists   []*models.Playlist
	searchCalls int
	searchErr   error
	saved       int
}

func (f *fakePlaylistRepo) byID(id string) *models.Playlist {
	for _, playlist := range f.playlists {
		if playlist.GetID() == id {
			return playlist
		}
	}
	return nil
}

func (f *fakePlaylistRepo) GetByID(_ context.Context, id types.PlaylistID) (*models.Playlist, error) {
	playlist := f.byID(string(id))
	if playlist == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return playlist, nil
}

func (f *fakePlaylistRepo) GetByUser(_ context.Context, userID types.UserID) ([]*models.Playlist, error) {
	var owned []*models.Playlist
	for _, playlist := range f.playlists {
		if playlist.UserID == string(userID) {
			owned = append(owned, playlist)
		}
	}
	return owned, nil
}

func (f *fakePlaylistRepo) GetFavorite(_ context.Context, userID types.UserID) (*models.Playlist, error) {
	for _, playlist := range f.playlists {
		if playlist.UserID == string(userID) && playlist.IsFavorite {
			return playlist, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePlaylistRepo) Search(_ context.Context, query string) ([]*models.Playlist, error) {
	f.searchCalls++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var matched []*models.Playlist
	for _, playlist := range f.playlists {
		if bytes.Contains([]byte(playlist.Name), []byte(query)) {
			matched = append(matched, playlist)
		}
	}
	return matched, nil
}

func (f *fakePlaylistRepo) SearchScoped(ctx context.Context, query string, userID types.UserID) ([]*models.Playlist, error) {
	matched, err := f.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	var scoped []*models.Playlist
	for _, playlist := range matched {
		if playlist.UserID == string(userID) {
			scoped = append(scoped, playlist)
		}
	}
	return scoped, nil
}

func (f *fakePlaylistRepo) Save(_ context.Context, playlist *models.Playlist) error {
	f.saved++
	if existing := f.byID(playlist.GetID()); existing == nil {
		f.playlists = append(f.playlists, playlist)
	}
	return nil
}

func (f *fakePlaylistRepo) Delete(_ context.Context, id types.PlaylistID) error {
	var kept []*models.Playlist
	for _, playlist := range f.playlists {
		if playlist.GetID() != string(id) {
			kept = append(kept, playlist)
		}
	}
	f.playlists = kept
	return nil
}

func (f *fakePlaylistRepo) AddSong(_ context.Context, id types.PlaylistID, songID types.SongID) error {
	playlist := f.byID(string(id))
	if playlist == nil {
		return gorm.ErrRecordNotFound
	}
	playlist.Songs = append(playlist.Songs, &models.PlaylistSong{
		PlaylistID: string(id),
		SongID:     string(songID),
	})
	return nil
}

func (f *fakePlaylistRepo) RemoveSong(_ context.Context, id types.PlaylistID, songID types.SongID) error {
	playlist := f.byID(string(id))
	if playlist == nil {
		return gorm.ErrRecordNotFound
	}
	var kept []*models.PlaylistSong
	for _, member := range playlist.Songs {
		if member.SongID != string(songID) {
			kept = append(kept, member)
		}
	}
	playlist.Songs = kept
	return nil
}

type fakeListenRepo struct {
	counts     map[string]int64
	recorded   []*models.ListenEvent
	countCalls int
	countErr   error
}

func newFakeListenRepo() *fakeListenRepo {
	return &fakeListenRepo{counts: map[string]int64{}}
}

func (f *fakeListenRepo) Record(_ context.Context, event *models.ListenEvent) error {
	f.recorded = append(f.recorded, event)
	f.counts[event.SongID]++
	return nil
}

func (f *fakeListenRepo) CountForSong(_ context.Context, songID types.SongID) (int64, error) {
	f.countCalls++
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.counts[string(songID)], nil
}

type fakeAuditRepo struct {
	saved []*models.CatalogAudit
}

func (f *fakeAuditRepo) Save(_ context.Context, audit *models.CatalogAudit) error {
	f.saved = append(f.saved, audit)
	return nil
}

type fixtures struct {
	users     *fakeUserRepo
	songs     *fakeSongRepo
	playlists *fakePlaylistRepo
	listens   *fakeListenRepo
	audits    *fakeAuditRepo
	db        *storage.Database
}

func newFixtures() *fixtures {
	f := &fixtures{
		users:     newFakeUserRepo(),
		songs:     &fakeSongRepo{},
		playlists: &fakePlaylistRepo{},
		listens:   newFakeListenRepo(),
		audits:    &fakeAuditRepo{},
	}
	f.db = &storage.Database{
		Users:     f.users,
		Songs:     f.songs,
		Playlists: f.playlists,
		Listens:   f.listens,
		Audits:    f.audits,
	}
	return f
}

var errBlobMissing = storage.ErrBlobMissing

func readLocalFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// fakeStore is an in-memory blob store with a single private and public
// bucket pair.
type fakeStore struct {
	blobs         map[string][]byte
	contentTypes  map[string]types.ContentType
	uploads       int
	downloadCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		blobs:        map[string][]byte{},
		contentTypes: map[string]types.ContentType{},
	}
}

func (f *fakeStore) put(bucket string, path types.Path, contentType types.ContentType, data []byte) {
	key := bucket + "/" + string(path)
	f.blobs[key] = data
	f.contentTypes[key] = contentType
}

func (f *fakeStore) Bucket(isPublic bool) string {
	if isPublic {
		return "public"
	}
	return "private"
}

func (f *fakeStore) Exists(_ context.Context, bucket string, path types.Path) (bool, error) {
	_, ok := f.blobs[bucket+"/"+string(path)]
	return ok, nil
}

func (f *fakeStore) Stat(_ context.Context, bucket string, path types.Path) (*storage.BlobInfo, error) {
	key := bucket + "/" + string(path)
	data, ok := f.blobs[key]
	if !ok {
		return nil, errBlobMissing
	}
	return &storage.BlobInfo{
		Size:        int64(len(data)),
		ContentType: f.contentTypes[key],
	}, nil
}

func (f *fakeStore) Upload(_ context.Context, bucket string, sourcePath types.Path, destPath types.Path) (bool, error) {
	f.uploads++
	key := bucket + "/" + string(destPath)
	if _, ok := f.blobs[key]; ok {
		return true, nil
	}
	data, err := readLocalFile(string(sourcePath))
	if err != nil {
		return false, err
	}
	f.blobs[key] = data
	return false, nil
}

func (f *fakeStore) Download(ctx context.Context, bucket string, path types.Path) (io.ReadCloser, error) {
	return f.DownloadRange(ctx, bucket, path, 0, -1)
}

func (f *fakeStore) DownloadRange(_ context.Context, bucket string, path types.Path, offset, length int64) (io.ReadCloser, error) {
	f.downloadCalls++
	data, ok := f.blobs[bucket+"/"+string(path)]
	if !ok {
		return nil, errBlobMissing
	}
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	window := data[offset:]
	if length >= 0 && length < int64(len(window)) {
		window = window[:length]
	}
	return io.NopCloser(bytes.NewReader(window)), nil
}
