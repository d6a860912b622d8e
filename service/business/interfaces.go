package business

import (
	"context"
	"io"
	"time"

	"github.com/soundvault/service-catalog/service/types"
)

// StreamRequest asks for the bytes of one media file attached to a song.
type StreamRequest struct {
	SongID types.SongID
	Kind   types.MediaKind

	// RangeHeader is the raw HTTP Range header, empty when absent.
	RangeHeader string
}

// StreamResult carries everything the protocol layer needs to serve a
// media response. Content is demand-driven: bytes are only pulled from the
// blob store as the consumer reads, in chunks of at most StreamChunkSize,
// and the reader stops after exactly Range.Length() bytes or on a short
// read from the store.
type StreamResult struct {
	Range       types.ByteRange
	Partial     bool
	ContentType types.ContentType
	Filename    string
	Content     io.ReadCloser
}

// CoverResult is a whole-body image response; no range logic applies.
type CoverResult struct {
	ContentType types.ContentType
	Size        int64
	Content     io.ReadCloser
}

// MediaStreamService serves song media out of the blob store.
type MediaStreamService interface {
	StreamMedia(ctx context.Context, req *StreamRequest) (*StreamResult, error)
	FetchCover(ctx context.Context, songID types.SongID, size *ThumbnailSelector) (*CoverResult, error)
}

// ThumbnailSelector picks a pre-generated cover rendition.
type ThumbnailSelector struct {
	Width  int
	Height int
}

// SearchService runs the federated catalog search.
//
// Search fails fast: an error in any sub-search aborts the whole
// aggregation rather than returning a silently empty branch. An empty
// query text short-circuits to an empty result without touching any
// repository.
type SearchService interface {
	Search(ctx context.Context, query *types.SearchQuery) (*types.SearchResult, error)
	SongsByUser(ctx context.Context, userID types.UserID) ([]*types.RankedSong, error)
}

// CreateSongRequest carries the parsed parts of a multipart song upload.
type CreateSongRequest struct {
	OwnerID  types.UserID
	Title    string
	Genre    string
	Duration int64

	ReleasedAt *time.Time

	Audio *MediaUpload
	Video *MediaUpload
	Cover *MediaUpload
}

// MediaUpload is one uploaded media part.
type MediaUpload struct {
	Filename    types.Filename
	ContentType types.ContentType
	Data        io.Reader
}

// DeleteSongsResult reports how many songs a bulk delete removed.
type DeleteSongsResult struct {
	Deleted int64
}

// CatalogService owns the song lifecycle.
type CatalogService interface {
	ListSongs(ctx context.Context) ([]*types.RankedSong, error)
	GetSong(ctx context.Context, id types.SongID) (*types.RankedSong, error)
	CreateSong(ctx context.Context, req *CreateSongRequest) (*types.SongView, error)
	DeleteSongs(ctx context.Context, ids []string) (*DeleteSongsResult, error)
	RecordListen(ctx context.Context, songID types.SongID, userID types.UserID) error
}

// PlaylistService owns playlist curation. Favorites playlists are created
// implicitly, cannot be deleted and never show up in search results.
type PlaylistService interface {
	GetAll(ctx context.Context, userID types.UserID) ([]*types.RankedPlaylist, error)
	GetDetail(ctx context.Context, id types.PlaylistID) (*types.RankedPlaylist, error)
	GetFavorite(ctx context.Context, userID types.UserID) (*types.RankedPlaylist, error)
	Create(ctx context.Context, userID types.UserID, name, desc string) (*types.PlaylistView, error)
	Edit(ctx context.Context, id types.PlaylistID, userID types.UserID, name, desc string) error
	Delete(ctx context.Context, id types.PlaylistID) error
	AddSong(ctx context.Context, id types.PlaylistID, userID types.UserID, songID types.SongID) error
	AddSongNewPlaylist(ctx context.Context, userID types.UserID, songID types.SongID) (*types.PlaylistView, error)
	RemoveSong(ctx context.Context, id types.PlaylistID, songID types.SongID) error
	SearchScoped(ctx context.Context, userID types.UserID, query string) ([]*types.RankedPlaylist, error)
}

// TokenPair is the result of a successful authentication.
type TokenPair struct {
	Access  string          `json:"access"`
	Refresh string          `json:"refresh"`
	User    *types.UserView `json:"user"`
}

// RegisterRequest carries a new account registration.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileUpdate carries the mutable profile fields; nil pointers leave the
// stored value untouched.
type ProfileUpdate struct {
	Name  *string `json:"name"`
	Bio   *string `json:"bio"`
	Image *string `json:"image"`
}

// AuthService owns account registration, login and the Google OAuth flow.
type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*TokenPair, error)
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	VerifyAccessToken(ctx context.Context, token string) (types.UserID, error)
	GoogleAuthURL(state string) string
	GoogleLogin(ctx context.Context, code string) (*TokenPair, error)
	Profile(ctx context.Context, userID types.UserID) (*types.UserView, error)
	UpdateProfile(ctx context.Context, userID types.UserID, update *ProfileUpdate) (*types.UserView, error)
	ChangePassword(ctx context.Context, userID types.UserID, oldPassword, newPassword string) error
}
