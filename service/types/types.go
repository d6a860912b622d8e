package types

import (
	"fmt"
	"time"
)

// SongID identifies a song in the catalog
type SongID string

// UserID identifies a registered user
type UserID string

// PlaylistID identifies a playlist
type PlaylistID string

// ContentType is a MIME type
type ContentType string

// FileSizeBytes is a file size in bytes
type FileSizeBytes int64

// Filename is a client supplied file name
type Filename string

// Path is a path on the filesystem or inside a bucket
type Path string

// Base64Hash is a URL-safe base64 encoded SHA-256 hash of file content
type Base64Hash string

// MediaKind distinguishes the media files attached to a song
type MediaKind string

const (
	MediaKindAudio MediaKind = "audio"
	MediaKindVideo MediaKind = "video"
	MediaKindCover MediaKind = "cover"
)

// FallbackContentType is used when the blob store holds no content type
// for a stored object.
func (k MediaKind) FallbackContentType() ContentType {
	switch k {
	case MediaKindVideo:
		return "video/mp4"
	case MediaKindCover:
		return "image/jpeg"
	default:
		return "audio/mpeg"
	}
}

// Ext is the file extension used when composing download filenames.
func (k MediaKind) Ext() string {
	switch k {
	case MediaKindVideo:
		return "mp4"
	case MediaKindCover:
		return "jpg"
	default:
		return "mp3"
	}
}

// Label names the media kind in user facing error messages.
func (k MediaKind) Label() string {
	switch k {
	case MediaKindVideo:
		return "Video file"
	case MediaKindCover:
		return "Cover image"
	default:
		return "Audio file"
	}
}

// BlobRef is an explicit optional reference to a stored blob. A song field
// that never had media uploaded carries an empty reference.
type BlobRef struct {
	Key    Path
	Public bool
}

// IsPresent reports whether the reference points at a stored blob.
func (r BlobRef) IsPresent() bool {
	return r.Key != ""
}

// ThumbnailPath derives the bucket key of a pre-generated cover rendition
// from the key of the original image.
func ThumbnailPath(base Path, width, height int) Path {
	return Path(fmt.Sprintf("%s_thumb_%dx%d", base, width, height))
}

// ByteRange is the serving window of a single streaming request.
// Invariant: 0 <= Start <= End < Total whenever Total > 0.
type ByteRange struct {
	Start int64
	End   int64
	Total int64
}

// Length is the number of bytes the window covers.
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange renders the Content-Range response header value.
func (r ByteRange) ContentRange() string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, r.Total)
}

// SearchType selects which sub-searches a catalog search dispatches to.
type SearchType string

const (
	SearchTypeAll       SearchType = "All"
	SearchTypeUsers     SearchType = "Users"
	SearchTypeSongs     SearchType = "Songs"
	SearchTypePlaylists SearchType = "Playlists"
	SearchTypeGenres    SearchType = "Genres"

	// SearchTypeScopedUser is the scoped variant that, combined with a
	// user id, bypasses ranking and returns a single user's songs.
	SearchTypeScopedUser SearchType = "User"
)

// SearchQuery is a validated, immutable search request.
type SearchQuery struct {
	Text         string
	Type         SearchType
	Genre        string
	ScopedUserID UserID
}

// UserView is the API projection of a user.
type UserView struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Bio       string     `json:"bio,omitempty"`
	Image     string     `json:"image,omitempty"`
	Role      string     `json:"role,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// RankedUser decorates a user with its aggregate listen count.
type RankedUser struct {
	UserView
	TotalListen int64 `json:"total_listen"`
}

// SongView is the API projection of a song, with media URLs derived from
// the blob references actually present.
type SongView struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Genre      string     `json:"genre,omitempty"`
	UserID     string     `json:"user_id,omitempty"`
	Duration   int64      `json:"duration"`
	ReleasedAt *time.Time `json:"released_at,omitempty"`
	AudioURL   string     `json:"audio_url,omitempty"`
	VideoURL   string     `json:"video_url,omitempty"`
	CoverURL   string     `json:"cover_url,omitempty"`
}

// RankedSong decorates a song with its own listen count.
type RankedSong struct {
	SongView
	ListenCount int64 `json:"listened_at_count"`
}

// PlaylistView is the API projection of a playlist including its member songs.
type PlaylistView struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Desc       string        `json:"desc,omitempty"`
	UserID     string        `json:"user_id,omitempty"`
	IsFavorite bool          `json:"is_favorite"`
	Songs      []*RankedSong `json:"songs"`
}

// RankedPlaylist decorates a playlist with the summed listen counts of its
// member songs.
type RankedPlaylist struct {
	PlaylistView
	TotalListen int64 `json:"total_listen"`
}

// SearchResult is the composed envelope of a federated catalog search.
// Every sequence is sorted by score descending; ties keep repository order.
type SearchResult struct {
	Users     []*RankedUser     `json:"users"`
	Songs     []*RankedSong     `json:"songs"`
	Playlists []*RankedPlaylist `json:"playlists"`
}

// IsEmpty reports whether no sub-search produced results.
func (r *SearchResult) IsEmpty() bool {
	return r == nil || (len(r.Users) == 0 && len(r.Songs) == 0 && len(r.Playlists) == 0)
}
