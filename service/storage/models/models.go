package models

import (
	"time"

	data "github.com/pitabwire/frame"

	"github.com/soundvault/service-catalog/service/types"
)

// User model responsible for holding account data
type User struct {
	data.BaseModel

	Name  string `gorm:"type:TEXT"`
	Email string `gorm:"type:TEXT;uniqueIndex"`

	// Password holds the bcrypt hash; empty for accounts created through
	// an external identity provider.
	Password string `gorm:"type:TEXT"`

	Bio      string `gorm:"type:TEXT"`
	Image    string `gorm:"type:TEXT"`
	Role     string `gorm:"type:TEXT"`
	GoogleID string `gorm:"type:TEXT"`
}

func (u *User) ToApi() *types.UserView {
	createdAt := u.CreatedAt
	return &types.UserView{
		ID:        u.GetID(),
		Name:      u.Name,
		Email:     u.Email,
		Bio:       u.Bio,
		Image:     u.Image,
		Role:      u.Role,
		CreatedAt: &createdAt,
	}
}

// Song model responsible for holding catalog entries and the blob keys of
// their media files
type Song struct {
	data.BaseModel

	UserID string `gorm:"type:TEXT"`

	Title    string `gorm:"type:TEXT"`
	Genre    string `gorm:"type:TEXT"`
	Duration int64
	Public   bool

	ReleasedAt *time.Time

	AudioKey string `gorm:"type:TEXT"`
	VideoKey string `gorm:"type:TEXT"`
	CoverKey string `gorm:"type:TEXT"`

	Properties data.JSONMap
}

// BlobFor returns the explicit optional blob reference for the given media
// kind. Absent media yields an empty reference, never a nil pointer.
func (s *Song) BlobFor(kind types.MediaKind) types.BlobRef {
	var key string
	switch kind {
	case types.MediaKindVideo:
		key = s.VideoKey
	case types.MediaKindCover:
		key = s.CoverKey
	default:
		key = s.AudioKey
	}
	return types.BlobRef{Key: types.Path(key), Public: s.Public}
}

// ToApi projects the song for API responses. mediaBaseURL prefixes the
// media endpoints; URLs are only emitted for blobs that are present.
func (s *Song) ToApi(mediaBaseURL string) *types.SongView {
	view := &types.SongView{
		ID:         s.GetID(),
		Title:      s.Title,
		Genre:      s.Genre,
		UserID:     s.UserID,
		Duration:   s.Duration,
		ReleasedAt: s.ReleasedAt,
	}

	if s.BlobFor(types.MediaKindAudio).IsPresent() {
		view.AudioURL = mediaBaseURL + "/api/songs/" + s.GetID() + "/audio"
	}
	if s.BlobFor(types.MediaKindVideo).IsPresent() {
		view.VideoURL = mediaBaseURL + "/api/songs/" + s.GetID() + "/video"
	}
	if s.BlobFor(types.MediaKindCover).IsPresent() {
		view.CoverURL = mediaBaseURL + "/api/songs/" + s.GetID() + "/cover"
	}

	return view
}

// Playlist model holding a user curated set of songs. Every user owns one
// distinguished favorites playlist that is neither deletable nor
// discoverable through search.
type Playlist struct {
	data.BaseModel

	UserID string `gorm:"type:TEXT"`

	Name       string `gorm:"type:TEXT"`
	Desc       string `gorm:"type:TEXT"`
	CoverKey   string `gorm:"type:TEXT"`
	IsFavorite bool

	Songs []*PlaylistSong `gorm:"foreignKey:PlaylistID"`
}

func (p *Playlist) ToApi(songs []*types.RankedSong) *types.PlaylistView {
	if songs == nil {
		songs = []*types.RankedSong{}
	}
	return &types.PlaylistView{
		ID:         p.GetID(),
		Name:       p.Name,
		Desc:       p.Desc,
		UserID:     p.UserID,
		IsFavorite: p.IsFavorite,
		Songs:      songs,
	}
}

// PlaylistSong is a membership row tying a song into a playlist
type PlaylistSong struct {
	data.BaseModel

	PlaylistID string `gorm:"type:TEXT;index"`
	SongID     string `gorm:"type:TEXT;index"`
	AddedAt    time.Time
}

// ListenEvent records a single playback of a song. Play counts are derived
// by counting these rows, never stored denormalised.
type ListenEvent struct {
	data.BaseModel

	SongID string `gorm:"type:TEXT;index"`
	UserID string `gorm:"type:TEXT"`
}

// CatalogAudit model responsible for holding access events on media
type CatalogAudit struct {
	data.BaseModel

	SongID   string `gorm:"type:TEXT"`
	AccessID string `gorm:"type:TEXT"`
	Action   string `gorm:"type:TEXT"`
	Source   string `gorm:"type:TEXT"`
}
