package business

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/dhowden/tag"
	"github.com/pitabwire/frame"
	data "github.com/pitabwire/frame"
	"github.com/pitabwire/util"

	"github.com/soundvault/service-catalog/config"
	"github.com/soundvault/service-catalog/service/storage"
	"github.com/soundvault/service-catalog/service/storage/models"
	"github.com/soundvault/service-catalog/service/types"
	"github.com/soundvault/service-catalog/utils"
)

// NewCatalogService creates the song lifecycle service. Listen recording is
// asynchronous; RecordListen only publishes onto the listen queue and the
// queue consumer persists the event.
func NewCatalogService(service *frame.Service, db *storage.Database, store storage.Store, cfg *config.CatalogConfig) CatalogService {
	return &catalogService{service: service, db: db, store: store, cfg: cfg}
}

type catalogService struct {
	service *frame.Service
	db      *storage.Database
	store   storage.Store
	cfg     *config.CatalogConfig
}

func (cs *catalogService) ListSongs(ctx context.Context) ([]*types.RankedSong, error) {
	songs, err := cs.db.Songs.List(ctx)
	if err != nil {
		return nil, err
	}
	return cs.rank(ctx, songs)
}

func (cs *catalogService) GetSong(ctx context.Context, id types.SongID) (*types.RankedSong, error) {
	song, err := cs.db.Songs.GetByID(ctx, id)
	if err != nil {
		if frame.ErrorIsNoRows(err) {
			return nil, &NotFoundError{Kind: "Song"}
		}
		return nil, err
	}

	count, err := cs.db.Listens.CountForSong(ctx, id)
	if err != nil {
		return nil, err
	}

	return &types.RankedSong{
		SongView:    *song.ToApi(cs.cfg.MediaBaseURL),
		ListenCount: count,
	}, nil
}

func (cs *catalogService) CreateSong(ctx context.Context, req *CreateSongRequest) (*types.SongView, error) {
	if req.Title == "" {
		return nil, &RequestError{Msg: "title is required"}
	}
	if req.Audio == nil {
		return nil, &RequestError{Msg: "an audio file is required"}
	}

	song := &models.Song{
		UserID:     string(req.OwnerID),
		Title:      req.Title,
		Genre:      req.Genre,
		Duration:   req.Duration,
		ReleasedAt: req.ReleasedAt,
		Public:     true,
	}
	song.GenID(ctx)

	audioKey, err := cs.stageAndUpload(ctx, req.Audio, song.Public, cs.probeAudioTags(song))
	if err != nil {
		return nil, err
	}
	song.AudioKey = string(audioKey)

	if req.Video != nil {
		videoKey, videoErr := cs.stageAndUpload(ctx, req.Video, song.Public, nil)
		if videoErr != nil {
			return nil, videoErr
		}
		song.VideoKey = string(videoKey)
	}

	if req.Cover != nil {
		coverKey, coverErr := cs.stageAndUpload(ctx, req.Cover, song.Public, nil)
		if coverErr != nil {
			return nil, coverErr
		}
		song.CoverKey = string(coverKey)
	}

	if err = cs.db.Songs.Save(ctx, song); err != nil {
		return nil, err
	}

	if song.CoverKey != "" {
		err = cs.service.Publish(ctx, cs.cfg.QueueCoverThumbnailName, map[string]string{
			"song_id":   song.GetID(),
			"cover_key": song.CoverKey,
		})
		if err != nil {
			// Renditions can be regenerated; the upload itself succeeded.
			util.Log(ctx).WithError(err).
				WithField("song_id", song.GetID()).
				Warn("failed to queue cover thumbnail generation")
		}
	}

	return song.ToApi(cs.cfg.MediaBaseURL), nil
}

func (cs *catalogService) DeleteSongs(ctx context.Context, ids []string) (*DeleteSongsResult, error) {
	if len(ids) == 0 {
		return nil, &RequestError{Msg: "no song ids supplied"}
	}

	deleted, err := cs.db.Songs.DeleteMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	if deleted == 0 {
		return nil, &NotFoundError{Kind: "Song"}
	}
	return &DeleteSongsResult{Deleted: deleted}, nil
}

func (cs *catalogService) RecordListen(ctx context.Context, songID types.SongID, userID types.UserID) error {
	_, err := cs.db.Songs.GetByID(ctx, songID)
	if err != nil {
		if frame.ErrorIsNoRows(err) {
			return &NotFoundError{Kind: "Song"}
		}
		return err
	}

	return cs.service.Publish(ctx, cs.cfg.QueueListenRecordName, map[string]string{
		"song_id": string(songID),
		"user_id": string(userID),
	})
}

// stageAndUpload writes one uploaded part to temporary storage, derives its
// content addressed bucket key and moves it into the bucket. probe, when
// set, gets a chance to inspect the staged file before it is uploaded.
func (cs *catalogService) stageAndUpload(ctx context.Context, upload *MediaUpload, public bool, probe func(path string)) (types.Path, error) {
	logger := util.Log(ctx).With(
		"UploadName", upload.Filename,
		"ContentType", upload.ContentType,
	)

	reader := upload.Data
	maxSize := cs.cfg.MaxFileSizeBytes
	if maxSize > 0 {
		reader = io.LimitReader(reader, int64(maxSize)+1)
	}

	hash, bytesWritten, tmpDir, err := utils.WriteTempFile(ctx, reader, cs.cfg.AbsBasePath)
	if err != nil {
		logger.WithError(err).Warn("Error while transferring file")
		return "", &RequestError{Msg: "failed to upload"}
	}
	defer utils.RemoveDir(tmpDir, logger)

	if maxSize > 0 && bytesWritten > maxSize {
		return "", &RequestError{Msg: "file is larger than the maximum allowed upload size"}
	}

	stagedPath := filepath.Join(string(tmpDir), "content")
	if probe != nil {
		probe(stagedPath)
	}

	key, err := utils.BucketKeyFromHash(hash)
	if err != nil {
		return "", err
	}

	duplicate, err := cs.store.Upload(ctx, cs.store.Bucket(public), types.Path(stagedPath), key)
	if err != nil {
		return "", err
	}
	if duplicate {
		logger.WithField("dst", key).Info("File was stored previously - discarding duplicate")
	}

	return key, nil
}

// probeAudioTags returns a probe that reads embedded metadata out of the
// staged audio file into the song's properties. Probing is best effort;
// files without tags upload fine.
func (cs *catalogService) probeAudioTags(song *models.Song) func(path string) {
	return func(path string) {
		f, err := os.Open(path)
		if err != nil {
			return
		}
		defer f.Close()

		meta, err := tag.ReadFrom(f)
		if err != nil {
			return
		}

		props := data.JSONMap{}
		if artist := meta.Artist(); artist != "" {
			props["artist"] = artist
		}
		if album := meta.Album(); album != "" {
			props["album"] = album
		}
		if year := meta.Year(); year != 0 {
			props["year"] = year
		}
		if len(props) > 0 {
			song.Properties = props
		}
	}
}

func (cs *catalogService) rank(ctx context.Context, songs []*models.Song) ([]*types.RankedSong, error) {
	ranked := make([]*types.RankedSong, 0, len(songs))
	for _, song := range songs {
		count, err := cs.db.Listens.CountForSong(ctx, types.SongID(song.GetID()))
		if err != nil {
			return nil, err
		}
		ranked = append(ranked, &types.RankedSong{
			SongView:    *song.ToApi(cs.cfg.MediaBaseURL),
			ListenCount: count,
		})
	}
	return ranked, nil
}
