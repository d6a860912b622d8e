package business

import (
	"context"
	"fmt"
	"io"

	"github.com/pitabwire/frame"
	"github.com/pitabwire/util"

	"github.com/soundvault/service-catalog/service/storage"
	"github.com/soundvault/service-catalog/service/types"
)

// NewMediaStreamService creates a media stream service that resolves songs
// through db and reads their blobs through store.
func NewMediaStreamService(db *storage.Database, store storage.Store) MediaStreamService {
	return &mediaStreamService{db: db, store: store}
}

type mediaStreamService struct {
	db    *storage.Database
	store storage.Store
}

func (ms *mediaStreamService) StreamMedia(ctx context.Context, req *StreamRequest) (*StreamResult, error) {
	song, err := ms.db.Songs.GetByID(ctx, req.SongID)
	if err != nil {
		if frame.ErrorIsNoRows(err) {
			return nil, &NotFoundError{Kind: "Song"}
		}
		return nil, err
	}

	blobRef := song.BlobFor(req.Kind)
	if !blobRef.IsPresent() {
		return nil, &NotFoundError{Kind: req.Kind.Label()}
	}

	bucket := ms.store.Bucket(blobRef.Public)

	exists, err := ms.store.Exists(ctx, bucket, blobRef.Key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &NotFoundError{Kind: req.Kind.Label()}
	}

	info, err := ms.store.Stat(ctx, bucket, blobRef.Key)
	if err != nil {
		// The blob can vanish between the existence check and the stat.
		if storage.IsBlobMissing(err) {
			return nil, &NotFoundError{Kind: req.Kind.Label()}
		}
		return nil, err
	}

	window, partial, err := ParseByteRange(req.RangeHeader, info.Size)
	if err != nil {
		return nil, err
	}

	contentType := info.ContentType
	if contentType == "" {
		contentType = req.Kind.FallbackContentType()
	}

	length := window.Length()
	reader, err := ms.store.DownloadRange(ctx, bucket, blobRef.Key, window.Start, length)
	if err != nil {
		if storage.IsBlobMissing(err) {
			return nil, &NotFoundError{Kind: req.Kind.Label()}
		}
		return nil, err
	}

	util.Log(ctx).
		WithField("song_id", string(req.SongID)).
		WithField("kind", string(req.Kind)).
		WithField("range", window.ContentRange()).
		Debug("streaming media window")

	return &StreamResult{
		Range:       window,
		Partial:     partial,
		ContentType: contentType,
		Filename:    fmt.Sprintf("%s.%s", song.Title, req.Kind.Ext()),
		Content:     newChunkReader(reader, length),
	}, nil
}

func (ms *mediaStreamService) FetchCover(ctx context.Context, songID types.SongID, size *ThumbnailSelector) (*CoverResult, error) {
	song, err := ms.db.Songs.GetByID(ctx, songID)
	if err != nil {
		if frame.ErrorIsNoRows(err) {
			return nil, &NotFoundError{Kind: "Song"}
		}
		return nil, err
	}

	blobRef := song.BlobFor(types.MediaKindCover)
	if !blobRef.IsPresent() {
		return nil, &NotFoundError{Kind: types.MediaKindCover.Label()}
	}

	bucket := ms.store.Bucket(blobRef.Public)

	key := blobRef.Key
	if size != nil {
		thumbKey := types.ThumbnailPath(blobRef.Key, size.Width, size.Height)
		exists, thumbErr := ms.store.Exists(ctx, bucket, thumbKey)
		if thumbErr != nil {
			return nil, thumbErr
		}
		// Renditions are generated in the background; fall back to the
		// original until the requested one lands in the bucket.
		if exists {
			key = thumbKey
		}
	}

	info, err := ms.store.Stat(ctx, bucket, key)
	if err != nil {
		if storage.IsBlobMissing(err) {
			return nil, &NotFoundError{Kind: types.MediaKindCover.Label()}
		}
		return nil, err
	}

	contentType := info.ContentType
	if contentType == "" {
		contentType = types.MediaKindCover.FallbackContentType()
	}

	reader, err := ms.store.Download(ctx, bucket, key)
	if err != nil {
		if storage.IsBlobMissing(err) {
			return nil, &NotFoundError{Kind: types.MediaKindCover.Label()}
		}
		return nil, err
	}

	return &CoverResult{
		ContentType: contentType,
		Size:        info.Size,
		Content:     reader,
	}, nil
}

// newChunkReader bounds src to exactly remaining bytes and caps each Read
// at StreamChunkSize so slow consumers never force large buffers.
func newChunkReader(src io.ReadCloser, remaining int64) io.ReadCloser {
	return &chunkReader{src: src, remaining: remaining}
}

type chunkReader struct {
	src       io.ReadCloser
	remaining int64
}

func (cr *chunkReader) Read(p []byte) (int, error) {
	if cr.remaining <= 0 {
		return 0, io.EOF
	}

	limit := int64(len(p))
	if limit > StreamChunkSize {
		limit = StreamChunkSize
	}
	if limit > cr.remaining {
		limit = cr.remaining
	}

	n, err := cr.src.Read(p[:limit])
	cr.remaining -= int64(n)
	if err == nil && cr.remaining <= 0 {
		err = io.EOF
	}
	return n, err
}

func (cr *chunkReader) Close() error {
	return cr.src.Close()
}
