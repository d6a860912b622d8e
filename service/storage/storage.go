package storage

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/pitabwire/frame"
	"github.com/pitabwire/util"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/soundvault/service-catalog/service/storage/repository"
	"github.com/soundvault/service-catalog/service/types"
)

// Database bundles the catalog repositories backed by the service datastore.
type Database struct {
	Users     repository.UserRepository
	Songs     repository.SongRepository
	Playlists repository.PlaylistRepository
	Listens   repository.ListenRepository
	Audits    repository.CatalogAuditRepository
}

func NewDatabase(service *frame.Service) *Database {
	return &Database{
		Users:     repository.NewUserRepository(service),
		Songs:     repository.NewSongRepository(service),
		Playlists: repository.NewPlaylistRepository(service),
		Listens:   repository.NewListenRepository(service),
		Audits:    repository.NewCatalogAuditRepository(service),
	}
}

// Provider abstracts where blob buckets live. Implementations only differ
// in how a bucket is opened; all data operations go through Store.
type Provider interface {
	Name() string
	PrivateBucket() string
	PublicBucket() string
	GetBucket(isPublic bool) string
	Setup(ctx context.Context) error
	Init(ctx context.Context, bucketName string) (*blob.Bucket, error)
}

// BlobInfo carries the metadata of a stored blob needed to serve it.
type BlobInfo struct {
	Size        int64
	ContentType types.ContentType
}

// Store exposes the blob operations the catalog performs against a
// Provider's buckets. DownloadRange reads length bytes starting at offset;
// the returned reader is lazy and must be closed by the caller.
type Store interface {
	Bucket(isPublic bool) string
	Exists(ctx context.Context, bucket string, path types.Path) (bool, error)
	Stat(ctx context.Context, bucket string, path types.Path) (*BlobInfo, error)
	Upload(ctx context.Context, bucket string, sourcePath types.Path, destPath types.Path) (bool, error)
	Download(ctx context.Context, bucket string, path types.Path) (io.ReadCloser, error)
	DownloadRange(ctx context.Context, bucket string, path types.Path, offset, length int64) (io.ReadCloser, error)
}

// ErrBlobMissing signals that a bucket has no blob under the requested
// key. Alternative Store implementations return it where gocloud drivers
// report their own not found code.
var ErrBlobMissing = errors.New("blob not found in bucket")

// IsBlobMissing reports whether an error signals that the blob vanished
// from the bucket, e.g. removed between an existence check and the read.
func IsBlobMissing(err error) bool {
	return errors.Is(err, ErrBlobMissing) || gcerrors.Code(err) == gcerrors.NotFound
}

func NewStore(provider Provider) Store {
	return &bucketStore{provider: provider}
}

type bucketStore struct {
	provider Provider
}

func (bs *bucketStore) Bucket(isPublic bool) string {
	return bs.provider.GetBucket(isPublic)
}

func (bs *bucketStore) Exists(ctx context.Context, bucketName string, path types.Path) (bool, error) {
	bucket, err := bs.provider.Init(ctx, bucketName)
	if err != nil {
		return false, err
	}
	defer util.CloseAndLogOnError(ctx, bucket)

	return bucket.Exists(ctx, string(path))
}

func (bs *bucketStore) Stat(ctx context.Context, bucketName string, path types.Path) (*BlobInfo, error) {
	bucket, err := bs.provider.Init(ctx, bucketName)
	if err != nil {
		return nil, err
	}
	defer util.CloseAndLogOnError(ctx, bucket)

	attrs, err := bucket.Attributes(ctx, string(path))
	if err != nil {
		return nil, err
	}

	return &BlobInfo{
		Size:        attrs.Size,
		ContentType: types.ContentType(attrs.ContentType),
	}, nil
}

func (bs *bucketStore) Upload(ctx context.Context, bucketName string, sourcePath types.Path, destPath types.Path) (bool, error) {
	bucket, err := bs.provider.Init(ctx, bucketName)
	if err != nil {
		return false, err
	}
	defer util.CloseAndLogOnError(ctx, bucket)

	writeCtx, cancelWrite := context.WithCancel(ctx)
	defer cancelWrite()

	exists, err := bucket.Exists(writeCtx, string(destPath))
	if err != nil {
		return false, err
	}

	if exists {
		return true, nil
	}

	w, err := bucket.NewWriter(writeCtx, string(destPath), nil)
	if err != nil {
		return false, err
	}
	defer util.CloseAndLogOnError(ctx, w)

	sourceFile, err := os.Open(string(sourcePath))
	if err != nil {
		return false, err
	}
	defer util.CloseAndLogOnError(ctx, sourceFile)

	_, err = w.ReadFrom(sourceFile)
	if err != nil {
		return false, err
	}

	return false, nil
}

func (bs *bucketStore) Download(ctx context.Context, bucketName string, path types.Path) (io.ReadCloser, error) {
	return bs.DownloadRange(ctx, bucketName, path, 0, -1)
}

func (bs *bucketStore) DownloadRange(ctx context.Context, bucketName string, path types.Path, offset, length int64) (io.ReadCloser, error) {
	bucket, err := bs.provider.Init(ctx, bucketName)
	if err != nil {
		return nil, err
	}

	r, err := bucket.NewRangeReader(ctx, string(path), offset, length, nil)
	if err != nil {
		util.CloseAndLogOnError(ctx, bucket)
		return nil, err
	}

	return &readCloserWithCleanup{
		Reader: r,
		cleanup: func() {
			util.CloseAndLogOnError(ctx, r)
			util.CloseAndLogOnError(ctx, bucket)
		},
	}, nil
}

// readCloserWithCleanup wraps an io.Reader with a cleanup function
type readCloserWithCleanup struct {
	io.Reader
	cleanup func()
}

func (rc *readCloserWithCleanup) Close() error {
	rc.cleanup()
	return nil
}
