package config

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	config "github.com/pitabwire/frame"

	"github.com/soundvault/service-catalog/service/types"
)

// DefaultMaxFileSizeBytes limits a single media upload when no explicit
// value is configured.
var DefaultMaxFileSizeBytes = types.FileSizeBytes(104857600)

// ThumbnailSize contains a single cover thumbnail size configuration
type ThumbnailSize struct {
	Width  int
	Height int
	// ResizeMethod is one of crop or scale.
	// crop scales to fill the requested dimensions and crops the excess.
	// scale scales to fit the requested dimensions and one dimension may be smaller than requested.
	ResizeMethod string
}

type CatalogConfig struct {
	config.ConfigurationDefault

	ServerName string `envDefault:"catalog.localhost" env:"SERVER_NAME"`

	// MediaBaseURL prefixes the audio/video/cover URLs handed out in API
	// responses. Usually the public address of this service.
	MediaBaseURL string `envDefault:"http://127.0.0.1:8080" env:"MEDIA_BASE_URL"`

	StorageProvider string `envDefault:"LOCAL" env:"STORAGE_PROVIDER"`

	ProviderGcsPrivateBucket  string `envDefault:"" env:"GCS_PRIVATE_BUCKET"`
	ProviderGcsPublicBucket   string `envDefault:"" env:"GCS_PUBLIC_BUCKET"`
	ProviderS3PrivateBucket   string `envDefault:"" env:"S3_PRIVATE_BUCKET"`
	ProviderS3PublicBucket    string `envDefault:"" env:"S3_PUBLIC_BUCKET"`
	ProviderS3Endpoint        string `envDefault:"" env:"S3_ENDPOINT"`
	ProviderS3Region          string `envDefault:"" env:"S3_REGION"`
	ProviderS3AccessKeySecret string `envDefault:"" env:"S3_ACCESS_KEY_SECRET"`
	ProviderS3SessionToken    string `envDefault:"" env:"S3_SESSION_TOKEN"`
	ProviderS3AccessKeyId     string `envDefault:"" env:"S3_ACCESS_KEY_ID"`

	QueueListenRecordURL  string `envDefault:"mem://listen_record" env:"QUEUE_LISTEN_RECORD_URL"`
	QueueListenRecordName string `envDefault:"listen_record" env:"QUEUE_LISTEN_RECORD_NAME"`

	QueueCoverThumbnailURL  string `envDefault:"mem://cover_thumbnails" env:"QUEUE_COVER_THUMBNAIL_URL"`
	QueueCoverThumbnailName string `envDefault:"cover_thumbnails" env:"QUEUE_COVER_THUMBNAIL_NAME"`

	TokenSecret          string `envDefault:"" env:"TOKEN_SECRET"`
	TokenIssuer          string `envDefault:"service_catalog" env:"TOKEN_ISSUER"`
	AccessTokenMinutes   int    `envDefault:"60" env:"ACCESS_TOKEN_MINUTES"`
	RefreshTokenMinutes  int    `envDefault:"10080" env:"REFRESH_TOKEN_MINUTES"`
	GoogleOauthClientID  string `envDefault:"" env:"GOOGLE_OAUTH_CLIENT_ID"`
	GoogleOauthSecret    string `envDefault:"" env:"GOOGLE_OAUTH_CLIENT_SECRET"`
	GoogleOauthRedirect  string `envDefault:"" env:"GOOGLE_OAUTH_REDIRECT_URL"`
	GoogleUserinfoServer string `envDefault:"https://www.googleapis.com/oauth2/v2/userinfo" env:"GOOGLE_USERINFO_URL"`

	// The base path where uploads are staged before moving into a bucket.
	// May be relative or absolute.
	BasePath types.Path `envDefault:"/tmp/catalog_store" env:"MEDIA_BASE_PATH"`

	// The absolute form of BasePath, resolved at startup.
	AbsBasePath types.Path `env:"-"`

	// The maximum file size in bytes allowed for a single media upload.
	// 0 means unlimited; unset defaults to 100MB.
	MaxFileSizeBytes types.FileSizeBytes `envDefault:"104857600" env:"MAX_FILE_SIZE_BYTES"`

	// Cover thumbnail renditions generated in the background after upload,
	// as a comma separated list of WIDTHxHEIGHT entries with an optional
	// resize method suffix, e.g. "32x32:crop,320x240:scale,640x480".
	ThumbnailSizesRaw string `envDefault:"32x32:crop,96x96:crop,320x240:scale,640x480:scale" env:"THUMBNAIL_SIZES"`

	// The parsed form of ThumbnailSizesRaw, resolved at startup.
	ThumbnailSizes []ThumbnailSize `env:"-"`
}

// LoadDerived resolves the configuration fields computed from others.
// Call once after the environment has been read.
func (c *CatalogConfig) LoadDerived() error {
	absPath, err := filepath.Abs(string(c.BasePath))
	if err != nil {
		return err
	}
	c.AbsBasePath = types.Path(absPath)

	if c.MaxFileSizeBytes < 0 {
		c.MaxFileSizeBytes = DefaultMaxFileSizeBytes
	}

	c.ThumbnailSizes, err = parseThumbnailSizes(c.ThumbnailSizesRaw)
	if err != nil {
		return err
	}
	return nil
}

// parseThumbnailSizes decodes the THUMBNAIL_SIZES encoding. An empty
// value disables thumbnail generation.
func parseThumbnailSizes(raw string) ([]ThumbnailSize, error) {
	entries := strings.Split(raw, ",")
	sizes := make([]ThumbnailSize, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		dims := entry
		method := "scale"
		if dims0, method0, found := strings.Cut(entry, ":"); found {
			dims = dims0
			method = method0
		}
		if method != "crop" && method != "scale" {
			return nil, errors.Errorf("unknown thumbnail resize method %q in %q", method, entry)
		}

		widthText, heightText, found := strings.Cut(dims, "x")
		if !found {
			return nil, errors.Errorf("thumbnail size %q is not WIDTHxHEIGHT", entry)
		}
		width, err := strconv.Atoi(widthText)
		if err != nil {
			return nil, errors.Wrapf(err, "thumbnail width in %q", entry)
		}
		height, err := strconv.Atoi(heightText)
		if err != nil {
			return nil, errors.Wrapf(err, "thumbnail height in %q", entry)
		}
		if width <= 0 || height <= 0 {
			return nil, errors.Errorf("thumbnail size %q must be positive", entry)
		}

		sizes = append(sizes, ThumbnailSize{Width: width, Height: height, ResizeMethod: method})
	}
	return sizes, nil
}
