package provider

import (
	"context"

	"github.com/pitabwire/frame"

	"github.com/soundvault/service-catalog/config"
	"github.com/soundvault/service-catalog/service/storage"
	"github.com/soundvault/service-catalog/service/storage/provider/gcs"
	"github.com/soundvault/service-catalog/service/storage/provider/local"
	"github.com/soundvault/service-catalog/service/storage/provider/s3"
)

func GetStorageProvider(ctx context.Context, cfg *config.CatalogConfig) (storage.Provider, error) {
	var provider storage.Provider
	switch cfg.StorageProvider {
	case "GCS":
		provider = gcs.NewProvider("GCS", cfg.ProviderGcsPrivateBucket, cfg.ProviderGcsPublicBucket)

	case "S3":

		provider = s3.NewProvider("S3", cfg.ProviderS3PrivateBucket, cfg.ProviderS3PublicBucket,
			cfg.ProviderS3Endpoint, cfg.ProviderS3Region, cfg.ProviderS3AccessKeySecret,
			cfg.ProviderS3SessionToken, cfg.ProviderS3AccessKeyId)

	default:

		provider = local.NewProvider("LOCAL", frame.GetEnv("LOCAL_PRIVATE_DIRECTORY", "/tmp/private"), frame.GetEnv("LOCAL_PUBLIC_DIRECTORY", "/tmp/public"))

	}

	err := provider.Setup(ctx)
	return provider, err
}
