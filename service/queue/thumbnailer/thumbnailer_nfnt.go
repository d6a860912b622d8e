package thumbnailer

import (
	"context"
	"fmt"
	"image"
	"image/draw"

	// Imported for gif codec
	_ "image/gif"
	"image/jpeg"

	// Imported for png codec
	_ "image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/nfnt/resize"
	"github.com/pitabwire/util"
	// Imported for webp codec
	_ "golang.org/x/image/webp"

	"github.com/soundvault/service-catalog/config"
	"github.com/soundvault/service-catalog/service/storage"
	"github.com/soundvault/service-catalog/service/types"
	"github.com/soundvault/service-catalog/utils"
)

// Crop is the resize method that fills the requested dimensions and crops
// the excess; anything else scales to fit.
const Crop = "crop"

// GenerateCoverThumbnails renders every configured rendition of a cover
// image and stores each next to the original under its derived key.
// Renditions at least as large as the original are skipped, as are
// renditions that already exist in the bucket.
func GenerateCoverThumbnails(
	ctx context.Context,
	sizes []config.ThumbnailSize,
	coverKey types.Path,
	public bool,
	absBasePath types.Path,
	store storage.Store,
	logger *util.LogEntry,
) error {
	img, err := readCover(ctx, store, coverKey, public)
	if err != nil {
		return err
	}

	tempDir, err := utils.CreateTempDir(absBasePath)
	if err != nil {
		return err
	}
	defer utils.RemoveDir(tempDir, logger)

	for _, size := range sizes {
		err = createThumbnail(ctx, tempDir, img, size, coverKey, public, store, logger)
		if err != nil {
			return err
		}
	}
	return nil
}

func readCover(ctx context.Context, store storage.Store, coverKey types.Path, public bool) (image.Image, error) {
	reader, err := store.Download(ctx, store.Bucket(public), coverKey)
	if err != nil {
		return nil, err
	}
	defer util.CloseAndLogOnError(ctx, reader)

	img, _, err := image.Decode(reader)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func writeFile(img image.Image, dst string) (err error) {
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer (func() { err = out.Close() })()

	return jpeg.Encode(out, img, &jpeg.Options{
		Quality: 85,
	})
}

func createThumbnail(
	ctx context.Context,
	temporaryPath types.Path,
	img image.Image,
	size config.ThumbnailSize,
	coverKey types.Path,
	public bool,
	store storage.Store,
	logger *util.LogEntry,
) error {
	logger = logger.With(
		"Width", size.Width,
		"Height", size.Height,
		"ResizeMethod", size.ResizeMethod,
	)

	// Check if request is larger than original
	if size.Width >= img.Bounds().Dx() && size.Height >= img.Bounds().Dy() {
		return nil
	}

	bucket := store.Bucket(public)
	thumbKey := types.ThumbnailPath(coverKey, size.Width, size.Height)

	exists, err := store.Exists(ctx, bucket, thumbKey)
	if err != nil || exists {
		return err
	}

	tempThumbnailPath := filepath.Join(string(temporaryPath), fmt.Sprintf("thumb-%dx%d.jpg", size.Width, size.Height))

	start := time.Now()
	width, height, err := adjustSize(types.Path(tempThumbnailPath), img, size.Width, size.Height, size.ResizeMethod == Crop, logger)
	if err != nil {
		return err
	}
	logger.With("ActualWidth", width,
		"ActualHeight", height,
		"processTime", time.Since(start),
	).Info("Generated thumbnail")

	duplicate, err := store.Upload(ctx, bucket, types.Path(tempThumbnailPath), thumbKey)
	if err != nil {
		return err
	}
	if duplicate {
		logger.WithField("dst", thumbKey).Info("File was stored previously - discarding duplicate")
	}

	return nil
}

// adjustSize scales an image to fit within the provided width and height
// If the source aspect ratio is different to the target dimensions, one edge will be smaller than requested
// If crop is set to true, the image will be scaled to fill the width and height with any excess being cropped off
func adjustSize(dst types.Path, img image.Image, w, h int, crop bool, logger *util.LogEntry) (int, int, error) {
	var out image.Image
	if crop {
		inAR := float64(img.Bounds().Dx()) / float64(img.Bounds().Dy())
		outAR := float64(w) / float64(h)

		var scaleW, scaleH uint
		if inAR > outAR {
			// input has shorter AR than requested output so use requested height and calculate width to match input AR
			scaleW = uint(float64(h) * inAR)
			scaleH = uint(h)
		} else {
			// input has taller AR than requested output so use requested width and calculate height to match input AR
			scaleW = uint(w)
			scaleH = uint(float64(w) / inAR)
		}

		scaled := resize.Resize(scaleW, scaleH, img, resize.Lanczos3)

		xoff := (scaled.Bounds().Dx() - w) / 2
		yoff := (scaled.Bounds().Dy() - h) / 2

		tr := image.Rect(0, 0, w, h)
		target := image.NewRGBA(tr)
		draw.Draw(target, tr, scaled, image.Pt(xoff, yoff), draw.Src)
		out = target
	} else {
		out = resize.Thumbnail(uint(w), uint(h), img, resize.Lanczos3)
	}

	if err := writeFile(out, string(dst)); err != nil {
		logger.WithError(err).Error("Failed to encode thumbnail")
		return -1, -1, err
	}

	return out.Bounds().Dx(), out.Bounds().Dy(), nil
}
