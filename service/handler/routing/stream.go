package routing

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pitabwire/util"

	"github.com/soundvault/service-catalog/service/business"
	"github.com/soundvault/service-catalog/service/storage/models"
	"github.com/soundvault/service-catalog/service/types"
)

// makeStreamAPI builds the handler serving one media kind of a song. A
// Range header yields a 206 with the requested window; without one the
// whole blob is served with a 200. Either way Accept-Ranges advertises
// resumability.
func makeStreamAPI(kind types.MediaKind, deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		req = util.RequestWithLogging(req)

		util.SetCORSHeaders(w)
		w.Header().Set("Cross-Origin-Resource-Policy", "cross-origin")
		// Content-Type will be overridden in case of returning file data, else we respond with JSON-formatted errors
		w.Header().Set("Content-Type", "application/json")

		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		songID := types.SongID(mux.Vars(req)["songId"])

		result, err := deps.Streams.StreamMedia(req.Context(), &business.StreamRequest{
			SongID:      songID,
			Kind:        kind,
			RangeHeader: req.Header.Get("Range"),
		})
		if err != nil {
			respondJSON(w, errorResponse(err))
			return
		}
		defer util.CloseAndLogOnError(req.Context(), result.Content)

		recordAccess(req, deps, songID, kind)

		w.Header().Set("Content-Type", string(result.ContentType))
		w.Header().Set("Accept-Ranges", "bytes")
		w.Header().Set("Content-Length", strconv.FormatInt(result.Range.Length(), 10))
		w.Header().Set("Content-Disposition", "inline; filename=\""+result.Filename+"\"")
		w.Header().Set("Cache-Control", "public,max-age=86400,s-maxage=86400")

		if result.Partial {
			w.Header().Set("Content-Range", result.Range.ContentRange())
			w.WriteHeader(http.StatusPartialContent)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		// Clients drop the connection mid stream all the time when seeking;
		// a copy error here is routine.
		_, err = io.Copy(w, result.Content)
		if err != nil {
			util.Log(req.Context()).WithError(err).Debug("media stream ended early")
		}
	}
}

// makeCoverAPI serves the song cover, optionally picking a pre-generated
// rendition via width and height query parameters.
func makeCoverAPI(deps *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		req = util.RequestWithLogging(req)

		util.SetCORSHeaders(w)
		w.Header().Set("Cross-Origin-Resource-Policy", "cross-origin")
		w.Header().Set("Content-Type", "application/json")

		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		songID := types.SongID(mux.Vars(req)["songId"])

		var selector *business.ThumbnailSelector
		width, werr := strconv.Atoi(req.FormValue("width"))
		height, herr := strconv.Atoi(req.FormValue("height"))
		if werr == nil && herr == nil && width > 0 && height > 0 {
			selector = &business.ThumbnailSelector{Width: width, Height: height}
		}

		result, err := deps.Streams.FetchCover(req.Context(), songID, selector)
		if err != nil {
			respondJSON(w, errorResponse(err))
			return
		}
		defer util.CloseAndLogOnError(req.Context(), result.Content)

		recordAccess(req, deps, songID, types.MediaKindCover)

		w.Header().Set("Content-Type", string(result.ContentType))
		w.Header().Set("Content-Length", strconv.FormatInt(result.Size, 10))
		w.Header().Set("Cache-Control", "public,max-age=86400,s-maxage=86400")
		w.WriteHeader(http.StatusOK)

		if _, err = io.Copy(w, result.Content); err != nil {
			util.Log(req.Context()).WithError(err).Debug("cover download ended early")
		}
	}
}

// recordAccess writes the media access audit row. Auditing never blocks or
// fails a stream.
func recordAccess(req *http.Request, deps *Deps, songID types.SongID, kind types.MediaKind) {
	ctx := req.Context()

	audit := &models.CatalogAudit{
		SongID:   string(songID),
		AccessID: string(AuthenticatedUserID(req)),
		Action:   "stream_" + string(kind),
		Source:   req.RemoteAddr,
	}
	audit.GenID(ctx)

	if err := deps.Database.Audits.Save(ctx, audit); err != nil {
		util.Log(ctx).WithError(err).Warn("failed to record media access")
	}
}
