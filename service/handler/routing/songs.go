package routing

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/pitabwire/util"

	"github.com/soundvault/service-catalog/service/business"
	"github.com/soundvault/service-catalog/service/types"
)

// multipartMemoryLimit is the in-memory threshold when parsing uploads;
// larger parts spill to disk.
const multipartMemoryLimit = 10 << 20

func ListSongs(req *http.Request, catalog business.CatalogService) util.JSONResponse {
	songs, err := catalog.ListSongs(req.Context())
	if err != nil {
		return errorResponse(err)
	}
	return util.JSONResponse{
		Code: http.StatusOK,
		JSON: map[string][]*types.RankedSong{"songs": songs},
	}
}

func GetSong(req *http.Request, catalog business.CatalogService) util.JSONResponse {
	song, err := catalog.GetSong(req.Context(), types.SongID(mux.Vars(req)["songId"]))
	if err != nil {
		return errorResponse(err)
	}
	return util.JSONResponse{
		Code: http.StatusOK,
		JSON: song,
	}
}

// CreateSong implements POST /songs. The request is a multipart form with
// title, genre, duration and released_at fields plus audio, video and
// cover file parts; only audio is mandatory.
func CreateSong(req *http.Request, catalog business.CatalogService) util.JSONResponse {
	if err := req.ParseMultipartForm(multipartMemoryLimit); err != nil {
		return errorResponse(&business.RequestError{Msg: "request is not a valid multipart form"})
	}
	defer func() {
		_ = req.MultipartForm.RemoveAll()
	}()

	duration, _ := strconv.ParseInt(req.FormValue("duration"), 10, 64)

	createReq := &business.CreateSongRequest{
		OwnerID:    AuthenticatedUserID(req),
		Title:      req.FormValue("title"),
		Genre:      req.FormValue("genre"),
		Duration:   duration,
		ReleasedAt: parseReleaseDate(req.FormValue("released_at")),
	}

	for _, part := range []struct {
		field  string
		target **business.MediaUpload
	}{
		{"audio", &createReq.Audio},
		{"video", &createReq.Video},
		{"cover", &createReq.Cover},
	} {
		upload, err := openUploadPart(req, part.field)
		if err != nil {
			return errorResponse(err)
		}
		if upload != nil {
			defer upload.close()
			*part.target = &upload.MediaUpload
		}
	}

	song, err := catalog.CreateSong(req.Context(), createReq)
	if err != nil {
		return errorResponse(err)
	}

	return util.JSONResponse{
		Code: http.StatusCreated,
		JSON: song,
	}
}

// DeleteSongs implements DELETE /songs with a JSON body of song ids.
func DeleteSongs(req *http.Request, catalog business.CatalogService) util.JSONResponse {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return errorResponse(&business.RequestError{Msg: "request body must be JSON with an ids array"})
	}

	result, err := catalog.DeleteSongs(req.Context(), body.IDs)
	if err != nil {
		return errorResponse(err)
	}

	return util.JSONResponse{
		Code: http.StatusOK,
		JSON: map[string]int64{"deleted": result.Deleted},
	}
}

func RecordListen(req *http.Request, catalog business.CatalogService) util.JSONResponse {
	songID := types.SongID(mux.Vars(req)["songId"])

	err := catalog.RecordListen(req.Context(), songID, AuthenticatedUserID(req))
	if err != nil {
		return errorResponse(err)
	}

	return util.JSONResponse{
		Code: http.StatusAccepted,
		JSON: map[string]string{"status": "accepted"},
	}
}

type openedUpload struct {
	business.MediaUpload
	file multipart.File
}

func (ou *openedUpload) close() {
	_ = ou.file.Close()
}

func openUploadPart(req *http.Request, field string) (*openedUpload, error) {
	file, header, err := req.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil
		}
		return nil, &business.RequestError{Msg: "could not read uploaded " + field + " file"}
	}

	return &openedUpload{
		MediaUpload: business.MediaUpload{
			Filename:    types.Filename(header.Filename),
			ContentType: types.ContentType(header.Header.Get("Content-Type")),
			Data:        file,
		},
		file: file,
	}, nil
}

func parseReleaseDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return &parsed
		}
	}
	return nil
}
