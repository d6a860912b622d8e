package routing

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pitabwire/util"

	"github.com/soundvault/service-catalog/service/business"
	"github.com/soundvault/service-catalog/service/types"
)

type playlistBody struct {
	Name string `json:"name"`
	Desc string `json:"desc"`
}

// GetPlaylists implements GET /playlists, returning the caller's
// playlists. A query parameter narrows them by name.
func GetPlaylists(req *http.Request, playlists business.PlaylistService) util.JSONResponse {
	userID := AuthenticatedUserID(req)

	var (
		result []*types.RankedPlaylist
		err    error
	)
	if query := req.FormValue("query"); query != "" {
		result, err = playlists.SearchScoped(req.Context(), userID, query)
	} else {
		result, err = playlists.GetAll(req.Context(), userID)
	}
	if err != nil {
		return errorResponse(err)
	}

	return util.JSONResponse{
		Code: http.StatusOK,
		JSON: map[string][]*types.RankedPlaylist{"playlists": result},
	}
}

func GetPlaylist(req *http.Request, playlists business.PlaylistService) util.JSONResponse {
	playlist, err := playlists.GetDetail(req.Context(), types.PlaylistID(mux.Vars(req)["playlistId"]))
	if err != nil {
		return errorResponse(err)
	}
	return util.JSONResponse{
		Code: http.StatusOK,
		JSON: playlist,
	}
}

func GetFavoritePlaylist(req *http.Request, playlists business.PlaylistService) util.JSONResponse {
	playlist, err := playlists.GetFavorite(req.Context(), AuthenticatedUserID(req))
	if err != nil {
		return errorResponse(err)
	}
	return util.JSONResponse{
		Code: http.StatusOK,
		JSON: playlist,
	}
}

func CreatePlaylist(req *http.Request, playlists business.PlaylistService) util.JSONResponse {
	var body playlistBody
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return errorResponse(&business.RequestError{Msg: "request body must be JSON"})
	}

	playlist, err := playlists.Create(req.Context(), AuthenticatedUserID(req), body.Name, body.Desc)
	if err != nil {
		return errorResponse(err)
	}

	return util.JSONResponse{
		Code: http.StatusCreated,
		JSON: playlist,
	}
}

func EditPlaylist(req *http.Request, playlists business.PlaylistService) util.JSONResponse {
	var body playlistBody
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return errorResponse(&business.RequestError{Msg: "request body must be JSON"})
	}

	id := types.PlaylistID(mux.Vars(req)["playlistId"])
	err := playlists.Edit(req.Context(), id, AuthenticatedUserID(req), body.Name, body.Desc)
	if err != nil {
		return errorResponse(err)
	}

	return util.JSONResponse{
		Code: http.StatusOK,
		JSON: map[string]string{"status": "updated"},
	}
}

func DeletePlaylist(req *http.Request, playlists business.PlaylistService) util.JSONResponse {
	err := playlists.Delete(req.Context(), types.PlaylistID(mux.Vars(req)["playlistId"]))
	if err != nil {
		return errorResponse(err)
	}
	return util.JSONResponse{
		Code: http.StatusOK,
		JSON: map[string]string{"status": "deleted"},
	}
}

func AddPlaylistSong(req *http.Request, playlists business.PlaylistService) util.JSONResponse {
	var body struct {
		SongID string `json:"song_id"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.SongID == "" {
		return errorResponse(&business.RequestError{Msg: "request body must be JSON with a song_id"})
	}

	id := types.PlaylistID(mux.Vars(req)["playlistId"])
	err := playlists.AddSong(req.Context(), id, AuthenticatedUserID(req), types.SongID(body.SongID))
	if err != nil {
		return errorResponse(err)
	}

	return util.JSONResponse{
		Code: http.StatusOK,
		JSON: map[string]string{"status": "added"},
	}
}

// AddSongNewPlaylist implements POST /playlists/songs: files a song into a
// brand new playlist named after it.
func AddSongNewPlaylist(req *http.Request, playlists business.PlaylistService) util.JSONResponse {
	var body struct {
		SongID string `json:"song_id"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.SongID == "" {
		return errorResponse(&business.RequestError{Msg: "request body must be JSON with a song_id"})
	}

	playlist, err := playlists.AddSongNewPlaylist(req.Context(), AuthenticatedUserID(req), types.SongID(body.SongID))
	if err != nil {
		return errorResponse(err)
	}

	return util.JSONResponse{
		Code: http.StatusCreated,
		JSON: playlist,
	}
}

func RemovePlaylistSong(req *http.Request, playlists business.PlaylistService) util.JSONResponse {
	vars := mux.Vars(req)
	err := playlists.RemoveSong(req.Context(), types.PlaylistID(vars["playlistId"]), types.SongID(vars["songId"]))
	if err != nil {
		return errorResponse(err)
	}
	return util.JSONResponse{
		Code: http.StatusOK,
		JSON: map[string]string{"status": "removed"},
	}
}
