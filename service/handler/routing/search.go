package routing

import (
	"net/http"
	"strings"

	"github.com/pitabwire/util"

	"github.com/soundvault/service-catalog/service/business"
	"github.com/soundvault/service-catalog/service/types"
)

// Search implements GET /songs/search. The scoped variant, type=User with
// a user_id, bypasses ranking and returns that user's songs; every other
// type goes through the federated aggregator. An empty query yields an
// empty JSON object without consulting any store.
func Search(req *http.Request, search business.SearchService) util.JSONResponse {
	query := req.FormValue("query")
	searchType := types.SearchType(req.FormValue("type"))
	genre := req.FormValue("genre")
	scopedUserID := types.UserID(req.FormValue("user_id"))

	if searchType == types.SearchTypeScopedUser && scopedUserID != "" {
		songs, err := search.SongsByUser(req.Context(), scopedUserID)
		if err != nil {
			return errorResponse(err)
		}
		return util.JSONResponse{
			Code: http.StatusOK,
			JSON: map[string][]*types.RankedSong{"songs_by_user": songs},
		}
	}

	if strings.TrimSpace(query) == "" {
		return util.JSONResponse{
			Code: http.StatusOK,
			JSON: struct{}{},
		}
	}

	result, err := search.Search(req.Context(), &types.SearchQuery{
		Text:  query,
		Type:  searchType,
		Genre: genre,
	})
	if err != nil {
		return errorResponse(err)
	}

	return util.JSONResponse{
		Code: http.StatusOK,
		JSON: result,
	}
}
