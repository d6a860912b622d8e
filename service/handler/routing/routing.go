package routing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pitabwire/frame"
	"github.com/pitabwire/util"

	"github.com/soundvault/service-catalog/service/business"
	"github.com/soundvault/service-catalog/service/storage"
	"github.com/soundvault/service-catalog/service/types"
)

// APIPathPrefix is the prefix of every catalog endpoint.
const APIPathPrefix = "/api"

type ctxValueString string

const ctxKeyUserID ctxValueString = "authenticated_user_id"

// Deps bundles everything route handlers need.
type Deps struct {
	Service   *frame.Service
	Database  *storage.Database
	Streams   business.MediaStreamService
	Search    business.SearchService
	Catalog   business.CatalogService
	Playlists business.PlaylistService
	Auth      business.AuthService
}

// SetupCatalogRoutes builds the full catalog router. Media streaming,
// search and read-only song endpoints are public; everything that mutates
// state requires a bearer token.
func SetupCatalogRoutes(deps *Deps) *mux.Router {
	router := mux.NewRouter()

	public := router.PathPrefix(APIPathPrefix).Subrouter()
	public.Use(OptionalAuth(deps.Auth))

	// Account endpoints.
	public.Handle("/auth/register", CreateHandler(func(req *http.Request) util.JSONResponse {
		return Register(req, deps.Auth)
	})).Methods(http.MethodPost, http.MethodOptions)
	public.Handle("/auth/login", CreateHandler(func(req *http.Request) util.JSONResponse {
		return Login(req, deps.Auth)
	})).Methods(http.MethodPost, http.MethodOptions)
	public.Handle("/auth/refresh", CreateHandler(func(req *http.Request) util.JSONResponse {
		return Refresh(req, deps.Auth)
	})).Methods(http.MethodPost, http.MethodOptions)
	public.Handle("/auth/google", CreateHandler(func(req *http.Request) util.JSONResponse {
		return GoogleAuthRedirect(req, deps.Auth)
	})).Methods(http.MethodGet, http.MethodOptions)
	public.Handle("/auth/google/callback", CreateHandler(func(req *http.Request) util.JSONResponse {
		return GoogleCallback(req, deps.Auth)
	})).Methods(http.MethodGet, http.MethodOptions)

	// Federated search.
	public.Handle("/songs/search", CreateHandler(func(req *http.Request) util.JSONResponse {
		return Search(req, deps.Search)
	})).Methods(http.MethodGet, http.MethodOptions)

	// Song catalog, read side.
	public.Handle("/songs", CreateHandler(func(req *http.Request) util.JSONResponse {
		return ListSongs(req, deps.Catalog)
	})).Methods(http.MethodGet, http.MethodOptions)
	public.Handle("/songs/{songId}", CreateHandler(func(req *http.Request) util.JSONResponse {
		return GetSong(req, deps.Catalog)
	})).Methods(http.MethodGet, http.MethodOptions)

	// Media streaming.
	public.Handle("/songs/{songId}/audio", makeStreamAPI(types.MediaKindAudio, deps)).Methods(http.MethodGet, http.MethodOptions)
	public.Handle("/songs/{songId}/video", makeStreamAPI(types.MediaKindVideo, deps)).Methods(http.MethodGet, http.MethodOptions)
	public.Handle("/songs/{songId}/cover", makeCoverAPI(deps)).Methods(http.MethodGet, http.MethodOptions)

	protected := router.PathPrefix(APIPathPrefix).Subrouter()
	protected.Use(RequireAuth(deps.Auth))

	// Song catalog, write side.
	protected.Handle("/songs", CreateHandler(func(req *http.Request) util.JSONResponse {
		return CreateSong(req, deps.Catalog)
	})).Methods(http.MethodPost)
	protected.Handle("/songs", CreateHandler(func(req *http.Request) util.JSONResponse {
		return DeleteSongs(req, deps.Catalog)
	})).Methods(http.MethodDelete)
	protected.Handle("/songs/{songId}/listen", CreateHandler(func(req *http.Request) util.JSONResponse {
		return RecordListen(req, deps.Catalog)
	})).Methods(http.MethodPost)

	// Playlists.
	protected.Handle("/playlists", CreateHandler(func(req *http.Request) util.JSONResponse {
		return GetPlaylists(req, deps.Playlists)
	})).Methods(http.MethodGet)
	protected.Handle("/playlists", CreateHandler(func(req *http.Request) util.JSONResponse {
		return CreatePlaylist(req, deps.Playlists)
	})).Methods(http.MethodPost)
	protected.Handle("/playlists/favorite", CreateHandler(func(req *http.Request) util.JSONResponse {
		return GetFavoritePlaylist(req, deps.Playlists)
	})).Methods(http.MethodGet)
	protected.Handle("/playlists/{playlistId}", CreateHandler(func(req *http.Request) util.JSONResponse {
		return GetPlaylist(req, deps.Playlists)
	})).Methods(http.MethodGet)
	protected.Handle("/playlists/{playlistId}", CreateHandler(func(req *http.Request) util.JSONResponse {
		return EditPlaylist(req, deps.Playlists)
	})).Methods(http.MethodPut)
	protected.Handle("/playlists/{playlistId}", CreateHandler(func(req *http.Request) util.JSONResponse {
		return DeletePlaylist(req, deps.Playlists)
	})).Methods(http.MethodDelete)
	protected.Handle("/playlists/songs", CreateHandler(func(req *http.Request) util.JSONResponse {
		return AddSongNewPlaylist(req, deps.Playlists)
	})).Methods(http.MethodPost)
	protected.Handle("/playlists/{playlistId}/songs", CreateHandler(func(req *http.Request) util.JSONResponse {
		return AddPlaylistSong(req, deps.Playlists)
	})).Methods(http.MethodPost)
	protected.Handle("/playlists/{playlistId}/songs/{songId}", CreateHandler(func(req *http.Request) util.JSONResponse {
		return RemovePlaylistSong(req, deps.Playlists)
	})).Methods(http.MethodDelete)

	protected.Handle("/auth/logout", CreateHandler(Logout)).Methods(http.MethodPost)

	// Profile.
	protected.Handle("/profile", CreateHandler(func(req *http.Request) util.JSONResponse {
		return Profile(req, deps.Auth)
	})).Methods(http.MethodGet)
	protected.Handle("/profile", CreateHandler(func(req *http.Request) util.JSONResponse {
		return UpdateProfile(req, deps.Auth)
	})).Methods(http.MethodPut)
	protected.Handle("/profile/password", CreateHandler(func(req *http.Request) util.JSONResponse {
		return ChangePassword(req, deps.Auth)
	})).Methods(http.MethodPut)

	return router
}

// RequireAuth rejects requests without a valid bearer token and stores the
// authenticated user id on the request context.
func RequireAuth(auth business.AuthService) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			userID, err := bearerUserID(req, auth)
			if err != nil || userID == "" {
				respondJSON(w, util.JSONResponse{
					Code: http.StatusUnauthorized,
					JSON: map[string]string{"error": "authentication required"},
				})
				return
			}

			ctx := context.WithValue(req.Context(), ctxKeyUserID, userID)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}

// OptionalAuth resolves a bearer token when one is supplied but lets
// anonymous requests through. Streaming uses it to attribute access
// records without forcing playback behind login.
func OptionalAuth(auth business.AuthService) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if userID, err := bearerUserID(req, auth); err == nil && userID != "" {
				ctx := context.WithValue(req.Context(), ctxKeyUserID, userID)
				req = req.WithContext(ctx)
			}
			next.ServeHTTP(w, req)
		})
	}
}

func bearerUserID(req *http.Request, auth business.AuthService) (types.UserID, error) {
	header := req.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", nil
	}
	return auth.VerifyAccessToken(req.Context(), token)
}

// AuthenticatedUserID returns the user id stored by the auth middleware,
// empty for anonymous requests.
func AuthenticatedUserID(req *http.Request) types.UserID {
	userID, _ := req.Context().Value(ctxKeyUserID).(types.UserID)
	return userID
}

// CreateHandler creates an HTTP handler from a JSON response function
func CreateHandler(f func(*http.Request) util.JSONResponse) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		req = util.RequestWithLogging(req)
		respondJSON(w, f(req))
	})
}

func respondJSON(w http.ResponseWriter, response util.JSONResponse) {
	if response.Headers != nil {
		for key, value := range response.Headers {
			if values, ok := value.([]string); ok {
				for _, v := range values {
					w.Header().Add(key, v)
				}
			} else if str, ok := value.(string); ok {
				w.Header().Add(key, str)
			}
		}
	}

	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}

	w.WriteHeader(response.Code)
	if response.JSON != nil {
		encoder := json.NewEncoder(w)
		encoder.SetEscapeHTML(false)
		if err := encoder.Encode(response.JSON); err != nil {
			util.Log(context.Background()).WithError(err).Error("Failed to write JSON response")
		}
	}
}

// errorResponse translates business errors to their HTTP shape. Unknown
// errors become opaque 500s so internals never leak to clients.
func errorResponse(err error) util.JSONResponse {
	switch {
	case business.IsNotFound(err):
		return util.JSONResponse{
			Code: http.StatusNotFound,
			JSON: map[string]string{"error": err.Error()},
		}
	case business.IsInvalidRequest(err):
		return util.JSONResponse{
			Code: http.StatusBadRequest,
			JSON: map[string]string{"error": err.Error()},
		}
	case business.IsForbidden(err):
		return util.JSONResponse{
			Code: http.StatusForbidden,
			JSON: map[string]string{"error": err.Error()},
		}
	case business.IsUnsatisfiableRange(err):
		headers := map[string]interface{}{}
		var unsat *business.UnsatisfiableRangeError
		if errors.As(err, &unsat) {
			headers["Content-Range"] = "bytes */" + strconv.FormatInt(unsat.Total, 10)
		}
		return util.JSONResponse{
			Code:    http.StatusRequestedRangeNotSatisfiable,
			Headers: headers,
			JSON:    map[string]string{"error": err.Error()},
		}
	default:
		return util.JSONResponse{
			Code: http.StatusInternalServerError,
			JSON: map[string]string{"error": "internal server error"},
		}
	}
}

// WrapHandlerInCORS adds CORS headers to all responses, including all error
// responses.
// Handles OPTIONS requests directly.
func WrapHandlerInCORS(h http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusOK)
		} else {
			h.ServeHTTP(w, r)
		}
	}
}
