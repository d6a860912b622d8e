package routing

import (
	"encoding/json"
	"net/http"

	"github.com/pitabwire/util"

	"github.com/soundvault/service-catalog/service/business"
	"github.com/soundvault/service-catalog/utils"
)

func Register(req *http.Request, auth business.AuthService) util.JSONResponse {
	var body business.RegisterRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return errorResponse(&business.RequestError{Msg: "request body must be JSON"})
	}

	tokens, err := auth.Register(req.Context(), &body)
	if err != nil {
		return errorResponse(err)
	}

	return util.JSONResponse{
		Code: http.StatusCreated,
		JSON: tokens,
	}
}

func Login(req *http.Request, auth business.AuthService) util.JSONResponse {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return errorResponse(&business.RequestError{Msg: "request body must be JSON"})
	}

	tokens, err := auth.Login(req.Context(), body.Email, body.Password)
	if err != nil {
		return errorResponse(err)
	}

	return util.JSONResponse{
		Code: http.StatusOK,
		JSON: tokens,
	}
}

func Refresh(req *http.Request, auth business.AuthService) util.JSONResponse {
	var body struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Refresh == "" {
		return errorResponse(&business.RequestError{Msg: "request body must be JSON with a refresh token"})
	}

	tokens, err := auth.Refresh(req.Context(), body.Refresh)
	if err != nil {
		return errorResponse(err)
	}

	return util.JSONResponse{
		Code: http.StatusOK,
		JSON: tokens,
	}
}

// GoogleAuthRedirect implements GET /auth/google, handing the client the
// provider URL to visit. The state parameter round-trips through the
// provider so the callback can be correlated.
func GoogleAuthRedirect(req *http.Request, auth business.AuthService) util.JSONResponse {
	state := req.FormValue("state")
	if state == "" {
		state = utils.GenerateRandomString(24)
	}

	return util.JSONResponse{
		Code: http.StatusOK,
		JSON: map[string]string{
			"auth_url": auth.GoogleAuthURL(state),
			"state":    state,
		},
	}
}

func GoogleCallback(req *http.Request, auth business.AuthService) util.JSONResponse {
	code := req.FormValue("code")
	if code == "" {
		return errorResponse(&business.RequestError{Msg: "missing authorization code"})
	}

	tokens, err := auth.GoogleLogin(req.Context(), code)
	if err != nil {
		return errorResponse(err)
	}

	return util.JSONResponse{
		Code: http.StatusOK,
		JSON: tokens,
	}
}

// Logout acknowledges a sign out. Tokens are stateless, so dropping them
// client side is the whole operation.
func Logout(_ *http.Request) util.JSONResponse {
	return util.JSONResponse{
		Code: http.StatusOK,
		JSON: map[string]string{"status": "logged out"},
	}
}

func Profile(req *http.Request, auth business.AuthService) util.JSONResponse {
	user, err := auth.Profile(req.Context(), AuthenticatedUserID(req))
	if err != nil {
		return errorResponse(err)
	}
	return util.JSONResponse{
		Code: http.StatusOK,
		JSON: user,
	}
}

func UpdateProfile(req *http.Request, auth business.AuthService) util.JSONResponse {
	var body business.ProfileUpdate
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return errorResponse(&business.RequestError{Msg: "request body must be JSON"})
	}

	user, err := auth.UpdateProfile(req.Context(), AuthenticatedUserID(req), &body)
	if err != nil {
		return errorResponse(err)
	}

	return util.JSONResponse{
		Code: http.StatusOK,
		JSON: user,
	}
}

func ChangePassword(req *http.Request, auth business.AuthService) util.JSONResponse {
	var body struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return errorResponse(&business.RequestError{Msg: "request body must be JSON"})
	}

	err := auth.ChangePassword(req.Context(), AuthenticatedUserID(req), body.OldPassword, body.NewPassword)
	if err != nil {
		return errorResponse(err)
	}

	return util.JSONResponse{
		Code: http.StatusOK,
		JSON: map[string]string{"status": "password changed"},
	}
}
