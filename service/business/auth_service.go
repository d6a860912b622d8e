package business

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pitabwire/frame"
	"github.com/pitabwire/util"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/soundvault/service-catalog/config"
	"github.com/soundvault/service-catalog/service/storage"
	"github.com/soundvault/service-catalog/service/storage/models"
	"github.com/soundvault/service-catalog/service/types"
)

const minPasswordLength = 6

// NewAuthService creates the account service. The Google OAuth client is
// configured from the catalog configuration; with empty credentials the
// Google endpoints simply fail exchange and the password flow still works.
func NewAuthService(db *storage.Database, playlists PlaylistService, cfg *config.CatalogConfig) AuthService {
	return &authService{
		db:        db,
		playlists: playlists,
		cfg:       cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleOauthClientID,
			ClientSecret: cfg.GoogleOauthSecret,
			RedirectURL:  cfg.GoogleOauthRedirect,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

type authService struct {
	db        *storage.Database
	playlists PlaylistService
	cfg       *config.CatalogConfig
	oauth     *oauth2.Config
}

func (as *authService) Register(ctx context.Context, req *RegisterRequest) (*TokenPair, error) {
	if req.Name == "" || req.Email == "" {
		return nil, &RequestError{Msg: "name and email are required"}
	}
	if len(req.Password) < minPasswordLength {
		return nil, &RequestError{Msg: fmt.Sprintf("password must be at least %d characters", minPasswordLength)}
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	_, err := as.db.Users.GetByEmail(ctx, email)
	if err == nil {
		return nil, &RequestError{Msg: "email is already registered"}
	}
	if !frame.ErrorIsNoRows(err) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:     req.Name,
		Email:    email,
		Password: string(hashed),
	}
	user.GenID(ctx)

	if err = as.db.Users.Save(ctx, user); err != nil {
		return nil, err
	}

	as.ensureFavoritePlaylist(ctx, types.UserID(user.GetID()))

	return as.issueTokens(user)
}

func (as *authService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := as.db.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if frame.ErrorIsNoRows(err) {
			return nil, &ForbiddenError{Msg: "invalid email or password"}
		}
		return nil, err
	}

	if user.Password == "" {
		return nil, &ForbiddenError{Msg: "account uses an external identity provider"}
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, &ForbiddenError{Msg: "invalid email or password"}
	}

	return as.issueTokens(user)
}

func (as *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	subject, err := as.verifyToken(refreshToken, "refresh")
	if err != nil {
		return nil, err
	}

	user, err := as.db.Users.GetByID(ctx, types.UserID(subject))
	if err != nil {
		if frame.ErrorIsNoRows(err) {
			return nil, &ForbiddenError{Msg: "account no longer exists"}
		}
		return nil, err
	}
	return as.issueTokens(user)
}

func (as *authService) VerifyAccessToken(_ context.Context, token string) (types.UserID, error) {
	subject, err := as.verifyToken(token, "access")
	if err != nil {
		return "", err
	}
	return types.UserID(subject), nil
}

func (as *authService) GoogleAuthURL(state string) string {
	return as.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (as *authService) GoogleLogin(ctx context.Context, code string) (*TokenPair, error) {
	token, err := as.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, &RequestError{Msg: "authorization code exchange failed"}
	}

	info, err := as.fetchGoogleUserinfo(ctx, token)
	if err != nil {
		return nil, err
	}
	if info.Email == "" {
		return nil, &RequestError{Msg: "identity provider returned no email"}
	}

	email := strings.ToLower(info.Email)

	user, err := as.db.Users.GetByEmail(ctx, email)
	if err != nil {
		if !frame.ErrorIsNoRows(err) {
			return nil, err
		}

		user = &models.User{
			Name:     info.Name,
			Email:    email,
			Image:    info.Picture,
			GoogleID: info.ID,
		}
		user.GenID(ctx)
		if err = as.db.Users.Save(ctx, user); err != nil {
			return nil, err
		}
		as.ensureFavoritePlaylist(ctx, types.UserID(user.GetID()))
	} else if user.GoogleID == "" {
		user.GoogleID = info.ID
		if user.Image == "" {
			user.Image = info.Picture
		}
		if err = as.db.Users.Save(ctx, user); err != nil {
			return nil, err
		}
	}

	return as.issueTokens(user)
}

func (as *authService) Profile(ctx context.Context, userID types.UserID) (*types.UserView, error) {
	user, err := as.db.Users.GetByID(ctx, userID)
	if err != nil {
		if frame.ErrorIsNoRows(err) {
			return nil, &NotFoundError{Kind: "User"}
		}
		return nil, err
	}
	return user.ToApi(), nil
}

func (as *authService) UpdateProfile(ctx context.Context, userID types.UserID, update *ProfileUpdate) (*types.UserView, error) {
	user, err := as.db.Users.GetByID(ctx, userID)
	if err != nil {
		if frame.ErrorIsNoRows(err) {
			return nil, &NotFoundError{Kind: "User"}
		}
		return nil, err
	}

	if update.Name != nil {
		if *update.Name == "" {
			return nil, &RequestError{Msg: "name cannot be empty"}
		}
		user.Name = *update.Name
	}
	if update.Bio != nil {
		user.Bio = *update.Bio
	}
	if update.Image != nil {
		user.Image = *update.Image
	}

	if err = as.db.Users.Save(ctx, user); err != nil {
		return nil, err
	}
	return user.ToApi(), nil
}

func (as *authService) ChangePassword(ctx context.Context, userID types.UserID, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return &RequestError{Msg: fmt.Sprintf("password must be at least %d characters", minPasswordLength)}
	}

	user, err := as.db.Users.GetByID(ctx, userID)
	if err != nil {
		if frame.ErrorIsNoRows(err) {
			return &NotFoundError{Kind: "User"}
		}
		return err
	}

	if user.Password != "" {
		if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
			return &ForbiddenError{Msg: "current password does not match"}
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.Password = string(hashed)
	return as.db.Users.Save(ctx, user)
}

// googleUserinfo is the subset of the userinfo payload the catalog needs.
type googleUserinfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (as *authService) fetchGoogleUserinfo(ctx context.Context, token *oauth2.Token) (*googleUserinfo, error) {
	client := as.oauth.Client(ctx, token)

	resp, err := client.Get(as.cfg.GoogleUserinfoServer)
	if err != nil {
		return nil, err
	}
	defer util.CloseAndLogOnError(ctx, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo endpoint returned status %d", resp.StatusCode)
	}

	var info googleUserinfo
	if err = json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ensureFavoritePlaylist creates the account's favorites playlist. Failure
// is logged and not surfaced; the playlist is recreated lazily on first
// favorites access anyway.
func (as *authService) ensureFavoritePlaylist(ctx context.Context, userID types.UserID) {
	if _, err := as.playlists.GetFavorite(ctx, userID); err != nil {
		util.Log(ctx).WithError(err).
			WithField("user_id", string(userID)).
			Warn("failed to prepare favorites playlist")
	}
}

func (as *authService) issueTokens(user *models.User) (*TokenPair, error) {
	now := time.Now()

	access, err := as.signToken(user.GetID(), "access", now, time.Duration(as.cfg.AccessTokenMinutes)*time.Minute)
	if err != nil {
		return nil, err
	}

	refresh, err := as.signToken(user.GetID(), "refresh", now, time.Duration(as.cfg.RefreshTokenMinutes)*time.Minute)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		Access:  access,
		Refresh: refresh,
		User:    user.ToApi(),
	}, nil
}

// verifyToken validates signature, expiry, issuer and token use, returning
// the subject user id.
func (as *authService) verifyToken(raw, expectedUse string) (string, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(as.cfg.TokenSecret), nil
	}, jwt.WithIssuer(as.cfg.TokenIssuer), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return "", &ForbiddenError{Msg: "invalid or expired token"}
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", &ForbiddenError{Msg: "invalid or expired token"}
	}
	if use, _ := claims["use"].(string); use != expectedUse {
		return "", &ForbiddenError{Msg: "invalid or expired token"}
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", &ForbiddenError{Msg: "invalid or expired token"}
	}
	return subject, nil
}

func (as *authService) signToken(subject, use string, issuedAt time.Time, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": subject,
		"iss": as.cfg.TokenIssuer,
		"iat": issuedAt.Unix(),
		"exp": issuedAt.Add(ttl).Unix(),
		"use": use,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.cfg.TokenSecret))
}
