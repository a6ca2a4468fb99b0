package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/in-nis/smartschedule-back/internal/config"
	"github.com/in-nis/smartschedule-back/internal/models"
)

const (
	accessTTL   = 15 * time.Minute
	refreshTTL  = 7 * 24 * time.Hour
	userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

	stateCookie = "oauth_state"
	stateTTL    = 10 * time.Minute
	statePath   = "/auth/google"
)

var ErrInvalidToken = errors.New("invalid token")

// UserStore persists users that signed in with Google.
type UserStore interface {
	SaveOrUpdateUser(ctx context.Context, u models.User) error
}

type Service struct {
	secret []byte
	oauth  *oauth2.Config
	users  UserStore
}

func NewService(cfg *config.Config, users UserStore) *Service {
	return &Service{
		secret: []byte(cfg.JWT_SECRET),
		oauth: &oauth2.Config{
			RedirectURL:  cfg.GoogleRedirectURL,
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleSecret,
			Scopes: []string{
				"openid",
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		users: users,
	}
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// IssueTokens signs a short-lived access token and a long-lived refresh
// token for email.
func (s *Service) IssueTokens(email string) (TokenPair, error) {
	if len(s.secret) == 0 {
		return TokenPair{}, errors.New("JWT_SECRET not set")
	}
	now := time.Now()

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"exp":   now.Add(accessTTL).Unix(),
		"iat":   now.Unix(),
	})
	signedAccess, err := access.SignedString(s.secret)
	if err != nil {
		return TokenPair{}, err
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"exp":   now.Add(refreshTTL).Unix(),
		"iat":   now.Unix(),
		"type":  "refresh",
	})
	signedRefresh, err := refresh.SignedString(s.secret)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: signedAccess, RefreshToken: signedRefresh}, nil
}

// ParseToken validates tokenStr and returns its email claim. wantRefresh
// selects which kind of token is accepted.
func (s *Service) ParseToken(tokenStr string, wantRefresh bool) (string, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	isRefresh := claims["type"] == "refresh"
	if isRefresh != wantRefresh {
		return "", ErrInvalidToken
	}
	email, ok := claims["email"].(string)
	if !ok || email == "" {
		return "", ErrInvalidToken
	}
	return email, nil
}

// @Summary      Login with Google
// @Description  Redirects to the Google consent screen
// @Tags         auth
// @Success      307
// @Router       /auth/google/login [get]
func (s *Service) GoogleLoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		state := uuid.NewString()
		c.SetCookie(stateCookie, state, int(stateTTL.Seconds()), statePath, "", c.Request.TLS != nil, true)
		url := s.oauth.AuthCodeURL(state)
		c.Redirect(http.StatusTemporaryRedirect, url)
	}
}

// @Summary      Google callback
// @Description  Exchanges the OAuth code, stores the user and returns JWT tokens
// @Tags         auth
// @Produce      json
// @Param        code   query  string  true  "OAuth code"
// @Param        state  query  string  true  "OAuth state issued by the login redirect"
// @Success      200 {object} TokenPair
// @Failure      400 {object} map[string]string
// @Failure      500 {object} map[string]string
// @Router       /auth/google/callback [get]
func (s *Service) GoogleCallbackHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		want, err := c.Cookie(stateCookie)
		c.SetCookie(stateCookie, "", -1, statePath, "", c.Request.TLS != nil, true)
		if err != nil || want == "" || want != c.Query("state") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OAuth state"})
			return
		}

		ctx := c.Request.Context()
		token, err := s.oauth.Exchange(ctx, c.Query("code"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to exchange token"})
			return
		}

		email, err := fetchEmail(ctx, s.oauth.Client(ctx, token))
		if err != nil {
			slog.Warn("google userinfo failed", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to get user info"})
			return
		}

		u := models.User{
			Email:        email,
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
			TokenType:    token.TokenType,
			Expiry:       token.Expiry,
		}
		if err := s.users.SaveOrUpdateUser(ctx, u); err != nil {
			slog.Error("failed to save user", "email", email, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save user"})
			return
		}

		pair, err := s.IssueTokens(email)
		if err != nil {
			slog.Error("failed to sign tokens", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue tokens"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"access_token":  pair.AccessToken,
			"refresh_token": pair.RefreshToken,
			"email":         email,
		})
	}
}

func fetchEmail(ctx context.Context, client *http.Client) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userInfoURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("userinfo: %s", resp.Status)
	}

	var info struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", err
	}
	if info.Email == "" {
		return "", errors.New("userinfo: no email")
	}
	return info.Email, nil
}
