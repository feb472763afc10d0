package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"tunehub/core/auth"
	"tunehub/logger"
	"tunehub/model"
	"tunehub/repository"
)

type contextKey string

const (
	ctxUserID   contextKey = "userID"
	ctxUsername contextKey = "username"
)

// LoginRequest is the login request body.
type LoginRequest struct {
	Username string `json:"username"` // Username or email
	Password string `json:"password"`
}

// SignupRequest is the signup request body.
type SignupRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`

	IsArtist   bool   `json:"isArtist"`
	ArtistName string `json:"artistName"`
	Bio        string `json:"bio"`
	GenreID    int64  `json:"genreId"`
	Website    string `json:"website"`
}

// SignupHandler handles account creation. Validation collects every
// violated rule before anything is persisted; the user, profile and
// optional artist rows are then created in a single transaction.
func (h *APIHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var errs []string
	if req.Username == "" || req.Email == "" || req.Password1 == "" {
		errs = append(errs, "All required fields must be filled.")
	}
	if req.Password1 != req.Password2 {
		errs = append(errs, "Passwords do not match.")
	}
	if req.Username != "" {
		taken, err := h.userRepo.UsernameExists(req.Username)
		if err != nil {
			logger.Error("Failed to check username", logger.ErrorField(err))
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if taken {
			errs = append(errs, "Username already exists.")
		}
	}
	if req.Email != "" {
		taken, err := h.userRepo.EmailExists(req.Email)
		if err != nil {
			logger.Error("Failed to check email", logger.ErrorField(err))
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if taken {
			errs = append(errs, "Email already exists.")
		}
	}
	if req.IsArtist && req.ArtistName == "" {
		errs = append(errs, "Artist name is required when signing up as an artist.")
	}

	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"errors": errs})
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password1)
	if err != nil {
		logger.Error("Failed to hash password", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to process password")
		return
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	}

	var newArtist *repository.NewArtist
	if req.IsArtist {
		newArtist = &repository.NewArtist{
			Name:    req.ArtistName,
			Bio:     req.Bio,
			Website: req.Website,
		}
		if req.GenreID > 0 {
			// A genre that does not exist is tolerated: the artist is
			// created without one rather than failing the signup.
			genre, err := h.genreRepo.GetGenreByID(req.GenreID)
			if err != nil {
				logger.Error("Failed to look up genre", logger.ErrorField(err))
				writeError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if genre != nil {
				newArtist.GenreID = genre.ID
			}
		}
	}

	userID, err := h.userRepo.CreateUser(user, newArtist)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			writeError(w, http.StatusConflict, "Username or email already exists")
			return
		}
		logger.Error("Failed to create user", logger.ErrorField(err),
			logger.String("username", req.Username))
		writeError(w, http.StatusInternalServerError, "Error creating account")
		return
	}

	token, err := auth.GenerateToken(userID, user.Username)
	if err != nil {
		logger.Error("Failed to generate token", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	logger.Info("Account created",
		logger.Int64("userId", userID),
		logger.String("username", req.Username),
		logger.Bool("isArtist", req.IsArtist))

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"token": token,
		"user": map[string]interface{}{
			"id":       userID,
			"username": user.Username,
			"email":    user.Email,
		},
	})
}

// LoginHandler handles user login requests.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username/email and password are required")
		return
	}

	var user *model.User
	var err error
	if strings.Contains(req.Username, "@") {
		user, err = h.userRepo.GetUserByEmail(req.Username)
	} else {
		user, err = h.userRepo.GetUserByUsername(req.Username)
	}
	if err != nil {
		logger.Error("Failed to look up user", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if user == nil || !auth.VerifyPassword(req.Password, user.PasswordHash) {
		logger.Warn("Login rejected", logger.String("username", req.Username))
		writeError(w, http.StatusUnauthorized, "Invalid username or password.")
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Username)
	if err != nil {
		logger.Error("Failed to generate token", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Info("Login succeeded", logger.String("username", user.Username))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// LogoutHandler acknowledges logout. Tokens are stateless, discarding the
// token is the client's side of the contract.
func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "You have been successfully logged out.",
	})
}

// AuthMiddleware rejects requests without a valid bearer token and places
// the authenticated identity in the request context.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := claimsFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
		ctx = context.WithValue(ctx, ctxUsername, claims.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// OptionalAuthMiddleware attaches identity when a valid token is present
// and lets anonymous requests through untouched.
func (h *APIHandler) OptionalAuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if claims, err := claimsFromRequest(r); err == nil {
			ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
			ctx = context.WithValue(ctx, ctxUsername, claims.Username)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	}
}

func claimsFromRequest(r *http.Request) (*auth.Claims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, fmt.Errorf("authorization header is required")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, fmt.Errorf("invalid authorization header format")
	}

	claims, err := auth.ParseToken(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// GetUserIDFromContext extracts the authenticated user ID from the request
// context.
func GetUserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value(ctxUserID).(int64)
	if !ok {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// requireArtist loads the requester's profile and artist record, enforcing
// that the profile is artist-typed and the artist row exists. On failure it
// writes the flash-style denial and returns ok=false.
func (h *APIHandler) requireArtist(w http.ResponseWriter, r *http.Request) (*model.Artist, bool) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}

	profile, err := h.userRepo.GetProfileByUserID(userID)
	if err != nil {
		logger.Error("Failed to load profile", logger.ErrorField(err), logger.Int64("userId", userID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}
	if profile == nil || !profile.IsArtist() {
		writeAccessDenied(w, "You need to be an artist to do this.")
		return nil, false
	}

	artist, err := h.artistRepo.GetArtistByUserID(userID)
	if err != nil {
		logger.Error("Failed to load artist", logger.ErrorField(err), logger.Int64("userId", userID))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}
	if artist == nil {
		writeAccessDenied(w, "Artist profile not found.")
		return nil, false
	}
	return artist, true
}
