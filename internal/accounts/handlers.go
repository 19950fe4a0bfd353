package accounts

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/movie-platform/internal/platform/analytics"
	"github.com/example/movie-platform/internal/platform/api"
	"github.com/example/movie-platform/internal/platform/auth"
	"github.com/example/movie-platform/internal/platform/httpserver"
)

const (
	maxRequestBodyBytes  = 1 << 20
	maxAvatarUploadBytes = 5 << 20
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetRequestRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type loginResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Token    string `json:"token"`
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type accountResponse struct {
	Success bool        `json:"success"`
	User    accountUser `json:"user"`
}

type accountUser struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Avatar   *string `json:"avatar"`
}

type updateAccountResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Avatar  *string `json:"avatar"`
}

// Register handles POST /api/register
func Register(us UserStore, ts TokenService, mail Mailer, frontendURL string, ap *analytics.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		var req registerRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "Invalid JSON", rid, nil)
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		req.Email = strings.TrimSpace(req.Email)
		if req.Username == "" || req.Email == "" || req.Password == "" {
			api.BadRequest(w, "MISSING_FIELDS", "username, email and password are required", rid, nil)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			api.Internal(w, rid)
			return
		}

		u, err := us.Create(r.Context(), CreateUserParams{
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: string(hash),
		})
		if err != nil {
			if errors.Is(err, ErrConflict) {
				api.BadRequest(w, "EMAIL_TAKEN", "User with this email already exists", rid, nil)
				return
			}
			api.Internal(w, rid)
			return
		}

		token, err := ts.NewVerificationToken(u.Email, time.Now().UTC())
		if err != nil {
			api.Internal(w, rid)
			return
		}
		mail.SendVerificationEmail(u.Email, frontendURL+"/verify-email/"+token)

		ap.Publish(analytics.SubjectAuthRegistered, "user_registered", itoa(u.ID), map[string]any{
			"username": u.Username,
		})
		api.WriteJSON(w, http.StatusOK, statusResponse{
			Success: true,
			Message: "Registration successful! Please check your email to verify your account.",
		})
	}
}

// VerifyEmail handles GET /api/verify-email/{token}
func VerifyEmail(us UserStore, ts TokenService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		email, err := ts.ParseVerificationToken(chi.URLParam(r, "token"))
		if err != nil {
			api.BadRequest(w, "INVALID_TOKEN", "Invalid or expired verification link", rid, nil)
			return
		}
		if err := us.MarkVerified(r.Context(), email); err != nil {
			if errors.Is(err, ErrNotFound) {
				api.BadRequest(w, "INVALID_TOKEN", "Invalid or expired verification link", rid, nil)
				return
			}
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, messageResponse{Message: "Email verified successfully! You can now log in."})
	}
}

// Login handles POST /api/login
func Login(us UserStore, ts TokenService, ap *analytics.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		var req loginRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "Invalid JSON", rid, nil)
			return
		}

		u, err := us.ByEmail(r.Context(), strings.TrimSpace(req.Email))
		if err != nil {
			// Unknown email and wrong password share one answer.
			api.BadRequest(w, "INVALID_CREDENTIALS", "Invalid email or password", rid, nil)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
			api.BadRequest(w, "INVALID_CREDENTIALS", "Invalid email or password", rid, nil)
			return
		}
		if !u.IsVerified {
			api.BadRequest(w, "EMAIL_UNVERIFIED", "Please verify your email before logging in", rid, nil)
			return
		}

		token, err := ts.NewAccessToken(u.ID, u.Username, time.Now().UTC())
		if err != nil {
			api.Internal(w, rid)
			return
		}

		ap.Publish(analytics.SubjectAuthLoggedIn, "user_logged_in", itoa(u.ID), nil)
		api.WriteJSON(w, http.StatusOK, loginResponse{
			Success:  true,
			Message:  "Login successful",
			Token:    token,
			UserID:   u.ID,
			Username: u.Username,
			Email:    u.Email,
		})
	}
}

// ResetPasswordRequest handles POST /api/reset-password-request
func ResetPasswordRequest(us UserStore, ts TokenService, mail Mailer, frontendURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		var req resetRequestRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "Invalid JSON", rid, nil)
			return
		}

		u, err := us.ByEmail(r.Context(), strings.TrimSpace(req.Email))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				api.NotFound(w, "UNKNOWN_EMAIL", "User with this email does not exist", rid)
				return
			}
			api.Internal(w, rid)
			return
		}

		token, err := ts.NewResetToken(u.ID, time.Now().UTC())
		if err != nil {
			api.Internal(w, rid)
			return
		}
		mail.SendPasswordResetEmail(u.Email, frontendURL+"/reset-password/"+token)

		api.WriteJSON(w, http.StatusOK, messageResponse{Message: "Password reset email sent. Please check your inbox."})
	}
}

// ResetPassword handles POST /api/reset-password
func ResetPassword(us UserStore, ts TokenService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())

		var req resetPasswordRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "Invalid JSON", rid, nil)
			return
		}
		if req.NewPassword == "" {
			api.BadRequest(w, "MISSING_FIELDS", "new password is required", rid, nil)
			return
		}

		uid, err := ts.ParseResetToken(req.Token)
		if err != nil {
			api.BadRequest(w, "INVALID_TOKEN", "Invalid or expired reset link", rid, nil)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			api.Internal(w, rid)
			return
		}
		if err := us.UpdatePasswordHash(r.Context(), uid, string(hash)); err != nil {
			if errors.Is(err, ErrNotFound) {
				api.BadRequest(w, "INVALID_TOKEN", "Invalid or expired reset link", rid, nil)
				return
			}
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, messageResponse{Message: "Password has been reset successfully"})
	}
}

// GetAccount handles GET /api/edit-account
func GetAccount(us UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", rid)
			return
		}

		u, err := us.ByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				api.NotFound(w, "NOT_FOUND", "User not found", rid)
				return
			}
			api.Internal(w, rid)
			return
		}
		api.WriteJSON(w, http.StatusOK, accountResponse{
			Success: true,
			User:    accountUser{Username: u.Username, Email: u.Email, Avatar: u.Avatar},
		})
	}
}

// UpdateAccount handles PUT /api/edit-account (multipart form: username,
// email, currentPassword, optional newPassword, optional avatar file).
func UpdateAccount(us UserStore, avatars AvatarStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", rid)
			return
		}

		if err := r.ParseMultipartForm(maxAvatarUploadBytes); err != nil {
			api.BadRequest(w, "INVALID_FORM", "Invalid multipart form", rid, nil)
			return
		}

		u, err := us.ByID(r.Context(), userID)
		if err != nil {
			api.Internal(w, rid)
			return
		}

		// Every edit requires the current password.
		current := r.FormValue("currentPassword")
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
			api.BadRequest(w, "INVALID_PASSWORD", "Current password is incorrect", rid, nil)
			return
		}

		username := strings.TrimSpace(r.FormValue("username"))
		email := strings.TrimSpace(r.FormValue("email"))
		if username == "" {
			username = u.Username
		}
		if email == "" {
			email = u.Email
		}
		if err := us.UpdateProfile(r.Context(), userID, UpdateProfileParams{Username: username, Email: email}); err != nil {
			if errors.Is(err, ErrConflict) {
				api.BadRequest(w, "CONFLICT", "Username or email already in use", rid, nil)
				return
			}
			api.Internal(w, rid)
			return
		}

		if newPassword := r.FormValue("newPassword"); newPassword != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
			if err != nil {
				api.Internal(w, rid)
				return
			}
			if err := us.UpdatePasswordHash(r.Context(), userID, string(hash)); err != nil {
				api.Internal(w, rid)
				return
			}
		}

		avatar := u.Avatar
		if file, header, err := r.FormFile("avatar"); err == nil {
			defer file.Close()
			if !ValidAvatarExt(header.Filename) {
				api.BadRequest(w, "INVALID_AVATAR", "Avatar must be an image file", rid, nil)
				return
			}
			publicPath, err := avatars.Save(header.Filename, file)
			if err != nil {
				api.Internal(w, rid)
				return
			}
			if err := us.UpdateAvatar(r.Context(), userID, publicPath); err != nil {
				api.Internal(w, rid)
				return
			}
			avatar = &publicPath
		}

		api.WriteJSON(w, http.StatusOK, updateAccountResponse{
			Success: true,
			Message: "Account updated successfully",
			Avatar:  avatar,
		})
	}
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
