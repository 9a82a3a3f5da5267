package services

import (
	"context"
	cryptorand "crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"golang.org/x/crypto/argon2"

	"github.com/Utpal29/coinly/internal/models"
)

type AuthService struct {
	db        *sql.DB
	redis     *redis.Client
	validator *validator.Validate
}

// RegisterRequest represents the registration request payload
// @Description Registration request structure
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email" example:"user@example.com"` // User email address
	Password string `json:"password" validate:"required,min=6" example:"password123"`   // User password
	FullName string `json:"full_name" validate:"required,min=2" example:"Jane Doe"`     // User full name
	Phone    string `json:"phone" validate:"omitempty,min=7" example:"+15551234567"`    // Phone number (optional)
}

// LoginRequest represents the login request payload
// @Description Login request structure
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"user@example.com"` // User email address
	Password string `json:"password" validate:"required,min=6" example:"password123"`   // User password
}

// AuthResponse represents the authentication response
// @Description Authentication response structure
type AuthResponse struct {
	Token string      `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."` // JWT token
	User  models.User `json:"user"`                                                    // User information
}

// UpdateAccountRequest represents the profile update payload
// @Description Profile update request structure
type UpdateAccountRequest struct {
	FullName string `json:"full_name" validate:"required,min=2" example:"Jane Doe"`
	Phone    string `json:"phone" validate:"omitempty,min=7" example:"+15551234567"`
	Currency string `json:"currency" validate:"required,len=3" example:"USD"`
	Theme    string `json:"theme" validate:"required,oneof=light dark" example:"light"`
}

// ChangePasswordRequest represents the password change payload
// @Description Password change request structure
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

func NewAuthService(db *sql.DB, redisClient *redis.Client) *AuthService {
	return &AuthService{
		db:        db,
		redis:     redisClient,
		validator: validator.New(),
	}
}

func (s *AuthService) sendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	SendErrorResponse(w, message, statusCode, validationErr)
}

func (s *AuthService) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return err
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("request body must only contain a single JSON object")
	}
	return nil
}

// Register handles user registration
// @Summary Register a new user
// @Description Register a new user with email, password, and name
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration request"
// @Success 200 {object} AuthResponse "Registration successful"
// @Failure 400 {string} string "Invalid request"
// @Failure 409 {string} string "Email already exists"
// @Failure 500 {string} string "Internal server error"
// @Router /auth/register [post]
func (s *AuthService) Register(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Registration attempt from IP: %s", r.RemoteAddr)

	var req RegisterRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		log.Printf("[AUTH] Registration failed - invalid request: %v", err)
		s.sendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.Struct(&req); err != nil {
		log.Printf("[AUTH] Registration validation failed: %v", err)
		s.sendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	log.Printf("[AUTH] Registration request for email: %s", req.Email)

	hashedPassword, err := hashPassword(req.Password)
	if err != nil {
		log.Printf("[AUTH] Password hashing failed for %s: %v", req.Email, err)
		s.sendErrorResponse(w, "An Internal Error Occurred", http.StatusInternalServerError, nil)
		return
	}

	var user models.User
	err = s.db.QueryRow(
		"INSERT INTO users (email, password, full_name, phone, currency, theme, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW()) RETURNING id, email, full_name, phone, currency, theme",
		strings.ToLower(req.Email), hashedPassword, req.FullName, req.Phone, models.DefaultCurrency, models.DefaultTheme,
	).Scan(&user.ID, &user.Email, &user.FullName, &user.Phone, &user.Currency, &user.Theme)
	if err != nil {
		log.Printf("[AUTH] User creation failed for %s: %v", req.Email, err)
		s.sendErrorResponse(w, "Email Already Exists", http.StatusConflict, nil)
		return
	}

	log.Printf("[AUTH] User created successfully - ID: %d, Email: %s", user.ID, user.Email)

	token, err := generateJWT(user.ID)
	if err != nil {
		log.Printf("[AUTH] JWT generation failed for user %d: %v", user.ID, err)
		s.sendErrorResponse(w, "Failed to generate token", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[AUTH] Registration successful for user %d", user.ID)
	writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: user})
}

// Login handles user authentication
// @Summary Login user
// @Description Authenticate user with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} AuthResponse "Login successful"
// @Failure 400 {string} string "Invalid request"
// @Failure 401 {string} string "Invalid credentials"
// @Failure 500 {string} string "Internal server error"
// @Router /auth/login [post]
func (s *AuthService) Login(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Login attempt from IP: %s", r.RemoteAddr)

	var req LoginRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		log.Printf("[AUTH] Login failed - invalid request: %v", err)
		s.sendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.Struct(&req); err != nil {
		log.Printf("[AUTH] Login validation failed: %v", err)
		s.sendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	log.Printf("[AUTH] Login request for email: %s", req.Email)

	var user models.User
	var hashedPassword string
	err := s.db.QueryRow(
		"SELECT id, email, full_name, phone, currency, theme, password FROM users WHERE email = $1",
		strings.ToLower(req.Email),
	).Scan(&user.ID, &user.Email, &user.FullName, &user.Phone, &user.Currency, &user.Theme, &hashedPassword)
	if err != nil {
		log.Printf("[AUTH] User not found for email: %s", req.Email)
		s.sendErrorResponse(w, "Invalid credentials", http.StatusUnauthorized, nil)
		return
	}

	if !verifyPassword(req.Password, hashedPassword) {
		log.Printf("[AUTH] Invalid password for user: %s", req.Email)
		s.sendErrorResponse(w, "Invalid credentials", http.StatusUnauthorized, nil)
		return
	}

	log.Printf("[AUTH] Password verified for user ID: %d", user.ID)

	token, err := generateJWT(user.ID)
	if err != nil {
		log.Printf("[AUTH] JWT generation failed for user %d: %v", user.ID, err)
		s.sendErrorResponse(w, "Failed to generate token", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[AUTH] Login successful for user %d", user.ID)
	writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: user})
}

// Logout handles user logout
// @Summary Logout user
// @Description Logout user and blacklist token
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string "Logout successful"
// @Router /auth/logout [post]
func (s *AuthService) Logout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("Authorization")
	if token != "" && len(token) > 7 {
		token = token[7:] // Remove "Bearer " prefix

		if s.redis != nil {
			ctx := context.Background()
			key := fmt.Sprintf("blacklist:%s", token)
			// Blacklist token until its expiration
			expiry := time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour
			if err := s.redis.Set(ctx, key, "1", expiry).Err(); err != nil {
				log.Printf("[AUTH] Failed to blacklist token: %v", err)
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// GetUserAccount retrieves user account details from auth token
// @Summary Get user account details
// @Description Get authenticated user's profile and preferences
// @Tags auth
// @Produce json
// @Success 200 {object} models.User "User account details"
// @Failure 401 {string} string "Unauthorized"
// @Failure 500 {string} string "Internal server error"
// @Router /auth/account [get]
func (s *AuthService) GetUserAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int)
	if !ok {
		log.Printf("[AUTH] Unauthorized account request - no user ID in context")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var user models.User
	err := s.db.QueryRow(
		"SELECT id, email, full_name, phone, currency, theme, created_at, updated_at FROM users WHERE id = $1",
		userID,
	).Scan(&user.ID, &user.Email, &user.FullName, &user.Phone, &user.Currency, &user.Theme, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Printf("[AUTH] User not found for ID: %d", userID)
			http.Error(w, "User not found", http.StatusNotFound)
		} else {
			log.Printf("[AUTH] Failed to fetch user details for ID %d: %v", userID, err)
			http.Error(w, "Failed to fetch user details", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// UpdateAccount updates the authenticated user's profile and preferences
// @Summary Update account
// @Description Update the user's name, phone, display currency, and theme
// @Tags auth
// @Accept json
// @Produce json
// @Param request body UpdateAccountRequest true "Profile update request"
// @Success 200 {object} models.User "Updated account details"
// @Failure 400 {string} string "Invalid request"
// @Failure 401 {string} string "Unauthorized"
// @Failure 500 {string} string "Internal server error"
// @Router /auth/account [put]
func (s *AuthService) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req UpdateAccountRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		log.Printf("[AUTH] Account update failed - invalid request: %v", err)
		s.sendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.Struct(&req); err != nil {
		log.Printf("[AUTH] Account update validation failed: %v", err)
		s.sendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if !models.IsSupportedCurrency(req.Currency) {
		log.Printf("[AUTH] Unsupported currency %q for user %d", req.Currency, userID)
		s.sendErrorResponse(w, "Unsupported currency", http.StatusBadRequest, nil)
		return
	}

	var user models.User
	err := s.db.QueryRow(
		"UPDATE users SET full_name = $1, phone = $2, currency = $3, theme = $4, updated_at = NOW() WHERE id = $5 RETURNING id, email, full_name, phone, currency, theme, created_at, updated_at",
		req.FullName, req.Phone, strings.ToUpper(req.Currency), req.Theme, userID,
	).Scan(&user.ID, &user.Email, &user.FullName, &user.Phone, &user.Currency, &user.Theme, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		log.Printf("[AUTH] Account update failed for user %d: %v", userID, err)
		s.sendErrorResponse(w, "Failed to update account", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[AUTH] Account updated for user %d", userID)
	writeJSON(w, http.StatusOK, user)
}

// ChangePassword changes the authenticated user's password
// @Summary Change password
// @Description Change the user's password after verifying the current one
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ChangePasswordRequest true "Password change request"
// @Success 200 {object} map[string]string "Password changed"
// @Failure 400 {string} string "Invalid request"
// @Failure 401 {string} string "Current password incorrect"
// @Failure 500 {string} string "Internal server error"
// @Router /auth/password [put]
func (s *AuthService) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req ChangePasswordRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		log.Printf("[AUTH] Password change failed - invalid request: %v", err)
		s.sendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.Struct(&req); err != nil {
		log.Printf("[AUTH] Password change validation failed: %v", err)
		s.sendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	var hashedPassword string
	if err := s.db.QueryRow("SELECT password FROM users WHERE id = $1", userID).Scan(&hashedPassword); err != nil {
		log.Printf("[AUTH] Password change failed for user %d: %v", userID, err)
		s.sendErrorResponse(w, "Failed to change password", http.StatusInternalServerError, nil)
		return
	}

	if !verifyPassword(req.CurrentPassword, hashedPassword) {
		log.Printf("[AUTH] Password change rejected for user %d: current password mismatch", userID)
		s.sendErrorResponse(w, "Current password is incorrect", http.StatusUnauthorized, nil)
		return
	}

	newHash, err := hashPassword(req.NewPassword)
	if err != nil {
		log.Printf("[AUTH] Password hashing failed for user %d: %v", userID, err)
		s.sendErrorResponse(w, "Failed to change password", http.StatusInternalServerError, nil)
		return
	}

	if _, err := s.db.Exec("UPDATE users SET password = $1, updated_at = NOW() WHERE id = $2", newHash, userID); err != nil {
		log.Printf("[AUTH] Password update failed for user %d: %v", userID, err)
		s.sendErrorResponse(w, "Failed to change password", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[AUTH] Password changed for user %d", userID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

// DeleteAccount permanently deletes the authenticated user and all their data
// @Summary Delete account
// @Description Delete the user together with their transactions and categories
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string "Account deleted"
// @Failure 401 {string} string "Unauthorized"
// @Failure 500 {string} string "Internal server error"
// @Router /auth/account [delete]
func (s *AuthService) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(int)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	log.Printf("[AUTH] Account deletion request for user %d", userID)

	tx, err := s.db.Begin()
	if err != nil {
		log.Printf("[AUTH] Transaction start failed for user %d: %v", userID, err)
		s.sendErrorResponse(w, "Failed to delete account", http.StatusInternalServerError, nil)
		return
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM transactions WHERE user_id = $1", userID); err != nil {
		log.Printf("[AUTH] Transaction cleanup failed for user %d: %v", userID, err)
		s.sendErrorResponse(w, "Failed to delete account", http.StatusInternalServerError, nil)
		return
	}

	if _, err := tx.Exec("DELETE FROM categories WHERE user_id = $1", userID); err != nil {
		log.Printf("[AUTH] Category cleanup failed for user %d: %v", userID, err)
		s.sendErrorResponse(w, "Failed to delete account", http.StatusInternalServerError, nil)
		return
	}

	if _, err := tx.Exec("DELETE FROM users WHERE id = $1", userID); err != nil {
		log.Printf("[AUTH] User deletion failed for user %d: %v", userID, err)
		s.sendErrorResponse(w, "Failed to delete account", http.StatusInternalServerError, nil)
		return
	}

	if err := tx.Commit(); err != nil {
		log.Printf("[AUTH] Transaction commit failed for user %d: %v", userID, err)
		s.sendErrorResponse(w, "Failed to delete account", http.StatusInternalServerError, nil)
		return
	}

	// Invalidate the session token the same way logout does.
	if token := r.Header.Get("Authorization"); len(token) > 7 && s.redis != nil {
		key := fmt.Sprintf("blacklist:%s", token[7:])
		expiry := time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour
		if err := s.redis.Set(context.Background(), key, "1", expiry).Err(); err != nil {
			log.Printf("[AUTH] Failed to blacklist token: %v", err)
		}
	}

	log.Printf("[AUTH] Account deleted for user %d", userID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Account deleted successfully"})
}

func generateJWT(userID int) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"nameid":  userID,
		"exp":     time.Now().Add(time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour).Unix(),
	})

	return token.SignedString([]byte(viper.GetString("jwt.secret_key")))
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, viper.GetInt("argon2.salt_length"))
	if _, err := cryptorand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt,
		uint32(viper.GetInt("argon2.time")),
		uint32(viper.GetInt("argon2.memory")),
		uint8(viper.GetInt("argon2.threads")),
		uint32(viper.GetInt("argon2.key_length")))
	return fmt.Sprintf("%s$%s", base64.StdEncoding.EncodeToString(salt), base64.StdEncoding.EncodeToString(hash)), nil
}

func verifyPassword(password, hashedPassword string) bool {
	parts := strings.Split(hashedPassword, "$")
	if len(parts) != 2 {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}

	hash, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt,
		uint32(viper.GetInt("argon2.time")),
		uint32(viper.GetInt("argon2.memory")),
		uint8(viper.GetInt("argon2.threads")),
		uint32(viper.GetInt("argon2.key_length")))
	return string(hash) == string(computedHash)
}
