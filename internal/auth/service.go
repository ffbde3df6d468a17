package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"collab-relay/internal/config"
	"collab-relay/internal/models"
	"collab-relay/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredential is returned for any credential that cannot be
// accepted: missing, malformed, expired, or failing signature checks.
// The websocket handshake treats all of these the same way.
var ErrInvalidCredential = errors.New("invalid credential")

// Identity is the verified identity bound to a connection at handshake
// time. It never changes for the lifetime of the connection.
type Identity struct {
	UserID   int
	Username string
	Email    string
}

type Service struct {
	store store.Store
	cfg   *config.Config
}

func NewService(st store.Store, cfg *config.Config) *Service {
	return &Service{
		store: st,
		cfg:   cfg,
	}
}

func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.LoginResponse, error) {
	if err := s.validateRegistrationRequest(req); err != nil {
		return nil, err
	}

	user, err := s.store.CreateUser(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &models.LoginResponse{
		Token: token,
		User:  *user,
	}, nil
}

func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	// Remove sensitive data
	user.PasswordHash = ""

	return &models.LoginResponse{
		Token: token,
		User:  *user,
	}, nil
}

// VerifyCredential validates a token presented at connection time and
// returns the identity it carries. Any failure maps to
// ErrInvalidCredential; callers must refuse the connection and create
// no state for it.
func (s *Service) VerifyCredential(tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, ErrInvalidCredential
	}

	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	userIDFloat, ok := (*claims)["user_id"].(float64)
	if !ok {
		return nil, fmt.Errorf("%w: missing user_id claim", ErrInvalidCredential)
	}
	email, ok := (*claims)["email"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: missing email claim", ErrInvalidCredential)
	}
	username, _ := (*claims)["username"].(string)

	return &Identity{
		UserID:   int(userIDFloat),
		Username: username,
		Email:    email,
	}, nil
}

// GetUserFromToken resolves a token to the full user record. Used by the
// HTTP handlers, which need more than the claims carry.
func (s *Service) GetUserFromToken(ctx context.Context, tokenString string) (*models.User, error) {
	identity, err := s.VerifyCredential(tokenString)
	if err != nil {
		return nil, err
	}

	return s.store.GetUserByID(ctx, identity.UserID)
}

func (s *Service) parseToken(tokenString string) (*jwt.MapClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.cfg.JWT.Secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

func (s *Service) generateToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"email":    user.Email,
		"exp":      time.Now().Add(s.cfg.JWT.ExpiresIn).Unix(),
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.cfg.JWT.Secret)
}

func (s *Service) validateRegistrationRequest(req *models.RegisterRequest) error {
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return fmt.Errorf("missing required fields")
	}

	if !isValidEmail(req.Email) {
		return fmt.Errorf("invalid email format")
	}

	if len(req.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	req.Username = strings.TrimSpace(req.Username)
	if len(req.Username) < 3 || len(req.Username) > 30 {
		return fmt.Errorf("username must be 3-30 characters long")
	}

	return nil
}

func isValidEmail(email string) bool {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	return emailRegex.MatchString(email)
}
