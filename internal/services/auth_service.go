package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yukikurage/team-task-api/internal/constants"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/repository"
	"github.com/yukikurage/team-task-api/internal/token"
	"github.com/yukikurage/team-task-api/internal/utils"
)

var (
	ErrMissingFields           = errors.New("name, email and password are required")
	ErrInvalidEmail            = errors.New("invalid email address")
	ErrPasswordTooShort        = errors.New("password too short")
	ErrEmailTaken              = errors.New("email already registered")
	ErrInvalidManagerCode      = errors.New("invalid manager code")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrInvalidRole             = errors.New("role must be manager or employee")
	ErrUserNotFound            = errors.New("user not found")
	ErrInactiveUser            = errors.New("invalid or inactive user")
	ErrCurrentPasswordRequired = errors.New("current password is incorrect")
	ErrManagerCodeExhausted    = errors.New("could not allocate a unique manager code")
	ErrFailedToHashPassword    = errors.New("failed to hash password")
)

// AuthService handles registration, login and credential checks.
type AuthService struct {
	userRepo     repository.UserRepository
	teamRepo     repository.TeamRepository
	tokens       *token.Manager
	generateCode utils.CodeGenerator
	bcryptCost   int
	log          *zap.Logger

	// dummyHash is compared against when the email is unknown so that
	// every failed login pays for one bcrypt comparison
	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, teamRepo repository.TeamRepository, tokens *token.Manager, log *zap.Logger) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		teamRepo:     teamRepo,
		tokens:       tokens,
		generateCode: utils.GenerateManagerCode,
		bcryptCost:   constants.BcryptCost,
		log:          log,
	}
}

// WithCodeGenerator replaces the manager code generator.
func (s *AuthService) WithCodeGenerator(gen utils.CodeGenerator) *AuthService {
	s.generateCode = gen
	return s
}

// WithBcryptCost replaces the bcrypt cost used for new passwords.
func (s *AuthService) WithBcryptCost(cost int) *AuthService {
	s.bcryptCost = cost
	return s
}

type RegisterManagerInput struct {
	Name     string
	Email    string
	Password string
}

type RegisterEmployeeInput struct {
	Name        string
	Email       string
	Password    string
	ManagerCode string
}

type LoginInput struct {
	Email    string
	Password string
	Role     string
}

type UpdateProfileInput struct {
	Name            *string
	Email           *string
	CurrentPassword string
	NewPassword     string
}

// AuthResult is returned by registration and login.
type AuthResult struct {
	User  *models.User
	Team  *models.Team
	Token string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) validateRegistration(name, email, password string) error {
	if name == "" || email == "" || password == "" {
		return ErrMissingFields
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}
	if len(password) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

func (s *AuthService) ensureEmailAvailable(ctx context.Context, email string) error {
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}
	return nil
}

func (s *AuthService) hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", ErrFailedToHashPassword
	}
	return string(hashed), nil
}

// allocateManagerCode draws codes until one is not used by any team.
func (s *AuthService) allocateManagerCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < constants.MaxManagerCodeAttempts; attempt++ {
		code, err := s.generateCode()
		if err != nil {
			return "", err
		}
		exists, err := s.teamRepo.ManagerCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check manager code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrManagerCodeExhausted
}

// RegisterManager creates a manager together with a new team. The unique
// index on manager_code closes the race between the availability check and
// the insert; a collision there is retried with a fresh code.
func (s *AuthService) RegisterManager(ctx context.Context, input RegisterManagerInput) (*AuthResult, error) {
	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)
	if err := s.validateRegistration(name, email, input.Password); err != nil {
		return nil, err
	}
	if err := s.ensureEmailAvailable(ctx, email); err != nil {
		return nil, err
	}

	hashed, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < constants.MaxManagerCodeAttempts; attempt++ {
		code, err := s.allocateManagerCode(ctx)
		if err != nil {
			return nil, err
		}

		user := &models.User{
			Name:         name,
			Email:        email,
			PasswordHash: hashed,
			Role:         models.RoleManager,
			IsActive:     true,
		}
		team := &models.Team{
			TeamName:    fmt.Sprintf("%s's Team", name),
			ManagerCode: code,
		}

		err = s.userRepo.CreateManagerWithTeam(ctx, user, team)
		switch {
		case err == nil:
			s.log.Info("manager registered",
				zap.Uint64("user_id", user.ID),
				zap.Uint64("team_id", team.ID),
			)
			return s.issue(user, team)
		case errors.Is(err, repository.ErrCreateUser) && errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, ErrEmailTaken
		case errors.Is(err, repository.ErrCreateTeam) && errors.Is(err, gorm.ErrDuplicatedKey):
			s.log.Warn("manager code collision, retrying", zap.String("code", code), zap.Int("attempt", attempt+1))
			continue
		default:
			return nil, fmt.Errorf("failed to register manager: %w", err)
		}
	}

	return nil, ErrManagerCodeExhausted
}

// RegisterEmployee creates an employee linked to the team owning the code.
func (s *AuthService) RegisterEmployee(ctx context.Context, input RegisterEmployeeInput) (*AuthResult, error) {
	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)
	code := strings.ToUpper(strings.TrimSpace(input.ManagerCode))
	if code == "" {
		return nil, ErrMissingFields
	}
	if err := s.validateRegistration(name, email, input.Password); err != nil {
		return nil, err
	}
	if err := s.ensureEmailAvailable(ctx, email); err != nil {
		return nil, err
	}

	team, err := s.teamRepo.FindByManagerCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidManagerCode
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}

	hashed, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		Role:         models.RoleEmployee,
		TeamID:       &team.ID,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create employee: %w", err)
	}

	s.log.Info("employee registered", zap.Uint64("user_id", user.ID), zap.Uint64("team_id", team.ID))
	return s.issue(user, team)
}

// Login returns ErrInvalidCredentials for an unknown email, a wrong password,
// a role mismatch and an inactive account alike.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" || input.Role == "" {
		return nil, ErrMissingFields
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.unknownUserHash(), []byte(input.Password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if string(user.Role) != input.Role || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	team, err := s.teamFor(ctx, user)
	if err != nil {
		return nil, err
	}

	return s.issue(user, team)
}

// unknownUserHash is generated once at the service's cost
func (s *AuthService) unknownUserHash() []byte {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("unknown-user-placeholder"), s.bcryptCost)
		if err != nil {
			s.log.Error("failed to prepare placeholder hash", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// teamFor returns nil when the user has no team or the team is gone
func (s *AuthService) teamFor(ctx context.Context, user *models.User) (*models.Team, error) {
	if user.TeamID == nil {
		return nil, nil
	}
	team, err := s.teamRepo.FindByID(ctx, *user.TeamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}
	return team, nil
}

func (s *AuthService) issue(user *models.User, team *models.Team) (*AuthResult, error) {
	tok, err := s.tokens.Generate(user.ID, string(user.Role), user.TeamID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &AuthResult{User: user, Team: team, Token: tok}, nil
}

// Authenticate verifies a bearer token and reloads its user so that
// deactivation takes effect immediately. Token errors are returned as is.
func (s *AuthService) Authenticate(ctx context.Context, bearer string) (*models.User, error) {
	claims, err := s.tokens.Parse(bearer)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInactiveUser
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	return user, nil
}

// GetUser returns a user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// GetProfile returns the user together with its team.
func (s *AuthService) GetProfile(ctx context.Context, userID uint64) (*models.User, *models.Team, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	team, err := s.teamFor(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, team, nil
}

// UpdateProfile changes the caller's name, email or password. Changing the
// password requires the current one.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint64, input UpdateProfileInput) (*models.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrMissingFields
		}
		user.Name = name
	}

	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, ErrInvalidEmail
		}
		if email != user.Email {
			if err := s.ensureEmailAvailable(ctx, email); err != nil {
				return nil, err
			}
			user.Email = email
		}
	}

	if input.NewPassword != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.CurrentPassword)); err != nil {
			return nil, ErrCurrentPasswordRequired
		}
		if len(input.NewPassword) < constants.MinPasswordLength {
			return nil, ErrPasswordTooShort
		}
		hashed, err := s.hashPassword(input.NewPassword)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hashed
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.log.Info("profile updated", zap.Uint64("user_id", user.ID))
	return user, nil
}
