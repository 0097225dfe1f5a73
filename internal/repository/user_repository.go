package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yukikurage/team-task-api/internal/database"
	"github.com/yukikurage/team-task-api/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

var (
	// ErrCreateUser is returned when inserting the manager fails inside the registration transaction.
	ErrCreateUser = errors.New("user repository: create user failed")
	// ErrCreateTeam is returned when inserting the team fails inside the registration transaction.
	ErrCreateTeam = errors.New("user repository: create team failed")
	// ErrLinkTeam is returned when back-filling the manager's team fails.
	ErrLinkTeam = errors.New("user repository: link team failed")
)

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// CreateManagerWithTeam creates the manager and the team atomically. Both
// wrapped errors are kept so callers can test for gorm.ErrDuplicatedKey.
func (r *GormUserRepository) CreateManagerWithTeam(ctx context.Context, user *models.User, team *models.Team) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("%w: %w", ErrCreateUser, err)
		}

		team.ManagerID = user.ID
		if err := tx.Create(team).Error; err != nil {
			return fmt.Errorf("%w: %w", ErrCreateTeam, err)
		}

		if err := tx.Model(user).Update("team_id", team.ID).Error; err != nil {
			return fmt.Errorf("%w: %w", ErrLinkTeam, err)
		}
		user.TeamID = &team.ID

		return nil
	})
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *GormUserRepository) SetActive(ctx context.Context, id uint64, active bool) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_active", active).Error
}

// CountTeamEmployees counts in one query how many of the IDs are employees of the team
func (r *GormUserRepository) CountTeamEmployees(ctx context.Context, teamID uint64, ids []uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Scopes(database.TeamEmployees(teamID)).
		Where("users.id IN ?", ids).
		Count(&count).Error
	return count, err
}

func (r *GormUserRepository) FindTeamEmployee(ctx context.Context, teamID, id uint64) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Scopes(database.TeamEmployees(teamID)).
		First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) ListTeamEmployees(ctx context.Context, teamID uint64, activeOnly bool) ([]models.User, error) {
	var users []models.User
	query := r.db.WithContext(ctx).Scopes(database.TeamEmployees(teamID))
	if activeOnly {
		query = query.Scopes(database.ActiveUsers)
	}
	if err := query.Order("name ASC").Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
