package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/team-task-api/internal/constants"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/repository"
)

var (
	ErrTeamNotFound   = errors.New("team not found")
	ErrMemberNotFound = errors.New("team member not found")
)

// TeamService aggregates task and work-log data per team
type TeamService struct {
	userRepo      repository.UserRepository
	teamRepo      repository.TeamRepository
	taskRepo      repository.TaskRepository
	dailyWorkRepo repository.DailyWorkRepository
	log           *zap.Logger
}

func NewTeamService(userRepo repository.UserRepository, teamRepo repository.TeamRepository, taskRepo repository.TaskRepository, dailyWorkRepo repository.DailyWorkRepository, log *zap.Logger) *TeamService {
	return &TeamService{
		userRepo:      userRepo,
		teamRepo:      teamRepo,
		taskRepo:      taskRepo,
		dailyWorkRepo: dailyWorkRepo,
		log:           log,
	}
}

type TeamMember struct {
	ID             uint64          `json:"id"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	JoinDate       time.Time       `json:"join_date"`
	IsActive       bool            `json:"is_active"`
	TotalTasks     int64           `json:"total_tasks"`
	CompletedTasks int64           `json:"completed_tasks"`
	WorkEntries    int64           `json:"work_entries"`
	TotalHours     decimal.Decimal `json:"total_hours"`
}

type MemberPerformance struct {
	ID              uint64          `json:"id"`
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	TotalTasks      int64           `json:"total_tasks"`
	CompletedTasks  int64           `json:"completed_tasks"`
	InProgressTasks int64           `json:"in_progress_tasks"`
	PendingTasks    int64           `json:"pending_tasks"`
	AvgDailyHours   decimal.Decimal `json:"avg_daily_hours"`
	ActiveDays      int             `json:"active_days"`
	CompletionRate  decimal.Decimal `json:"completion_rate"`
}

type TeamTotals struct {
	TotalMembers     int64           `json:"total_members"`
	TotalTasks       int64           `json:"total_tasks"`
	CompletedTasks   int64           `json:"completed_tasks"`
	InProgressTasks  int64           `json:"in_progress_tasks"`
	PendingTasks     int64           `json:"pending_tasks"`
	TotalWorkEntries int64           `json:"total_work_entries"`
	TotalHoursLogged decimal.Decimal `json:"total_hours_logged"`
}

// Activity is one entry of the recent activity feed
type Activity struct {
	Type         string    `json:"type"`
	Description  string    `json:"description"`
	UserName     string    `json:"user_name"`
	ActivityDate time.Time `json:"activity_date"`
}

type TeamStats struct {
	Stats          TeamTotals `json:"stats"`
	RecentActivity []Activity `json:"recent_activity"`
}

type TeamInfo struct {
	ID           uint64    `json:"id"`
	TeamName     string    `json:"team_name"`
	ManagerCode  string    `json:"manager_code"`
	CreatedAt    time.Time `json:"created_at"`
	ManagerName  string    `json:"manager_name"`
	ManagerEmail string    `json:"manager_email"`
	MemberCount  int64     `json:"member_count"`
}

// memberTally collects per-employee counters
type memberTally struct {
	tasks     map[models.TaskStatus]int64
	entries   int64
	hours     decimal.Decimal
	workDates map[string]struct{}
}

func (t *memberTally) totalTasks() int64 {
	var total int64
	for _, n := range t.tasks {
		total += n
	}
	return total
}

func (s *TeamService) employees(ctx context.Context, manager *models.User) ([]models.User, error) {
	if manager.TeamID == nil {
		return []models.User{}, nil
	}
	users, err := s.userRepo.ListTeamEmployees(ctx, *manager.TeamID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list team employees: %w", err)
	}
	return users, nil
}

func userIDs(users []models.User) []uint64 {
	ids := make([]uint64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}

// tally loads task counts and work logs for the users in two queries
func (s *TeamService) tally(ctx context.Context, users []models.User) (map[uint64]*memberTally, error) {
	tallies := make(map[uint64]*memberTally, len(users))
	for _, u := range users {
		tallies[u.ID] = &memberTally{
			tasks:     make(map[models.TaskStatus]int64),
			hours:     decimal.Zero,
			workDates: make(map[string]struct{}),
		}
	}

	ids := userIDs(users)
	counts, err := s.taskRepo.CountByAssigneeStatus(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	for _, c := range counts {
		if t, ok := tallies[c.UserID]; ok {
			t.tasks[c.Status] += c.Count
		}
	}

	logs, err := s.dailyWorkRepo.ListByUsers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load work logs: %w", err)
	}
	for _, l := range logs {
		t, ok := tallies[l.UserID]
		if !ok {
			continue
		}
		t.entries++
		t.hours = t.hours.Add(l.HoursWorked)
		t.workDates[time.Time(l.WorkDate).Format(constants.DateLayout)] = struct{}{}
	}

	return tallies, nil
}

// Members lists every employee of the team, active or not, by name
func (s *TeamService) Members(ctx context.Context, manager *models.User) ([]TeamMember, error) {
	users, err := s.employees(ctx, manager)
	if err != nil {
		return nil, err
	}
	tallies, err := s.tally(ctx, users)
	if err != nil {
		return nil, err
	}

	members := make([]TeamMember, 0, len(users))
	for _, u := range users {
		t := tallies[u.ID]
		members = append(members, TeamMember{
			ID:             u.ID,
			Name:           u.Name,
			Email:          u.Email,
			JoinDate:       u.CreatedAt,
			IsActive:       u.IsActive,
			TotalTasks:     t.totalTasks(),
			CompletedTasks: t.tasks[models.TaskStatusCompleted],
			WorkEntries:    t.entries,
			TotalHours:     t.hours,
		})
	}
	return members, nil
}

// Performance ranks employees by completion rate, then completed tasks
func (s *TeamService) Performance(ctx context.Context, manager *models.User) ([]MemberPerformance, error) {
	users, err := s.employees(ctx, manager)
	if err != nil {
		return nil, err
	}
	tallies, err := s.tally(ctx, users)
	if err != nil {
		return nil, err
	}

	hundred := decimal.NewFromInt(100)
	result := make([]MemberPerformance, 0, len(users))
	for _, u := range users {
		t := tallies[u.ID]
		p := MemberPerformance{
			ID:              u.ID,
			Name:            u.Name,
			Email:           u.Email,
			TotalTasks:      t.totalTasks(),
			CompletedTasks:  t.tasks[models.TaskStatusCompleted],
			InProgressTasks: t.tasks[models.TaskStatusInProgress],
			PendingTasks:    t.tasks[models.TaskStatusPending],
			AvgDailyHours:   decimal.Zero,
			ActiveDays:      len(t.workDates),
			CompletionRate:  decimal.Zero,
		}
		if t.entries > 0 {
			p.AvgDailyHours = t.hours.Div(decimal.NewFromInt(t.entries)).Round(2)
		}
		if p.TotalTasks > 0 {
			p.CompletionRate = decimal.NewFromInt(p.CompletedTasks).Mul(hundred).
				Div(decimal.NewFromInt(p.TotalTasks)).Round(2)
		}
		result = append(result, p)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if c := result[i].CompletionRate.Cmp(result[j].CompletionRate); c != 0 {
			return c > 0
		}
		return result[i].CompletedTasks > result[j].CompletedTasks
	})
	return result, nil
}

// Stats returns team totals and the merged recent activity feed
func (s *TeamService) Stats(ctx context.Context, manager *models.User) (*TeamStats, error) {
	users, err := s.employees(ctx, manager)
	if err != nil {
		return nil, err
	}

	stats := &TeamStats{
		Stats:          TeamTotals{TotalMembers: int64(len(users)), TotalHoursLogged: decimal.Zero},
		RecentActivity: []Activity{},
	}

	ids := userIDs(users)
	counts, err := s.taskRepo.CountDistinctByStatus(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	for _, c := range counts {
		stats.Stats.TotalTasks += c.Count
		switch c.Status {
		case models.TaskStatusCompleted:
			stats.Stats.CompletedTasks = c.Count
		case models.TaskStatusInProgress:
			stats.Stats.InProgressTasks = c.Count
		case models.TaskStatusPending:
			stats.Stats.PendingTasks = c.Count
		}
	}

	logs, err := s.dailyWorkRepo.ListByUsers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load work logs: %w", err)
	}
	stats.Stats.TotalWorkEntries = int64(len(logs))
	for _, l := range logs {
		stats.Stats.TotalHoursLogged = stats.Stats.TotalHoursLogged.Add(l.HoursWorked)
	}

	activity, err := s.recentActivity(ctx, manager)
	if err != nil {
		return nil, err
	}
	stats.RecentActivity = activity

	return stats, nil
}

func (s *TeamService) recentActivity(ctx context.Context, manager *models.User) ([]Activity, error) {
	activity := make([]Activity, 0, 2*constants.RecentActivityPart)

	tasks, err := s.taskRepo.ListRecentByManager(ctx, manager.ID, constants.RecentActivityPart)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent tasks: %w", err)
	}
	for _, t := range tasks {
		if len(t.Assignees) == 0 || t.Assignees[0].User == nil {
			continue
		}
		activity = append(activity, Activity{
			Type:         "task",
			Description:  t.Title,
			UserName:     t.Assignees[0].User.Name,
			ActivityDate: t.CreatedAt,
		})
	}

	if manager.TeamID != nil {
		logs, err := s.dailyWorkRepo.ListRecentByTeam(ctx, *manager.TeamID, constants.RecentActivityPart)
		if err != nil {
			return nil, fmt.Errorf("failed to load recent work logs: %w", err)
		}
		for _, l := range logs {
			var name string
			if l.User != nil {
				name = l.User.Name
			}
			activity = append(activity, Activity{
				Type:         "work_log",
				Description:  "Logged work: " + l.ProjectName,
				UserName:     name,
				ActivityDate: l.CreatedAt,
			})
		}
	}

	sort.SliceStable(activity, func(i, j int) bool {
		return activity[i].ActivityDate.After(activity[j].ActivityDate)
	})
	if len(activity) > constants.RecentActivityLimit {
		activity = activity[:constants.RecentActivityLimit]
	}
	return activity, nil
}

// SetMemberStatus activates or deactivates an employee of the manager's team
func (s *TeamService) SetMemberStatus(ctx context.Context, manager *models.User, memberID uint64, active bool) error {
	if manager.TeamID == nil {
		return ErrMemberNotFound
	}

	member, err := s.userRepo.FindTeamEmployee(ctx, *manager.TeamID, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to find team member: %w", err)
	}

	if err := s.userRepo.SetActive(ctx, member.ID, active); err != nil {
		return fmt.Errorf("failed to update member status: %w", err)
	}

	s.log.Info("team member status updated",
		zap.Uint64("member_id", member.ID),
		zap.Uint64("manager_id", manager.ID),
		zap.Bool("is_active", active),
	)
	return nil
}

// Info describes the caller's team. Available to both roles.
func (s *TeamService) Info(ctx context.Context, user *models.User) (*TeamInfo, error) {
	if user.TeamID == nil {
		return nil, ErrTeamNotFound
	}

	team, err := s.teamRepo.FindByID(ctx, *user.TeamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}
	if team.Manager == nil {
		return nil, ErrTeamNotFound
	}

	count, err := s.teamRepo.CountActiveEmployees(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count members: %w", err)
	}

	return &TeamInfo{
		ID:           team.ID,
		TeamName:     team.TeamName,
		ManagerCode:  team.ManagerCode,
		CreatedAt:    team.CreatedAt,
		ManagerName:  team.Manager.Name,
		ManagerEmail: team.Manager.Email,
		MemberCount:  count,
	}, nil
}
