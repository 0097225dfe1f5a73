package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/yukikurage/team-task-api/internal/constants"
	"github.com/yukikurage/team-task-api/internal/models"
)

var ErrExportFailed = errors.New("failed to generate export")

const exportSheet = "Daily Work"

var exportColumns = []struct {
	title string
	width float64
}{
	{"Date", 12},
	{"Employee", 20},
	{"Email", 26},
	{"Project", 18},
	{"Category", 14},
	{"Hours", 8},
	{"Mood", 10},
	{"Description", 48},
	{"Achievements", 32},
	{"Challenges", 32},
}

// ExportTeam writes every log of the manager's team into an XLSX workbook,
// in the same order as ListTeam.
func (s *DailyWorkService) ExportTeam(ctx context.Context, manager *models.User) (*bytes.Buffer, string, error) {
	var logs []models.DailyWorkLog
	if manager.TeamID != nil {
		var err error
		logs, _, err = s.repo.ListByTeam(ctx, *manager.TeamID, nil)
		if err != nil {
			return nil, "", fmt.Errorf("failed to list team daily work: %w", err)
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(exportSheet)
	if err != nil {
		s.log.Error("failed to create export sheet", zap.Error(err))
		return nil, "", ErrExportFailed
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		s.log.Error("failed to drop default sheet", zap.Error(err))
		return nil, "", ErrExportFailed
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		s.log.Error("failed to create header style", zap.Error(err))
		return nil, "", ErrExportFailed
	}

	for i, col := range exportColumns {
		name := columnName(i)
		_ = f.SetColWidth(exportSheet, name, name, col.width)
		_ = f.SetCellValue(exportSheet, name+"1", col.title)
	}
	_ = f.SetCellStyle(exportSheet, "A1", columnName(len(exportColumns)-1)+"1", headerStyle)

	for i, l := range logs {
		row := i + 2
		var employee, email string
		if l.User != nil {
			employee, email = l.User.Name, l.User.Email
		}
		hours, _ := l.HoursWorked.Float64()
		values := []interface{}{
			time.Time(l.WorkDate).Format(constants.DateLayout),
			employee,
			email,
			l.ProjectName,
			l.WorkCategory,
			hours,
			l.MoodRating,
			l.WorkDescription,
			l.Achievements,
			l.ChallengesFaced,
		}
		if err := f.SetSheetRow(exportSheet, fmt.Sprintf("A%d", row), &values); err != nil {
			s.log.Error("failed to write export row", zap.Int("row", row), zap.Error(err))
			return nil, "", ErrExportFailed
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.log.Error("failed to write workbook", zap.Error(err))
		return nil, "", ErrExportFailed
	}

	filename := fmt.Sprintf("daily-work-%s.xlsx", time.Now().Format(constants.DateLayout))
	return buf, filename, nil
}

func columnName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}
