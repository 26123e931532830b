package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser — парсер cron-выражений (стандартные 5 полей).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Ошибки валидации расписания.
var (
	// ErrNoSchedule — entry не задаёт ни Every, ни CronExpr.
	ErrNoSchedule = errors.New("entry has neither interval nor cron expression")

	// ErrAmbiguousSchedule — entry задаёт и Every, и CronExpr.
	ErrAmbiguousSchedule = errors.New("entry has both interval and cron expression")
)

// validateEntry проверяет корректность entry.
func validateEntry(e Entry) error {
	if e.TaskName == "" {
		return errors.New("task name is empty")
	}

	hasInterval := e.Every > 0
	hasCron := e.CronExpr != ""

	switch {
	case !hasInterval && !hasCron:
		return ErrNoSchedule
	case hasInterval && hasCron:
		return ErrAmbiguousSchedule
	case hasCron:
		return ValidateCronExpr(e.CronExpr)
	}

	return nil
}

// ValidateCronExpr проверяет валидность cron-выражения.
func ValidateCronExpr(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// nextDue вычисляет следующее время срабатывания entry от момента from.
func nextDue(e Entry, from time.Time) (time.Time, error) {
	if e.Every > 0 {
		return from.Add(e.Every), nil
	}

	schedule, err := cronParser.Parse(e.CronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron expression %q: %w", e.CronExpr, err)
	}

	return schedule.Next(from), nil
}
