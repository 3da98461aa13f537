package services

import (
	"fmt"
	"time"

	"timebook/internal/core"
)

// Direction is a month navigation step.
type Direction string

const (
	DirectionPrev Direction = "prev"
	DirectionNext Direction = "next"
)

func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionPrev, DirectionNext:
		return Direction(s), nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// CanGoToPreviousMonth reports whether backward navigation is allowed.
// Projection mode never shows months before the present, so stepping
// back is only allowed while viewing a month after today's.
func CanGoToPreviousMonth(mode ViewMode, year int, month time.Month, today core.Date) bool {
	if mode != ViewProjection {
		return true
	}
	return core.MonthStart(year, month).After(core.MonthStart(today.Year, today.Month))
}

// Navigate returns the month one step away in the given direction. A
// disallowed backward step returns the current month unchanged.
func Navigate(mode ViewMode, dir Direction, year int, month time.Month, today core.Date) (int, time.Month) {
	if dir == DirectionPrev && !CanGoToPreviousMonth(mode, year, month, today) {
		return year, month
	}

	step := 1
	if dir == DirectionPrev {
		step = -1
	}
	t := time.Date(year, month+time.Month(step), 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}
