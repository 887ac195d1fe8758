package model

import "errors"

// Config-time schedule errors. These are rejected when an administrator
// saves a schedule and never reach booking code.
var (
	ErrInvertedWorkWindow = errors.New("work window end must be after start")
	ErrInvalidBreakRange  = errors.New("invalid break range")
	ErrOverlappingBreaks  = errors.New("overlapping breaks")
)
