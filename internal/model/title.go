// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"fmt"
	"time"
)

// Field length limits for titles and taxonomy entries.
const (
	MaxTitleNameLen = 256
	MaxTaxNameLen   = 256
	MaxSlugLen      = 50
)

// Review score bounds.
const (
	MinScore = 1
	MaxScore = 10
)

// ValidateYear checks that a title's release year is within [0, current
// calendar year].
func ValidateYear(year int64) error {
	now := int64(time.Now().Year())
	if year < 0 || year > now {
		return fmt.Errorf("year must be between 0 and %d", now)
	}
	return nil
}

// ValidateScore checks that a review score is within [1, 10].
func ValidateScore(score int64) error {
	if score < MinScore || score > MaxScore {
		return fmt.Errorf("score must be between %d and %d", MinScore, MaxScore)
	}
	return nil
}
