// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "regexp"

// Field length limits for users.
const (
	MaxUsernameLen         = 150
	MaxEmailLen            = 254
	MaxNameLen             = 150
	MaxConfirmationCodeLen = 30
)

// ReservedUsernames cannot be claimed at signup because they collide with
// API routes.
var ReservedUsernames = map[string]bool{
	"me": true,
}

// usernameRegex matches the allowed username alphabet: word characters
// plus dot, at sign, plus and hyphen.
var usernameRegex = regexp.MustCompile(`^[\w.@+-]+$`)

// IsValidUsername reports whether s is a well-formed username.
func IsValidUsername(s string) bool {
	if s == "" || len(s) > MaxUsernameLen {
		return false
	}
	return usernameRegex.MatchString(s)
}

// IsReservedUsername reports whether s is reserved for API routes.
func IsReservedUsername(s string) bool {
	return ReservedUsernames[s]
}
