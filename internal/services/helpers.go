package services

import (
	"context"
	"strings"

	"github.com/charlesng35/huddle/pkg/validator"
)

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// normaliseEmails trims and lower-cases emails, dropping blanks and duplicates.
// The first malformed address is returned as invalid.
func normaliseEmails(values []string) (emails []string, invalid string) {
	if len(values) == 0 {
		return nil, ""
	}

	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = strings.ToLower(strings.TrimSpace(value))
		if value == "" {
			continue
		}
		if _, exists := seen[value]; exists {
			continue
		}
		if !validator.IsEmail(value) {
			return nil, value
		}
		seen[value] = struct{}{}
		emails = append(emails, value)
	}
	return emails, ""
}
