package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/editorial-cms/internal/models"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// timestampLayouts are tried in order. The second is what an HTML
// datetime-local input submits.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Errors is a list of field errors returned as one error value
type Errors []ValidationError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, ve := range e {
		parts = append(parts, ve.Field+": "+ve.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ParseTimestamp parses a submitted timestamp. Values without a zone are read
// as UTC. Blank or unparseable input yields nil.
func ParseTimestamp(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// NormalizeTagIDs drops non-positive and repeated ids, keeping first-seen order.
// The result is never nil.
func NormalizeTagIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// ValidateArticle checks the fields that cannot be repaired by normalization.
// title is the already tag-stripped title.
func ValidateArticle(title string, in *models.ArticleInput) Errors {
	var errs Errors

	if title == "" {
		errs = append(errs, ValidationError{Field: "title", Message: "title is required"})
	} else if utf8.RuneCountInString(title) > 255 {
		errs = append(errs, ValidationError{Field: "title", Message: "title exceeds 255 characters"})
	}

	if in.CategoryID < 0 {
		errs = append(errs, ValidationError{Field: "category_id", Message: "invalid category", Value: in.CategoryID})
	}

	return errs
}

// ValidateAdmin validates a new admin account
func ValidateAdmin(admin *models.Admin, password string, minPassword int) Errors {
	var errs Errors

	if strings.TrimSpace(admin.Username) == "" {
		errs = append(errs, ValidationError{Field: "username", Message: "username is required"})
	}
	if !IsValidEmail(admin.Email) {
		errs = append(errs, ValidationError{Field: "email", Message: "invalid email format", Value: admin.Email})
	}
	if !models.ValidRoles[admin.Role] {
		errs = append(errs, ValidationError{
			Field:   "role",
			Message: fmt.Sprintf("role must be one of: %s", strings.Join(roleNames(), ", ")),
			Value:   admin.Role,
		})
	}
	if utf8.RuneCountInString(password) < minPassword {
		errs = append(errs, ValidationError{
			Field:   "password",
			Message: fmt.Sprintf("password must be at least %d characters", minPassword),
		})
	}

	return errs
}

func roleNames() []string {
	return []string{"admin", "editor"}
}

// IsValidEmail checks if an email is valid
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(strings.TrimSpace(email))
}
