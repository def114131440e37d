package utils

import (
	"fmt"
	"regexp"
)

var (
	emailRegex     = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	timeOfDayRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// ValidateTimeOfDay validates a 24-hour HH:MM clock value
func ValidateTimeOfDay(value string) error {
	if !timeOfDayRegex.MatchString(value) {
		return fmt.Errorf("invalid time of day, expected HH:MM: %s", value)
	}
	return nil
}

// ValidateAmount validates an expense amount
func ValidateAmount(amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive: %.2f", amount)
	}
	return nil
}
