package utils

import (
	"os"
	"time"
)

// DateLocation is the application's timezone. It defaults to IST until
// InitializeDateLocation runs.
var DateLocation = time.FixedZone("IST", 5*60*60+30*60)

// InitializeDateLocation loads APP_TIMEZONE, falling back to Asia/Kolkata.
func InitializeDateLocation() error {
	timezone := os.Getenv("APP_TIMEZONE")
	if timezone == "" {
		timezone = "Asia/Kolkata"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return err
	}
	DateLocation = loc
	return nil
}

// Now returns the current time in the application timezone.
func Now() time.Time {
	return time.Now().In(DateLocation)
}
