package postgres

import "time"

const (
	bookID = "6540022f5baea9d8f3e2f482"
	userID = "654001ee5baea9d8f3e2f47d"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }
