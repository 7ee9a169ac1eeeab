// Package batch turns submission payloads, CSV tables or JSON documents, into
// the uniform requests the back understands.
package batch

import (
	"fmt"
	"pongrank/internal/back"
	"pongrank/internal/util"
	"strings"
	"time"
)

// header holds the tournament identity every payload starts with.
type header struct {
	tournament string
	date       time.Time
}

func newHeader(tournament, date string) (header, error) {
	tournament = strings.TrimSpace(tournament)
	if tournament == "" {
		return header{}, formatError("missing tournament name")
	}

	if strings.TrimSpace(date) == "" {
		return header{}, formatError("missing tournament date")
	}

	t, err := util.ParseDate(date)
	if err != nil {
		return header{}, formatError("%s", err)
	}

	return header{tournament: tournament, date: t}, nil
}

func formatError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", back.ErrInvalidInputFormat, fmt.Sprintf(format, args...))
}
