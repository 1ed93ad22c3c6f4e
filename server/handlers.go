package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/sig-0/ufrates/failure"
)

const (
	maxDay   = 31
	maxMonth = 12
	maxYear  = 9999
)

var (
	errMissingParam = errors.New("missing parameter")
	errInvalidParam = errors.New("invalid parameter")

	errUnableToResolve = errors.New("unable to resolve UF value")
)

// kindStatus maps every failure kind to a distinct response status
var kindStatus = map[failure.Kind]int{
	failure.DateBeforeFloor: http.StatusUnprocessableEntity,
	failure.CalendarInvalid: http.StatusBadRequest,
	failure.NotFound:        http.StatusNotFound,
	failure.InvalidValue:    http.StatusInternalServerError,
	failure.Upstream:        http.StatusBadGateway,
	failure.Transport:       http.StatusServiceUnavailable,
	failure.Timeout:         http.StatusGatewayTimeout,
}

// Root is the liveness message handler
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, &MessageResponse{Message: "ok"})
}

func (s *Server) SingleUF(w http.ResponseWriter, r *http.Request) {
	var (
		dayParam   = r.URL.Query().Get("day")
		monthParam = r.URL.Query().Get("month")
		yearParam  = r.URL.Query().Get("year")
	)

	// Parse the day
	day, err := parseBounded("day", dayParam, 1, maxDay)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)

		return
	}

	// Parse the month
	month, err := parseBounded("month", monthParam, 1, maxMonth)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)

		return
	}

	// Parse the year, bounded by the date floor
	year, err := parseYear(yearParam, s.resolver.MinDate().Year())
	if err != nil {
		writeError(w, statusFor(err, http.StatusUnprocessableEntity), err)

		return
	}

	uf, err := s.resolver.Single(r.Context(), day, month, year)
	if err != nil {
		s.writeFailure(w, err)

		return
	}

	writeJSON(w, http.StatusOK, uf)
}

func (s *Server) MonthlyUF(w http.ResponseWriter, r *http.Request) {
	var (
		monthParam = r.URL.Query().Get("month")
		yearParam  = r.URL.Query().Get("year")
	)

	// Parse the month
	month, err := parseBounded("month", monthParam, 1, maxMonth)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)

		return
	}

	// Parse the year, bounded by the date floor
	year, err := parseYear(yearParam, s.resolver.MinDate().Year())
	if err != nil {
		writeError(w, statusFor(err, http.StatusUnprocessableEntity), err)

		return
	}

	result, err := s.resolver.Month(r.Context(), month, year)
	if err != nil {
		s.writeFailure(w, err)

		return
	}

	writeJSON(w, http.StatusOK, result)
}

// writeFailure writes the response for a failed resolution.
// Errors that carry no failure kind are not exposed to the caller
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	s.logger.Debug(
		"unable to resolve UF value",
		"kind", failure.KindOf(err),
		"err", err,
	)

	status := statusFor(err, http.StatusInternalServerError)

	if failure.KindOf(err) == failure.Unknown {
		writeError(w, status, errUnableToResolve)

		return
	}

	writeError(w, status, err)
}

// statusFor returns the response status for the error's failure kind
func statusFor(err error, fallback int) int {
	if status, ok := kindStatus[failure.KindOf(err)]; ok {
		return status
	}

	return fallback
}

// parseBounded parses a required integer query parameter within [lower, upper]
func parseBounded(name, raw string, lower, upper int) (int, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return 0, fmt.Errorf("%w: %s", errMissingParam, name)
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errInvalidParam, name)
	}

	if n < lower || n > upper {
		return 0, fmt.Errorf("%w: %s must be between %d and %d", errInvalidParam, name, lower, upper)
	}

	return n, nil
}

// parseYear parses the year, rejecting years before the floor year
// and years beyond the calendar range
func parseYear(raw string, minYear int) (int, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return 0, fmt.Errorf("%w: year", errMissingParam)
	}

	year, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: year must be an integer", errInvalidParam)
	}

	switch {
	case year < minYear:
		return 0, failure.New(
			failure.DateBeforeFloor,
			fmt.Sprintf("year must be %d or later", minYear),
		)
	case year > maxYear:
		return 0, failure.New(
			failure.CalendarInvalid,
			fmt.Sprintf("year must be %d or earlier", maxYear),
		)
	}

	return year, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // Fine to ignore
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := &ErrorResponse{
		Error: err.Error(),
	}

	writeJSON(w, status, resp)
}
