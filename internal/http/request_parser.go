package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"

	"cuantrack/internal/core"
)

const (
	maxBodyBytes   = 1 << 20
	maxImportBytes = 8 << 20
	dateLayout     = "2006-01-02"
)

var textPolicy = bluemonday.StrictPolicy()

// requestError is a client mistake carrying its own status.
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

func invalidField(field string, err error) error {
	return &requestError{status: http.StatusUnprocessableEntity, msg: fmt.Sprintf("%s: %v", field, err)}
}

// decodeJSON reads one JSON object into dst, rejecting unknown fields and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &requestError{status: http.StatusRequestEntityTooLarge, msg: "request body too large"}
		}
		if errors.Is(err, io.EOF) {
			return badRequest("request body is empty")
		}
		return badRequest("invalid JSON: %v", err)
	}
	if dec.More() {
		return badRequest("request body must contain a single JSON object")
	}
	return nil
}

// readImport returns the raw request body, bounded to maxImportBytes.
func readImport(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &requestError{status: http.StatusRequestEntityTooLarge, msg: "import document too large"}
		}
		return nil, badRequest("read body: %v", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, badRequest("request body is empty")
	}
	return data, nil
}

// sanitizeText strips markup and control characters from user-supplied text.
func sanitizeText(s string) string {
	s = html.UnescapeString(textPolicy.Sanitize(s))
	s = strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' {
			return r
		}
		return -1
	}, s)
	return strings.TrimSpace(s)
}

func sanitizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := sanitizeText(*s)
	return &v
}

// amount accepts either a JSON number or a string such as "12,5".
type amount string

func (a *amount) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount must be a number or a string")
	}
	*a = amount(n.String())
	return nil
}

// parse reads a non-negative amount; blank means zero.
func (a amount) parse(field string) (decimal.Decimal, error) {
	if strings.TrimSpace(string(a)) == "" {
		return decimal.Zero, nil
	}
	d, err := core.ParseAmount(string(a))
	if err != nil {
		return decimal.Zero, invalidField(field, err)
	}
	return d, nil
}

// parseSigned reads an amount that may carry a leading sign.
func (a amount) parseSigned(field string) (decimal.Decimal, error) {
	s := strings.TrimSpace(string(a))
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+")
	if s == "" {
		return decimal.Zero, invalidField(field, core.ErrInvalidAmount)
	}
	d, err := core.ParseAmount(s)
	if err != nil {
		return decimal.Zero, invalidField(field, err)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

func parseOptionalAmount(a *amount, field string) (*decimal.Decimal, error) {
	if a == nil {
		return nil, nil
	}
	d, err := a.parse(field)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339. Blank yields def.
func parseDate(s string, def time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, invalidField("date", fmt.Errorf("expected YYYY-MM-DD or RFC 3339, got %q", s))
	}
	return t, nil
}

// parseDateBound reads an optional date query parameter. A bare "to" date
// covers the whole day.
func parseDateBound(s string, endOfDay bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := parseDate(s, time.Time{})
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay && len(s) == len(dateLayout) {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

func parseTransactionType(s string) (core.TransactionType, error) {
	t := core.TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", invalidField("type", core.ErrInvalidType)
	}
	return t, nil
}

func parseDays(s string, def int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 366 {
		return 0, badRequest("days must be between 1 and 366")
	}
	return n, nil
}
