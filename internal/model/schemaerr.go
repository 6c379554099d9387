package model

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
)

type CueErrorDetail struct {
	Path    string // options.stdout_mode
	Code    string // missing_required | unknown_field | type_mismatch | conflicting_values | invalid_enum ...
	Message string // Human text
	Pos     CueErrorPosition
}

func (c CueErrorDetail) Attr(name string) slog.Attr {
	return slog.GroupAttrs(
		name,
		slog.String("code", c.Code),
		slog.String("path", c.Path),
		slog.String("message", c.Message),
		slog.String("file", c.Pos.Filename),
		slog.Int("line", c.Pos.Line),
		slog.Int("column", c.Pos.Column),
	)
}

type CueErrorPosition struct {
	Filename string
	Line     int
	Column   int
}

var (
	reIncomplete  = regexp.MustCompile(`(?i)incomplete value`)
	reNotAllowed  = regexp.MustCompile(`(?i)not allowed|unknown field`)
	reConflict    = regexp.MustCompile(`(?i)conflicting values|cannot unify|incompatible`)
	reExpectedGot = regexp.MustCompile(`(?i)expected .* got .*`)
	reEnum        = regexp.MustCompile(`(?i)must be one of|expected one of|empty disjunction`)
)

// CueErrDetails turns an error returned by ValidateStore into one
// entry per distinct source position. Non CUE errors yield nil.
func CueErrDetails(err error) []CueErrorDetail {
	if err == nil {
		return nil
	}
	var cerr cueerrors.Error
	if !errors.As(err, &cerr) {
		return nil
	}

	seen := make(map[CueErrorPosition]struct{})

	var out []CueErrorDetail
	for _, e := range cueerrors.Errors(cerr) {
		format, args := e.Msg()
		raw := fmt.Sprintf(format, args...)
		path := normalizePath(e.Path())
		code, msg := classify(raw, path)

		pos := position(e)
		if _, ok := seen[pos]; ok {
			continue
		}
		seen[pos] = struct{}{}

		out = append(out, CueErrorDetail{
			Path:    path,
			Code:    code,
			Message: msg,
			Pos:     pos,
		})
	}
	return out
}

func position(err cueerrors.Error) CueErrorPosition {
	for _, r := range cueerrors.Positions(err) {
		if r.Filename() == "" {
			continue
		}
		return CueErrorPosition{
			Filename: r.Filename(),
			Line:     r.Line(),
			Column:   r.Column(),
		}
	}
	var zero CueErrorPosition
	return zero
}

func normalizePath(p []string) string {
	if len(p) == 0 {
		return ""
	}
	// Remove leading definition (#Store)
	if strings.HasPrefix(p[0], "#") {
		p = p[1:]
	}
	return strings.Join(p, ".")
}

// classify maps a raw CUE message to a code and a message naming the
// store field in terms an operator can act on.
func classify(raw, path string) (code, msg string) {
	section, rest, _ := strings.Cut(path, ".")
	switch {
	case reNotAllowed.MatchString(raw):
		return "unknown_field", fmt.Sprintf("%s is not a store field", path)
	case reIncomplete.MatchString(raw):
		return "missing_required", fmt.Sprintf("%s is required", path)
	}

	code = "validation_error"
	switch {
	case reEnum.MatchString(raw):
		code = "invalid_enum"
	case reConflict.MatchString(raw):
		code = "conflicting_values"
	case reExpectedGot.MatchString(raw):
		code = "type_mismatch"
	}

	switch {
	case strings.HasSuffix(path, "_mode"):
		return code, fmt.Sprintf("%s must be one of %s", path, StreamModeList())
	case strings.HasSuffix(path, ".timeout"):
		return code, fmt.Sprintf("%s must be a non negative number of seconds", path)
	case strings.HasSuffix(path, ".preserve_env"):
		return code, fmt.Sprintf("%s must be true or false", path)
	case strings.HasSuffix(path, ".env"):
		return code, fmt.Sprintf("%s must be a list of KEY=VALUE strings", path)
	case section == "results" && rest != "":
		return code, fmt.Sprintf("results of %s must be a list of strings", rest)
	case section == "timing" && rest != "":
		return code, fmt.Sprintf("timing of %s needs non negative fastest and most_recent milliseconds", rest)
	case code == "validation_error":
		return code, raw
	default:
		return code, fmt.Sprintf("%s has an invalid value", path)
	}
}
