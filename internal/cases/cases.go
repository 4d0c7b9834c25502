// Package cases loads data-driven login cases from CSV files.
package cases

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/themizzi/shopcheck/internal/models"
)

// OutcomeKind says what a login attempt is expected to produce.
type OutcomeKind int

const (
	// Unvalidated cases only report whether the shopper looks logged in.
	Unvalidated OutcomeKind = iota
	// Valid cases must reach the inventory.
	Valid
	// Invalid cases must show an exact error message.
	Invalid
)

func (k OutcomeKind) String() string {
	switch k {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return "unvalidated"
	}
}

// Outcome is the expected result of a login. Message is set only for
// Invalid.
type Outcome struct {
	Kind    OutcomeKind
	Message string
}

// ExpectValid is the outcome for credentials that must authenticate.
func ExpectValid() Outcome { return Outcome{Kind: Valid} }

// ExpectInvalid is the outcome for credentials rejected with message.
func ExpectInvalid(message string) Outcome { return Outcome{Kind: Invalid, Message: message} }

// ExpectNothing is the outcome for cases with no assertion.
func ExpectNothing() Outcome { return Outcome{Kind: Unvalidated} }

// Case is one row of the credential table.
type Case struct {
	ID       string
	Label    string
	Username string
	Password string
	Outcome  Outcome
	Severity string
}

// ParseError reports a malformed row. Row is 1-indexed and excludes the
// header; Line is the physical line in the file.
type ParseError struct {
	Row  int
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("case file line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("case file data row %d (line %d): %s", e.Row, e.Line, e.Msg)
}

const (
	colID       = "id"
	colUsername = "username"
	colPassword = "password"
	colIsValid  = "isvalid"
	colMessage  = "validationmessage"
	colSeverity = "severity"
)

// Load reads cases from path. A missing file wraps fs.ErrNotExist.
func Load(path string) ([]Case, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open case file %s: %w", path, err)
	}
	defer f.Close()

	cs, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load cases from %s: %w", path, err)
	}
	return cs, nil
}

// Parse reads CSV with a header row. username and password columns are
// required; id, isValid, validationMessage and severity are optional.
func Parse(r io.Reader) ([]Case, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ParseError{Line: 1, Msg: "missing header"}
	}
	if err != nil {
		return nil, csvError(err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range []string{colUsername, colPassword} {
		if _, ok := index[col]; !ok {
			return nil, &ParseError{Line: 1, Msg: fmt.Sprintf("header is missing column %q", col)}
		}
	}

	var out []Case
	for row := 1; ; row++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}
		line, _ := cr.FieldPos(0)

		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(record) {
				return ""
			}
			return record[i]
		}

		outcome, err := parseOutcome(get(colIsValid), strings.TrimSpace(get(colMessage)))
		if err != nil {
			return nil, &ParseError{Row: row, Line: line, Msg: err.Error()}
		}

		id := strings.TrimSpace(get(colID))
		label := id
		if label == "" {
			label = fmt.Sprintf("row%d", row)
		}
		severity := strings.ToLower(strings.TrimSpace(get(colSeverity)))
		if severity == "" {
			severity = models.DefaultSeverity
		}

		out = append(out, Case{
			ID:       id,
			Label:    label,
			Username: strings.TrimSpace(get(colUsername)),
			Password: get(colPassword),
			Outcome:  outcome,
			Severity: severity,
		})
	}
	return out, nil
}

func parseOutcome(isValid, message string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(isValid)) {
	case "true", "1", "yes":
		return ExpectValid(), nil
	case "false", "0", "no":
		if message == "" {
			return Outcome{}, errors.New("isValid=false requires a validationMessage")
		}
		return ExpectInvalid(message), nil
	case "", "none":
		return ExpectNothing(), nil
	default:
		return Outcome{}, fmt.Errorf("unrecognised isValid value %q", isValid)
	}
}

func csvError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Line: pe.Line, Msg: pe.Err.Error()}
	}
	return fmt.Errorf("failed to read case file: %w", err)
}

// Filter keeps cases whose severity is listed. No severities keeps all.
func Filter(cs []Case, severities ...string) []Case {
	if len(severities) == 0 {
		return cs
	}
	want := make([]string, 0, len(severities))
	for _, s := range severities {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			want = append(want, s)
		}
	}
	if len(want) == 0 {
		return cs
	}
	var out []Case
	for _, c := range cs {
		if slices.Contains(want, c.Severity) {
			out = append(out, c)
		}
	}
	return out
}

// Credentials returns the username and password to type. Blank fields fall
// back to the defaults, except for cases that expect a rejection, which are
// typed as written.
func (c Case) Credentials(username, password string) (string, string) {
	if c.Outcome.Kind == Invalid {
		return c.Username, c.Password
	}
	if c.Username != "" {
		username = c.Username
	}
	if c.Password != "" {
		password = c.Password
	}
	return username, password
}
