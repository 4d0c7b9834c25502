package cases

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `id,username,password,isValid,validationMessage,severity
standard,standard_user,secret_sauce,true,,critical
locked,locked_out_user,secret_sauce,false,Epic sadface: Sorry, this user has been locked out.,blocker
,problem_user,secret_sauce,,,
`

func TestParse(t *testing.T) {
	// The locked-out message contains a comma, so quote it.
	input := strings.Replace(sample, "Epic sadface: Sorry, this user has been locked out.", `"Epic sadface: Sorry, this user has been locked out."`, 1)

	got, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, Case{
		ID:       "standard",
		Label:    "standard",
		Username: "standard_user",
		Password: "secret_sauce",
		Outcome:  ExpectValid(),
		Severity: "critical",
	}, got[0])

	assert.Equal(t, Invalid, got[1].Outcome.Kind)
	assert.Equal(t, "Epic sadface: Sorry, this user has been locked out.", got[1].Outcome.Message)
	assert.Equal(t, "blocker", got[1].Severity)

	assert.Equal(t, "row3", got[2].Label)
	assert.Equal(t, Unvalidated, got[2].Outcome.Kind)
	assert.Equal(t, "minor", got[2].Severity)
}

func TestParse_IsValidVocabulary(t *testing.T) {
	tests := []struct {
		value   string
		message string
		want    OutcomeKind
		wantErr bool
	}{
		{value: "true", want: Valid},
		{value: " YES ", want: Valid},
		{value: "1", want: Valid},
		{value: "False", message: "nope", want: Invalid},
		{value: "0", message: "nope", want: Invalid},
		{value: "no", message: "nope", want: Invalid},
		{value: "", want: Unvalidated},
		{value: "None", want: Unvalidated},
		{value: "maybe", wantErr: true},
		{value: "false", message: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value+"/"+tt.message, func(t *testing.T) {
			input := "username,password,isValid,validationMessage\nu,p," + tt.value + "," + tt.message + "\n"

			got, err := Parse(strings.NewReader(input))
			if tt.wantErr {
				var pe *ParseError
				require.ErrorAs(t, err, &pe)
				assert.Equal(t, 1, pe.Row)
				assert.Equal(t, 2, pe.Line)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Outcome.Kind)
		})
	}
}

func TestParse_ErrorNamesRowAndLine(t *testing.T) {
	input := "username,password,isValid,validationMessage\n" +
		"a,b,true,\n" +
		"c,d,true,\n" +
		"e,f,false,\n"

	_, err := Parse(strings.NewReader(input))

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 3, pe.Row)
	assert.Equal(t, 4, pe.Line)
	assert.Contains(t, err.Error(), "data row 3")
}

func TestParse_Header(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty input", input: ""},
		{name: "missing password column", input: "username,isValid\nu,true\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, 1, pe.Line)
		})
	}
}

func TestParse_HeaderOnlyYieldsNoCases(t *testing.T) {
	got, err := Parse(strings.NewReader("username,password\n"))

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cases.csv")
	require.NoError(t, os.WriteFile(path, []byte("username,password,isValid\nstandard_user,secret_sauce,true\n"), 0o644))

	got, err := Load(path)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "row1", got[0].Label)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.csv"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoad_ParseErrorIsReachable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("username,password,isValid\nu,p,perhaps\n"), 0o644))

	_, err := Load(path)

	var pe *ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestFilter(t *testing.T) {
	cs := []Case{
		{Label: "a", Severity: "critical"},
		{Label: "b", Severity: "minor"},
		{Label: "c", Severity: "blocker"},
	}

	assert.Equal(t, cs, Filter(cs))
	assert.Equal(t, cs, Filter(cs, " "))

	got := Filter(cs, "Critical", "blocker")
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Label)
	assert.Equal(t, "c", got[1].Label)

	assert.Empty(t, Filter(cs, "trivial"))
}

func TestCase_Credentials(t *testing.T) {
	tests := []struct {
		name         string
		c            Case
		wantUsername string
		wantPassword string
	}{
		{name: "row values win", c: Case{Username: "problem_user", Password: "pw", Outcome: ExpectValid()}, wantUsername: "problem_user", wantPassword: "pw"},
		{name: "blank falls back", c: Case{Outcome: ExpectNothing()}, wantUsername: "standard_user", wantPassword: "secret_sauce"},
		{name: "blank password only", c: Case{Username: "visual_user", Outcome: ExpectValid()}, wantUsername: "visual_user", wantPassword: "secret_sauce"},
		{name: "rejection typed as written", c: Case{Password: "x", Outcome: ExpectInvalid("Epic sadface: Username is required")}, wantUsername: "", wantPassword: "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, p := tt.c.Credentials("standard_user", "secret_sauce")
			assert.Equal(t, tt.wantUsername, u)
			assert.Equal(t, tt.wantPassword, p)
		})
	}
}

func TestParse_TrimsUsernameButNotPassword(t *testing.T) {
	input := "id,username,password,isValid\n" +
		"spaced,  problem_user\t, pass word ,yes\n"

	got, err := Parse(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "problem_user", got[0].Username)
	assert.Equal(t, " pass word ", got[0].Password)
	assert.Equal(t, Valid, got[0].Outcome.Kind)
}
