package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/themizzi/shopcheck/internal/cases"
)

func newTestApp(out *bytes.Buffer) *cli.App {
	return &cli.App{
		Name:     "shopcheck",
		Writer:   out,
		Flags:    []cli.Flag{&cli.StringFlag{Name: "log-level", Value: "error"}},
		Commands: []*cli.Command{CasesCommand(), LoginCommand(), DBCommand()},
	}
}

func writeCases(t *testing.T, rows string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cases.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,username,password,isValid,validationMessage,severity\n"+rows), 0o644))
	return path
}

func TestCasesCommand(t *testing.T) {
	path := writeCases(t, "std,standard_user,secret_sauce,true,,critical\n"+
		"locked,locked_out_user,secret_sauce,false,Epic sadface: Sorry,blocker\n"+
		",problem_user,secret_sauce,,,\n")
	var out bytes.Buffer

	require.NoError(t, newTestApp(&out).Run([]string{"shopcheck", "cases", "--file", path}))

	assert.Contains(t, out.String(), "locked_out_user")
	assert.Contains(t, out.String(), "Epic sadface: Sorry")
	assert.Contains(t, out.String(), "sec***")
	assert.NotContains(t, out.String(), "secret_sauce")
	assert.Contains(t, out.String(), "row3")
	assert.Contains(t, out.String(), "3 cases")

	out.Reset()
	require.NoError(t, newTestApp(&out).Run([]string{"shopcheck", "cases", "--file", path, "--severity", "blocker"}))
	assert.Contains(t, out.String(), "1 cases")
}

func TestCasesCommand_ParseError(t *testing.T) {
	path := writeCases(t, "bad,locked_out_user,secret_sauce,false,,blocker\n")

	err := newTestApp(&bytes.Buffer{}).Run([]string{"shopcheck", "cases", "--file", path})

	var perr *cases.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, perr.Row)
}

func TestLoginCommand_ConflictingExpectations(t *testing.T) {
	err := newTestApp(&bytes.Buffer{}).Run([]string{"shopcheck", "login", "--valid", "--error", "Epic sadface"})

	assert.ErrorContains(t, err, "mutually exclusive")
}

func TestDBExec_RequiresScript(t *testing.T) {
	t.Setenv("POSTGRES_HOSTNAME", "")

	err := newTestApp(&bytes.Buffer{}).Run([]string{"shopcheck", "db", "exec"})

	assert.Error(t, err)
}
