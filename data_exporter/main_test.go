package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xor-shift/xoshiro/common"
)

const referenceState = "0000000000000001000000000000000200000000000000030000000000000004"

func run(t *testing.T, args ...string) {
	t.Helper()
	require.NoError(t, runErr(t, args...))
}

func runErr(t *testing.T, args ...string) error {
	t.Helper()

	parser, err := kong.New(&cli{})
	require.NoError(t, err)

	ctx, err := parser.Parse(args)
	require.NoError(t, err)

	return ctx.Run()
}

func TestOutputName(t *testing.T) {
	name, err := outputName("session_{{.SessionNo}}.csv", templateArguments{SessionNo: 7})
	require.NoError(t, err)
	assert.Equal(t, "session_7.csv", name)

	name, err = outputName("-", templateArguments{})
	require.NoError(t, err)
	assert.Equal(t, "-", name)

	_, err = outputName("{{.Nope", templateArguments{})
	assert.Error(t, err)
}

func TestTableWrite(t *testing.T) {
	tbl := streamTable([]common.Stream{{Session: 1, Index: 2, Level: common.JumpLevelLong, State: referenceState}})

	var csvOut bytes.Buffer
	require.NoError(t, tbl.write(&csvOut, "csv", true))
	assert.Equal(t, "Session,Index,Level,State\n1,2,long,"+referenceState+"\n", csvOut.String())

	csvOut.Reset()
	require.NoError(t, tbl.write(&csvOut, "csv", false))
	assert.Equal(t, "1,2,long,"+referenceState+"\n", csvOut.String())

	var jsonOut bytes.Buffer
	require.NoError(t, tbl.write(&jsonOut, "json", true))
	assert.Contains(t, jsonOut.String(), `"level": "long"`)
}

func TestGenCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "values.csv")

	run(t, "gen", "--seed", referenceState, "-n", "3", "-o", out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Index,Value,Hex", lines[0])
	assert.Equal(t, "0,41943041,0000000002800001", lines[1])
	assert.Equal(t, "2,3588806011781223,000cc00003800067", lines[3])

	err = runErr(t, "gen", "--seed", referenceState, "--count=-1", "-o", out)
	assert.ErrorIs(t, err, ErrNegativeCount)
}

func TestSplitCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "streams.csv")

	run(t, "split", "--seed", referenceState, "-n", "2", "--no-export_column_titles", "-o", out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "0,0,jump,"+referenceState, lines[0])
	assert.Equal(t, "0,1,jump,8c7a153956b5f3d1701f1a713401d85e6527f66a654690858386b786c4408050", lines[1])
}
