package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/whisper/internal/ledger"
)

// execute runs the CLI with the given args against a temp database and
// returns stdout plus the execution error.
func execute(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--db", dbPath}, args...))

	err := cmd.Execute()
	return out.String(), err
}

// decodeResponse parses a single JSON CLI response.
func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	return resp
}

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "whisper.db")
}

func TestInvalidFormatRejected(t *testing.T) {
	_, err := execute(t, tempDB(t), "--format", "xml", "feed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestPublishAndGetPost(t *testing.T) {
	db := tempDB(t)

	out, err := execute(t, db, "--format", "json", "publish", "alice", "ipfs://confession")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)

	data := resp.Data.(map[string]any)
	addr := data["address"].(string)
	wantAddr, _ := ledger.MustDerivePostAddress("alice")
	assert.Equal(t, string(wantAddr), addr)

	out, err = execute(t, db, "--format", "json", "get", "post", addr)
	require.NoError(t, err)

	resp = decodeResponse(t, out)
	require.Equal(t, "ok", resp.Status)
	data = resp.Data.(map[string]any)
	assert.Equal(t, "alice", data["owner"])
	assert.Equal(t, "ipfs://confession", data["content_ref"])
	assert.Equal(t, float64(0), data["reactions"])
}

func TestPublishDuplicateExitsWithFailure(t *testing.T) {
	db := tempDB(t)

	_, err := execute(t, db, "publish", "alice", "ipfs://first")
	require.NoError(t, err)

	out, err := execute(t, db, "--format", "json", "publish", "alice", "ipfs://second")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ALREADY_EXISTS", resp.Error.Code)
}

func TestPublishWithMismatchedSigner(t *testing.T) {
	out, err := execute(t, tempDB(t), "--format", "json", "publish", "alice", "ipfs://x", "--signer", "mallory")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNAUTHORIZED_SIGNER", resp.Error.Code)
}

func TestReactAndCommentFlow(t *testing.T) {
	db := tempDB(t)

	out, err := execute(t, db, "--format", "json", "publish", "alice", "ipfs://confession")
	require.NoError(t, err)
	addr := decodeResponse(t, out).Data.(map[string]any)["address"].(string)

	out, err = execute(t, db, "--format", "json", "react", addr, "bob")
	require.NoError(t, err)
	data := decodeResponse(t, out).Data.(map[string]any)
	assert.Equal(t, float64(1), data["reactions"])

	out, err = execute(t, db, "--format", "json", "comment", addr, "bob", "ipfs://reply")
	require.NoError(t, err)
	data = decodeResponse(t, out).Data.(map[string]any)
	wantComment, _ := ledger.MustDeriveCommentAddress(ledger.Address(addr), "bob")
	assert.Equal(t, string(wantComment), data["address"])

	out, err = execute(t, db, "--format", "json", "get", "post", addr)
	require.NoError(t, err)
	data = decodeResponse(t, out).Data.(map[string]any)
	assert.Equal(t, float64(1), data["reactions"])
	assert.Equal(t, float64(1), data["comments"])
}

func TestReactMissingPost(t *testing.T) {
	ghost, _ := ledger.MustDerivePostAddress("ghost")

	out, err := execute(t, tempDB(t), "--format", "json", "react", string(ghost), "bob")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ACCOUNT_NOT_INITIALIZED", resp.Error.Code)
}

func TestFeedListsPosts(t *testing.T) {
	db := tempDB(t)

	_, err := execute(t, db, "publish", "alice", "ipfs://a")
	require.NoError(t, err)
	_, err = execute(t, db, "publish", "bob", "ipfs://b")
	require.NoError(t, err)

	out, err := execute(t, db, "--format", "json", "feed")
	require.NoError(t, err)

	data := decodeResponse(t, out).Data.(map[string]any)
	assert.Equal(t, float64(2), data["total"])
	assert.Len(t, data["posts"], 2)
}

func TestVerifyPostAuthentic(t *testing.T) {
	db := tempDB(t)

	out, err := execute(t, db, "--format", "json", "publish", "alice", "ipfs://confession")
	require.NoError(t, err)
	addr := decodeResponse(t, out).Data.(map[string]any)["address"].(string)

	out, err = execute(t, db, "--format", "json", "verify", "post", addr)
	require.NoError(t, err)

	data := decodeResponse(t, out).Data.(map[string]any)
	assert.Equal(t, true, data["authentic"])
	assert.Equal(t, "post", data["kind"])
}

func TestVerifyCommentAuthentic(t *testing.T) {
	db := tempDB(t)

	out, err := execute(t, db, "--format", "json", "publish", "alice", "ipfs://confession")
	require.NoError(t, err)
	postAddr := decodeResponse(t, out).Data.(map[string]any)["address"].(string)

	out, err = execute(t, db, "--format", "json", "comment", postAddr, "bob", "ipfs://reply")
	require.NoError(t, err)
	commentAddr := decodeResponse(t, out).Data.(map[string]any)["address"].(string)

	out, err = execute(t, db, "--format", "json", "verify", "comment", commentAddr)
	require.NoError(t, err)

	data := decodeResponse(t, out).Data.(map[string]any)
	assert.Equal(t, true, data["authentic"])
}

func TestTestCommandRunsScenarios(t *testing.T) {
	// The harness package ships its conformance scenarios; run them through
	// the CLI entry point.
	scenariosDir := filepath.Join("..", "harness", "testdata", "scenarios")

	out, err := execute(t, tempDB(t), "--format", "json", "test", scenariosDir)
	require.NoError(t, err)

	data := decodeResponse(t, out).Data.(map[string]any)
	assert.Equal(t, data["total"], data["passed"])
	assert.Equal(t, float64(0), data["failed"])
}

func TestTestCommandMissingDir(t *testing.T) {
	_, err := execute(t, tempDB(t), "test", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "boom")))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
}
