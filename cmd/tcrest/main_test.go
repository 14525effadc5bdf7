package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ThalesGroup/tcrest/tcresttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, stdin string, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func hostOf(ts *tcresttest.Server) string {
	return strings.TrimPrefix(ts.URL, "http://")
}

func TestGet(t *testing.T) {
	ts := tcresttest.NewServer(tcresttest.Credentials{APIKey: "k"}, nil)
	defer ts.Close()

	code, out, errOut := runCLI(t, "", "--host", hostOf(ts), "--apikey", "k", "get", "builds", "-H", "X-Trace: 1")
	require.Equal(t, ExitSuccess, code, errOut)

	var echo tcresttest.Echo
	require.NoError(t, json.Unmarshal([]byte(out), &echo))
	assert.Equal(t, "GET", echo.Method)
	assert.Equal(t, tcresttest.RealmAPIKey, echo.Realm)
	assert.Equal(t, "builds", echo.Path)

	ex := ts.Inspector.LastExchange()
	require.NotNil(t, ex)
	assert.Equal(t, "1", ex.Request.Header.Get("X-Trace"))
}

func TestGet_query(t *testing.T) {
	ts := tcresttest.NewServer(tcresttest.Credentials{},
		tcresttest.StaticHandler(200, "application/json", `{"count":2,"build":[{"id":10},{"id":11}]}`))
	defer ts.Close()

	code, out, errOut := runCLI(t, "", "--host", hostOf(ts), "get", "builds", "--query", "build.#.id")
	require.Equal(t, ExitSuccess, code, errOut)
	assert.Equal(t, "[10,11]\n", out)

	code, _, errOut = runCLI(t, "", "--host", hostOf(ts), "get", "builds", "--query", "nothing.here")
	assert.Equal(t, ExitRequestFailure, code)
	assert.Contains(t, errOut, "matched nothing")
}

func TestRaw(t *testing.T) {
	ts := tcresttest.NewServer(tcresttest.Credentials{User: "bob", Password: "pw"},
		tcresttest.StaticHandler(200, "text/plain", "2024.1"))
	defer ts.Close()

	code, out, errOut := runCLI(t, "", "--host", hostOf(ts), "-u", "bob", "-p", "pw", "raw", "server/version")
	require.Equal(t, ExitSuccess, code, errOut)
	assert.Equal(t, "2024.1", out)

	ex := ts.Inspector.LastExchange()
	require.NotNil(t, ex)
	assert.Equal(t, tcresttest.RealmHTTP, ex.Realm)

	code, _, errOut = runCLI(t, "", "--host", hostOf(ts), "-u", "bob", "-p", "wrong", "raw", "server/version")
	assert.Equal(t, ExitRequestFailure, code)
	assert.Contains(t, errOut, "401")
}

func TestSend(t *testing.T) {
	ts := tcresttest.NewServer(tcresttest.Credentials{}, nil)
	defer ts.Close()

	code, out, errOut := runCLI(t, "", "--host", hostOf(ts), "send", "buildQueue", `{"buildType":{"id":"Main"}}`)
	require.Equal(t, ExitSuccess, code, errOut)

	var echo tcresttest.Echo
	require.NoError(t, json.Unmarshal([]byte(out), &echo))
	assert.Equal(t, "POST", echo.Method)
	assert.Equal(t, "application/json", echo.ContentType)
	assert.JSONEq(t, `{"buildType":{"id":"Main"}}`, echo.Body)

	t.Run("stdin", func(t *testing.T) {
		code, out, errOut := runCLI(t, `{"text":"hi"}`, "--host", hostOf(ts), "send", "-X", "PUT", "builds/id:1/comment", "-")
		require.Equal(t, ExitSuccess, code, errOut)
		var echo tcresttest.Echo
		require.NoError(t, json.Unmarshal([]byte(out), &echo))
		assert.Equal(t, "PUT", echo.Method)
		assert.Equal(t, "builds/id:1/comment", echo.Path)
		assert.JSONEq(t, `{"text":"hi"}`, echo.Body)
	})

	t.Run("invalid body", func(t *testing.T) {
		code, _, errOut := runCLI(t, "", "--host", hostOf(ts), "send", "buildQueue", `{nope`)
		assert.Equal(t, ExitUsageError, code)
		assert.Contains(t, errOut, "not valid JSON")
	})
}

func TestURL(t *testing.T) {
	code, out, _ := runCLI(t, "", "--host", "ci", "-u", "bob", "-p", "secret", "url")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "http://bob:xxxxx@ci/httpAuth/app/rest/")
	assert.Contains(t, out, "basic")
	assert.NotContains(t, out, "secret")

	code, out, _ = runCLI(t, "", "--host", "ci", "--protocol", "https://", "url")
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "https://ci/guestAuth/app/rest/")
	assert.Contains(t, out, "guest")
}

func TestConfigFile(t *testing.T) {
	ts := tcresttest.NewServer(tcresttest.Credentials{APIKey: "from-env"}, nil)
	defer ts.Close()

	t.Setenv("TCREST_CLI_TOKEN", "from-env")
	path := filepath.Join(t.TempDir(), "ci.yaml")
	require.NoError(t, os.WriteFile(path, []byte("host: "+hostOf(ts)+"\napikey: ${TCREST_CLI_TOKEN}\ntransport:\n  timeout: 5s\n"), 0o600))

	code, out, errOut := runCLI(t, "", "--config", path, "get", "server")
	require.Equal(t, ExitSuccess, code, errOut)
	assert.Contains(t, out, `"realm": ""`)

	code, _, _ = runCLI(t, "", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "url")
	assert.Equal(t, ExitConfigError, code)
}

func TestExitCodes(t *testing.T) {
	code, _, errOut := runCLI(t, "", "--host", "ci", "-u", "bob", "url")
	assert.Equal(t, ExitConfigError, code)
	assert.Contains(t, errOut, "incorrect password")

	code, _, _ = runCLI(t, "", "url")
	assert.Equal(t, ExitConfigError, code)

	code, _, _ = runCLI(t, "", "--host", "ci", "get")
	assert.Equal(t, ExitUsageError, code)

	code, _, _ = runCLI(t, "", "url", "--no-such-flag")
	assert.Equal(t, ExitUsageError, code)

	code, _, errOut = runCLI(t, "", "nosuch")
	assert.Equal(t, ExitUsageError, code)
	assert.Contains(t, errOut, "unknown command")

	code, out, _ := runCLI(t, "")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Usage:")

	code, _, _ = runCLI(t, "", "--host", "ci", "get", "builds", "-H", "novalue")
	assert.Equal(t, ExitUsageError, code)

	// nothing listens on port 1
	code, _, _ = runCLI(t, "", "--host", "127.0.0.1:1", "get", "builds")
	assert.Equal(t, ExitRequestFailure, code)
}

func TestVerbose(t *testing.T) {
	ts := tcresttest.NewServer(tcresttest.Credentials{APIKey: "k"}, nil)
	defer ts.Close()

	code, _, errOut := runCLI(t, "", "--host", hostOf(ts), "--apikey", "k", "-v", "get", "builds")
	require.Equal(t, ExitSuccess, code, errOut)
	assert.Contains(t, errOut, "level=debug")
	assert.Contains(t, errOut, "sending request")
	assert.Contains(t, errOut, "status=200")
	assert.NotContains(t, errOut, "Bearer k")
}

func TestVersion(t *testing.T) {
	code, out, _ := runCLI(t, "", "version")
	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "tcrest version dev\n", out)
}
