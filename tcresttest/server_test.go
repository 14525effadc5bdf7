package tcresttest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ThalesGroup/tcrest"
	"github.com/ansel1/merry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealm(t *testing.T) {
	cases := []struct {
		path  string
		realm string
		ok    bool
		rest  string
	}{
		{"/guestAuth/app/rest/builds", RealmGuest, true, "builds"},
		{"/httpAuth/app/rest/builds/id:1", RealmHTTP, true, "builds/id:1"},
		{"/app/rest/server", RealmAPIKey, true, "server"},
		{"/app/rest/", RealmAPIKey, true, ""},
		{"/guestAuthapp/rest/builds", "", false, ""},
		{"/other", "", false, ""},
	}
	for _, c := range cases {
		t.Run(c.path, func(t *testing.T) {
			r := httptest.NewRequest("GET", c.path, nil)
			realm, ok := Realm(r)
			assert.Equal(t, c.ok, ok)
			assert.Equal(t, c.realm, realm)
			assert.Equal(t, c.rest, RESTPath(r))
		})
	}
}

func TestServer_realms(t *testing.T) {
	ts := NewServer(Credentials{User: "bob", Password: "pw", APIKey: "k"}, nil)
	defer ts.Close()

	cases := []struct {
		name   string
		config tcrest.Config
		realm  string
		code   int
	}{
		{"guest", tcrest.Config{}, RealmGuest, 200},
		{"basic", tcrest.Config{User: "bob", Password: "pw"}, RealmHTTP, 200},
		{"basic bad password", tcrest.Config{User: "bob", Password: "nope"}, RealmHTTP, 401},
		{"apikey", tcrest.Config{APIKey: "k"}, RealmAPIKey, 200},
		{"apikey wrong", tcrest.Config{APIKey: "other"}, RealmAPIKey, 401},
		{"basic and apikey", tcrest.Config{User: "bob", Password: "pw", APIKey: "k"}, RealmHTTP, 200},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ts.Inspector.Clear()
			client, err := ts.Client(c.config)
			require.NoError(t, err)

			v, err := client.ReadJSON(context.Background(), "builds")
			ex := ts.Inspector.LastExchange()
			require.NotNil(t, ex)
			assert.Equal(t, c.realm, ex.Realm)
			assert.Equal(t, c.code, ex.StatusCode)

			if c.code != 200 {
				require.Error(t, err)
				assert.True(t, merry.Is(err, tcrest.ErrUnexpectedStatus))
				assert.Equal(t, c.code, merry.HTTPCode(err))
				return
			}
			require.NoError(t, err)
			m := v.(map[string]interface{})
			assert.Equal(t, "GET", m["method"])
			assert.Equal(t, c.realm, m["realm"])
			assert.Equal(t, "builds", m["path"])
			assert.Equal(t, "application/json", m["accept"])
		})
	}
}

func TestServer_unknownPath(t *testing.T) {
	ts := NewServer(Credentials{}, nil)
	defer ts.Close()

	resp, err := ts.Server.Client().Get(ts.URL + "/somewhere")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_apiKeyRealmNeedsKey(t *testing.T) {
	// a server without an API key refuses the unprefixed realm
	ts := NewServer(Credentials{}, nil)
	defer ts.Close()

	req, err := http.NewRequest("GET", ts.URL+"/app/rest/builds", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer ")
	resp, err := ts.Server.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_SendJSON(t *testing.T) {
	ts := NewServer(Credentials{APIKey: "k"}, nil)
	defer ts.Close()

	client, err := ts.Client(tcrest.Config{APIKey: "k"})
	require.NoError(t, err)

	v, err := client.SendJSON(context.Background(), "buildQueue",
		map[string]interface{}{"buildType": map[string]string{"id": "Main"}},
		tcrest.QueryParams(map[string][]string{"moveToTop": {"true"}}),
	)
	require.NoError(t, err)

	m := v.(map[string]interface{})
	assert.Equal(t, "POST", m["method"])
	assert.Equal(t, "buildQueue", m["path"])
	assert.Equal(t, "application/json", m["contentType"])
	assert.JSONEq(t, `{"buildType":{"id":"Main"}}`, m["body"].(string))
	assert.Equal(t, map[string]interface{}{"moveToTop": []interface{}{"true"}}, m["query"])

	ex := ts.Inspector.LastExchange()
	require.NotNil(t, ex)
	require.NotNil(t, ex.RequestBody)
	assert.JSONEq(t, `{"buildType":{"id":"Main"}}`, ex.RequestBody.String())
	assert.Equal(t, "Bearer k", ex.Request.Header.Get("Authorization"))
	assert.Equal(t, "application/json", ex.Header.Get("Content-Type"))

	var echo Echo
	require.NoError(t, json.Unmarshal(ex.ResponseBody.Bytes(), &echo))
	assert.Equal(t, "buildQueue", echo.Path)
}

func TestServer_StaticHandler(t *testing.T) {
	ts := NewServer(Credentials{}, StaticHandler(200, "text/plain", "2024.1 (build 123)"))
	defer ts.Close()

	client, err := ts.Client(tcrest.Config{})
	require.NoError(t, err)

	body, err := client.Read(context.Background(), "server/version")
	require.NoError(t, err)
	assert.Equal(t, "2024.1 (build 123)", string(body))

	v, err := client.ReadJSON(context.Background(), "server/version")
	require.NoError(t, err)
	assert.Equal(t, "2024.1 (build 123)", v)
}
