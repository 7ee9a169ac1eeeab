package web_test

import (
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"pongrank/internal/back"
	"pongrank/internal/config"
	"pongrank/internal/web"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "0123456789abcdef0123456789abcdef"

func createTestServer(t *testing.T, conf config.Config) http.Handler {
	t.Helper()

	f, err := ioutil.TempFile("", "*.db")
	require.NoError(t, err)
	path := f.Name()
	f.Close()
	t.Cleanup(func() {
		os.Remove(path)
	})

	require.NoError(t, back.Migrate(path, "../../resources/migrations"))

	reg := prometheus.NewRegistry()
	b, err := back.New("sqlite3", path, &conf, reg)
	require.NoError(t, err)
	t.Cleanup(func() {
		b.Close()
	})

	return web.NewServer(b, &conf, reg).Handler()
}

func testConfig() config.Config {
	conf := config.Default()
	conf.SubmissionsPerMinute = 0
	return conf
}

func do(h http.Handler, method, target, contentType, body string, headers ...string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		r.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var ret map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ret), w.Body.String())

	return ret
}

const adjustmentsCSV = `Tournament,T1
Date,2024-03-02
Player,Rating
a,1000
b,1100
`

func TestPostAdjustmentsCSV(t *testing.T) {
	h := createTestServer(t, testConfig())

	w := do(h, http.MethodPost, "/v1/tournaments/adjustments?auto_add=1", "text/csv; charset=utf-8", adjustmentsCSV)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	res := decode(t, w)
	assert.Equal(t, true, res["processed"])
	assert.Equal(t, "COMMITTED", res["state"])
	assert.Len(t, res["snapshots"], 2)

	w = do(h, http.MethodGet, "/v1/player/b", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	player := decode(t, w)
	assert.Equal(t, "b", player["name"])
	assert.Equal(t, 1100.0, player["rating"])

	w = do(h, http.MethodGet, "/v1/tournament/T1", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["snapshots"], 2)

	w = do(h, http.MethodPost, "/v1/tournaments/adjustments?auto_add=1", "text/csv", adjustmentsCSV)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPostAdjustmentsRejected(t *testing.T) {
	h := createTestServer(t, testConfig())

	w := do(h, http.MethodPost, "/v1/tournaments/adjustments", "text/csv", adjustmentsCSV)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	res := decode(t, w)
	assert.Equal(t, false, res["processed"])
	assert.Equal(t, "REJECTED", res["state"])
	items, ok := res["items"].([]interface{})
	require.True(t, ok)
	require.Len(t, items, 2)
	assert.Equal(t, "INVALID_PLAYER", items[0].(map[string]interface{})["reason"])

	w = do(h, http.MethodGet, "/v1/player/a", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostInvalidFormat(t *testing.T) {
	h := createTestServer(t, testConfig())

	cases := []struct {
		target, contentType, body string
	}{
		{"/v1/tournaments/adjustments", "text/csv", "Date,2024-03-02\na,1000\n"},
		{"/v1/tournaments/adjustments", "application/json", `{"tournament": "T1"`},
		{"/v1/tournaments/results", "text/csv", "Tournament,T1\nDate,2024-03-02\na,b,c\n"},
		{"/v1/tournaments/results", "application/json", `{"tournament": "T1", "date": "tomorrow", "matches": [{"winner":"a","loser":"b"}]}`},
	}

	for _, c := range cases {
		w := do(h, http.MethodPost, c.target, c.contentType, c.body)
		assert.Equal(t, http.StatusBadRequest, w.Code, c.body)
		assert.NotEmpty(t, decode(t, w)["error"])
	}
}

func TestPostResultsJSON(t *testing.T) {
	h := createTestServer(t, testConfig())

	w := do(h, http.MethodPost, "/v1/tournaments/adjustments?auto_add=true", "text/csv", adjustmentsCSV)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(h, http.MethodPost, "/v1/tournaments/results", "application/json", `{
        "tournament": "T2",
        "date": "2024-03-09",
        "matches": [{"winner": "a", "loser": "b"}, {"winner": "b", "loser": "a"}]
    }`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(h, http.MethodGet, "/v1/player/a/history?limit=1", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	history, ok := decode(t, w)["history"].([]interface{})
	require.True(t, ok)
	require.Len(t, history, 1)
	assert.Equal(t, 1016.0, history[0].(map[string]interface{})["final_rating"])

	w = do(h, http.MethodGet, "/v1/player/a/history?limit=-1", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(h, http.MethodGet, "/v1/player/a/history.svg", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))

	w = do(h, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `pongrank_submissions_total{mode="transfer",outcome="committed"} 1`)
}

func TestPostPlayer(t *testing.T) {
	h := createTestServer(t, testConfig())

	w := do(h, http.MethodPost, "/v1/players", "application/json", `{"name": "Waldner", "display_name": "J-O Waldner"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "J-O Waldner", decode(t, w)["display_name"])

	w = do(h, http.MethodPost, "/v1/players", "application/json", `{"name": "Waldner"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(h, http.MethodPost, "/v1/players", "application/json", `{"name": ""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(h, http.MethodGet, "/v1/player/Waldner", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["rated"])
}

func TestAuthorization(t *testing.T) {
	conf := testConfig()
	conf.APIToken = testToken
	h := createTestServer(t, conf)

	w := do(h, http.MethodPost, "/v1/tournaments/adjustments?auto_add=1", "text/csv", adjustmentsCSV)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(h, http.MethodPost, "/v1/tournaments/adjustments?auto_add=1", "text/csv", adjustmentsCSV,
		"Authorization", "Bearer not-the-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(h, http.MethodPost, "/v1/tournaments/adjustments?auto_add=1", "text/csv", adjustmentsCSV,
		"Authorization", "Bearer "+testToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Reads stay public.
	w = do(h, http.MethodGet, "/v1/player/a", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSignedChartLink(t *testing.T) {
	conf := testConfig()
	conf.APIToken = testToken
	h := createTestServer(t, conf)
	auth := []string{"Authorization", "Bearer " + testToken}

	for _, body := range []string{
		adjustmentsCSV,
		"Tournament,T2\nDate,2024-03-09\na,1200\n",
	} {
		w := do(h, http.MethodPost, "/v1/tournaments/adjustments?auto_add=1", "text/csv", body, auth...)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := do(h, http.MethodGet, "/v1/player/a/history.svg", "", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(h, http.MethodGet, "/v1/player/a/chart-link", "", "", auth...)
	require.Equal(t, http.StatusOK, w.Code)
	link, ok := decode(t, w)["url"].(string)
	require.True(t, ok)

	w = do(h, http.MethodGet, link, "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "<svg")

	w = do(h, http.MethodGet, strings.Replace(link, "/a/", "/b/", 1), "", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(h, http.MethodGet, "/v1/player/nobody/chart-link", "", "", auth...)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmissionsAreThrottled(t *testing.T) {
	conf := testConfig()
	conf.SubmissionsPerMinute = 1
	h := createTestServer(t, conf)

	w := do(h, http.MethodPost, "/v1/tournaments/adjustments?auto_add=1", "text/csv", adjustmentsCSV)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(h, http.MethodPost, "/v1/tournaments/results", "text/csv", "Tournament,T2\nDate,2024-03-09\na,b\n")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	w = do(h, http.MethodGet, "/v1/player/a", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
