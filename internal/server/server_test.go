package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"decipher/internal/config"
	"decipher/internal/corpus"
	"decipher/internal/lm"
	"decipher/internal/logging"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{Environment: "test"}
	cfg.HTTP.Port = 8080
	cfg.Logging.Level = "debug"
	cfg.Logging.Output = "stderr"
	cfg.Solver.InitialTemperature = 5
	cfg.Solver.CoolingRate = 0.9
	cfg.Solver.Threshold = 0.5
	cfg.Solver.RandomSeed = 42
	return cfg
}

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()

	logger, err := logging.NewLogger(&logging.Config{
		Level:  "error",
		Output: "stderr",
	})
	require.NoError(t, err)
	return logger
}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	alphabet := corpus.Default()
	model := lm.New("the cat sat on the mat and the cat sat again", alphabet)

	srv := NewServer(testConfig(t), testLogger(t), model, nil)
	r := chi.NewRouter()
	srv.RegisterRoutes(r)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func postSolve(t *testing.T, ts *httptest.Server, body map[string]interface{}) map[string]interface{} {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(ts.URL+"/api/v1/solve", "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestSolveLifecycle(t *testing.T) {
	ts := testServer(t)

	started := postSolve(t, ts, map[string]interface{}{"ciphertext": "hte cah"})
	id, ok := started["id"].(string)
	require.True(t, ok, "solve response must carry an id")
	assert.Equal(t, "pending", started["status"])

	// Poll until the job finishes; the schedule is tiny so this is fast.
	deadline := time.Now().Add(5 * time.Second)
	var status map[string]interface{}
	for time.Now().Before(deadline) {
		resp, err := http.Get(ts.URL + "/api/v1/solve/" + id)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
		resp.Body.Close()

		if status["status"] == "completed" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	require.Equal(t, "completed", status["status"])
	assert.NotEmpty(t, status["plaintext"])
	assert.NotNil(t, status["key"])
	assert.Greater(t, status["energy"].(float64), 0.0)
	assert.Greater(t, status["iterations"].(float64), 0.0)
}

func TestSolveRequiresCiphertext(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/solve", "application/json", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSolveRejectsBadSchedule(t *testing.T) {
	ts := testServer(t)

	bad := 2.0
	started := postSolve(t, ts, map[string]interface{}{
		"ciphertext":   "hte cah",
		"cooling_rate": bad,
	})
	id := started["id"].(string)

	// The schedule is validated by the job goroutine; the job must end
	// up failed.
	deadline := time.Now().Add(5 * time.Second)
	var status map[string]interface{}
	for time.Now().Before(deadline) {
		resp, err := http.Get(ts.URL + "/api/v1/solve/" + id)
		require.NoError(t, err)
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
		resp.Body.Close()

		if status["status"] == "failed" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	require.Equal(t, "failed", status["status"])
	assert.Contains(t, status["error"], "cooling rate")
}

func TestStatusNotFound(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/solve/does-not-exist")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCancelFinishedJobConflicts(t *testing.T) {
	ts := testServer(t)

	started := postSolve(t, ts, map[string]interface{}{"ciphertext": "hte cah"})
	id := started["id"].(string)

	// Wait for completion, then cancellation must conflict.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(ts.URL + "/api/v1/solve/" + id)
		require.NoError(t, err)
		var status map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
		resp.Body.Close()
		if status["status"] == "completed" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/solve/"+id, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestModelEndpoint(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/model")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, float64(38), stats["vocabulary_size"])
	assert.Greater(t, stats["corpus_size"].(float64), 0.0)
	assert.Greater(t, stats["unigram_entropy"].(float64), 0.0)
}

func TestResultsDisabledWithoutStore(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/results")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}
