package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uc-cdis/bactmap/params"
)

func newTestServer(t *testing.T) *httptest.Server {
	server := NewServer(params.Bactmap(), params.PipelineName)
	ts := httptest.NewServer(server.Handler(io.Discard))
	t.Cleanup(ts.Close)
	return ts
}

func TestHealthcheck(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/_status")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Healthy", string(body))
}

func TestParameters(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/parameters")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var views []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&views))
	require.Len(t, views, 19)
	assert.Equal(t, "input", views[0]["name"])
	assert.Equal(t, "string", views[0]["type"])
	assert.Equal(t, true, views[0]["required"])
	assert.Equal(t, "outdir", views[1]["name"])
	assert.Equal(t, "optional<output-directory>", views[1]["type"])
	assert.Equal(t, false, views[1]["required"])
	assert.Equal(t, "show_hidden_params", views[18]["name"])
}

func TestParameter(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/parameters/non_GATC_threshold")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, 0.5, view["default"])
	assert.Equal(t, false, view["required"])

	missing, err := http.Get(ts.URL + "/parameters/nope")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestSections(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/sections")
	require.NoError(t, err)
	defer resp.Body.Close()

	var sections []sectionView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sections))
	require.Len(t, sections, 4)
	assert.Equal(t, "input", sections[0].Parameters[0].Name)
	total := 0
	for _, s := range sections {
		total += len(s.Parameters)
	}
	assert.Equal(t, 19, total)
}

func TestCommand(t *testing.T) {
	ts := newTestServer(t)
	body := `{"input": "samples.csv", "reference": "ref.fa", "trim": false, "subsampling_depth_cutoff": "50", "email": null}`
	resp, err := http.Post(ts.URL+"/command", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out commandResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, []string{
		"--input", "samples.csv",
		"--reference", "ref.fa",
		"--adapter_file", "${baseDir}/assets/adapters.fas",
		"--subsampling_depth_cutoff", "50",
		"--non_GATC_threshold", "0.5",
		"--validate_params",
	}, out.Flags)
}

func TestCommandRejects(t *testing.T) {
	ts := newTestServer(t)
	for _, body := range []string{
		`{"input": "samples.csv"}`,
		`{"input": "a", "reference": "b", "mystery": 1}`,
		`{"input": "a", "reference": "b", "subsampling_depth_cutoff": "lots"}`,
		`not json`,
	} {
		resp, err := http.Post(ts.URL+"/command", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}

	resp, err := http.Get(ts.URL + "/command")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
