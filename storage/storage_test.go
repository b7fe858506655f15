package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLog(t *testing.T, content string) string {
	p := filepath.Join(t.TempDir(), ".nextflow.log")
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestLogKey(t *testing.T) {
	assert.Equal(t, "your_log_dir/nf_nf_core_bactmap/run-7/nextflow.log",
		LogKey("your_log_dir/nf_nf_core_bactmap", "run-7", "nextflow.log"))
	assert.Equal(t, "logs/run-7/nextflow.log", LogKey("logs/", "run-7", "nextflow.log"))
}

func TestDirLogStore(t *testing.T) {
	src := writeLog(t, "Nov-01 10:00:00.000 [main] DEBUG nextflow.cli.Launcher")
	store := &DirLogStore{Root: t.TempDir()}

	location, err := store.Upload(context.Background(), "prefix/run-1/nextflow.log", src)
	require.NoError(t, err)
	b, err := os.ReadFile(location)
	require.NoError(t, err)
	assert.Contains(t, string(b), "nextflow.cli.Launcher")

	_, err = store.Upload(context.Background(), "prefix/run-1/nextflow.log", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestS3LogStore(t *testing.T) {
	var mu sync.Mutex
	puts := map[string]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		puts[r.URL.Path] = string(b)
		mu.Unlock()
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store, err := NewS3LogStore(S3Config{
		Bucket:         "workflow-logs",
		Region:         "us-east-1",
		Endpoint:       srv.URL,
		ForcePathStyle: true,
		Credentials:    `{"id": "AKIDEXAMPLE", "secret": "wJalrXUtnFEMI"}`,
	})
	require.NoError(t, err)

	src := writeLog(t, "log line")
	location, err := store.Upload(context.Background(), "your_log_dir/nf_nf_core_bactmap/run-1/nextflow.log", src)
	require.NoError(t, err)
	assert.Equal(t, "s3://workflow-logs/your_log_dir/nf_nf_core_bactmap/run-1/nextflow.log", location)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "log line", puts["/workflow-logs/your_log_dir/nf_nf_core_bactmap/run-1/nextflow.log"])
}

func TestS3LogStoreConfigErrors(t *testing.T) {
	_, err := NewS3LogStore(S3Config{Region: "us-east-1"})
	assert.Error(t, err)

	_, err = NewS3LogStore(S3Config{Bucket: "b", Region: "us-east-1", Credentials: "not json"})
	assert.Error(t, err)
}
