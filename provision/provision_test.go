package provision

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	k8sv1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"
)

func token(t string) TokenSource {
	return func() (string, bool) { return t, t != "" }
}

func TestDispatcherProvision(t *testing.T) {
	var gotAuth string
	var gotBody provisionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/provision-storage", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"name": "pvc-1234"}`))
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL)
	d.Token = token("exec-abc")
	volume, err := d.Provision(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, VolumeHandle("pvc-1234"), volume)
	assert.Equal(t, "Latch-Execution-Token exec-abc", gotAuth)
	assert.Equal(t, 100, gotBody.StorageGiB)
}

func TestDispatcherMissingToken(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL)
	d.Token = token("")
	_, err := d.Provision(context.Background(), 100)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingCredentials))
	var missing *MissingCredentialsError
	assert.True(t, errors.As(err, &missing))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls), "no request without a token")
}

func TestDispatcherEnvToken(t *testing.T) {
	t.Setenv(ExecutionTokenEnvVar, "")
	d := NewDispatcher("http://127.0.0.1:1")
	_, err := d.Provision(context.Background(), 1)
	assert.True(t, errors.Is(err, ErrMissingCredentials))
}

func TestDispatcherRejected(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL)
	d.Token = token("exec-abc")
	_, err := d.Provision(context.Background(), 100)
	require.Error(t, err)
	var perr *ProvisioningError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusForbidden, perr.StatusCode)
	assert.Contains(t, perr.Body, "quota exceeded")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "no retry")
}

func TestDispatcherBadResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"volume": "x"}`))
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL)
	d.Token = token("exec-abc")
	_, err := d.Provision(context.Background(), 100)
	assert.True(t, errors.Is(err, ErrProvisioning))
}

func TestDispatcherInvalidSize(t *testing.T) {
	d := NewDispatcher("http://127.0.0.1:1")
	d.Token = token("exec-abc")
	_, err := d.Provision(context.Background(), 0)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrProvisioning))
}

func TestDispatcherExecutionName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Latch-Execution-Token exec-abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "/execution-name", r.URL.Path)
		w.Write([]byte(`{"name": "brave_turing"}`))
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL)
	d.Token = token("exec-abc")
	name, ok := d.ExecutionName(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "brave_turing", name)

	d.Token = token("other")
	_, ok = d.ExecutionName(context.Background())
	assert.False(t, ok)

	d.Token = token("")
	_, ok = d.ExecutionName(context.Background())
	assert.False(t, ok)
}

func TestStaticName(t *testing.T) {
	name, ok := StaticName("run-1").ExecutionName(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "run-1", name)
	_, ok = StaticName("").ExecutionName(context.Background())
	assert.False(t, ok)
}

func TestClaimName(t *testing.T) {
	assert.Equal(t, "nf-ab12-cd34", claimName("AB12_cd34"))
	assert.Equal(t, "nf-x", claimName("--x--"))
	long := claimName(strings.Repeat("a", 100))
	assert.Len(t, long, 63)
}

func TestClaimProvisioner(t *testing.T) {
	client := fake.NewSimpleClientset()
	p := NewClaimProvisioner(client, "workflows", "efs")
	p.Token = token("f7a1b2")

	volume, err := p.Provision(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, VolumeHandle("nf-f7a1b2"), volume)

	claim, err := client.CoreV1().PersistentVolumeClaims("workflows").Get(context.Background(), "nf-f7a1b2", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, []k8sv1.PersistentVolumeAccessMode{k8sv1.ReadWriteMany}, claim.Spec.AccessModes)
	size := claim.Spec.Resources.Requests[k8sv1.ResourceStorage]
	assert.Equal(t, "100Gi", size.String())
	require.NotNil(t, claim.Spec.StorageClassName)
	assert.Equal(t, "efs", *claim.Spec.StorageClassName)

	// second attempt of the same execution reuses the claim
	volume, err = p.Provision(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, VolumeHandle("nf-f7a1b2"), volume)
}

func TestClaimProvisionerErrors(t *testing.T) {
	client := fake.NewSimpleClientset()
	client.PrependReactor("create", "persistentvolumeclaims", func(action k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, errors.New("exceeded quota")
	})
	p := NewClaimProvisioner(client, "workflows", "")
	p.Token = token("f7a1b2")
	_, err := p.Provision(context.Background(), 100)
	assert.True(t, errors.Is(err, ErrProvisioning))

	p.Token = token("")
	_, err = p.Provision(context.Background(), 100)
	assert.True(t, errors.Is(err, ErrMissingCredentials))
	assert.Len(t, client.Actions(), 1, "no api call without a token")
}
