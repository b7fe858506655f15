package provision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultDispatcherURL is the in-cluster nextflow dispatcher service
	DefaultDispatcherURL = "http://nf-dispatcher-service.flyte.svc.cluster.local"

	provisionStoragePath = "/provision-storage"
	executionNamePath    = "/execution-name"

	authHeader   = "Authorization"
	authScheme   = "Latch-Execution-Token"
	maxErrorBody = 4096
)

// Dispatcher talks to the control-plane dispatcher service.
// It provisions shared storage and looks up the run's execution name.
type Dispatcher struct {
	BaseURL string
	Client  *http.Client
	Token   TokenSource
}

// NewDispatcher returns a dispatcher client reading the token from the environment
func NewDispatcher(baseURL string) *Dispatcher {
	if baseURL == "" {
		baseURL = DefaultDispatcherURL
	}
	return &Dispatcher{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Client:  &http.Client{Timeout: 5 * time.Minute},
		Token:   EnvToken,
	}
}

type provisionRequest struct {
	StorageGiB int `json:"storage_gib"`
}

type provisionResponse struct {
	Name string `json:"name"`
}

// Provision issues one synchronous provisioning request.
// There is no retry here; retries belong to the platform.
func (d *Dispatcher) Provision(ctx context.Context, sizeGiB int) (VolumeHandle, error) {
	token, err := executionToken(d.Token)
	if err != nil {
		return "", err
	}
	if err = validSize(sizeGiB); err != nil {
		return "", err
	}

	body, err := json.Marshal(provisionRequest{StorageGiB: sizeGiB})
	if err != nil {
		return "", fmt.Errorf("failed to marshal provisioning request: %v", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.BaseURL+provisionStoragePath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build provisioning request: %v", err)
	}
	req.Header.Set(authHeader, authScheme+" "+token)
	req.Header.Set("Content-Type", "application/json")

	logrus.Infof("Provisioning shared storage volume of %d GiB", sizeGiB)
	resp, err := d.client().Do(req)
	if err != nil {
		return "", &ProvisioningError{Err: err}
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProvisioningError{StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &ProvisioningError{StatusCode: resp.StatusCode, Body: truncate(string(b))}
	}

	out := &provisionResponse{}
	if err = json.Unmarshal(b, out); err != nil {
		return "", &ProvisioningError{StatusCode: resp.StatusCode, Err: fmt.Errorf("error unmarshalling response: %v", err)}
	}
	if out.Name == "" {
		return "", &ProvisioningError{StatusCode: resp.StatusCode, Err: fmt.Errorf("response has no volume name")}
	}
	logrus.Infof("Provisioned shared storage volume %v", out.Name)
	return VolumeHandle(out.Name), nil
}

// ExecutionName asks the dispatcher for the run's display name.
// Failures are reported as ok=false, never as errors.
func (d *Dispatcher) ExecutionName(ctx context.Context) (string, bool) {
	token, err := executionToken(d.Token)
	if err != nil {
		logrus.Warnf("cannot resolve execution name: %v", err)
		return "", false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.BaseURL+executionNamePath, nil)
	if err != nil {
		logrus.Warnf("cannot resolve execution name: %v", err)
		return "", false
	}
	req.Header.Set(authHeader, authScheme+" "+token)

	resp, err := d.client().Do(req)
	if err != nil {
		logrus.Warnf("cannot resolve execution name: %v", err)
		return "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		logrus.Warnf("cannot resolve execution name: dispatcher returned status %d", resp.StatusCode)
		return "", false
	}
	out := &provisionResponse{}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		logrus.Warnf("cannot resolve execution name: %v", err)
		return "", false
	}
	return out.Name, out.Name != ""
}

func (d *Dispatcher) client() *http.Client {
	if d.Client == nil {
		return http.DefaultClient
	}
	return d.Client
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
