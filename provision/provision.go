package provision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// this file contains the storage provisioner contract and the errors it returns
// a provisioner runs once per run, before the nextflow runtime task,
// and hands back the name of a shared read/write volume

const (
	// ExecutionTokenEnvVar holds the execution-scoped token injected by the platform
	ExecutionTokenEnvVar = "FLYTE_INTERNAL_EXECUTION_ID"

	// DefaultStorageGiB is the size of the shared volume requested per run
	DefaultStorageGiB = 100
)

// VolumeHandle identifies a provisioned shared storage volume
type VolumeHandle string

func (v VolumeHandle) String() string { return string(v) }

// Provisioner allocates a shared storage volume for one run
type Provisioner interface {
	Provision(ctx context.Context, sizeGiB int) (VolumeHandle, error)
}

// NameResolver resolves the platform-assigned name of the current run.
// ok is false when the name cannot be determined.
type NameResolver interface {
	ExecutionName(ctx context.Context) (name string, ok bool)
}

// StaticName is a NameResolver for a name known up front
type StaticName string

// ExecutionName ..
func (n StaticName) ExecutionName(ctx context.Context) (string, bool) {
	return string(n), n != ""
}

// TokenSource returns the execution token; ok is false if there is none
type TokenSource func() (token string, ok bool)

// EnvToken reads the execution token from the ambient environment
func EnvToken() (string, bool) {
	token, ok := os.LookupEnv(ExecutionTokenEnvVar)
	return token, ok && strings.TrimSpace(token) != ""
}

func executionToken(src TokenSource) (string, error) {
	if src == nil {
		src = EnvToken
	}
	token, ok := src()
	if !ok {
		return "", &MissingCredentialsError{EnvVar: ExecutionTokenEnvVar}
	}
	return token, nil
}

var (
	// ErrMissingCredentials is wrapped by MissingCredentialsError
	ErrMissingCredentials = errors.New("failed to get execution token")
	// ErrProvisioning is wrapped by ProvisioningError
	ErrProvisioning = errors.New("failed to provision shared storage")
)

// MissingCredentialsError is returned when the execution token is absent.
// The run cannot proceed without it.
type MissingCredentialsError struct {
	EnvVar string
}

func (e *MissingCredentialsError) Error() string {
	return fmt.Sprintf("failed to get execution token: %v is not set", e.EnvVar)
}

func (e *MissingCredentialsError) Unwrap() error { return ErrMissingCredentials }

// ProvisioningError is returned when the control plane rejects the storage request
type ProvisioningError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ProvisioningError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("failed to provision shared storage: %v", e.Err)
	case e.Body != "":
		return fmt.Sprintf("failed to provision shared storage: status %d: %v", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("failed to provision shared storage: status %d", e.StatusCode)
}

func (e *ProvisioningError) Unwrap() error { return ErrProvisioning }

func validSize(sizeGiB int) error {
	if sizeGiB <= 0 {
		return fmt.Errorf("storage size must be a positive number of GiB, got %d", sizeGiB)
	}
	return nil
}
