package provision

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	k8sv1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	k8sResource "k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// this file contains the kubernetes backend of the storage provisioner
// it creates the shared volume claim directly instead of going through the dispatcher
// the claim name is what nextflow's k8s executor mounts via K8S_STORAGE_CLAIM_NAME

const (
	claimPrefix    = "nf-"
	maxClaimName   = 63
	componentLabel = "nf-workdir"
)

var invalidClaimChars = regexp.MustCompile(`[^a-z0-9-]+`)

// ClaimProvisioner provisions a ReadWriteMany PersistentVolumeClaim per run
type ClaimProvisioner struct {
	Client       kubernetes.Interface
	Namespace    string
	StorageClass string
	Token        TokenSource
}

// NewClaimProvisioner ..
func NewClaimProvisioner(client kubernetes.Interface, namespace, storageClass string) *ClaimProvisioner {
	return &ClaimProvisioner{
		Client:       client,
		Namespace:    namespace,
		StorageClass: storageClass,
		Token:        EnvToken,
	}
}

// KubernetesClient returns a clientset from kubeconfig,
// or from the in-cluster service account if kubeconfig is empty.
func KubernetesClient(kubeconfig string) (kubernetes.Interface, error) {
	var config *rest.Config
	var err error
	if kubeconfig == "" {
		config, err = rest.InClusterConfig()
	} else {
		config, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load kubernetes config: %v", err)
	}
	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes clientset: %v", err)
	}
	return clientset, nil
}

// Provision creates the run's volume claim.
// A claim left over from a previous attempt of the same execution is reused.
func (p *ClaimProvisioner) Provision(ctx context.Context, sizeGiB int) (VolumeHandle, error) {
	token, err := executionToken(p.Token)
	if err != nil {
		return "", err
	}
	if err = validSize(sizeGiB); err != nil {
		return "", err
	}

	claim := p.claim(claimName(token), sizeGiB)
	logrus.Infof("Provisioning shared storage volume %v of %d GiB in namespace %v", claim.Name, sizeGiB, p.Namespace)
	created, err := p.Client.CoreV1().PersistentVolumeClaims(p.Namespace).Create(ctx, claim, metav1.CreateOptions{})
	switch {
	case k8serrors.IsAlreadyExists(err):
		logrus.Warnf("volume claim %v already exists, reusing it", claim.Name)
		return VolumeHandle(claim.Name), nil
	case err != nil:
		return "", &ProvisioningError{Err: err}
	}
	return VolumeHandle(created.Name), nil
}

func (p *ClaimProvisioner) claim(name string, sizeGiB int) *k8sv1.PersistentVolumeClaim {
	claim := &k8sv1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: p.Namespace,
			Labels: map[string]string{
				"app.kubernetes.io/component": componentLabel,
			},
		},
		Spec: k8sv1.PersistentVolumeClaimSpec{
			AccessModes: []k8sv1.PersistentVolumeAccessMode{k8sv1.ReadWriteMany},
			Resources: k8sv1.VolumeResourceRequirements{
				Requests: k8sv1.ResourceList{
					k8sv1.ResourceStorage: k8sResource.MustParse(fmt.Sprintf("%dGi", sizeGiB)),
				},
			},
		},
	}
	if p.StorageClass != "" {
		storageClass := p.StorageClass
		claim.Spec.StorageClassName = &storageClass
	}
	return claim
}

// claimName derives a DNS-1123 compliant claim name from the execution token
func claimName(token string) string {
	name := invalidClaimChars.ReplaceAllString(strings.ToLower(token), "-")
	name = strings.Trim(name, "-")
	name = claimPrefix + name
	if len(name) > maxClaimName {
		name = name[:maxClaimName]
	}
	return strings.TrimRight(name, "-")
}
