package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "BACTMAP"

type Config struct {
	LogLevel      string            `mapstructure:"log_level"`
	LogFormat     string            `mapstructure:"log_format"`
	ExecutionName string            `mapstructure:"execution_name"`
	Provisioner   ProvisionerConfig `mapstructure:"provisioner"`
	Nextflow      NextflowConfig    `mapstructure:"nextflow"`
	Storage       StorageConfig     `mapstructure:"storage"`
	Database      DatabaseConfig    `mapstructure:"database"`
	Metrics       MetricsConfig     `mapstructure:"metrics"`
	Server        ServerConfig      `mapstructure:"server"`
}

// ProvisionerConfig selects where the shared work volume comes from.
// Backend is "dispatcher" or "kubernetes".
type ProvisionerConfig struct {
	Backend       string `mapstructure:"backend"`
	DispatcherURL string `mapstructure:"dispatcher_url"`
	StorageGiB    int    `mapstructure:"storage_gib"`
	Namespace     string `mapstructure:"namespace"`
	StorageClass  string `mapstructure:"storage_class"`
	Kubeconfig    string `mapstructure:"kubeconfig"`
}

type NextflowConfig struct {
	Runner     string `mapstructure:"runner"`
	SourceRoot string `mapstructure:"source_root"`
	WorkDir    string `mapstructure:"work_dir"`
	Entry      string `mapstructure:"entry"`
	Profile    string `mapstructure:"profile"`
	ConfigFile string `mapstructure:"config_file"`
	LogFile    string `mapstructure:"log_file"`
	LogPrefix  string `mapstructure:"log_prefix"`
	Home       string `mapstructure:"home"`
	Opts       string `mapstructure:"opts"`
}

// StorageConfig selects the run log store.
// Backend is "s3" or "dir"; empty disables log upload.
type StorageConfig struct {
	Backend        string `mapstructure:"backend"`
	Bucket         string `mapstructure:"bucket"`
	Region         string `mapstructure:"region"`
	Endpoint       string `mapstructure:"endpoint"`
	ForcePathStyle bool   `mapstructure:"force_path_style"`
	Dir            string `mapstructure:"dir"`
}

// DatabaseConfig enables the run ledger when DSN is set
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// MetricsConfig enables run metrics when PushgatewayURL is set
type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	Job            string `mapstructure:"job"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

var defaults = map[string]interface{}{
	"log_level":                  "info",
	"log_format":                 "text",
	"execution_name":             "",
	"provisioner.backend":        "dispatcher",
	"provisioner.dispatcher_url": "http://nf-dispatcher-service.flyte.svc.cluster.local",
	"provisioner.storage_gib":    100,
	"provisioner.namespace":      "default",
	"provisioner.storage_class":  "",
	"provisioner.kubeconfig":     "",
	"nextflow.runner":            "/root/nextflow",
	"nextflow.source_root":       "/root",
	"nextflow.work_dir":          "/nf-workdir",
	"nextflow.entry":             "main.nf",
	"nextflow.profile":           "docker",
	"nextflow.config_file":       "latch.config",
	"nextflow.log_file":          ".nextflow.log",
	"nextflow.log_prefix":        "your_log_dir/nf_nf_core_bactmap",
	"nextflow.home":              "/root/.nextflow",
	"nextflow.opts":              "-Xms2048M -Xmx8G -XX:ActiveProcessorCount=4",
	"storage.backend":            "s3",
	"storage.bucket":             "",
	"storage.region":             "us-east-1",
	"storage.endpoint":           "",
	"storage.force_path_style":   false,
	"storage.dir":                "",
	"database.dsn":               "",
	"metrics.pushgateway_url":    "",
	"metrics.job":                "nf_nf_core_bactmap",
	"server.addr":                ":8080",
}

// Load reads defaults, then the yaml file at path if given, then BACTMAP_* env vars
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("execution_name", EnvPrefix+"_EXECUTION_NAME", "NF_EXECUTION_NAME"); err != nil {
		return nil, err
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

func (c *Config) Validate() error {
	switch c.Provisioner.Backend {
	case "dispatcher":
		if c.Provisioner.DispatcherURL == "" {
			return fmt.Errorf("provisioner.dispatcher_url is required for the dispatcher backend")
		}
	case "kubernetes":
		if c.Provisioner.Namespace == "" {
			return fmt.Errorf("provisioner.namespace is required for the kubernetes backend")
		}
	default:
		return fmt.Errorf("unsupported provisioner backend %q", c.Provisioner.Backend)
	}
	if c.Provisioner.StorageGiB <= 0 {
		return fmt.Errorf("provisioner.storage_gib must be positive, got %d", c.Provisioner.StorageGiB)
	}

	switch c.Storage.Backend {
	case "", "s3":
	case "dir":
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage.dir is required for the dir backend")
		}
	default:
		return fmt.Errorf("unsupported storage backend %q", c.Storage.Backend)
	}

	if c.Nextflow.Runner == "" || c.Nextflow.WorkDir == "" {
		return fmt.Errorf("nextflow.runner and nextflow.work_dir are required")
	}
	return nil
}
