package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/uc-cdis/bactmap/config"
	"github.com/uc-cdis/bactmap/database"
	"github.com/uc-cdis/bactmap/logging"
	"github.com/uc-cdis/bactmap/metrics"
	"github.com/uc-cdis/bactmap/nextflow"
	"github.com/uc-cdis/bactmap/params"
	"github.com/uc-cdis/bactmap/provision"
	"github.com/uc-cdis/bactmap/storage"

	"github.com/urfave/cli"
)

func loadConfig(c *cli.Context) (*config.Config, error) {
	conf, err := config.Load(c.GlobalString("config"))
	if err != nil {
		return nil, err
	}
	if err := logging.Setup(conf.LogLevel, conf.LogFormat, os.Stderr); err != nil {
		return nil, err
	}
	return conf, nil
}

func newProvisioner(conf *config.Config) (provision.Provisioner, error) {
	switch conf.Provisioner.Backend {
	case "kubernetes":
		client, err := provision.KubernetesClient(conf.Provisioner.Kubeconfig)
		if err != nil {
			return nil, err
		}
		return provision.NewClaimProvisioner(client, conf.Provisioner.Namespace, conf.Provisioner.StorageClass), nil
	default:
		return provision.NewDispatcher(conf.Provisioner.DispatcherURL), nil
	}
}

func storageSize(c *cli.Context, conf *config.Config) int {
	if c.IsSet("size") {
		return c.Int("size")
	}
	return conf.Provisioner.StorageGiB
}

func provisionVolume(ctx context.Context, c *cli.Context, conf *config.Config) (provision.VolumeHandle, error) {
	provisioner, err := newProvisioner(conf)
	if err != nil {
		return "", err
	}
	return provisioner.Provision(ctx, storageSize(c, conf))
}

// runWorkflow provisions the work volume, then runs the pipeline on it.
// The invoker is never entered when provisioning fails.
func runWorkflow(ctx context.Context, provisioner provision.Provisioner, sizeGiB int, inv *nextflow.Invoker, runConf *params.RunConfig) error {
	volume, err := provisioner.Provision(ctx, sizeGiB)
	if err != nil {
		return err
	}
	return inv.Run(ctx, volume, runConf)
}

// an explicit execution name wins over asking the dispatcher
func newNameResolver(conf *config.Config) provision.NameResolver {
	if conf.ExecutionName != "" {
		return provision.StaticName(conf.ExecutionName)
	}
	return provision.NewDispatcher(conf.Provisioner.DispatcherURL)
}

func newLogStore(conf *config.Config) (storage.LogStore, error) {
	switch conf.Storage.Backend {
	case "dir":
		return &storage.DirLogStore{Root: conf.Storage.Dir}, nil
	case "s3":
		if conf.Storage.Bucket == "" {
			logrus.Warn("no log bucket configured, run logs will not be uploaded")
			return nil, nil
		}
		return storage.NewS3LogStore(storage.S3Config{
			Bucket:         conf.Storage.Bucket,
			Region:         conf.Storage.Region,
			Endpoint:       conf.Storage.Endpoint,
			ForcePathStyle: conf.Storage.ForcePathStyle,
		})
	default:
		return nil, nil
	}
}

func settings(conf *config.Config) nextflow.Settings {
	nf := conf.Nextflow
	return nextflow.Settings{
		Runner:     nf.Runner,
		SourceRoot: nf.SourceRoot,
		WorkDir:    nf.WorkDir,
		Entry:      nf.Entry,
		Profile:    nf.Profile,
		ConfigFile: nf.ConfigFile,
		LogFile:    nf.LogFile,
		LogPrefix:  nf.LogPrefix,
		Home:       nf.Home,
		Opts:       nf.Opts,
	}
}

// newInvoker builds the invoker; the returned func releases the ledger connection
func newInvoker(conf *config.Config) (*nextflow.Invoker, func(), error) {
	logs, err := newLogStore(conf)
	if err != nil {
		return nil, nil, err
	}
	inv := &nextflow.Invoker{
		Settings: settings(conf),
		Process:  nextflow.ExecProcess{},
		Names:    newNameResolver(conf),
	}
	if logs != nil {
		inv.Logs = logs
	}

	release := func() {}
	if conf.Database.DSN != "" {
		dao, err := database.DaoFactory("psql", conf.Database.DSN)
		if err != nil {
			logrus.Warnf("run ledger disabled: %v", err)
		} else if err := dao.EnsureSchema(); err != nil {
			logrus.Warnf("run ledger disabled: %v", err)
			dao.KillDao()
		} else {
			inv.Ledger = dao
			release = dao.KillDao
		}
	}
	if conf.Metrics.PushgatewayURL != "" {
		pusher, err := metrics.NewPusher(conf.Metrics.PushgatewayURL, conf.Metrics.Job)
		if err != nil {
			return nil, nil, err
		}
		inv.Metrics = pusher
	}
	return inv, release, nil
}

func runPipeline(ctx context.Context, conf *config.Config, volume string, runConf *params.RunConfig) error {
	inv, release, err := newInvoker(conf)
	if err != nil {
		return err
	}
	defer release()
	return inv.Run(ctx, provision.VolumeHandle(volume), runConf)
}

// readValues reads parameter values from path, choosing the format from its extension.
// "-" reads json from stdin; an empty path means no values.
func readValues(path string) (map[string]interface{}, error) {
	if path == "" {
		return map[string]interface{}{}, nil
	}
	var (
		data   []byte
		err    error
		format = "json"
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
		if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."); ext == "yaml" || ext == "yml" {
			format = ext
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read parameter values: %w", err)
	}
	return params.DecodeValues(data, format)
}
