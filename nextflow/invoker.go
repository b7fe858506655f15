package nextflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/uc-cdis/bactmap/database"
	"github.com/uc-cdis/bactmap/logging"
	"github.com/uc-cdis/bactmap/params"
	"github.com/uc-cdis/bactmap/provision"
	"github.com/uc-cdis/bactmap/storage"
	"mvdan.cc/sh/v3/syntax"
)

const (
	DefaultRunner     = "/root/nextflow"
	DefaultSourceRoot = "/root"
	DefaultWorkDir    = "/nf-workdir"
	DefaultEntry      = "main.nf"
	DefaultProfile    = "docker"
	DefaultConfigFile = "latch.config"
	DefaultLogFile    = ".nextflow.log"
	DefaultHome       = "/root/.nextflow"
	DefaultOpts       = "-Xms2048M -Xmx8G -XX:ActiveProcessorCount=4"

	remoteLogName = "nextflow.log"

	// DefaultCleanupTimeout bounds the log upload, ledger update and metrics push
	DefaultCleanupTimeout = 2 * time.Minute
)

// DefaultLogPrefix is where run logs land in the log store
var DefaultLogPrefix = "your_log_dir/" + params.PipelineName

// Settings are the fixed parts of a runner invocation
type Settings struct {
	Runner     string
	SourceRoot string
	WorkDir    string
	Entry      string
	Profile    string
	ConfigFile string
	LogFile    string
	LogPrefix  string
	Home       string
	Opts       string
}

func DefaultSettings() Settings {
	return Settings{
		Runner:     DefaultRunner,
		SourceRoot: DefaultSourceRoot,
		WorkDir:    DefaultWorkDir,
		Entry:      DefaultEntry,
		Profile:    DefaultProfile,
		ConfigFile: DefaultConfigFile,
		LogFile:    DefaultLogFile,
		LogPrefix:  DefaultLogPrefix,
		Home:       DefaultHome,
		Opts:       DefaultOpts,
	}
}

// Ledger records run rows. *database.PSQLDao satisfies it.
type Ledger interface {
	CreateRun(execution string, pipeline string, volume string, command string) (int64, error)
	FinishRun(id int64, status string, exitCode int64, runError string) error
}

// MetricsPusher publishes the outcome of a run
type MetricsPusher interface {
	Push(ctx context.Context, execution string, exitCode int, duration time.Duration) error
}

// Invoker stages the workspace, runs nextflow and uploads its log.
// Ledger, Metrics and Events are optional.
type Invoker struct {
	Settings Settings
	Process  ExternalProcess
	Logs     storage.LogStore
	Names    provision.NameResolver
	Token    provision.TokenSource
	Ledger   Ledger
	Metrics  MetricsPusher
	Events   *logging.EventLog
	Stdout   io.Writer
	Stderr   io.Writer

	// CleanupTimeout defaults to DefaultCleanupTimeout
	CleanupTimeout time.Duration
}

// Command returns the runner invocation for conf, runner path first
func (inv *Invoker) Command(conf *params.RunConfig) []string {
	s := inv.Settings
	cmd := []string{
		s.Runner,
		"run",
		filepath.Join(s.WorkDir, s.Entry),
		"-work-dir",
		s.WorkDir,
		"-profile",
		s.Profile,
		"-c",
		s.ConfigFile,
	}
	return append(cmd, conf.Flags()...)
}

// CommandLine renders cmd for display with shell quoting
func CommandLine(cmd []string) string {
	quoted := make([]string, len(cmd))
	for i, tok := range cmd {
		q, err := syntax.Quote(tok, syntax.LangBash)
		if err != nil {
			q = tok
		}
		quoted[i] = q
	}
	return strings.Join(quoted, " ")
}

// Run executes the pipeline on volume with the bound values.
// The log upload runs whatever happens earlier, and its failures are never returned.
func (inv *Invoker) Run(ctx context.Context, volume provision.VolumeHandle, conf *params.RunConfig) (err error) {
	if volume == "" {
		return fmt.Errorf("missing volume handle")
	}
	if conf == nil {
		return fmt.Errorf("missing run configuration")
	}

	runLog := logging.NewRunLog()
	if inv.Events != nil {
		runLog.Event = inv.Events
	}
	cmd := inv.Command(conf)
	exitCode := -1
	ledgerID := inv.createRun(volume, cmd)
	runLog.Start(string(volume), cmd)

	defer func() {
		runLog.Finish(exitCode, err)
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), inv.cleanupTimeout())
		defer cancel()
		inv.cleanup(cleanupCtx, runLog, ledgerID, err)
	}()

	if err = Stage(inv.Settings.SourceRoot, inv.Settings.WorkDir); err != nil {
		runLog.Event.Errorf("staging failed: %v", err)
		return err
	}

	runLog.Event.Infof("Launching Nextflow Runtime")
	runLog.Event.Infof("%s", CommandLine(cmd))

	code, perr := inv.Process.Run(ctx, Process{
		Path:   cmd[0],
		Args:   cmd[1:],
		Env:    Environ(os.Environ(), inv.Settings.runnerEnv(string(volume))),
		Dir:    inv.Settings.WorkDir,
		Stdout: writerOr(inv.Stdout, os.Stdout),
		Stderr: writerOr(inv.Stderr, os.Stderr),
	})
	exitCode = code
	if perr != nil {
		err = perr
		return err
	}
	if code != 0 {
		err = &PipelineExecutionError{ExitCode: code}
		if ctx.Err() != nil {
			err = errors.Join(err, ctx.Err())
		}
		return err
	}
	return nil
}

func (inv *Invoker) cleanup(ctx context.Context, runLog *logging.RunLog, ledgerID int64, runErr error) {
	resolved := false
	name, nameOK := "", false
	executionName := func() (string, bool) {
		if !resolved && inv.Names != nil {
			name, nameOK = inv.Names.ExecutionName(ctx)
		}
		resolved = true
		return name, nameOK
	}

	inv.uploadLog(ctx, runLog.Event, executionName)

	status, exitCode, duration := runLog.Snapshot()
	if inv.Ledger != nil && ledgerID > 0 {
		runError := ""
		if runErr != nil {
			runError = runErr.Error()
		}
		ledgerStatus := database.StatusCompleted
		if status == logging.Failed {
			ledgerStatus = database.StatusFailed
		}
		if err := inv.Ledger.FinishRun(ledgerID, ledgerStatus, int64(exitCode), runError); err != nil {
			runLog.Event.Warnf("failed to record run outcome: %v", err)
		}
	}

	if inv.Metrics != nil {
		if n, ok := executionName(); ok {
			if err := inv.Metrics.Push(ctx, n, exitCode, duration); err != nil {
				runLog.Event.Warnf("failed to push run metrics: %v", err)
			}
		} else {
			runLog.Event.Warnf("Skipping metrics push, failed to get execution name")
		}
	}
}

func (inv *Invoker) uploadLog(ctx context.Context, events *logging.EventLog, executionName func() (string, bool)) {
	local := filepath.Join(inv.Settings.WorkDir, inv.Settings.LogFile)
	if _, err := os.Stat(local); err != nil {
		events.Warnf("No %s found at %s, skipping logs upload", inv.Settings.LogFile, local)
		return
	}

	name, ok := executionName()
	if !ok {
		events.Warnf("Skipping logs upload, failed to get execution name")
		return
	}
	if inv.Logs == nil {
		events.Warnf("Skipping logs upload, no log store configured")
		return
	}

	key := storage.LogKey(inv.Settings.LogPrefix, name, remoteLogName)
	events.Infof("Uploading %s to %s", inv.Settings.LogFile, key)
	location, err := inv.Logs.Upload(ctx, key, local)
	if err != nil {
		events.Warnf("failed to upload %s: %v", inv.Settings.LogFile, err)
		return
	}
	logrus.Debugf("uploaded run log to %s", location)
}

func (inv *Invoker) createRun(volume provision.VolumeHandle, cmd []string) int64 {
	if inv.Ledger == nil {
		return 0
	}
	src := inv.Token
	if src == nil {
		src = provision.EnvToken
	}
	token, _ := src()
	id, err := inv.Ledger.CreateRun(token, params.PipelineName, string(volume), CommandLine(cmd))
	if err != nil {
		logrus.Warnf("failed to record run start: %v", err)
		return 0
	}
	return id
}

func (inv *Invoker) cleanupTimeout() time.Duration {
	if inv.CleanupTimeout > 0 {
		return inv.CleanupTimeout
	}
	return DefaultCleanupTimeout
}

func writerOr(w, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}
