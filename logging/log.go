package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Setup configures the standard logrus logger.
// format is "text" or "json".
func Setup(level, format string, out io.Writer) error {
	if out == nil {
		out = os.Stderr
	}
	logrus.SetOutput(out)
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %v", level, err)
	}
	logrus.SetLevel(lvl)
	switch strings.ToLower(format) {
	case "", "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("invalid log format %q", format)
	}
	return nil
}

// RunLog stores the event log and runtime stats for one run of the pipeline
type RunLog struct {
	sync.RWMutex   `json:"-"`
	Created        string        `json:"created,omitempty"`
	CreatedObj     time.Time     `json:"-"`
	LastUpdated    string        `json:"lastUpdated,omitempty"`
	LastUpdatedObj time.Time     `json:"-"`
	Volume         string        `json:"volume,omitempty"`
	Command        []string      `json:"command,omitempty"`
	Status         string        `json:"status"`
	ExitCode       int           `json:"exitCode"`
	Duration       float64       `json:"duration"` // seconds
	DurationObj    time.Duration `json:"-"`
	Event          *EventLog     `json:"eventLog,omitempty"`
}

// NewRunLog ..
func NewRunLog() *RunLog {
	log := &RunLog{
		Status: NotStarted,
		Event:  &EventLog{},
	}
	return log
}

// Start is called when the runner is launched
func (log *RunLog) Start(volume string, command []string) {
	log.Lock()
	defer log.Unlock()
	t := time.Now()
	log.CreatedObj = t
	log.Created = timef(t)
	log.LastUpdatedObj = t
	log.LastUpdated = timef(t)
	log.Volume = volume
	log.Command = command
	log.Status = Running
}

// Finish is called when the runner exits
func (log *RunLog) Finish(exitCode int, err error) {
	log.Lock()
	defer log.Unlock()
	t := time.Now()
	log.LastUpdatedObj = t
	log.LastUpdated = timef(t)
	if !log.CreatedObj.IsZero() {
		log.DurationObj = t.Sub(log.CreatedObj)
		log.Duration = log.DurationObj.Seconds()
	}
	log.ExitCode = exitCode
	if err != nil {
		log.Status = Failed
	} else {
		log.Status = Completed
	}
}

// Snapshot returns status, exit code and duration under the read lock
func (log *RunLog) Snapshot() (status string, exitCode int, duration time.Duration) {
	log.RLock()
	defer log.RUnlock()
	return log.Status, log.ExitCode, log.DurationObj
}

// EventLog is an event logger for one run.
// Every record is also written to logrus.
type EventLog struct {
	sync.RWMutex
	Events []string `json:"events,omitempty"`
}

// a record is "<timestamp> - <level> - <message>"
func (log *EventLog) Write(level, message string) {
	log.Lock()
	defer log.Unlock()
	timestamp := timef(time.Now())

	record := fmt.Sprintf("%v - %v - %v", timestamp, level, message)
	log.Events = append(log.Events, record)
}

// Records returns a copy of the event records
func (log *EventLog) Records() []string {
	log.RLock()
	defer log.RUnlock()
	records := make([]string, len(log.Events))
	copy(records, log.Events)
	return records
}

func (log *EventLog) Infof(f string, v ...interface{}) {
	m := fmt.Sprintf(f, v...)
	logrus.Info(m)
	log.Write(infoLogLevel, m)
}

func (log *EventLog) Warnf(f string, v ...interface{}) {
	m := fmt.Sprintf(f, v...)
	logrus.Warn(m)
	log.Write(warningLogLevel, m)
}

// Errorf records the message and returns it as an error
func (log *EventLog) Errorf(f string, v ...interface{}) error {
	m := fmt.Sprintf(f, v...)
	logrus.Error(m)
	log.Write(errorLogLevel, m)
	return fmt.Errorf("%s", m)
}

func timef(t time.Time) string {
	return t.Format("2006/01/02 15:04:05") // format is yyyy/mm/dd hh:mm:ss
}
