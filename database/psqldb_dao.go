package database

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	logrus "github.com/sirupsen/logrus"
)

type PSQLDao struct {
	DBConnection *sqlx.DB
}

func connect(psqlDao *PSQLDao, dsn string) (string, error) {
	dbConnection, err := sqlx.Open("postgres", dsn)
	if err != nil {
		logrus.Errorf("connection to run ledger database failed")
		return "", fmt.Errorf("connection to run ledger database failed: %v", err)
	}

	err = dbConnection.Ping()
	if err != nil {
		logrus.Errorf("could not ping run ledger database after connection")
		dbConnection.Close()
		return "", fmt.Errorf("could not ping run ledger database after connection: %v", err)
	}

	psqlDao.DBConnection = dbConnection

	sucessString := "connection to run ledger database established"
	logrus.Info(sucessString)
	return sucessString, nil
}

func NewPSQLDao(dsn string) (*PSQLDao, error) {
	if dsn == "" {
		return nil, fmt.Errorf("missing database dsn")
	}
	var newDao PSQLDao
	if _, err := connect(&newDao, dsn); err != nil {
		return nil, err
	}
	return &newDao, nil
}

func (psqlDao *PSQLDao) EnsureSchema() error {
	if _, err := psqlDao.DBConnection.Exec(Schema); err != nil {
		logrus.Errorf("Could not create run table, failed with error %s", err)
		return fmt.Errorf("could not create run table")
	}
	return nil
}

func (psqlDao *PSQLDao) CreateRun(execution string, pipeline string, volume string, command string) (int64, error) {
	runMap := map[string]interface{}{
		"execution":  execution,
		"pipeline":   pipeline,
		"volume":     volume,
		"command":    command,
		"status":     StatusRunning,
		"started_at": time.Now().UTC(),
	}
	stmt, err := psqlDao.DBConnection.PrepareNamed(`INSERT into run (execution,pipeline,volume,command,status,started_at) VALUES (:execution,:pipeline,:volume,:command,:status,:started_at) RETURNING run_id`)
	if err != nil {
		logrus.Errorf("Could not prepare insert statement for run creation, failed with error %s", err)
		return 0, fmt.Errorf("could not prepare named statement for run creation")
	}
	defer stmt.Close()

	var runId int64
	err = stmt.Get(&runId, runMap)
	if err != nil {
		logrus.Errorf("Could not create run, failed with error %s", err)
		return 0, fmt.Errorf("could not create run")
	}

	logrus.Infof("Sucessfully created run with id %d", runId)
	return runId, nil
}

func (psqlDao *PSQLDao) FinishRun(id int64, status string, exitCode int64, runError string) error {
	runMap := map[string]interface{}{
		"status":    status,
		"exit_code": exitCode,
		"error":     runError,
		"ended_at":  time.Now().UTC(),
		"run_id":    id,
	}
	_, err := psqlDao.DBConnection.NamedExec(`UPDATE run SET status=:status, exit_code=:exit_code, error=:error, ended_at=:ended_at WHERE run_id=:run_id`, runMap)
	if err != nil {
		logrus.Errorf("Update run with id %d failed with error %s", id, err)
		return fmt.Errorf("update run failed")
	}

	logrus.Infof("Run %d updated successfully", id)
	return nil
}

func (psqlDao *PSQLDao) GetRunById(id int64) (*Run, error) {
	run := Run{}
	err := psqlDao.DBConnection.Get(&run, "SELECT * FROM run WHERE run_id=$1", id)
	if err != nil {
		logrus.Errorf("Could not retrieve run with id %d, failed with error %s", id, err)
		return nil, fmt.Errorf("could not retrieve run with id %d", id)
	}

	return &run, nil
}

func (psqlDao *PSQLDao) GetAllRuns() ([]Run, error) {
	runs := []Run{}
	err := psqlDao.DBConnection.Select(&runs, "SELECT * FROM run ORDER BY run_id")
	if err != nil {
		logrus.Errorf("Could not retrieve all runs, failed with error %s", err)
		return nil, fmt.Errorf("could not retrieve all runs")
	}

	return runs, nil
}

func (psqlDao *PSQLDao) KillDao() {
	if psqlDao.DBConnection != nil {
		psqlDao.DBConnection.Close()
	}
}
