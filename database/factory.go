package database

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

func DaoFactory(daoType string, dsn string) (Dao, error) {
	switch daoType {
	case "psql", "postgres":
		dao, err := NewPSQLDao(dsn)
		if err != nil {
			return nil, err
		}
		return dao, nil

	default:
		log.Errorf("There is no current support for the daotype %s. Please select a different supported daotype", daoType)
		return nil, fmt.Errorf("unsupported daotype %s", daoType)
	}
}
