package main

import (
	"os"

	"github.com/uc-cdis/bactmap/params"
	"github.com/uc-cdis/bactmap/server"

	"github.com/urfave/cli"
)

func serveAction(c *cli.Context) error {
	conf, err := loadConfig(c)
	if err != nil {
		return err
	}
	addr := c.String("addr")
	if addr == "" {
		addr = conf.Server.Addr
	}
	return server.NewServer(params.Bactmap(), params.PipelineName).ListenAndServe(addr, os.Stdout)
}
