package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/uc-cdis/bactmap/params"

	"github.com/urfave/cli"
)

/*
bactmap wraps the nf-core/bactmap nextflow pipeline as a platform task.

usage:
 - to provision the shared work volume: `bactmap provision`
 - to run the pipeline on a volume: `bactmap run --volume $PVC --params values.json`
 - to do both in sequence: `bactmap workflow --params values.json`
 - to dump the parameter declarations: `bactmap params --format yaml`
 - to serve the parameter api: `bactmap serve`
*/
func main() {
	app := cli.NewApp()
	app.Name = "bactmap"
	app.Usage = "Run the nf-core/bactmap nextflow pipeline"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config",
			Usage:  "yaml config file",
			EnvVar: "BACTMAP_CONFIG",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "provision",
			Usage: "provision the shared work volume and print its name",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "size", Usage: "volume size in GiB"},
			},
			Action: provisionAction,
		},
		{
			Name:  "run",
			Usage: "run the pipeline on a provisioned volume",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "volume", Usage: "volume handle returned by provision"},
				cli.StringFlag{Name: "params", Usage: "json or yaml file of parameter values, - for stdin"},
			},
			Action: runAction,
		},
		{
			Name:  "workflow",
			Usage: "provision a volume, then run the pipeline on it",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "size", Usage: "volume size in GiB"},
				cli.StringFlag{Name: "params", Usage: "json or yaml file of parameter values, - for stdin"},
			},
			Action: workflowAction,
		},
		{
			Name:  "params",
			Usage: "print the parameter declarations",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "format", Value: "json", Usage: "json or yaml"},
			},
			Action: func(c *cli.Context) error {
				return params.Bactmap().Export(os.Stdout, params.PipelineName, c.String("format"))
			},
		},
		{
			Name:  "serve",
			Usage: "serve the parameter api",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "addr", Usage: "listen address"},
			},
			Action: serveAction,
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func provisionAction(c *cli.Context) error {
	conf, err := loadConfig(c)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	volume, err := provisionVolume(ctx, c, conf)
	if err != nil {
		return err
	}
	fmt.Println(volume)
	return nil
}

func runAction(c *cli.Context) error {
	conf, err := loadConfig(c)
	if err != nil {
		return err
	}
	volume := c.String("volume")
	if volume == "" {
		return fmt.Errorf("missing --volume")
	}
	values, err := readValues(c.String("params"))
	if err != nil {
		return err
	}
	runConf, err := params.Bactmap().Bind(values)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	return runPipeline(ctx, conf, volume, runConf)
}

// workflowAction sequences provisioning and the runtime.
// The runtime never starts if provisioning fails.
func workflowAction(c *cli.Context) error {
	conf, err := loadConfig(c)
	if err != nil {
		return err
	}
	values, err := readValues(c.String("params"))
	if err != nil {
		return err
	}
	runConf, err := params.Bactmap().Bind(values)
	if err != nil {
		return err
	}

	provisioner, err := newProvisioner(conf)
	if err != nil {
		return err
	}
	inv, release, err := newInvoker(conf)
	if err != nil {
		return err
	}
	defer release()

	ctx, cancel := signalContext()
	defer cancel()
	return runWorkflow(ctx, provisioner, storageSize(c, conf), inv, runConf)
}
