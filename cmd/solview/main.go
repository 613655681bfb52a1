// Package main: account explorer service.
package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tarancss/solview/explorer"
	"github.com/tarancss/solview/lib/block"
	"github.com/tarancss/solview/lib/config"
	"github.com/tarancss/solview/lib/logger"
	"github.com/tarancss/solview/lib/metrics"
	"github.com/tarancss/solview/lib/msg"
	"github.com/tarancss/solview/lib/msg/amqp"
	"github.com/tarancss/solview/lib/store"
	"github.com/tarancss/solview/lib/store/db"
)

var flags struct {
	confPath string
	monitor  bool
	debug    bool
}

func main() {
	root := &cobra.Command{
		Use:          "solview",
		Short:        "Browse Solana accounts from the browser",
		SilenceUsage: true,
		RunE:         serve,
	}
	root.PersistentFlags().StringVarP(&flags.confPath, "config", "c", "", "get configuration from json file")
	root.Flags().BoolVarP(&flags.monitor, "monitor", "m", false, "serve Prometheus metrics on the metrics port")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging")

	root.AddCommand(&cobra.Command{
		Use:   "networks",
		Short: "Print the networks and the endpoints they resolve to",
		Args:  cobra.NoArgs,
		RunE:  networks,
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func networks(cmd *cobra.Command, _ []string) error {
	conf, err := config.ExtractConfiguration(flags.confPath)
	if err != nil {
		return err
	}

	nets, err := block.NewRegistry(conf.Networks)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0) //nolint:gomnd // column layout
	for _, n := range nets.Networks() {
		def := ""
		if n.Name == conf.Network {
			def = "(default)"
		}

		fmt.Fprintf(w, "%s\t%s\t%s\n", n.Name, n.Endpoint, def)
	}

	return w.Flush()
}

func serve(_ *cobra.Command, _ []string) error {
	// extract configuration
	conf, err := config.ExtractConfiguration(flags.confPath)
	if err != nil {
		return err
	}

	log, err := logger.New(conf.LogLevel, flags.debug)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	log.Info("configuration", zap.Any("conf", conf))

	// resolve networks, connections are opened on demand
	nets, err := block.NewRegistry(conf.Networks)
	if err != nil {
		return err
	}

	if _, err = nets.Endpoint(conf.Network); err != nil {
		return fmt.Errorf("default network: %w", err)
	}

	// connect to database
	var dbConn store.DB
	if dbConn, err = db.New(conf.DBType, conf.DBConn); err != nil {
		return err
	}

	log.Info("lookup history database ready", zap.String("dbtype", conf.DBType))

	// load Prometheus monitor
	if flags.monitor {
		go func() {
			log.Info("serving metrics API", zap.String("port", conf.MetricsPort))

			h := http.NewServeMux()
			h.Handle("/metrics", metrics.Handler())

			if errM := http.ListenAndServe(":"+conf.MetricsPort, h); errM != nil { //nolint:gosec // metrics only
				log.Error("metrics API", zap.Error(errM))
			}
		}()
	}

	// load message broker
	var mb msg.MsgBroker

	switch conf.MbType {
	case "amqp":
		var a *amqp.Amqp
		if a, err = amqp.New(conf.MbConn, log); err != nil {
			time.Sleep(10 * time.Second) // wait 10s for AMQP to be ready and try to reconnect

			if a, err = amqp.New(conf.MbConn, log); err != nil {
				return err
			}
		}

		if err = a.Setup(); err != nil {
			return err
		}

		mb = a
	case "none", "":
	default:
		log.Warn("unknown message broker type, lookups will not be published", zap.String("mbtype", conf.MbType))
	}

	// create explorer service
	e := explorer.New(conf, nets, dbConn, mb, log)

	// capture CTRL+C or docker's SIGTERM for gracious exit
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, os.Interrupt, syscall.SIGTERM)
		<-sigchan
		log.Info("program killed")
		e.Stop()
	}()

	// serve, wait for its return and log response
	log.Info("explorer stopped", zap.String("reason",
		e.Init(conf.Endpoint, conf.Port, conf.SSLPort, conf.SSLCert, conf.SSLKey)))
	e.Stop()

	return nil
}
