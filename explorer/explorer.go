// Package explorer implements the account explorer web service.
//
// The explorer serves two views per network: an account search page at /{network} and an account detail page at
// /{network}/account/{address}. Navigating to a network binds the shared connection to that network's RPC endpoint;
// every view reads the connection bound for its request and issues read-only lookups through it.
package explorer

import (
	"context"
	"html/template"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tarancss/solview/lib/block"
	"github.com/tarancss/solview/lib/config"
	"github.com/tarancss/solview/lib/connection"
	"github.com/tarancss/solview/lib/msg"
	"github.com/tarancss/solview/lib/store"
	"github.com/tarancss/solview/lib/store/db"
)

// Explorer contains the data necessary to deliver the service
type Explorer struct {
	conf  config.ServiceConfig
	nets  *block.Registry
	conn  *connection.Holder
	db    store.DB
	mb    msg.MsgBroker // optional
	log   *zap.Logger
	views map[string]*template.Template
	s     *http.Server  // http server
	ss    *http.Server  // https server
	sc    chan struct{} // http server channel used for graceful shutdowns
	stop  sync.Once
}

// New returns a pointer to a new Explorer service. The connection holder is created empty: the first request to a
// network route connects to it.
func New(conf config.ServiceConfig, nets *block.Registry, dbConn store.DB, mb msg.MsgBroker,
	log *zap.Logger) *Explorer {
	if log == nil {
		log = zap.NewNop()
	}

	return &Explorer{
		conf:  conf,
		nets:  nets,
		conn:  connection.NewHolder(nets, conf.Commitment, log),
		db:    dbConn,
		mb:    mb,
		log:   log,
		views: parseViews(),
		sc:    make(chan struct{}),
	}
}

// Connection returns the holder of the active connection.
func (e *Explorer) Connection() *connection.Holder {
	return e.conn
}

// Stop shuts down the http servers and closes gracefully the active connection and the connections to message
// broker and database.
func (e *Explorer) Stop() {
	e.stop.Do(e.shutdown)
}

func (e *Explorer) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), timeout*time.Second)
	defer cancel()

	// shutdown http servers
	if e.s != nil {
		if err := e.s.Shutdown(ctx); err != nil {
			e.log.Error("http server shutdown", zap.Error(err))
		}
	}

	if e.ss != nil {
		if err := e.ss.Shutdown(ctx); err != nil {
			e.log.Error("https server shutdown", zap.Error(err))
		}
	}

	close(e.sc) // indicate shutdowns have finished

	e.conn.Close()
	// close message broker
	if e.mb != nil {
		if err := e.mb.Close(); err != nil {
			e.log.Error("closing message broker", zap.Error(err))
		}
	}
	// close database
	if e.db != nil {
		err := db.Close(e.conf.DBType, e.db)
		e.log.Info("disconnecting database", zap.String("dbtype", e.conf.DBType), zap.Error(err))
	}
}

// recordLookup saves the lookup to the history and publishes it. Failures are logged, the view is rendered anyway.
func (e *Explorer) recordLookup(net string, l store.Lookup) {
	if e.db != nil {
		if err := e.db.AddLookup(net, l); err != nil {
			e.log.Warn("saving lookup", zap.String("net", net), zap.String("address", l.Address), zap.Error(err))
		}
	}

	if e.mb != nil {
		ev := msg.LookupEvent{Net: net, Address: l.Address, Found: l.Found, Lamports: l.Lamports, TS: l.TS}
		if err := e.mb.SendLookup(net, ev); err != nil {
			e.log.Warn("publishing lookup", zap.String("net", net), zap.String("address", l.Address), zap.Error(err))
		}
	}
}

// recentLookups returns the latest lookups of net, nil if the history is not available.
func (e *Explorer) recentLookups(net string) []store.Lookup {
	if e.db == nil || e.conf.RecentLimit == 0 {
		return nil
	}

	ls, err := e.db.GetLookups(net, e.conf.RecentLimit)
	if err != nil {
		e.log.Warn("loading recent lookups", zap.String("net", net), zap.Error(err))

		return nil
	}

	return ls
}
