package explorer

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const timeout = 15

// Router returns the handler serving the views and the JSON API.
func (e *Explorer) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", e.homeHandler).Methods(http.MethodGet) // redirect to the default network

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/networks", e.networksHandler).Methods(http.MethodGet) // get all available networks

	apiNet := api.PathPrefix("/{network}").Subrouter()
	apiNet.Use(e.withConnection(e.replyError))
	apiNet.HandleFunc("/account/{address}", e.accountAPIHandler).Methods(http.MethodGet) // get account details

	views := r.PathPrefix("/{network}").Subrouter()
	views.Use(e.withConnection(e.renderError))
	views.HandleFunc("", e.searchHandler).Methods(http.MethodGet)                    // account search
	views.HandleFunc("/account/{address}", e.accountHandler).Methods(http.MethodGet) // account detail

	r.NotFoundHandler = http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		e.renderError(rw, req, http.StatusNotFound, errors.New("page not found"))
	})

	return r
}

// Init sets up and starts the http/https server serving the explorer. If sslPort, sslCert and sslKey are informed,
// it will start an https (TLS) server on the specified endpoint. It returns when the servers are stopped.
func (e *Explorer) Init(endpoint, port, sslPort, sslCert, sslKey string) string {
	errc := make(chan error, 2) //nolint:gomnd // one per server

	h := e.Router()

	// start http server
	if port != "" {
		e.s = &http.Server{
			Handler:      h,
			Addr:         endpoint + ":" + port,
			WriteTimeout: timeout * time.Second,
			ReadTimeout:  timeout * time.Second,
		}

		go func() {
			errc <- fmt.Errorf("http server: %w", e.s.ListenAndServe())
		}()

		e.log.Info("listening to http requests", zap.String("addr", e.s.Addr))
	}
	// start https server
	if sslPort != "" && sslCert != "" && sslKey != "" {
		e.ss = &http.Server{
			Handler:      h,
			Addr:         endpoint + ":" + sslPort,
			WriteTimeout: timeout * time.Second,
			ReadTimeout:  timeout * time.Second,
		}

		go func() {
			errc <- fmt.Errorf("https server: %w", e.ss.ListenAndServeTLS(sslCert, sslKey))
		}()

		e.log.Info("listening to https requests", zap.String("addr", e.ss.Addr))
	}
	// wait for servers to be shutdown, or one of them to fail
	select {
	case <-e.sc:
		return "shutdown http servers"
	case err := <-errc:
		return err.Error()
	}
}
