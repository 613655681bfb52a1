package explorer

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/tarancss/solview/lib/block/types"
	"github.com/tarancss/solview/lib/connection"
	"github.com/tarancss/solview/lib/metrics"
	"github.com/tarancss/solview/lib/store"
)

// ErrNoConnection is returned when a network route is served without a bound connection.
var ErrNoConnection = errors.New("no active connection")

// Response defines the data structure returned to the client of the JSON API.
type Response struct {
	Body  string `json:"body"`
	Error string `json:"error,omitempty"`
}

// AccountDetail is the body of the account API and the data of the account view.
type AccountDetail struct {
	Network    string            `json:"network"`
	Commitment string            `json:"commitment"`
	Account    types.Account     `json:"account"`
	Found      bool              `json:"found"`
	Signatures []types.Signature `json:"signatures,omitempty"`
	SigError   string            `json:"sigError,omitempty"`
}

// statusFor maps lookup errors to http status codes.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, types.ErrUnknownNetwork), errors.Is(err, types.ErrNoAccount):
		return http.StatusNotFound
	case errors.Is(err, types.ErrBadAddress):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoConnection):
		return http.StatusInternalServerError
	}

	return http.StatusBadGateway
}

// logRequest logs a served request and counts it.
func (e *Explorer) logRequest(r *http.Request, route string, status int, err error) {
	metrics.Request(route, status)
	e.log.Info("httpreq", zap.String("remote", r.RemoteAddr), zap.String("uri", r.RequestURI),
		zap.Int("status", status), zap.Error(err))
}

// withConnection binds the shared connection to the network of the route and passes it to the handler in the request
// context. fail replies the request when the network cannot be connected.
func (e *Explorer) withConnection(fail func(http.ResponseWriter, *http.Request, int, error)) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			c, err := e.conn.Ensure(mux.Vars(r)["network"])
			if err != nil {
				fail(rw, r, statusFor(err), err)

				return
			}

			next.ServeHTTP(rw, r.WithContext(connection.NewContext(r.Context(), c)))
		})
	}
}

// homeHandler redirects to the default network.
func (e *Explorer) homeHandler(rw http.ResponseWriter, r *http.Request) {
	http.Redirect(rw, r, "/"+url.PathEscape(e.conf.Network), http.StatusFound)
	e.logRequest(r, "home", http.StatusFound, nil)
}

// searchData is the data of the search view.
type searchData struct {
	Network    string
	Networks   []types.Network
	Endpoint   string
	Commitment string
	Recent     []store.Lookup
}

// searchHandler renders the account search view. A submitted address redirects to its account view.
func (e *Explorer) searchHandler(rw http.ResponseWriter, r *http.Request) {
	c := connection.FromContext(r.Context())
	if c == nil {
		e.renderError(rw, r, http.StatusInternalServerError, ErrNoConnection)

		return
	}

	if address := strings.TrimSpace(r.FormValue("address")); address != "" {
		http.Redirect(rw, r, accountPath(c.Network, address), http.StatusSeeOther)
		e.logRequest(r, "search", http.StatusSeeOther, nil)

		return
	}

	e.render(rw, r, "search", http.StatusOK, searchData{
		Network:    c.Network,
		Networks:   e.nets.Networks(),
		Endpoint:   c.Endpoint,
		Commitment: c.Commitment,
		Recent:     e.recentLookups(c.Network),
	}, nil)
}

// lookup queries the account and its latest signatures through the request's connection and records the lookup.
func (e *Explorer) lookup(r *http.Request) (AccountDetail, error) {
	c := connection.FromContext(r.Context())
	if c == nil {
		return AccountDetail{}, ErrNoConnection
	}

	address := mux.Vars(r)["address"]
	d := AccountDetail{Network: c.Network, Commitment: c.Commitment}

	var err error

	d.Account, err = c.Chain.Account(r.Context(), address)
	if err != nil && !errors.Is(err, types.ErrNoAccount) {
		return d, err
	}

	d.Found = err == nil
	e.recordLookup(c.Network, store.Lookup{
		Address:  address,
		Lamports: d.Account.Lamports,
		Found:    d.Found,
		TS:       time.Now().UTC(),
	})

	if err != nil {
		return d, err
	}

	if e.conf.SignatureLimit > 0 {
		var sigErr error
		if d.Signatures, sigErr = c.Chain.Signatures(r.Context(), address, e.conf.SignatureLimit); sigErr != nil {
			d.SigError = sigErr.Error()
			e.log.Warn("loading signatures", zap.String("address", address), zap.Error(sigErr))
		}
	}

	return d, nil
}

// accountData is the data of the account view.
type accountData struct {
	AccountDetail
	Networks []types.Network
	Address  string
	Error    string
}

// accountHandler renders the account detail view.
func (e *Explorer) accountHandler(rw http.ResponseWriter, r *http.Request) {
	d, err := e.lookup(r)
	if err != nil && !errors.Is(err, types.ErrNoAccount) {
		e.renderError(rw, r, statusFor(err), err)

		return
	}

	data := accountData{AccountDetail: d, Networks: e.nets.Networks(), Address: mux.Vars(r)["address"]}
	if err != nil {
		data.Error = err.Error()
	}

	e.render(rw, r, "account", statusFor(err), data, err)
}

// networksHandler replies the networks available to the explorer.
func (e *Explorer) networksHandler(rw http.ResponseWriter, r *http.Request) {
	e.reply(rw, r, "networks", http.StatusOK, e.nets.Networks(), nil)
}

// accountAPIHandler replies the account details as JSON.
func (e *Explorer) accountAPIHandler(rw http.ResponseWriter, r *http.Request) {
	d, err := e.lookup(r)
	e.reply(rw, r, "api-account", statusFor(err), d, err)
}

// reply writes body, or err if not nil, in a Response.
func (e *Explorer) reply(rw http.ResponseWriter, r *http.Request, route string, status int, body interface{},
	err error) {
	var res Response

	if err != nil {
		res.Error = err.Error()
	}

	if body != nil && (err == nil || errors.Is(err, types.ErrNoAccount)) {
		tmp, errM := json.Marshal(body)
		if errM != nil {
			status, res.Error = http.StatusInternalServerError, fmt.Sprintf("encoding response: %s", errM)
		} else {
			res.Body = string(tmp)
		}
	}

	rw.Header().Set("Content-Type", "application/json;charset=utf8")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(&res)

	e.logRequest(r, route, status, err)
}

// replyError replies a JSON error.
func (e *Explorer) replyError(rw http.ResponseWriter, r *http.Request, status int, err error) {
	e.reply(rw, r, "api-error", status, nil, err)
}

// accountPath returns the path of the account view.
func accountPath(network, address string) string {
	return "/" + url.PathEscape(network) + "/account/" + url.PathEscape(address)
}
