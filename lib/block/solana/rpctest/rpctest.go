// Package rpctest provides a mock Solana JSON-RPC node for tests.
package rpctest

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
)

// Account is the state served by the mock node for an address.
type Account struct {
	Lamports   uint64
	Owner      string
	Executable bool
	RentEpoch  uint64
	Data       []byte
}

// Signature is a transaction signature served by the mock node for an address.
type Signature struct {
	Signature string
	Slot      uint64
	BlockTime int64
	Memo      string
	Failed    bool
}

// Call records a request received by the mock node.
type Call struct {
	Method string
	Params []json.RawMessage
}

// Server is a mock node. Addresses missing from Accounts are served as non-existent accounts.
type Server struct {
	*httptest.Server

	Slot       uint64
	Accounts   map[string]Account
	Signatures map[string][]Signature
	Fail       bool // reply every call with an internal JSON-RPC error

	mu    sync.Mutex
	calls []Call
}

type request struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewServer starts a mock node. Close it when done.
func NewServer() *Server {
	s := &Server{
		Slot:       1000,
		Accounts:   make(map[string]Account),
		Signatures: make(map[string][]Signature),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))

	return s
}

// Calls returns the requests received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Call(nil), s.calls...)
}

// CallsTo returns the requests received so far for method.
func (s *Server) CallsTo(method string) []Call {
	var cs []Call

	for _, c := range s.Calls() {
		if c.Method == method {
			cs = append(cs, c)
		}
	}

	return cs
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.calls = append(s.calls, Call{Method: req.Method, Params: req.Params})
	s.mu.Unlock()

	resp := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      req.ID,
	}

	if s.Fail {
		resp["error"] = rpcError{Code: -32603, Message: "internal error"}
	} else if result, rerr := s.result(req); rerr != nil {
		resp["error"] = rerr
	} else {
		resp["result"] = result
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) result(req request) (interface{}, *rpcError) {
	ctx := map[string]interface{}{"slot": s.Slot}

	var address string
	if len(req.Params) > 0 {
		_ = json.Unmarshal(req.Params[0], &address)
	}

	switch req.Method {
	case "getSlot":
		return s.Slot, nil
	case "getAccountInfo":
		a, ok := s.Accounts[address]
		if !ok {
			return map[string]interface{}{"context": ctx, "value": nil}, nil
		}

		return map[string]interface{}{
			"context": ctx,
			"value": map[string]interface{}{
				"lamports":   a.Lamports,
				"owner":      a.Owner,
				"executable": a.Executable,
				"rentEpoch":  a.RentEpoch,
				"space":      len(a.Data),
				"data":       []string{base64.StdEncoding.EncodeToString(a.Data), "base64"},
			},
		}, nil
	case "getBalance":
		return map[string]interface{}{"context": ctx, "value": s.Accounts[address].Lamports}, nil
	case "getSignaturesForAddress":
		res := []map[string]interface{}{}

		for _, sig := range s.Signatures[address] {
			m := map[string]interface{}{
				"signature":          sig.Signature,
				"slot":               sig.Slot,
				"blockTime":          sig.BlockTime,
				"err":                nil,
				"memo":               nil,
				"confirmationStatus": "finalized",
			}
			if sig.Memo != "" {
				m["memo"] = sig.Memo
			}

			if sig.Failed {
				m["err"] = map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}
			}

			res = append(res, m)
		}

		return res, nil
	}

	return nil, &rpcError{Code: -32601, Message: "Method not found"}
}
