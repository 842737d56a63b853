package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// AnkiCall is one request received by MockAnkiConnect.
type AnkiCall struct {
	Action  string
	Version int
	Params  json.RawMessage
}

// AnkiHandler answers one action. A non-empty errMsg is reported in the
// response's error field.
type AnkiHandler func(params json.RawMessage) (result any, errMsg string)

// MockAnkiConnect is an in-process AnkiConnect stand-in.
type MockAnkiConnect struct {
	Server   *httptest.Server
	Handlers map[string]AnkiHandler

	mu    sync.Mutex
	calls []AnkiCall
}

// NewMockAnkiConnect starts a fake AnkiConnect with a Basic model, an
// empty deck list and an addNote that returns increasing note IDs. Tests
// can replace any handler before issuing requests.
func NewMockAnkiConnect(t *testing.T) *MockAnkiConnect {
	t.Helper()

	m := &MockAnkiConnect{}
	var nextNoteID int64 = 1000
	m.Handlers = map[string]AnkiHandler{
		"version": func(json.RawMessage) (any, string) { return 6, "" },
		"deckNames": func(json.RawMessage) (any, string) {
			return []string{"Default"}, ""
		},
		"modelNames": func(json.RawMessage) (any, string) {
			return []string{"Cloze", "Basic"}, ""
		},
		"modelFieldNames": func(json.RawMessage) (any, string) {
			return []string{"Front", "Back"}, ""
		},
		"createDeck": func(json.RawMessage) (any, string) { return 1, "" },
		"addNote": func(json.RawMessage) (any, string) {
			nextNoteID++
			return nextNoteID, ""
		},
	}

	m.Server = httptest.NewServer(http.HandlerFunc(m.serve))
	t.Cleanup(m.Server.Close)
	return m
}

// URL returns the endpoint of the fake server.
func (m *MockAnkiConnect) URL() string {
	return m.Server.URL
}

// Calls returns the requests received so far.
func (m *MockAnkiConnect) Calls() []AnkiCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]AnkiCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// Actions returns the action names received so far, in order.
func (m *MockAnkiConnect) Actions() []string {
	var actions []string
	for _, c := range m.Calls() {
		actions = append(actions, c.Action)
	}
	return actions
}

// LastCall returns the most recent request for action.
func (m *MockAnkiConnect) LastCall(action string) (AnkiCall, bool) {
	calls := m.Calls()
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].Action == action {
			return calls[i], true
		}
	}
	return AnkiCall{}, false
}

func (m *MockAnkiConnect) serve(w http.ResponseWriter, r *http.Request) {
	var call AnkiCall
	if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := map[string]any{"result": nil, "error": nil}

	m.mu.Lock()
	m.calls = append(m.calls, call)
	if handler, ok := m.Handlers[call.Action]; ok {
		result, errMsg := handler(call.Params)
		resp["result"] = result
		if errMsg != "" {
			resp["error"] = errMsg
		}
	} else {
		resp["error"] = "unsupported action"
	}
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
