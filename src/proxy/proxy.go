package proxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"diagramdb/src/engine"
	"diagramdb/src/server"
	"diagramdb/src/wire"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const dialTimeout = 5 * time.Second

// Proxy is the JSON/HTTP facade over the binary RPC server. Each
// request dials the RPC port, translates the JSON document through the
// wire package and forwards the call.
type Proxy struct {
	destAddr string
	username string
	password string
	logger   *zap.SugaredLogger
}

// NewProxy creates a proxy forwarding to the RPC server at destAddr.
func NewProxy(destAddr string, logger *zap.SugaredLogger) *Proxy {
	return &Proxy{
		destAddr: destAddr,
		logger:   logger,
	}
}

// WithCredentials makes every forwarded connection authenticate first.
// Needed when the RPC server runs with authentication enabled.
func (p *Proxy) WithCredentials(username, password string) *Proxy {
	p.username = username
	p.password = password

	return p
}

// Router builds the HTTP route table.
func (p *Proxy) Router() *mux.Router {
	r := mux.NewRouter()

	r.Use(p.corsMiddleware)
	r.Use(p.loggingMiddleware)

	r.Methods(http.MethodPost).Path("/diagrams").HandlerFunc(p.saveDiagram)
	r.Methods(http.MethodGet).Path("/diagrams/{file_id}").HandlerFunc(p.getDiagram)
	r.Methods(http.MethodDelete).Path("/diagrams/{file_id}").HandlerFunc(p.deleteDiagram)
	r.Methods(http.MethodGet).Path("/diagrams/{file_id}/exists").HandlerFunc(p.checkExists)
	r.Methods(http.MethodPost).Path("/diagrams/export").HandlerFunc(p.exportDiagrams)

	// Preflight for any route.
	r.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}

// ListenAndServe starts the HTTP listener. Blocks until the server
// stops.
func (p *Proxy) ListenAndServe(addr string) error {
	p.logger.Infof("JSON proxy listening on %s", addr)

	return http.ListenAndServe(addr, p.Router())
}

func (p *Proxy) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "*")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		next.ServeHTTP(w, r)
	})
}

func (p *Proxy) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		p.logger.Infow("handled", "method", r.Method, "url", r.URL.Path, "duration", time.Since(start))
	})
}

// dial opens a fresh client for one request.
func (p *Proxy) dial() (*server.Client, error) {
	client, err := server.Dial(p.destAddr, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC server: %w", err)
	}

	if p.username != "" {
		if err := client.Authenticate(p.username, p.password); err != nil {
			client.Close()
			return nil, err
		}
	}

	return client, nil
}

func (p *Proxy) saveDiagram(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		p.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return
	}

	client, err := p.dial()
	if err != nil {
		p.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	defer client.Close()

	// JSON to the document model; malformed nested entries are
	// dropped rather than failing the save.
	file := wire.FileFromJSON(body)

	result, err := client.SaveClassDiagram(file)
	if err != nil {
		p.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	if !result.Value {
		p.writeError(w, http.StatusBadRequest, result.Message)
		return
	}

	p.writeJSON(w, http.StatusOK, map[string]any{"message": "Diagram saved successfully"})
}

func (p *Proxy) getDiagram(w http.ResponseWriter, r *http.Request) {
	fileID := mux.Vars(r)["file_id"]

	client, err := p.dial()
	if err != nil {
		p.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	defer client.Close()

	file, err := client.GetClassDiagram(fileID)
	if err != nil {
		if errors.Is(err, engine.ErrFileNotFound) {
			p.writeError(w, http.StatusNotFound, "File not found")
			return
		}

		p.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	p.writeJSON(w, http.StatusOK, wire.FileToJSON(file))
}

func (p *Proxy) deleteDiagram(w http.ResponseWriter, r *http.Request) {
	fileID := mux.Vars(r)["file_id"]

	client, err := p.dial()
	if err != nil {
		p.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	defer client.Close()

	result, err := client.DeleteClassDiagram(fileID)
	if err != nil {
		p.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	if !result.Value {
		p.writeError(w, http.StatusNotFound, result.Message)
		return
	}

	p.writeJSON(w, http.StatusOK, map[string]any{"message": "Diagram deleted successfully"})
}

func (p *Proxy) checkExists(w http.ResponseWriter, r *http.Request) {
	fileID := mux.Vars(r)["file_id"]

	client, err := p.dial()
	if err != nil {
		p.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	defer client.Close()

	result, err := client.IsExistingClassDiagram(fileID)
	if err != nil {
		p.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	p.writeJSON(w, http.StatusOK, map[string]any{
		"exists":  result.Value,
		"message": result.Message,
	})
}

func (p *Proxy) exportDiagrams(w http.ResponseWriter, r *http.Request) {
	client, err := p.dial()
	if err != nil {
		p.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	defer client.Close()

	result, err := client.ExportClassDiagrams()
	if err != nil {
		p.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	p.writeJSON(w, http.StatusOK, map[string]any{"message": result.Message})
}

func (p *Proxy) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		p.logger.Errorw("Error writing response", "error", err)
	}
}

func (p *Proxy) writeError(w http.ResponseWriter, status int, message string) {
	p.writeJSON(w, status, map[string]any{"error": message})
}
