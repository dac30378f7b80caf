package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ddl-r-abdulaziz/netgraph/pkg/diagram"
	"github.com/ddl-r-abdulaziz/netgraph/pkg/fortios"
	"github.com/ddl-r-abdulaziz/netgraph/pkg/graph"
	"github.com/ddl-r-abdulaziz/netgraph/pkg/store"
)

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, typ, message string) {
	writeJSON(w, status, ErrorBody{Error: ErrorDetail{Type: typ, Message: message}})
}

// classify maps an error to its HTTP status and error type.
func classify(err error) (int, string) {
	var syntaxErr *fortios.SyntaxError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "NotFound"
	case errors.Is(err, store.ErrInvalidFilename):
		return http.StatusBadRequest, "InvalidFilename"
	case errors.Is(err, graph.ErrInvalidAddr):
		return http.StatusBadRequest, "InvalidAddress"
	case errors.Is(err, graph.ErrInvalidDocument):
		return http.StatusBadRequest, "InvalidDocument"
	case errors.Is(err, diagram.ErrIncompleteQuery):
		return http.StatusBadRequest, "InvalidQuery"
	case errors.Is(err, fortios.ErrInvalidGroup):
		return http.StatusBadRequest, "InvalidGroup"
	case errors.Is(err, fortios.ErrUnknownProfile):
		return http.StatusBadRequest, "InvalidProfile"
	case errors.As(err, &syntaxErr):
		return http.StatusBadRequest, "InvalidConfig"
	case errors.Is(err, graph.ErrDanglingLink), errors.Is(err, graph.ErrDuplicateNode):
		return http.StatusUnprocessableEntity, "BuildFailed"
	default:
		return http.StatusInternalServerError, "Internal"
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, typ := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "path", r.URL.Path, "error", err)
		writeError(w, status, typ, "internal server error")
		return
	}
	writeError(w, status, typ, err.Error())
}
