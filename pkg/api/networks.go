package api

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ddl-r-abdulaziz/netgraph/pkg/diagram"
	"github.com/ddl-r-abdulaziz/netgraph/pkg/graph"
	"github.com/ddl-r-abdulaziz/netgraph/pkg/store"
)

// UploadResponse is returned for accepted uploads.
type UploadResponse struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Size     int    `json:"size"`
	Location string `json:"location"`
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
}

func (s *Server) handleListNetworks(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.Networks()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"networks": names})
}

func (s *Server) handleUploadNetwork(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidData", err.Error())
		return
	}

	up, doc, err := s.store.SaveNetwork(r.PathValue("filename"), data)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	location := "/api/v1/networks/" + up.Filename
	w.Header().Set("Location", location)
	w.Header().Set("X-Upload-Id", up.ID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"upload":   UploadResponse{ID: up.ID, Filename: up.Filename, Size: up.Size, Location: location},
		"document": doc,
	})
}

func contentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return "application/json"
	case ".yml", ".yaml":
		return "application/yaml"
	default:
		return "application/octet-stream"
	}
}

func (s *Server) handleGetNetwork(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	data, err := s.store.Read(store.KindNetwork, filename)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType(filename))
	_, _ = w.Write(data)
}

func (s *Server) handleGetNodeLink(w http.ResponseWriter, r *http.Request) {
	name := store.ProcessedName(r.PathValue("filename"), store.PrefixNodeLink)
	data, err := s.store.Read(store.KindNetwork, name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) finder(r *http.Request) (*graph.Finder, error) {
	doc, err := s.store.Network(r.PathValue("filename"))
	if err != nil {
		return nil, err
	}
	return graph.NewFinder(doc)
}

func (s *Server) handleFindByAddr(w http.ResponseWriter, r *http.Request) {
	f, err := s.finder(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	nets, err := f.NetworksByAddr(r.PathValue("ip"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nets)
}

func (s *Server) handleFindByPath(w http.ResponseWriter, r *http.Request) {
	f, err := s.finder(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	nodeType := graph.NodeType(r.URL.Query().Get("node_type"))
	paths, err := f.Paths(r.PathValue("src"), r.PathValue("dst"), nodeType)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paths)
}

// renderDiagram builds and settles the diagram of the requested document
// with the highlights selected by the addr, src, dst and node_type query
// parameters.
func (s *Server) renderDiagram(r *http.Request) (*diagram.Diagram, error) {
	doc, err := s.store.Network(r.PathValue("filename"))
	if err != nil {
		return nil, err
	}
	q := r.URL.Query()
	query := diagram.Query{
		Addr:     q.Get("addr"),
		Src:      q.Get("src"),
		Dst:      q.Get("dst"),
		NodeType: graph.NodeType(q.Get("node_type")),
	}
	sim := s.cfg.Simulation
	opts := append(diagram.ConfigOptions(sim), diagram.WithLogger(s.logger))
	return diagram.Render(doc, query, sim.MaxTicks, opts...)
}

func (s *Server) handleDiagramPage(w http.ResponseWriter, r *http.Request) {
	d, err := s.renderDiagram(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer d.Close()

	page, err := s.html.Render(store.SecureFilename(r.PathValue("filename")), d)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, page)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	d, err := s.renderDiagram(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer d.Close()

	img, err := s.svg.Render(d)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = io.WriteString(w, img)
}
