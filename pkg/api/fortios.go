package api

import (
	"net/http"

	"github.com/ddl-r-abdulaziz/netgraph/pkg/fortios"
)

func (s *Server) profile(r *http.Request) (fortios.Profile, error) {
	name := r.URL.Query().Get("profile")
	if name == "" {
		name = s.cfg.FortiOS.Profile
	}
	return fortios.ProfileByName(name)
}

func (s *Server) handleListFortiOS(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.FortiOSFiles()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"configs": names})
}

func (s *Server) handleUploadFortiOS(w http.ResponseWriter, r *http.Request) {
	profile, err := s.profile(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidData", err.Error())
		return
	}

	up, cnf, err := s.store.SaveFortiOS(r.PathValue("filename"), data, profile)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	hostname, _ := cnf.Hostname()
	location := "/api/v1/fortios/" + fortios.GroupFirewall + "/" + up.Filename
	w.Header().Set("Location", location)
	w.Header().Set("X-Upload-Id", up.ID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"upload":   UploadResponse{ID: up.ID, Filename: up.Filename, Size: up.Size, Location: location},
		"hostname": hostname,
		"configs":  len(cnf.Configs),
	})
}

func (s *Server) handleGroupConfig(w http.ResponseWriter, r *http.Request) {
	group := r.PathValue("group")
	if err := fortios.ValidateGroup(group); err != nil {
		s.fail(w, r, err)
		return
	}
	cnf, err := s.store.FortiOS(r.PathValue("filename"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	g, err := cnf.Group(group)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handlePolicies(w http.ResponseWriter, r *http.Request) {
	profile, err := s.profile(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	cnf, err := s.store.FortiOS(r.PathValue("filename"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rows, err := cnf.Policies(profile)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if term := r.URL.Query().Get("search"); term != "" {
		rows = fortios.Search(rows, term)
	}
	if rows == nil {
		rows = []fortios.Row{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"profile":           profile.Name,
		"firewall_policies": rows,
	})
}
