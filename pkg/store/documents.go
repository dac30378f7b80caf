package store

import (
	"bytes"
	"fmt"

	"github.com/ddl-r-abdulaziz/netgraph/pkg/fortios"
	"github.com/ddl-r-abdulaziz/netgraph/pkg/graph"
)

// SaveNetwork checks that data is a buildable topology document, stores it
// as filename, and stores its node-link export (node defaults applied) next
// to it.
func (s *Store) SaveNetwork(filename string, data []byte) (Upload, *graph.Document, error) {
	doc, err := graph.Parse(data)
	if err != nil {
		return Upload{}, nil, fmt.Errorf("%w: %v", graph.ErrInvalidDocument, err)
	}
	if _, err := graph.NewBuilder().Build(doc); err != nil {
		return Upload{}, nil, err
	}

	up, err := s.Save(KindNetwork, filename, data)
	if err != nil {
		return Upload{}, nil, err
	}
	if err := s.SaveJSON(KindNetwork, filename, PrefixNodeLink, doc.Export()); err != nil {
		return Upload{}, nil, err
	}
	return up, doc, nil
}

// Network loads the topology document stored as filename.
func (s *Store) Network(filename string) (*graph.Document, error) {
	data, err := s.Read(KindNetwork, filename)
	if err != nil {
		return nil, err
	}
	return graph.Parse(data)
}

// Networks lists the uploaded topology documents.
func (s *Store) Networks() ([]string, error) {
	return s.Documents(KindNetwork)
}

// SaveFortiOS parses a "show full-configuration" dump, stores it as
// filename, and stores the parsed tree and the normalized firewall
// policies of profile as processed JSON files.
func (s *Store) SaveFortiOS(filename string, data []byte, profile fortios.Profile) (Upload, *fortios.Configs, error) {
	cnf, err := fortios.Parse(bytes.NewReader(data))
	if err != nil {
		return Upload{}, nil, err
	}
	rows, err := cnf.Policies(profile)
	if err != nil {
		return Upload{}, nil, err
	}

	up, err := s.Save(KindFortiOS, filename, data)
	if err != nil {
		return Upload{}, nil, err
	}
	if err := s.SaveJSON(KindFortiOS, filename, PrefixFortiOS, cnf); err != nil {
		return Upload{}, nil, err
	}
	policies := map[string]any{"firewall_policies": rows}
	if err := s.SaveJSON(KindFortiOS, filename, PrefixPolicies, policies); err != nil {
		return Upload{}, nil, err
	}
	return up, cnf, nil
}

// FortiOS loads the parsed configuration stored for filename.
func (s *Store) FortiOS(filename string) (*fortios.Configs, error) {
	var cnf fortios.Configs
	if err := s.ReadJSON(KindFortiOS, filename, PrefixFortiOS, &cnf); err != nil {
		return nil, err
	}
	return &cnf, nil
}

// FortiOSFiles lists the uploaded FortiOS configurations.
func (s *Store) FortiOSFiles() ([]string, error) {
	return s.Documents(KindFortiOS)
}
