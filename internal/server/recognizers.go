package server

import (
	"path/filepath"

	"github.com/ironsheep/dotmarker/internal/recognition"
)

// recognizerKey identifies a registered marker set and the configuration
// it was registered with.
type recognizerKey struct {
	definition string
	config     string
}

// recognizer returns the cached Recognizer for a definition file, building
// it on first use. Registration is the expensive part of recognition, so
// every later call with the same files reuses the table.
func (s *Server) recognizer(definitionPath, configPath string) (*recognition.Recognizer, error) {
	key := recognizerKey{definition: filepath.Clean(definitionPath)}
	if configPath != "" {
		key.config = filepath.Clean(configPath)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.recognizers[key]; ok {
		return r, nil
	}
	r, err := recognition.Load(key.definition, key.config)
	if err != nil {
		return nil, err
	}
	s.recognizers[key] = r
	return r, nil
}

// forgetRecognizers drops every cached Recognizer built from
// definitionPath. Called after the file is rewritten.
func (s *Server) forgetRecognizers(definitionPath string) {
	clean := filepath.Clean(definitionPath)

	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.recognizers {
		if key.definition == clean {
			delete(s.recognizers, key)
		}
	}
}
