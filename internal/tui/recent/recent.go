// ABOUTME: Remembers recent flight searches between runs
// ABOUTME: Stores the last searches as JSON in the config directory

package recent

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MaxSearches is the maximum number of searches to keep
const MaxSearches = 5

// FileName is the file the searches are kept in, inside the config directory
const FileName = "recent_searches.json"

const dateLayout = "2006-01-02"

// Search is one remembered search
type Search struct {
	From string `json:"from"`
	To   string `json:"to"`
	Date string `json:"date"`
}

// Searches manages the list of recent searches
type Searches struct {
	configDir string
	now       func() time.Time
	searches  []Search
}

type recentData struct {
	Searches []Search `json:"searches"`
}

// New creates a Searches manager for the given config directory
func New(configDir string) *Searches {
	return &Searches{
		configDir: configDir,
		now:       time.Now,
	}
}

func (s *Searches) configFile() string {
	return filepath.Join(s.configDir, FileName)
}

// Load reads the list from disk. Searches for dates already gone are dropped.
func (s *Searches) Load() ([]Search, error) {
	data, err := os.ReadFile(s.configFile())
	if os.IsNotExist(err) {
		s.searches = []Search{}
		return s.searches, nil
	}
	if err != nil {
		return nil, err
	}

	var recent recentData
	if err := json.Unmarshal(data, &recent); err != nil {
		// Invalid JSON, start fresh
		s.searches = []Search{}
		return s.searches, nil
	}

	today := s.now().Format(dateLayout)
	s.searches = make([]Search, 0, len(recent.Searches))
	for _, search := range recent.Searches {
		if search.Date >= today {
			s.searches = append(s.searches, search)
		}
	}
	return s.searches, nil
}

// Save writes the list to disk, keeping at most MaxSearches
func (s *Searches) Save(searches []Search) error {
	if err := os.MkdirAll(s.configDir, 0700); err != nil {
		return err
	}

	if len(searches) > MaxSearches {
		searches = searches[:MaxSearches]
	}
	s.searches = searches

	data, err := json.MarshalIndent(recentData{Searches: searches}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.configFile(), data, 0600)
}

// Add puts search at the front of the list, removing an earlier copy
func (s *Searches) Add(search Search) error {
	if s.searches == nil {
		if _, err := s.Load(); err != nil {
			s.searches = []Search{}
		}
	}

	search.From = strings.ToUpper(search.From)
	search.To = strings.ToUpper(search.To)

	updated := make([]Search, 0, len(s.searches)+1)
	updated = append(updated, search)
	for _, existing := range s.searches {
		if existing != search {
			updated = append(updated, existing)
		}
	}
	return s.Save(updated)
}

// List returns the current list of searches, most recent first
func (s *Searches) List() []Search {
	if s.searches == nil {
		s.Load()
	}
	return s.searches
}

// Latest returns the most recent search
func (s *Searches) Latest() (Search, bool) {
	list := s.List()
	if len(list) == 0 {
		return Search{}, false
	}
	return list[0], true
}
