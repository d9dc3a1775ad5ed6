package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/kamilpajak/bugsy/pkg/models"
)

// QueriesFile is the name of the query metadata table inside the data dir.
const QueriesFile = "queries.json"

// Queries loads the query metadata table. A missing file is an empty table.
func (s *Store) Queries() (map[string]models.QueryInfo, error) {
	data, err := os.ReadFile(filepath.Join(s.dataDir, QueriesFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]models.QueryInfo{}, nil
		}
		return nil, err
	}
	return models.DecodeQueryTable(data)
}

// Resolve returns the display text for queryID: the table's user_query,
// then its title, then fallback, then the id itself. Blank candidates are
// skipped. An unreadable table is logged and treated as empty.
func (s *Store) Resolve(queryID, fallback string) string {
	table, err := s.Queries()
	if err != nil {
		s.logger.Warn("ignoring unreadable queries table",
			zap.String("query_id", queryID),
			zap.Error(err))
		table = nil
	}
	info := table[queryID]
	for _, candidate := range []string{info.UserQuery, info.Title, fallback} {
		if text := strings.TrimSpace(candidate); text != "" {
			return text
		}
	}
	return queryID
}
