package ingest

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/askiada/go-aisingest/internal/aisdb"
)

const header = "MMSI,Time,Message_ID,Navigational_status,SOG,Longitude,Latitude,COG,Heading\n"

func rawCSV(rows ...string) string {
	return header + strings.Join(rows, "\n") + "\n"
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range files {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

// fakeStore records every call and keeps the markers in memory. Like the database, an update id is claimed
// before the work starts, so concurrent calls with the same id do the work once.
type fakeStore struct {
	mu        sync.Mutex
	done      map[string]bool
	copies    map[string]string
	copyCalls map[string]int
	sources   []aisdb.Source
	queries   []string
	copyErr   error
	copyDelay time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{done: map[string]bool{}, copies: map[string]string{}, copyCalls: map[string]int{}}
}

func (s *fakeStore) claim(updateID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done[updateID] {
		return false
	}
	s.done[updateID] = true

	return true
}

func (s *fakeStore) release(updateID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.done, updateID)
}

func (s *fakeStore) CopyCSV(_ context.Context, table, updateID, path string) (int64, bool, error) {
	if !s.claim(updateID) {
		return 0, false, nil
	}
	time.Sleep(s.copyDelay)

	data, err := os.ReadFile(path)
	if err == nil {
		err = s.copyErr
	}
	if err != nil {
		s.release(updateID)

		return 0, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.copies[filepath.Base(path)] = table
	s.copyCalls[updateID]++
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")

	return int64(len(lines) - 1), true, nil
}

func (s *fakeStore) RecordSource(_ context.Context, updateID string, src aisdb.Source) (bool, error) {
	if !s.claim(updateID) {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = append(s.sources, src)

	return true, nil
}

func (s *fakeStore) RunQuery(_ context.Context, _ string, query aisdb.Query) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done[query.UpdateID] {
		return false, nil
	}
	s.queries = append(s.queries, query.SQL)
	s.done[query.UpdateID] = true

	return true, nil
}

func (s *fakeStore) sortedSources() []aisdb.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := append([]aisdb.Source(nil), s.sources...)
	sort.Slice(res, func(i, j int) bool { return res[i].Filename < res[j].Filename })

	return res
}
