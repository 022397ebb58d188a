package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"go-file-duplicates/internal/domain/entities"
	"go-file-duplicates/internal/infrastructure/database"
	"go-file-duplicates/internal/infrastructure/repositories/sqlite"
	infraservices "go-file-duplicates/internal/infrastructure/services"
	"go-file-duplicates/internal/interfaces/presenters"
	"go-file-duplicates/internal/usecases"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	fs         afero.Fs
	duplicates *DuplicateController
	cleanup    *CleanupController
}

func newFixture(t *testing.T, persist bool) *fixture {
	t.Helper()
	logger, _ := test.NewNullLogger()
	fs := afero.NewMemMapFs()

	provider := infraservices.NewLocalStorageProvider(fs, logger)
	hasher, err := infraservices.NewHashService(provider, "sha256", "sha256")
	require.NoError(t, err)

	var finder *usecases.DuplicateFindingUseCase
	var cleaner *usecases.FileCleanupUseCase
	scanner := usecases.NewFileScanningUseCase(provider, logger)
	if persist {
		db, err := database.Open(database.Options{Path: filepath.Join(t.TempDir(), "api.db"), MaxOpenConns: 1}, logger)
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		require.NoError(t, database.NewMigrator(db, logger).Run(context.Background()))

		repo := sqlite.NewScanRepository(db)
		finder = usecases.NewDuplicateFindingUseCase(scanner, hasher, repo, logger)
		cleaner = usecases.NewFileCleanupUseCase(provider, hasher, repo, logger)
	} else {
		finder = usecases.NewDuplicateFindingUseCase(scanner, hasher, nil, logger)
		cleaner = usecases.NewFileCleanupUseCase(provider, hasher, nil, logger)
	}

	for path, content := range map[string]string{
		"/data/a.txt":     "aaaaaaaaaa",
		"/data/b.txt":     "aaaaaaaaaa",
		"/data/c.txt":     "bbbbbbbbbb",
		"/data/sub/d.bin": "dddd",
		"/data/sub/e.bin": "dddd",
	} {
		require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}

	return &fixture{
		fs:         fs,
		duplicates: NewDuplicateController(finder, usecases.DefaultScanOptions(), time.Minute, logger),
		cleanup:    NewCleanupController(cleaner, entities.RetentionRule{Policy: entities.KeepFirst}, time.Minute),
	}
}

func doJSON(t *testing.T, handler http.HandlerFunc, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &value))
	return value
}

func (f *fixture) scan(t *testing.T) *presenters.ScanResponseDTO {
	t.Helper()
	rec := doJSON(t, f.duplicates.Scan, http.MethodPost, "/api/scan", presenters.ScanRequestDTO{Root: "/data"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[*presenters.ScanResponseDTO](t, rec)
}

func TestDuplicateController_Scan(t *testing.T) {
	f := newFixture(t, true)

	response := f.scan(t)
	assert.True(t, response.Persisted)
	assert.Equal(t, "completed", response.Progress.Stage)

	scan := response.Scan
	require.Len(t, scan.Groups, 2)
	assert.Equal(t, 0, scan.Groups[0].Index)
	assert.Equal(t, []string{"/data/a.txt", "/data/b.txt"}, []string{scan.Groups[0].Files[0].Path, scan.Groups[0].Files[1].Path})
	assert.Equal(t, int64(10), scan.Groups[0].WastedSpace)
	assert.Equal(t, int64(4), scan.Groups[1].WastedSpace)
	assert.Equal(t, int64(14), scan.TotalWastedSpace)
	require.NotNil(t, scan.Statistics)
	assert.Equal(t, 5, scan.Statistics.TotalFiles)
	assert.Equal(t, 1, scan.Statistics.UniqueFiles)
}

func TestDuplicateController_ScanTopLevelOnly(t *testing.T) {
	f := newFixture(t, false)
	recursive := false

	rec := doJSON(t, f.duplicates.Scan, http.MethodPost, "/api/scan", presenters.ScanRequestDTO{
		Root:      "/data",
		Recursive: &recursive,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	scan := decode[*presenters.ScanResponseDTO](t, rec).Scan
	require.Len(t, scan.Groups, 1)
	assert.Equal(t, "/data/a.txt", scan.Groups[0].Files[0].Path)
	require.NotNil(t, scan.Statistics)
	assert.Equal(t, 3, scan.Statistics.TotalFiles)
}

func TestDuplicateController_ScanErrors(t *testing.T) {
	f := newFixture(t, false)

	tests := []struct {
		name   string
		method string
		body   interface{}
		want   int
	}{
		{"wrong method", http.MethodGet, nil, http.StatusMethodNotAllowed},
		{"missing root", http.MethodPost, presenters.ScanRequestDTO{}, http.StatusBadRequest},
		{"invalid options", http.MethodPost, presenters.ScanRequestDTO{Root: "/data", PrefixBytes: -1}, http.StatusBadRequest},
		{"missing root directory", http.MethodPost, presenters.ScanRequestDTO{Root: "/nope"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, f.duplicates.Scan, tt.method, "/api/scan", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/scan", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		f.duplicates.Scan(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("scan without persistence", func(t *testing.T) {
		response := f.scan(t)
		assert.False(t, response.Persisted)
		assert.Len(t, response.Scan.Groups, 2)
	})
}

func TestDuplicateController_GetDuplicates(t *testing.T) {
	f := newFixture(t, true)

	t.Run("no scan yet", func(t *testing.T) {
		rec := doJSON(t, f.duplicates.GetDuplicates, http.MethodGet, "/api/duplicates", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	scanned := f.scan(t)

	t.Run("latest", func(t *testing.T) {
		rec := doJSON(t, f.duplicates.GetDuplicates, http.MethodGet, "/api/duplicates", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		scan := decode[*presenters.ScanDTO](t, rec)
		assert.Equal(t, scanned.Scan.ID, scan.ID)
		assert.Len(t, scan.Groups, 2)
	})

	t.Run("by id with paging", func(t *testing.T) {
		rec := doJSON(t, f.duplicates.GetDuplicates, http.MethodGet, "/api/duplicates?id="+scanned.Scan.ID+"&page=2&limit=1", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		scan := decode[*presenters.ScanDTO](t, rec)
		require.Len(t, scan.Groups, 1)
		assert.Equal(t, 1, scan.Groups[0].Index)
		assert.Equal(t, 2, scan.TotalGroups)
	})

	t.Run("unknown id", func(t *testing.T) {
		rec := doJSON(t, f.duplicates.GetDuplicates, http.MethodGet, "/api/duplicates?id="+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		rec := doJSON(t, f.duplicates.GetDuplicates, http.MethodGet, "/api/duplicates?id=abc", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDuplicateController_StatsAndHistory(t *testing.T) {
	f := newFixture(t, true)
	f.scan(t)
	f.scan(t)

	rec := doJSON(t, f.duplicates.GetStats, http.MethodGet, "/api/stats?root=/data", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[*presenters.StatisticsDTO](t, rec)
	assert.Equal(t, 5, stats.TotalFiles)
	assert.Equal(t, 2, stats.DuplicateGroups)
	assert.Equal(t, int64(14), stats.WastedSpace)

	rec = doJSON(t, f.duplicates.ListScans, http.MethodGet, "/api/scans", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]*presenters.ScanSummaryDTO](t, rec)
	assert.Len(t, history, 2)

	rec = doJSON(t, f.duplicates.ListScans, http.MethodGet, "/api/scans?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]*presenters.ScanSummaryDTO](t, rec), 1)
}

func TestDuplicateController_NoPersistence(t *testing.T) {
	f := newFixture(t, false)

	rec := doJSON(t, f.duplicates.ListScans, http.MethodGet, "/api/scans", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = doJSON(t, f.cleanup.Delete, http.MethodPost, "/api/delete", presenters.DeleteRequestDTO{ScanID: uuid.NewString()})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCleanupController_Delete(t *testing.T) {
	f := newFixture(t, true)
	scanned := f.scan(t)

	t.Run("dry run", func(t *testing.T) {
		rec := doJSON(t, f.cleanup.Delete, http.MethodPost, "/api/delete", presenters.DeleteRequestDTO{
			ScanID: scanned.Scan.ID,
			DryRun: true,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		response := decode[*presenters.DeleteResponseDTO](t, rec)
		assert.True(t, response.DryRun)
		assert.Equal(t, 2, response.PlannedFiles)
		assert.Zero(t, response.DeletedFiles)

		exists, err := afero.Exists(f.fs, "/data/b.txt")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("invalid requests", func(t *testing.T) {
		index := 7
		tests := []struct {
			name string
			body presenters.DeleteRequestDTO
			want int
		}{
			{"missing scan id", presenters.DeleteRequestDTO{}, http.StatusBadRequest},
			{"unknown scan", presenters.DeleteRequestDTO{ScanID: uuid.NewString()}, http.StatusNotFound},
			{"unknown group", presenters.DeleteRequestDTO{ScanID: scanned.Scan.ID, GroupIndex: &index}, http.StatusNotFound},
			{"bad keep", presenters.DeleteRequestDTO{ScanID: scanned.Scan.ID, Keep: "biggest"}, http.StatusBadRequest},
			{"keep index out of range", presenters.DeleteRequestDTO{ScanID: scanned.Scan.ID, Keep: "index:5"}, http.StatusBadRequest},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec := doJSON(t, f.cleanup.Delete, http.MethodPost, "/api/delete", tt.body)
				assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			})
		}
	})

	t.Run("delete one group keeping the last member", func(t *testing.T) {
		index := 0
		rec := doJSON(t, f.cleanup.Delete, http.MethodPost, "/api/delete", presenters.DeleteRequestDTO{
			ScanID:     scanned.Scan.ID,
			GroupIndex: &index,
			Keep:       "last",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		response := decode[*presenters.DeleteResponseDTO](t, rec)
		assert.Equal(t, 1, response.TotalGroups)
		assert.Equal(t, 1, response.DeletedFiles)
		assert.Equal(t, int64(10), response.SpaceSaved)
		require.Len(t, response.Reports, 1)
		assert.Equal(t, "/data/b.txt", response.Reports[0].RetainedPath)

		exists, err := afero.Exists(f.fs, "/data/a.txt")
		require.NoError(t, err)
		assert.False(t, exists)
		exists, err = afero.Exists(f.fs, "/data/b.txt")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("reports", func(t *testing.T) {
		rec := doJSON(t, f.cleanup.GetReports, http.MethodGet, "/api/delete/reports?scanId="+scanned.Scan.ID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		reports := decode[[]*presenters.DeletionReportDTO](t, rec)
		// dry run over both groups plus the real deletion
		assert.Len(t, reports, 3)

		rec = doJSON(t, f.cleanup.GetReports, http.MethodGet, "/api/delete/reports", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := doJSON(t, f.cleanup.Delete, http.MethodGet, "/api/delete", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}
