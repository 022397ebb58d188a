package usecases

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"testing"

	"go-file-duplicates/internal/domain/entities"
	"go-file-duplicates/internal/domain/services"
	infraservices "go-file-duplicates/internal/infrastructure/services"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sha256Digest(content []byte) string {
	sum := sha256.Sum256(content)
	return "sha256:" + hex.EncodeToString(sum[:])
}

func TestFindDuplicates_SingleGroup(t *testing.T) {
	env := newMemEnv(t)
	env.write(t, "/data/A", []byte("aaaaaaaaaa"))
	env.write(t, "/data/B", []byte("aaaaaaaaaa"))
	env.write(t, "/data/C", []byte("bbbbbbbbbb"))

	response := env.scan(t, "/data", DefaultScanOptions())

	require.Len(t, response.Scan.Groups, 1)
	group := response.Scan.Groups[0]
	assert.Equal(t, []string{"/data/A", "/data/B"}, group.Paths())
	assert.Equal(t, int64(10), group.Size)
	assert.Equal(t, int64(20), group.GetTotalSize())
	assert.Equal(t, int64(10), group.GetWastedSpace())
	assert.Equal(t, sha256Digest([]byte("aaaaaaaaaa")), group.Hash)

	assert.Equal(t, 1, response.TotalGroups)
	assert.Equal(t, 2, response.TotalFiles)
	assert.Equal(t, int64(10), response.TotalWastedSpace)
	assert.Empty(t, response.Scan.Warnings)
	assert.Equal(t, entities.StageCompleted, response.Progress.Stage)
	assert.Equal(t, int64(3), response.Progress.FilesSeen)
}

func TestFindDuplicates_NoGroups(t *testing.T) {
	t.Run("same size different content", func(t *testing.T) {
		env := newMemEnv(t)
		env.write(t, "/data/one", bytes.Repeat([]byte{'1'}, 100))
		env.write(t, "/data/two", bytes.Repeat([]byte{'2'}, 100))

		response := env.scan(t, "/data", DefaultScanOptions())
		assert.Empty(t, response.Scan.Groups)
	})

	t.Run("large files sharing the prefix", func(t *testing.T) {
		env := newMemEnv(t)
		a, b := sharedPrefix(1<<20, DefaultPrefixBytes)
		env.write(t, "/data/a.bin", a)
		env.write(t, "/data/b.bin", b)

		response := env.scan(t, "/data", DefaultScanOptions())
		assert.Empty(t, response.Scan.Groups)
	})

	t.Run("unique sizes", func(t *testing.T) {
		env := newMemEnv(t)
		env.write(t, "/data/x", []byte("x"))
		env.write(t, "/data/yy", []byte("yy"))

		response := env.scan(t, "/data", DefaultScanOptions())
		assert.Empty(t, response.Scan.Groups)
		assert.Equal(t, 2, response.Scan.Statistics.UniqueFiles)
	})

	t.Run("empty directory", func(t *testing.T) {
		env := newMemEnv(t)
		require.NoError(t, env.fs.MkdirAll("/data", 0o755))

		response := env.scan(t, "/data", DefaultScanOptions())
		assert.Empty(t, response.Scan.Groups)
		assert.Equal(t, 0, response.Scan.Statistics.TotalFiles)
	})
}

func TestFindDuplicates_LargeFilesNeedFullHash(t *testing.T) {
	env := newMemEnv(t)
	a, b := sharedPrefix(1<<20, DefaultPrefixBytes)
	env.write(t, "/data/a.bin", a)
	env.write(t, "/data/b.bin", b)
	env.write(t, "/data/copy/a.bin", a)

	response := env.scan(t, "/data", DefaultScanOptions())

	require.Len(t, response.Scan.Groups, 1)
	assert.Equal(t, []string{"/data/a.bin", "/data/copy/a.bin"}, response.Scan.Groups[0].Paths())
	assert.Equal(t, sha256Digest(a), response.Scan.Groups[0].Hash)
}

func TestFindDuplicates_PrefixBoundary(t *testing.T) {
	const prefix = 64

	tests := []struct {
		name      string
		partial   string
		size      int
		wantGroup bool
	}{
		{name: "size equals prefix", partial: "sha256", size: prefix, wantGroup: true},
		{name: "one byte past prefix", partial: "sha256", size: prefix + 1, wantGroup: false},
		{name: "size equals prefix with xxhash", partial: "xxhash", size: prefix, wantGroup: true},
		{name: "one byte past prefix with xxhash", partial: "xxhash", size: prefix + 1, wantGroup: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, afero.NewMemMapFs(), tt.partial)
			a, b := sharedPrefix(tt.size, prefix)
			env.write(t, "/data/a", a)
			env.write(t, "/data/b", b)

			opts := DefaultScanOptions()
			opts.PrefixBytes = prefix
			response := env.scan(t, "/data", opts)

			if !tt.wantGroup {
				assert.Empty(t, response.Scan.Groups)
				return
			}
			require.Len(t, response.Scan.Groups, 1)
			assert.Equal(t, []string{"/data/a", "/data/b"}, response.Scan.Groups[0].Paths())
			assert.Equal(t, int64(tt.size), response.Scan.Groups[0].Size)
		})
	}
}

func TestFindDuplicates_GroupOrdering(t *testing.T) {
	env := newMemEnv(t)
	env.write(t, "/data/small1", []byte("abc"))
	env.write(t, "/data/small2", []byte("abc"))
	env.write(t, "/data/big1", bytes.Repeat([]byte("z"), 500))
	env.write(t, "/data/big2", bytes.Repeat([]byte("z"), 500))
	env.write(t, "/data/also1", []byte("xyz"))
	env.write(t, "/data/also2", []byte("xyz"))

	response := env.scan(t, "/data", DefaultScanOptions())

	assert.Equal(t, [][]string{
		{"/data/big1", "/data/big2"},
		{"/data/also1", "/data/also2"},
		{"/data/small1", "/data/small2"},
	}, groupPaths(response.Scan.Groups))
}

func TestFindDuplicates_Idempotent(t *testing.T) {
	env := newMemEnv(t)
	for _, dir := range []string{"/data/a", "/data/b", "/data/c"} {
		env.write(t, dir+"/same.txt", []byte("identical content"))
		env.write(t, dir+"/other.txt", []byte("something else here"))
	}
	env.write(t, "/data/a/unique.txt", []byte("only once"))

	first := env.scan(t, "/data", DefaultScanOptions())
	second := env.scan(t, "/data", DefaultScanOptions())

	require.Len(t, first.Scan.Groups, 2)
	assert.Equal(t, groupPaths(first.Scan.Groups), groupPaths(second.Scan.Groups))
	for i := range first.Scan.Groups {
		assert.Equal(t, first.Scan.Groups[i].Hash, second.Scan.Groups[i].Hash)
	}
	assert.NotEqual(t, first.Scan.ID, second.Scan.ID)
}

func TestFindDuplicates_NoPathInTwoGroups(t *testing.T) {
	env := newMemEnv(t)
	for i, content := range []string{"alpha", "bravo", "alpha", "bravo", "alpha", "delta"} {
		env.write(t, "/data/f"+string(rune('0'+i)), []byte(content))
	}

	response := env.scan(t, "/data", DefaultScanOptions())

	seen := make(map[string]bool)
	for _, group := range response.Scan.Groups {
		assert.GreaterOrEqual(t, group.Count(), 2)
		for _, file := range group.Files {
			assert.False(t, seen[file.Path], "path %s appears in two groups", file.Path)
			seen[file.Path] = true
			assert.Equal(t, group.Size, file.Size)
		}
	}
	assert.Len(t, seen, 5)
}

func TestFindDuplicates_EmptyFiles(t *testing.T) {
	t.Run("grouped by default", func(t *testing.T) {
		env := newMemEnv(t)
		env.write(t, "/data/e1", nil)
		env.write(t, "/data/e2", nil)
		env.write(t, "/data/e3", nil)

		response := env.scan(t, "/data", DefaultScanOptions())

		require.Len(t, response.Scan.Groups, 1)
		group := response.Scan.Groups[0]
		assert.Equal(t, 3, group.Count())
		assert.Equal(t, env.hasher.EmptyContentHash(), group.Hash)
		assert.Equal(t, sha256Digest(nil), group.Hash)
		assert.Zero(t, group.GetWastedSpace())
	})

	t.Run("excluded when disabled", func(t *testing.T) {
		env := newMemEnv(t)
		env.write(t, "/data/e1", nil)
		env.write(t, "/data/e2", nil)

		opts := DefaultScanOptions()
		opts.GroupEmptyFiles = false
		response := env.scan(t, "/data", opts)
		assert.Empty(t, response.Scan.Groups)
	})
}

func TestFindDuplicates_TopLevelOnly(t *testing.T) {
	env := newMemEnv(t)
	env.write(t, "/data/a", []byte("same"))
	env.write(t, "/data/b", []byte("same"))
	env.write(t, "/data/sub/c", []byte("same"))

	opts := DefaultScanOptions()
	opts.Recursive = false
	response := env.scan(t, "/data", opts)
	assert.Equal(t, [][]string{{"/data/a", "/data/b"}}, groupPaths(response.Scan.Groups))
	assert.Equal(t, 2, response.Scan.Statistics.TotalFiles)

	response = env.scan(t, "/data", DefaultScanOptions())
	assert.Equal(t, [][]string{{"/data/a", "/data/b", "/data/sub/c"}}, groupPaths(response.Scan.Groups))
}

func TestFindDuplicates_MinFileSize(t *testing.T) {
	env := newMemEnv(t)
	env.write(t, "/data/tiny1", []byte("ab"))
	env.write(t, "/data/tiny2", []byte("ab"))
	env.write(t, "/data/big1", []byte("abcdefgh"))
	env.write(t, "/data/big2", []byte("abcdefgh"))

	opts := DefaultScanOptions()
	opts.MinFileSize = 5
	response := env.scan(t, "/data", opts)

	assert.Equal(t, [][]string{{"/data/big1", "/data/big2"}}, groupPaths(response.Scan.Groups))
	assert.Equal(t, 2, response.Scan.Statistics.TotalFiles)
}

func TestFindDuplicates_NonCryptographicPartialHash(t *testing.T) {
	fs := afero.NewMemMapFs()
	env := newTestEnv(t, fs, "xxhash")
	env.write(t, "/data/a", []byte("small file"))
	env.write(t, "/data/b", []byte("small file"))
	env.write(t, "/data/c", []byte("small fil!"))

	response := env.scan(t, "/data", DefaultScanOptions())

	require.Len(t, response.Scan.Groups, 1)
	// Small-file groups still go through the cryptographic full hash.
	assert.Equal(t, sha256Digest([]byte("small file")), response.Scan.Groups[0].Hash)
}

func TestFindDuplicates_ReadWarning(t *testing.T) {
	fs := afero.NewMemMapFs()
	env := newTestEnv(t, fs, "sha256")
	for _, name := range []string{"a", "b", "c"} {
		env.write(t, "/data/"+name, []byte("same bytes"))
	}

	provider := &unreadableProvider{
		LocalStorageProvider: env.provider,
		paths:                map[string]bool{"/data/b": true},
	}
	hasher, err := infraservices.NewHashService(provider, "sha256", "sha256")
	require.NoError(t, err)
	finder := NewDuplicateFindingUseCase(NewFileScanningUseCase(provider, env.logger), hasher, nil, env.logger)

	response, err := finder.FindDuplicates(context.Background(), &FindDuplicatesRequest{
		Root:    "/data",
		Options: DefaultScanOptions(),
	})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"/data/a", "/data/c"}}, groupPaths(response.Scan.Groups))
	require.Len(t, response.Scan.Warnings, 1)
	warning := response.Scan.Warnings[0]
	assert.Equal(t, entities.WarningRead, warning.Kind)
	assert.Equal(t, "/data/b", warning.Path)
	assert.Equal(t, entities.StagePartialHash, warning.Stage)
	assert.ErrorIs(t, warning, errUnreadable)
	assert.Equal(t, 1, response.Scan.Statistics.Warnings)

	var warned bool
	for _, entry := range env.hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && entry.Data["path"] == "/data/b" {
			warned = true
		}
	}
	assert.True(t, warned, "read warning should be logged")
}

func TestFindDuplicates_FileGrowsAfterListing(t *testing.T) {
	fs := afero.NewMemMapFs()
	env := newTestEnv(t, fs, "sha256")
	env.write(t, "/r/a", bytes.Repeat([]byte{'x'}, 10))
	env.write(t, "/r/b", bytes.Repeat([]byte{'x'}, 10))

	grownA, grownB := sharedPrefix(20000, DefaultPrefixBytes)
	provider := &rewritingProvider{
		LocalStorageProvider: env.provider,
		fs:                   fs,
		contents:             map[string][]byte{"/r/a": grownA, "/r/b": grownB},
	}
	hasher, err := infraservices.NewHashService(provider, "sha256", "sha256")
	require.NoError(t, err)
	finder := NewDuplicateFindingUseCase(NewFileScanningUseCase(provider, env.logger), hasher, nil, env.logger)

	response, err := finder.FindDuplicates(context.Background(), &FindDuplicatesRequest{
		Root:    "/r",
		Options: DefaultScanOptions(),
	})
	require.NoError(t, err)

	assert.Empty(t, response.Scan.Groups)
	require.Len(t, response.Scan.Warnings, 2)
	for _, warning := range response.Scan.Warnings {
		assert.Equal(t, entities.WarningRead, warning.Kind)
		assert.Equal(t, entities.StagePartialHash, warning.Stage)
		assert.ErrorIs(t, warning, entities.ErrSizeMismatch)
	}
}

func TestFindDuplicates_InvalidOptions(t *testing.T) {
	env := newMemEnv(t)
	env.write(t, "/data/a", []byte("x"))

	tests := []struct {
		name   string
		modify func(*ScanOptions)
	}{
		{"zero prefix", func(o *ScanOptions) { o.PrefixBytes = 0 }},
		{"negative prefix", func(o *ScanOptions) { o.PrefixBytes = -1 }},
		{"negative min size", func(o *ScanOptions) { o.MinFileSize = -1 }},
		{"no workers", func(o *ScanOptions) { o.Workers = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultScanOptions()
			tt.modify(&opts)

			response, err := env.finder.FindDuplicates(context.Background(), &FindDuplicatesRequest{
				Root:    "/data",
				Options: opts,
			})
			assert.ErrorIs(t, err, ErrInvalidOptions)
			assert.Nil(t, response)
		})
	}
}

func TestFindDuplicates_RootErrors(t *testing.T) {
	env := newMemEnv(t)
	env.write(t, "/data/file", []byte("x"))

	_, err := env.finder.FindDuplicates(context.Background(), &FindDuplicatesRequest{
		Root:    "/missing",
		Options: DefaultScanOptions(),
	})
	assert.ErrorIs(t, err, services.ErrInvalidRoot)

	_, err = env.finder.FindDuplicates(context.Background(), &FindDuplicatesRequest{
		Root:    "/data/file",
		Options: DefaultScanOptions(),
	})
	assert.ErrorIs(t, err, services.ErrInvalidRoot)
}

func TestFindDuplicates_Cancelled(t *testing.T) {
	env := newMemEnv(t)
	env.write(t, "/data/a", []byte("same"))
	env.write(t, "/data/b", []byte("same"))

	var (
		mu     sync.Mutex
		stages []entities.ScanStage
	)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	response, err := env.finder.FindDuplicates(ctx, &FindDuplicatesRequest{
		Root:    "/data",
		Options: DefaultScanOptions(),
		ProgressCallback: func(s entities.ProgressSnapshot) {
			mu.Lock()
			stages = append(stages, s.Stage)
			mu.Unlock()
		},
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, response)
	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, stages)
	assert.Equal(t, entities.StageFailed, stages[len(stages)-1])
}

func TestFindDuplicates_ProgressCallback(t *testing.T) {
	env := newMemEnv(t)
	env.write(t, "/data/a", []byte("same"))
	env.write(t, "/data/b", []byte("same"))

	var (
		mu        sync.Mutex
		snapshots []entities.ProgressSnapshot
	)
	response, err := env.finder.FindDuplicates(context.Background(), &FindDuplicatesRequest{
		Root:    "/data",
		Options: DefaultScanOptions(),
		ProgressCallback: func(s entities.ProgressSnapshot) {
			mu.Lock()
			snapshots = append(snapshots, s)
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	require.Len(t, response.Scan.Groups, 1)

	mu.Lock()
	defer mu.Unlock()
	stages := make(map[entities.ScanStage]bool)
	for _, s := range snapshots {
		stages[s.Stage] = true
	}
	assert.True(t, stages[entities.StageTraversal])
	assert.True(t, stages[entities.StagePartialHash])
	assert.False(t, stages[entities.StageFullHash], "small files are final after the partial stage")

	last := snapshots[len(snapshots)-1]
	assert.Equal(t, entities.StageCompleted, last.Stage)
	assert.Equal(t, float64(100), last.Percentage)
	assert.Equal(t, int64(8), last.BytesHashed)
}
