package report

import (
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riadafridishibly/hashreport/digest"
)

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func sha512Hex(s string) string {
	sum := sha512.Sum512([]byte(s))
	return hex.EncodeToString(sum[:])
}

func makeFiles(t *testing.T, root string, files ...[2]string) []string {
	t.Helper()
	var paths []string
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f[0]))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(f[1]), 0o644))
		paths = append(paths, p)
	}
	return paths
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	if len(data) == 0 {
		return nil
	}
	require.True(t, strings.HasSuffix(string(data), "\n"), "report must end with a newline")
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestWriteRelativeSHA256(t *testing.T) {
	root := t.TempDir()
	files := makeFiles(t, root, [2]string{"x.txt", "hi"}, [2]string{"y.txt", ""})
	out := filepath.Join(t.TempDir(), "report.tsv")

	summary, err := Write(context.Background(), files, out, Options{RelativeTo: root, Algorithm: "sha256"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"x.txt\t2\t" + sha256Hex("hi"),
		"y.txt\t0\t" + sha256Hex(""),
	}, readLines(t, out))
	assert.Equal(t, 2, summary.Lines)
	assert.Equal(t, 0, summary.Missing)
	assert.EqualValues(t, 2, summary.Bytes)
}

func TestWriteDefaultsToSHA512(t *testing.T) {
	root := t.TempDir()
	files := makeFiles(t, root, [2]string{"a", "abc"})
	out := filepath.Join(t.TempDir(), "report.tsv")

	_, err := Write(context.Background(), files, out, Options{RelativeTo: root})
	require.NoError(t, err)

	assert.Equal(t, []string{"a\t3\t" + sha512Hex("abc")}, readLines(t, out))
}

func TestWriteNestedRelativePath(t *testing.T) {
	root := t.TempDir()
	files := makeFiles(t, root, [2]string{"a/b.txt", "b"})
	out := filepath.Join(t.TempDir(), "report.tsv")

	_, err := Write(context.Background(), files, out, Options{RelativeTo: root, Algorithm: "md5"})
	require.NoError(t, err)

	lines := readLines(t, out)
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], filepath.Join("a", "b.txt")+"\t1\t"))
}

func TestWriteAbsolutePathsVerbatim(t *testing.T) {
	root := t.TempDir()
	files := makeFiles(t, root, [2]string{"dir/file", "content"})
	out := filepath.Join(t.TempDir(), "report.tsv")

	_, err := Write(context.Background(), files, out, Options{Algorithm: "sha256"})
	require.NoError(t, err)

	assert.Equal(t, []string{files[0] + "\t7\t" + sha256Hex("content")}, readLines(t, out))
}

func TestWriteStartAt(t *testing.T) {
	root := t.TempDir()
	files := makeFiles(t, root,
		[2]string{"0", "zero"},
		[2]string{"1", "one"},
		[2]string{"2", "two"},
		[2]string{"3", "three"},
	)
	out := filepath.Join(t.TempDir(), "report.tsv")

	summary, err := Write(context.Background(), files, out, Options{RelativeTo: root, Algorithm: "sha256", StartAt: 2})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"2\t3\t" + sha256Hex("two"),
		"3\t5\t" + sha256Hex("three"),
	}, readLines(t, out))
	assert.Equal(t, 2, summary.Lines)
}

func TestWriteStartAtPastEndLeavesEmptyReport(t *testing.T) {
	root := t.TempDir()
	files := makeFiles(t, root, [2]string{"only", "x"})
	out := filepath.Join(t.TempDir(), "report.tsv")
	require.NoError(t, os.WriteFile(out, []byte("stale\n"), 0o644))

	for _, startAt := range []int{1, 5} {
		summary, err := Write(context.Background(), files, out, Options{RelativeTo: root, StartAt: startAt})
		require.NoError(t, err)
		assert.Zero(t, summary.Lines)

		info, err := os.Stat(out)
		require.NoError(t, err)
		assert.Zero(t, info.Size())
	}
}

func TestWriteTruncatesExistingReport(t *testing.T) {
	root := t.TempDir()
	files := makeFiles(t, root, [2]string{"a", "a"}, [2]string{"b", "b"})
	out := filepath.Join(t.TempDir(), "report.tsv")

	_, err := Write(context.Background(), files, out, Options{RelativeTo: root, Algorithm: "sha256"})
	require.NoError(t, err)
	_, err = Write(context.Background(), files, out, Options{RelativeTo: root, Algorithm: "sha256", StartAt: 1})
	require.NoError(t, err)

	assert.Equal(t, []string{"b\t1\t" + sha256Hex("b")}, readLines(t, out))
}

func TestWriteAppend(t *testing.T) {
	root := t.TempDir()
	files := makeFiles(t, root, [2]string{"a", "a"}, [2]string{"b", "b"})
	out := filepath.Join(t.TempDir(), "report.tsv")

	_, err := Write(context.Background(), files[:1], out, Options{RelativeTo: root, Algorithm: "sha256"})
	require.NoError(t, err)
	_, err = Write(context.Background(), files, out, Options{RelativeTo: root, Algorithm: "sha256", StartAt: 1, Append: true})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"a\t1\t" + sha256Hex("a"),
		"b\t1\t" + sha256Hex("b"),
	}, readLines(t, out))
}

func TestWriteMissingFileContinues(t *testing.T) {
	root := t.TempDir()
	files := makeFiles(t, root, [2]string{"first", "1"}, [2]string{"gone", "2"}, [2]string{"last", "3"})
	require.NoError(t, os.Remove(files[1]))
	out := filepath.Join(t.TempDir(), "report.tsv")

	summary, err := Write(context.Background(), files, out, Options{RelativeTo: root, Algorithm: "sha256"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"first\t1\t" + sha256Hex("1"),
		"gone\tERROR - File not found",
		"last\t1\t" + sha256Hex("3"),
	}, readLines(t, out))
	assert.Equal(t, 3, summary.Lines)
	assert.Equal(t, 1, summary.Missing)
}

func TestWriteUnreadableFileStopsRun(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}

	root := t.TempDir()
	files := makeFiles(t, root, [2]string{"a", "a"}, [2]string{"locked", "b"}, [2]string{"c", "c"})
	require.NoError(t, os.Chmod(files[1], 0o000))
	t.Cleanup(func() { _ = os.Chmod(files[1], 0o644) })
	out := filepath.Join(t.TempDir(), "report.tsv")

	summary, err := Write(context.Background(), files, out, Options{RelativeTo: root, Algorithm: "sha256"})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrPermission)

	assert.Equal(t, []string{"a\t1\t" + sha256Hex("a")}, readLines(t, out))
	assert.Equal(t, 1, summary.Lines)
}

func TestWriteUnknownAlgorithm(t *testing.T) {
	root := t.TempDir()
	files := makeFiles(t, root, [2]string{"a", "a"})
	out := filepath.Join(t.TempDir(), "report.tsv")

	_, err := Write(context.Background(), files, out, Options{RelativeTo: root, Algorithm: "nope"})
	require.ErrorIs(t, err, digest.ErrUnsupportedAlgorithm)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriteNegativeStart(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.tsv")

	_, err := Write(context.Background(), nil, out, Options{StartAt: -1})
	require.ErrorIs(t, err, ErrNegativeStart)
}

func TestWriteCancelled(t *testing.T) {
	root := t.TempDir()
	files := makeFiles(t, root, [2]string{"a", "a"})
	out := filepath.Join(t.TempDir(), "report.tsv")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Write(ctx, files, out, Options{RelativeTo: root})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, readLines(t, out))
}

func TestLineString(t *testing.T) {
	assert.Equal(t, "a/b\t12\tff00\n", Line{Path: "a/b", Size: 12, Digest: "ff00"}.String())
	assert.Equal(t, "a/b\tERROR - File not found\n", Line{Path: "a/b", Missing: true}.String())
}
