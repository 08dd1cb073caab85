package snapshot_test

import (
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/egdaemon/soccf/internal/coverage"
	"github.com/egdaemon/soccf/internal/coverage/snapshot"
	"github.com/stretchr/testify/require"
)

const example = "soccf_coverage 0.1\n" +
	"statements\n" +
	"2\n" +
	"1 2\n" +
	"3 1\n" +
	"true_branches\n" +
	"2\n" +
	"2 1\n" +
	"4 1\n" +
	"false_branches\n" +
	"2\n" +
	"4 2\n" +
	"9 1\n"

func TestDecode(t *testing.T) {
	t.Run("example", func(t *testing.T) {
		s, err := snapshot.Decode(strings.NewReader(example))
		require.NoError(t, err)

		c := coverage.New()
		c.Load(s)

		require.NotContains(t, c.Statements(), coverage.ID(0))
		require.Equal(t, uint64(2), c.Statements()[1])
		require.Equal(t, uint64(1), c.Statements()[3])

		require.Equal(t, uint64(1), c.TrueBranches()[2])
		require.NotContains(t, c.FalseBranches(), coverage.ID(2))
		require.Equal(t, uint64(1), c.TrueBranches()[4])
		require.Equal(t, uint64(1), c.FalseBranches()[9])
		require.NotContains(t, c.TrueBranches(), coverage.ID(9))

		require.Equal(t, uint64(1), c.Branches()[4])
		require.NotContains(t, c.Branches(), coverage.ID(2))
		require.NotContains(t, c.Branches(), coverage.ID(9))
		require.NotContains(t, c.Branches(), coverage.ID(0))
	})

	t.Run("crlf_line_endings", func(t *testing.T) {
		s, err := snapshot.Decode(strings.NewReader(strings.ReplaceAll(example, "\n", "\r\n")))
		require.NoError(t, err)
		require.Equal(t, coverage.Counts{1: 2, 3: 1}, s.Statements)
	})

	t.Run("empty_sections", func(t *testing.T) {
		s, err := snapshot.Decode(strings.NewReader("soccf_coverage 0.1\nstatements\n0\ntrue_branches\n0\nfalse_branches\n0\n"))
		require.NoError(t, err)
		require.Empty(t, s.Statements)
		require.Empty(t, s.TrueBranches)
		require.Empty(t, s.FalseBranches)
	})

	t.Run("trailing_blank_lines", func(t *testing.T) {
		_, err := snapshot.Decode(strings.NewReader(example + "\n\n"))
		require.NoError(t, err)
	})
}

func TestDecodeMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":              "",
		"unknown_version":    strings.Replace(example, "0.1", "0.2", 1),
		"wrong_signature":    strings.Replace(example, "soccf_coverage", "coverage", 1),
		"wrong_section":      strings.Replace(example, "true_branches", "branches", 1),
		"sections_reordered": strings.Replace(strings.Replace(example, "true_branches", "tmp", 1), "false_branches", "true_branches", 1),
		"invalid_count":      strings.Replace(example, "statements\n2", "statements\ntwo", 1),
		"negative_count":     strings.Replace(example, "statements\n2", "statements\n-2", 1),
		"truncated":          strings.TrimSuffix(example, "9 1\n"),
		"missing_separator":  strings.Replace(example, "1 2\n", "12\n", 1),
		"negative_id":        strings.Replace(example, "3 1\n", "-3 1\n", 1),
		"id_overflow":        strings.Replace(example, "3 1\n", "4294967296 1\n", 1),
		"invalid_count_line": strings.Replace(example, "3 1\n", "3 x\n", 1),
		"extra_field":        strings.Replace(example, "3 1\n", "3 1 1\n", 1),
		"duplicate_id":       strings.Replace(example, "3 1\n", "1 1\n", 1),
		"trailing_content":   example + "statements\n",
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := snapshot.Decode(strings.NewReader(raw))
			require.ErrorIs(t, err, snapshot.ErrFormat)

			var ferr *snapshot.FormatError
			require.True(t, errors.As(err, &ferr))
			require.Positive(t, ferr.Line)
		})
	}

	t.Run("reports_line", func(t *testing.T) {
		_, err := snapshot.Decode(strings.NewReader(strings.Replace(example, "true_branches", "branches", 1)))
		var ferr *snapshot.FormatError
		require.True(t, errors.As(err, &ferr))
		require.Equal(t, 6, ferr.Line)
	})
}

func TestEncode(t *testing.T) {
	t.Run("example", func(t *testing.T) {
		c := coverage.New()
		c.RecordStatement(1)
		c.RecordStatement(1)
		c.RecordStatement(3)
		c.RecordBranch(2, true)
		c.RecordBranch(4, true)
		c.RecordBranch(4, false)
		c.RecordBranch(4, false)
		c.RecordBranch(9, false)

		var buf bytes.Buffer
		require.NoError(t, snapshot.Encode(&buf, c.Snapshot()))
		require.Equal(t, example, buf.String())
	})

	t.Run("ascending_ids_regardless_of_insertion_order", func(t *testing.T) {
		c := coverage.New()
		for _, id := range []coverage.ID{100, 7, 42, 1, 99999, 8} {
			c.RecordStatement(id)
		}

		var buf bytes.Buffer
		require.NoError(t, snapshot.Encode(&buf, c.Snapshot()))
		require.Equal(t, "soccf_coverage 0.1\nstatements\n6\n1 1\n7 1\n8 1\n42 1\n100 1\n99999 1\ntrue_branches\n0\nfalse_branches\n0\n", buf.String())
	})

	t.Run("nil_maps_are_empty_sections", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, snapshot.Encode(&buf, coverage.Snapshot{}))
		require.Equal(t, "soccf_coverage 0.1\nstatements\n0\ntrue_branches\n0\nfalse_branches\n0\n", buf.String())
	})

	t.Run("surfaces_write_failures", func(t *testing.T) {
		require.Error(t, snapshot.Encode(failingWriter{}, coverage.Empty()))
	})

	t.Run("round_trip", func(t *testing.T) {
		c := coverage.New()
		for i := 0; i < 100; i++ {
			c.RecordStatement(coverage.ID(i * 7 % 31))
			c.RecordBranch(coverage.ID(i%13), i%3 == 0)
		}

		var buf bytes.Buffer
		require.NoError(t, snapshot.Encode(&buf, c.Snapshot()))
		s, err := snapshot.Decode(&buf)
		require.NoError(t, err)

		require.Equal(t, c.Statements(), s.Statements)
		require.Equal(t, c.TrueBranches(), s.TrueBranches)
		require.Equal(t, c.FalseBranches(), s.FalseBranches)
		require.Equal(t, c.Branches(), s.Branches())
	})
}

func TestFiles(t *testing.T) {
	t.Run("missing_file_is_empty", func(t *testing.T) {
		s, err := snapshot.ReadFile(filepath.Join(t.TempDir(), "missing.cov"), true)
		require.NoError(t, err)
		require.Empty(t, s.Statements)
		require.Empty(t, s.TrueBranches)
		require.Empty(t, s.FalseBranches)
		require.Empty(t, s.Branches())
	})

	t.Run("plain_file_matches_encoding", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "soccf.cov")
		s, err := snapshot.Decode(strings.NewReader(example))
		require.NoError(t, err)
		require.NoError(t, snapshot.WriteFile(path, false, s))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, example, string(raw))
	})

	t.Run("gzip_round_trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "soccf.cov.gz")
		s, err := snapshot.Decode(strings.NewReader(example))
		require.NoError(t, err)
		require.NoError(t, snapshot.WriteFile(path, true, s))

		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()
		gz, err := gzip.NewReader(f)
		require.NoError(t, err)
		var buf bytes.Buffer
		_, err = buf.ReadFrom(gz)
		require.NoError(t, err)
		require.Equal(t, example, buf.String())

		loaded, err := snapshot.ReadFile(path, true)
		require.NoError(t, err)
		require.Equal(t, s, loaded)
	})

	t.Run("repeated_writes_are_byte_identical", func(t *testing.T) {
		for _, compress := range []bool{false, true} {
			path := filepath.Join(t.TempDir(), "soccf.cov")
			s, err := snapshot.Decode(strings.NewReader(example))
			require.NoError(t, err)

			require.NoError(t, snapshot.WriteFile(path, compress, s))
			first, err := os.ReadFile(path)
			require.NoError(t, err)
			require.NoError(t, snapshot.WriteFile(path, compress, s))
			second, err := os.ReadFile(path)
			require.NoError(t, err)
			require.Equal(t, first, second)
		}
	})

	t.Run("no_temporary_files_left_behind", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, snapshot.WriteFile(filepath.Join(dir, "soccf.cov"), true, coverage.Empty()))
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
	})

	t.Run("corrupt_file_is_a_format_error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "soccf.cov")
		require.NoError(t, os.WriteFile(path, []byte("soccf_coverage 9.9\n"), 0600))
		_, err := snapshot.ReadFile(path, false)
		require.ErrorIs(t, err, snapshot.ErrFormat)
	})

	t.Run("plain_text_read_as_gzip_is_a_format_error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "soccf.cov.gz")
		require.NoError(t, os.WriteFile(path, []byte(example), 0600))
		_, err := snapshot.ReadFile(path, true)
		require.ErrorIs(t, err, snapshot.ErrFormat)
	})

	t.Run("truncated_gzip_is_a_format_error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "soccf.cov.gz")
		c := coverage.New()
		for i := 0; i < 2000; i++ {
			c.RecordStatement(coverage.ID(i))
		}
		require.NoError(t, snapshot.WriteFile(path, true, c.Snapshot()))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, raw[:len(raw)/2], 0600))

		_, err = snapshot.ReadFile(path, true)
		require.ErrorIs(t, err, snapshot.ErrFormat)
	})

	t.Run("gzip_checksum_mismatch_is_a_format_error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "soccf.cov.gz")
		s, err := snapshot.Decode(strings.NewReader(example))
		require.NoError(t, err)
		require.NoError(t, snapshot.WriteFile(path, true, s))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		// the trailer ends with the crc32 and length of the uncompressed data.
		raw[len(raw)-8] ^= 0xff
		require.NoError(t, os.WriteFile(path, raw, 0600))

		_, err = snapshot.ReadFile(path, true)
		require.ErrorIs(t, err, snapshot.ErrFormat)
	})

	t.Run("unwritable_destination", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "soccf.cov")
		require.Error(t, snapshot.WriteFile(path, false, coverage.Empty()))
	})

	t.Run("directory_is_not_readable", func(t *testing.T) {
		_, err := snapshot.ReadFile(t.TempDir(), false)
		require.Error(t, err)
		require.NotErrorIs(t, err, snapshot.ErrFormat)
	})
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}
