package snapshot

import (
	"compress/flate"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/egdaemon/soccf/internal/coverage"
	"github.com/egdaemon/soccf/internal/errorsx"
	"github.com/gofrs/uuid"
)

// ReadFile loads the snapshot stored at path. a missing file is the first run
// and results in an empty snapshot.
func ReadFile(path string, compress bool) (_ coverage.Snapshot, err error) {
	var (
		f   *os.File
		src io.Reader
	)

	if f, err = os.Open(path); errors.Is(err, fs.ErrNotExist) {
		return coverage.Empty(), nil
	} else if err != nil {
		return coverage.Empty(), errorsx.Wrapf(err, "unable to open snapshot: %s", path)
	}
	defer f.Close()

	src = f
	if compress {
		gz, err := gzip.NewReader(f)
		if errors.Is(err, io.EOF) || corrupted(err) {
			return coverage.Empty(), errorsx.Wrapf(&FormatError{Reason: "not a gzip stream"}, "unable to decompress snapshot: %s", path)
		} else if err != nil {
			return coverage.Empty(), errorsx.Wrapf(err, "unable to decompress snapshot: %s", path)
		}
		defer gz.Close()
		src = gz
	}

	s, err := Decode(src)
	if compress && corrupted(err) {
		return coverage.Empty(), errorsx.Wrapf(&FormatError{Reason: "corrupt gzip stream: " + err.Error()}, "unable to decompress snapshot: %s", path)
	} else if err != nil {
		return coverage.Empty(), errorsx.Wrapf(err, "unable to decode snapshot: %s", path)
	}

	return s, nil
}

// corrupted reports errors raised by a damaged gzip stream.
func corrupted(err error) bool {
	var cerr flate.CorruptInputError
	return errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, gzip.ErrChecksum) ||
		errors.Is(err, gzip.ErrHeader) ||
		errors.As(err, &cerr)
}

// WriteFile replaces the file at path with the encoded snapshot. the content
// is written to a temporary file within the same directory and renamed into
// place once it is durable.
func WriteFile(path string, compress bool, s coverage.Snapshot) (err error) {
	var (
		dst *os.File
	)

	tmp := fmt.Sprintf("%s.%s.tmp", path, uuid.Must(uuid.NewV7()).String())
	if dst, err = os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644); err != nil {
		return errorsx.Wrapf(err, "unable to create snapshot: %s", tmp)
	}

	defer func() {
		if err == nil {
			return
		}

		if cause := dst.Close(); !errors.Is(cause, os.ErrClosed) {
			errorsx.MaybeLog(cause)
		}
		errorsx.MaybeLog(os.Remove(tmp))
	}()

	if err = encode(dst, compress, s); err != nil {
		return errorsx.Wrapf(err, "unable to write snapshot: %s", tmp)
	}

	if err = dst.Sync(); err != nil {
		return errorsx.Wrapf(err, "unable to sync snapshot: %s", tmp)
	}

	if err = dst.Close(); err != nil {
		return errorsx.Wrapf(err, "unable to close snapshot: %s", tmp)
	}

	if err = os.Rename(tmp, path); err != nil {
		return errorsx.Wrapf(err, "unable to replace snapshot: %s", path)
	}

	return nil
}

func encode(dst io.Writer, compress bool, s coverage.Snapshot) error {
	if !compress {
		return Encode(dst, s)
	}

	gz := gzip.NewWriter(dst)
	return errorsx.Compact(
		Encode(gz, s),
		errorsx.Wrap(gz.Close(), "unable to finish gzip stream"),
	)
}
