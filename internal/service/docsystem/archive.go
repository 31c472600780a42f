package docsystem

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/YugenJarwal13/InternalDMS/internal/config"
	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	docsysSvc "github.com/YugenJarwal13/InternalDMS/internal/domain/services/docsystem"
)

// ExpandArchive turns a zip archive into folder-structure entries so it can
// be fed to UploadFolderStructure. Directory records and OS metadata files
// are dropped. The returned func closes every opened entry.
//
// maxBytes bounds both a single entry and the sum of all entries once
// expanded. Declared sizes are checked up front; each entry's reader fails
// if the data runs past what its header declared.
//
// Examples:
//   - "report.pdf" → RelativePath "report.pdf"
//   - "project/src/main.go" → RelativePath "project/src/main.go"
//   - "__MACOSX/project/._main.go" → skipped
func ExpandArchive(ra io.ReaderAt, size, maxBytes int64) ([]docsysSvc.StructureEntry, func(), error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, nil, &domain.ValidationError{Message: fmt.Sprintf("invalid zip archive: %v", err)}
	}

	var opened []io.Closer
	closeAll := func() {
		for _, c := range opened {
			c.Close()
		}
	}

	var total uint64
	entries := make([]docsysSvc.StructureEntry, 0, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || isArchiveNoise(f.Name) {
			continue
		}
		if len(entries) == config.MaxUploadFiles {
			closeAll()
			return nil, nil, &domain.ValidationError{
				Message: fmt.Sprintf("zip archive has more than %d files", config.MaxUploadFiles),
			}
		}

		if f.UncompressedSize64 > uint64(maxBytes) {
			closeAll()
			return nil, nil, &domain.ValidationError{
				Message: fmt.Sprintf("%s expands to %d bytes, more than the %d allowed", f.Name, f.UncompressedSize64, maxBytes),
			}
		}
		total += f.UncompressedSize64
		if total > uint64(maxBytes) {
			closeAll()
			return nil, nil, &domain.ValidationError{
				Message: fmt.Sprintf("zip archive expands to more than %d bytes", maxBytes),
			}
		}

		rc, err := f.Open()
		if err != nil {
			closeAll()
			return nil, nil, &domain.ValidationError{Message: fmt.Sprintf("open %s in archive: %v", f.Name, err)}
		}
		opened = append(opened, rc)

		// Zip names always use "/", but some Windows tools write "\".
		entries = append(entries, docsysSvc.StructureEntry{
			RelativePath: strings.ReplaceAll(f.Name, `\`, "/"),
			Content:      newBoundedReader(rc, f.Name, int64(f.UncompressedSize64)),
		})
	}
	return entries, closeAll, nil
}

// boundedReader yields at most limit bytes and reports an error, rather
// than truncating, when the underlying entry holds more.
type boundedReader struct {
	r     io.Reader
	name  string
	limit int64
	n     int64
}

func newBoundedReader(r io.Reader, name string, limit int64) *boundedReader {
	return &boundedReader{r: io.LimitReader(r, limit+1), name: name, limit: limit}
}

func (b *boundedReader) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	b.n += int64(n)
	if b.n > b.limit {
		return 0, &domain.ValidationError{
			Message: fmt.Sprintf("%s in archive holds more data than its declared %d bytes", b.name, b.limit),
		}
	}
	return n, err
}

func isArchiveNoise(name string) bool {
	name = strings.ReplaceAll(name, `\`, "/")
	if strings.HasPrefix(name, "__MACOSX/") {
		return true
	}
	base := path.Base(name)
	return base == ".DS_Store" || base == "Thumbs.db" || strings.HasPrefix(base, "._")
}
