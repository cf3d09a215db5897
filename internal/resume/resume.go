package resume

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"github.com/amishk599/coldmail/internal/model"
)

// Load reads the file at path into a Resume.
// declaredType, when non-empty, is used as the media type verbatim; otherwise
// the type is detected from the file content.
func Load(path string, declaredType string) (*model.Resume, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("load resume: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("load resume: %s is a directory", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load resume: %w", err)
	}

	mediaType := declaredType
	if mediaType == "" {
		mediaType = DetectMediaType(data)
	}

	return &model.Resume{
		Name:      filepath.Base(path),
		MediaType: mediaType,
		Data:      data,
	}, nil
}

// DetectMediaType sniffs data. Parameters such as charset are kept.
func DetectMediaType(data []byte) string {
	return mimetype.Detect(data).String()
}
