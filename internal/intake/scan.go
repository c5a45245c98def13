package intake

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/formintake/formintake/internal/convert"
)

// Scanner discovers supported documents in a directory tree
type Scanner struct {
	engine    *convert.Engine
	validator *Validator
}

// NewScanner creates a scanner over the engine's supported formats
func NewScanner(engine *convert.Engine, validator *Validator) *Scanner {
	return &Scanner{
		engine:    engine,
		validator: validator,
	}
}

// ScanDirectory lists the supported documents under a directory,
// optionally filtered by a fuzzy filename query
func (s *Scanner) ScanDirectory(req ScanDirectoryRequest) (*ScanDirectoryResult, error) {
	if req.Directory == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}
	if _, err := os.Stat(req.Directory); os.IsNotExist(err) {
		return nil, fmt.Errorf("directory does not exist: %s", req.Directory)
	}

	absDirectory, err := filepath.Abs(req.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}

	query := strings.ToLower(strings.TrimSpace(req.Query))
	files := []FileInfo{}

	err = filepath.Walk(absDirectory, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// Continue walking even if one entry fails.
			return nil //nolint:nilerr
		}
		if info.IsDir() {
			// Hidden directories are skipped wholesale.
			if strings.HasPrefix(info.Name(), ".") && path != absDirectory {
				return filepath.SkipDir
			}
			return nil
		}
		if !s.engine.Supports(info.Name()) {
			return nil
		}
		if err := s.validator.ValidateFileInfo(path, info); err != nil {
			// Unusable files are skipped, not reported.
			return nil //nolint:nilerr
		}
		if query != "" && !matchesQuery(info.Name(), query) {
			return nil
		}

		files = append(files, FileInfo{
			Path:         path,
			Name:         info.Name(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory: %w", err)
	}

	return &ScanDirectoryResult{
		Files:       files,
		TotalCount:  len(files),
		Directory:   absDirectory,
		SearchQuery: req.Query,
	}, nil
}

// FindDocumentsLimited lists up to limit supported documents, for
// overview listings that must stay cheap on big directories
func (s *Scanner) FindDocumentsLimited(directory string, limit int) ([]FileInfo, error) {
	if directory == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}
	if _, err := os.Stat(directory); os.IsNotExist(err) {
		return nil, fmt.Errorf("directory does not exist: %s", directory)
	}

	absDirectory, err := filepath.Abs(directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}

	files := []FileInfo{}
	err = filepath.WalkDir(absDirectory, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != absDirectory {
				return filepath.SkipDir
			}
			return nil
		}
		if limit > 0 && len(files) >= limit {
			return filepath.SkipAll
		}
		if !s.engine.Supports(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr
		}
		if err := s.validator.ValidateFileInfo(path, info); err != nil {
			return nil //nolint:nilerr
		}

		files = append(files, FileInfo{
			Path:         path,
			Name:         info.Name(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory: %w", err)
	}

	return files, nil
}

// CountDocuments counts the supported documents under a directory
func (s *Scanner) CountDocuments(directory string) (int, error) {
	result, err := s.ScanDirectory(ScanDirectoryRequest{Directory: directory})
	if err != nil {
		return 0, err
	}
	return result.TotalCount, nil
}

// matchesQuery performs fuzzy matching on the filename: substring
// first, then word-wise containment with every query word required
func matchesQuery(filename, query string) bool {
	if query == "" {
		return true
	}

	name := strings.ToLower(filename)
	if strings.Contains(name, query) {
		return true
	}

	nameWithoutExt := strings.TrimSuffix(name, filepath.Ext(name))
	if strings.Contains(nameWithoutExt, query) {
		return true
	}

	words := splitIntoWords(nameWithoutExt)
	for _, queryWord := range splitIntoWords(query) {
		found := false
		for _, word := range words {
			if strings.Contains(word, queryWord) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// splitIntoWords splits on the separators that show up in scanned
// document filenames
func splitIntoWords(text string) []string {
	separators := []string{" ", "_", "-", ".", "(", ")", "[", "]"}

	words := []string{text}
	for _, sep := range separators {
		var next []string
		for _, word := range words {
			for _, part := range strings.Split(word, sep) {
				if part != "" {
					next = append(next, strings.ToLower(part))
				}
			}
		}
		words = next
	}
	return words
}
