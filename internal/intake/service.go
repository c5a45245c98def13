package intake

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/formintake/formintake/internal/convert"
	"github.com/formintake/formintake/internal/fields"
)

// Options configures a Service
type Options struct {
	// MaxFileSize caps documents in bytes.
	MaxFileSize int64
	// IntakeDir is the directory file operations are confined to.
	IntakeDir string
	// CacheTTL is how long extraction results stay cached; zero
	// disables caching.
	CacheTTL time.Duration
	// CleanupInterval is how often expired cache entries are swept.
	CleanupInterval time.Duration
	// Dictionary overrides the built-in pattern dictionary when set.
	Dictionary *fields.Dictionary
}

// Service orchestrates the intake pipeline: path security, validation,
// conversion, extraction, and caching
type Service struct {
	maxFileSize   int64
	engine        *convert.Engine
	extractor     *fields.Extractor
	validator     *Validator
	scanner       *Scanner
	cache         *ResultCache
	pathValidator *PathValidator
}

// NewService creates an intake service with all components wired
func NewService(opts Options) (*Service, error) {
	pathValidator, err := NewPathValidator(opts.IntakeDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	dict := opts.Dictionary
	if dict == nil {
		dict = fields.DefaultDictionary()
	}

	engine := convert.NewEngine(opts.MaxFileSize)
	validator := NewValidator(opts.MaxFileSize, engine)

	var cache *ResultCache
	if opts.CacheTTL > 0 {
		cleanup := opts.CleanupInterval
		if cleanup <= 0 {
			cleanup = opts.CacheTTL
		}
		cache = NewResultCache(opts.CacheTTL, cleanup)
	}

	return &Service{
		maxFileSize:   opts.MaxFileSize,
		engine:        engine,
		extractor:     fields.NewExtractor(dict),
		validator:     validator,
		scanner:       NewScanner(engine, validator),
		cache:         cache,
		pathValidator: pathValidator,
	}, nil
}

// ExtractFile converts a document and extracts its form fields. A
// cache hit for the same file version skips both steps.
func (s *Service) ExtractFile(req ExtractFileRequest) (*ExtractFileResult, error) {
	if err := s.pathValidator.ValidatePath(req.Path); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	return s.extract(req.Path)
}

// DetectType identifies which known form a document renders
func (s *Service) DetectType(req DetectTypeRequest) (*DetectTypeResult, error) {
	if err := s.pathValidator.ValidatePath(req.Path); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	extracted, err := s.extract(req.Path)
	if err != nil {
		return nil, err
	}

	return &DetectTypeResult{
		Path:      extracted.Path,
		FormType:  extracted.Result.FormType,
		FormTitle: extracted.Result.FormType.DisplayName(),
	}, nil
}

// ValidateFile checks a document file and reports the verdict
func (s *Service) ValidateFile(req ValidateFileRequest) (*ValidateFileResult, error) {
	if err := s.pathValidator.ValidatePath(req.Path); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	return s.validator.ValidateFile(req)
}

// ScanDirectory lists the supported documents in a directory, the
// configured intake directory when none is given
func (s *Service) ScanDirectory(req ScanDirectoryRequest) (*ScanDirectoryResult, error) {
	if req.Directory == "" {
		req.Directory = s.pathValidator.IntakeDirectory()
	}
	if err := s.pathValidator.ValidateDirectory(req.Directory); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	return s.scanner.ScanDirectory(req)
}

// extract runs the conversion and extraction pipeline behind the cache
func (s *Service) extract(path string) (*ExtractFileResult, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}
	if err := s.validator.ValidateFileInfo(absPath, info); err != nil {
		return nil, err
	}

	var key string
	if s.cache != nil {
		key = CacheKey(absPath, info)
		if cached, found := s.cache.Get(key); found {
			hit := *cached
			hit.CacheHit = true
			return &hit, nil
		}
	}

	doc, err := s.engine.Convert(absPath)
	if err != nil {
		return nil, err
	}

	extracted := &ExtractFileResult{
		Path:   absPath,
		Name:   doc.Name,
		Format: doc.Format,
		Pages:  doc.Pages,
		Result: s.extractor.Extract(doc.Text),
	}

	if s.cache != nil {
		s.cache.Set(key, extracted)
	}
	return extracted, nil
}

// Extractor returns the field extractor the service runs
func (s *Service) Extractor() *fields.Extractor {
	return s.extractor
}

// Engine returns the conversion engine
func (s *Service) Engine() *convert.Engine {
	return s.engine
}

// IntakeDirectory returns the configured intake directory
func (s *Service) IntakeDirectory() string {
	return s.pathValidator.IntakeDirectory()
}

// MaxFileSize returns the maximum accepted file size in bytes
func (s *Service) MaxFileSize() int64 {
	return s.maxFileSize
}

// SupportedExtensions returns the file extensions the engine accepts
func (s *Service) SupportedExtensions() []string {
	return s.engine.SupportedExtensions()
}

// CachedResults returns the number of cached extractions
func (s *Service) CachedResults() int {
	if s.cache == nil {
		return 0
	}
	return s.cache.ItemCount()
}
