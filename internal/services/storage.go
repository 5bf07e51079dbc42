package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Thagi/paper-scope/internal/domain"
	"github.com/Thagi/paper-scope/internal/platform/logger"
)

const (
	pdfFileName      = "paper.pdf"
	metadataFileName = "metadata.json"
)

// StorageService manages the on-disk layout for downloaded papers:
// <root>/<source>/<year>/<storage key>/ holding the PDF and a metadata
// manifest of the record plus its latest analysis.
type StorageService struct {
	root string
	log  *logger.Logger
}

func NewStorageService(root string, log *logger.Logger) (*StorageService, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	return &StorageService{root: root, log: log.With("service", "StorageService")}, nil
}

// PaperDirectory computes (and creates) the directory for a paper's assets.
func (s *StorageService) PaperDirectory(record domain.PaperRecord) (string, error) {
	published := time.Now().UTC()
	if record.PublishedAt != nil {
		published = *record.PublishedAt
	}
	dir := filepath.Join(s.root, record.Source, published.Format("2006"), record.StorageKey())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: create paper directory: %w", err)
	}
	return dir, nil
}

func (s *StorageService) PDFPath(record domain.PaperRecord) (string, error) {
	dir, err := s.PaperDirectory(record)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, pdfFileName), nil
}

// PDFPathIn returns the PDF location inside an already known paper directory.
func (s *StorageService) PDFPathIn(directory string) string {
	return filepath.Join(directory, pdfFileName)
}

type metadataManifest struct {
	Record   domain.PaperRecord `json:"record"`
	Analysis *domain.Analysis   `json:"analysis"`
}

// WriteMetadata persists the record and enrichment payload next to the PDF.
func (s *StorageService) WriteMetadata(record domain.PaperRecord, analysis *domain.Analysis) (string, error) {
	dir, err := s.PaperDirectory(record)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(metadataManifest{Record: record, Analysis: analysis}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("storage: encode metadata: %w", err)
	}
	path := filepath.Join(dir, metadataFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write metadata: %w", err)
	}
	return path, nil
}

// LoadRecord reads the paper record back from a stored manifest. Returns nil
// when the manifest is missing, so callers can treat absence as "cannot
// regenerate" rather than a hard failure.
func (s *StorageService) LoadRecord(directory string) (*domain.PaperRecord, error) {
	data, err := os.ReadFile(filepath.Join(directory, metadataFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: read metadata: %w", err)
	}
	var manifest metadataManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("storage: decode metadata: %w", err)
	}
	if manifest.Record.ExternalID == "" {
		return nil, nil
	}
	return &manifest.Record, nil
}
