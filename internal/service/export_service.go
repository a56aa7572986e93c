package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sourcehire/talent-api/internal/dto"
	"github.com/sourcehire/talent-api/internal/models"
	"github.com/sourcehire/talent-api/pkg/config"
	appErrors "github.com/sourcehire/talent-api/pkg/errors"
	"github.com/sourcehire/talent-api/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var exportHeaders = []string{"Position", "Name", "Title", "Country", "City", "Rating", "Status", "Notes", "Added"}

// ExportFile is a rendered bucket export ready to stream to the client.
type ExportFile struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders a bucket's items as downloadable files. Only the
// public projection and the recruiter's own metadata are exported; private
// contact data stays behind the unlock endpoints.
type ExportService struct {
	buckets bucketStore
	items   bucketItemStore
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	enabled bool
	maxRows int
	logger  *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(buckets bucketStore, items bucketItemStore, cfg config.ExportsConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 1000
	}
	return &ExportService{
		buckets: buckets,
		items:   items,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		enabled: cfg.Enabled,
		maxRows: cfg.MaxRows,
		logger:  logger,
	}
}

// ExportBucket renders the bucket's items in display order as CSV or PDF.
func (s *ExportService) ExportBucket(ctx context.Context, ownerID, bucketID, format string) (*ExportFile, error) {
	if !s.enabled {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "exports are disabled")
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	bucket, err := s.buckets.FindByID(ctx, bucketID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "bucket not found")
		}
		return nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to load bucket")
	}
	if bucket.OwnerID != ownerID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "bucket not found")
	}

	views, _, err := s.items.ListItems(ctx, bucket.ID, dto.BucketItemQuery{
		Page:     1,
		PageSize: s.maxRows,
		SortBy:   models.BucketItemSortDisplayOrder,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, "INTERNAL_ERROR", 500, "failed to load bucket items")
	}

	dataset := export.Dataset{Headers: exportHeaders, Rows: make([]map[string]string, 0, len(views))}
	for _, view := range views {
		rating := ""
		if view.Rating != nil {
			rating = strconv.Itoa(*view.Rating)
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Position": strconv.Itoa(view.DisplayOrder + 1),
			"Name":     view.DisplayName,
			"Title":    view.Title,
			"Country":  view.Country,
			"City":     view.City,
			"Rating":   rating,
			"Status":   view.Status,
			"Notes":    view.Notes,
			"Added":    view.AddedAt.Format("2006-01-02"),
		})
	}

	base := sanitizeFilename(bucket.Name)
	switch format {
	case ExportFormatCSV:
		content, renderErr := s.csv.Render(dataset)
		if renderErr != nil {
			return nil, appErrors.Wrap(renderErr, "INTERNAL_ERROR", 500, "failed to render csv")
		}
		return &ExportFile{Content: content, ContentType: "text/csv", Filename: base + ".csv"}, nil
	default:
		content, renderErr := s.pdf.Render(dataset, bucket.Name)
		if renderErr != nil {
			return nil, appErrors.Wrap(renderErr, "INTERNAL_ERROR", 500, "failed to render pdf")
		}
		return &ExportFile{Content: content, ContentType: "application/pdf", Filename: base + ".pdf"}, nil
	}
}

func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "bucket_export"
	}
	return b.String()
}
