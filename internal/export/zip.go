package export

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pders01/polarstock/internal/config"
	"github.com/pders01/polarstock/internal/debuglog"
	"github.com/pders01/polarstock/internal/supply"
	"github.com/pders01/polarstock/internal/validation"
)

var ErrNothingToExport = errors.New("no slots selected for export")

// maxImageBytes caps a single downloaded image.
const maxImageBytes = 50 << 20

var _ supply.Exporter = (*ZipExporter)(nil)

// ZipExporter writes selected slots and a manifest into a ZIP archive.
type ZipExporter struct {
	dir       string
	userAgent string
	client    *http.Client
	urls      *validation.URLValidator
	paths     *validation.FilePathValidator
	now       func() time.Time
	log       *debuglog.FieldLogger
}

type Option func(*ZipExporter)

func WithHTTPClient(c *http.Client) Option {
	return func(e *ZipExporter) {
		e.client = c
	}
}

// WithURLValidator replaces the validator used for remote image references.
func WithURLValidator(v *validation.URLValidator) Option {
	return func(e *ZipExporter) {
		e.urls = v
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *ZipExporter) {
		e.now = now
	}
}

func NewZipExporter(cfg *config.Config, opts ...Option) *ZipExporter {
	e := &ZipExporter{
		dir:       cfg.Export.Directory,
		userAgent: cfg.Provider.UserAgent,
		client:    &http.Client{Timeout: cfg.Provider.HTTPTimeout},
		urls:      validation.NewURLValidator(),
		paths:     validation.NewFilePathValidator(),
		now:       time.Now,
		log:       debuglog.Component("export"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type manifest struct {
	CreatedAt   time.Time                  `json:"created_at"`
	Compression supply.CompressionSettings `json:"compression"`
	Items       []manifestItem             `json:"items"`
}

type manifestItem struct {
	SlotID     int    `json:"slot_id"`
	File       string `json:"file"`
	Source     string `json:"source"`
	Edited     bool   `json:"edited"`
	PhotoID    string `json:"photo_id"`
	Author     string `json:"author,omitempty"`
	ProfileURL string `json:"profile_url,omitempty"`
	PageURL    string `json:"page_url,omitempty"`
	Alt        string `json:"alt,omitempty"`
}

// Export writes one image-N entry per item plus manifest.json and returns
// the archive path. A failed export leaves no partial archive behind.
func (e *ZipExporter) Export(ctx context.Context, items []supply.ExportItem, settings supply.CompressionSettings) (string, error) {
	if len(items) == 0 {
		return "", ErrNothingToExport
	}

	dir, err := e.paths.ValidateDirectory(e.dir, true)
	if err != nil {
		return "", fmt.Errorf("invalid export directory: %w", err)
	}

	created := e.now()
	final := filepath.Join(dir, fmt.Sprintf("polarstock-%s.zip", created.Format("20060102-150405")))

	tmp, err := os.CreateTemp(dir, ".polarstock-*.zip.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	zw := zip.NewWriter(tmp)
	m := manifest{CreatedAt: created.UTC(), Compression: settings}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			_ = tmp.Close()
			return "", err
		}
		name := entryName(item)
		if err := e.writeItem(ctx, zw, name, item.Reference); err != nil {
			_ = tmp.Close()
			return "", fmt.Errorf("slot %d: %w", item.SlotID, err)
		}
		m.Items = append(m.Items, manifestItem{
			SlotID:     item.SlotID,
			File:       name,
			Source:     item.Reference,
			Edited:     item.Edited,
			PhotoID:    item.Photo.ID,
			Author:     item.Photo.Attribution.Author,
			ProfileURL: item.Photo.Attribution.ProfileURL,
			PageURL:    item.Photo.PageURL,
			Alt:        item.Photo.Alt,
		})
	}

	w, err := zw.Create("manifest.json")
	if err != nil {
		_ = tmp.Close()
		return "", err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}

	if err := zw.Close(); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to finish archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to finish archive: %w", err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		return "", fmt.Errorf("failed to move archive into place: %w", err)
	}
	tmpName = ""

	e.log.With("path", final).Infof("exported %d images", len(items))
	return final, nil
}

func (e *ZipExporter) writeItem(ctx context.Context, zw *zip.Writer, name, ref string) error {
	src, err := e.open(ctx, ref)
	if err != nil {
		return err
	}
	defer src.Close()

	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	n, err := io.Copy(w, io.LimitReader(src, maxImageBytes+1))
	if err != nil {
		return fmt.Errorf("failed to copy image: %w", err)
	}
	if n > maxImageBytes {
		return fmt.Errorf("image larger than %d bytes", maxImageBytes)
	}
	return nil
}

func (e *ZipExporter) open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if isRemote(ref) {
		u, err := e.urls.ValidateAndNormalize(ref)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		if e.userAgent != "" {
			req.Header.Set("User-Agent", e.userAgent)
		}
		resp, err := e.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to download image: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
		}
		return resp.Body, nil
	}

	p, err := e.paths.ValidateAndSanitize(ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("failed to read edited image: %w", err)
	}
	return f, nil
}

// entryName is image-N with the reference's extension, .jpg when unknown.
func entryName(item supply.ExportItem) string {
	ref := item.Reference
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	ext := strings.ToLower(path.Ext(ref))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		ext = ".jpg"
	}
	return fmt.Sprintf("image-%d%s", item.SlotID, ext)
}

func isRemote(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
