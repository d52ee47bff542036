package filehandler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/thvl3/scrubkit/pkg/imaging"
	"github.com/thvl3/scrubkit/pkg/models"
)

/*
File explanation:
This file provides raw byte access for the scrubber and palette extractor.
Open reads a local file into a models.File with its declared mime type.
Download fetches a URL into memory under the same size limit.
OpenSource accepts a path, an http(s) URL or a data: URL.
GatherFiles lists the images in a directory, optionally recursively.
SaveFile and OutputPath write scrubbed results next to, or away from, their source.
*/

// DefaultMaxSize is the largest file accepted (100MB)
const DefaultMaxSize = 100 * 1024 * 1024

// DefaultTimeout bounds a download
const DefaultTimeout = 60 * time.Second

// ErrTooLarge is returned when an input exceeds the size limit
var ErrTooLarge = errors.New("filehandler: file too large")

// SupportedImageFormats maps file extensions to their declared mime types
var SupportedImageFormats = map[string]string{
	".png":  imaging.TypePNG,
	".jpg":  imaging.TypeJPEG,
	".jpeg": imaging.TypeJPEG,
	".jpe":  imaging.TypeJPEG,
	".jfif": imaging.TypeJPEG,
	".gif":  imaging.TypeGIF,
	".bmp":  imaging.TypeBMP,
	".tif":  imaging.TypeTIFF,
	".tiff": imaging.TypeTIFF,
	".webp": imaging.TypeWebP,
}

// Extension returns the file extension written for a mime type, or an empty
// string for types the codec cannot produce.
func Extension(mimeType string) string {
	switch imaging.NormalizeType(mimeType) {
	case imaging.TypeJPEG:
		return ".jpg"
	case imaging.TypePNG:
		return ".png"
	case imaging.TypeGIF:
		return ".gif"
	case imaging.TypeBMP:
		return ".bmp"
	case imaging.TypeTIFF:
		return ".tiff"
	case imaging.TypeWebP:
		return ".webp"
	}
	return ""
}

// TypeForFormat resolves a format given as a mime type ("image/png") or a
// bare extension ("png", ".jpg") to its mime type.
func TypeForFormat(format string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	if strings.Contains(f, "/") {
		return imaging.NormalizeType(f), nil
	}
	if !strings.HasPrefix(f, ".") {
		f = "." + f
	}
	if t, ok := SupportedImageFormats[f]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", imaging.ErrUnsupportedType, format)
}

// RenamedOutput builds the name of a derived file: prefix + stem + suffix,
// with the extension of mimeType.
func RenamedOutput(name, prefix, suffix, mimeType string) string {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	ext := Extension(mimeType)
	if ext == "" {
		ext = filepath.Ext(base)
	}
	return prefix + stem + suffix + ext
}

// Handler reads inputs under a size limit
type Handler struct {
	MaxSize int64
	Client  *http.Client
}

// New returns a handler with the given limit and download timeout. Zero
// values select the defaults.
func New(maxSize int64, timeout time.Duration) *Handler {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Handler{
		MaxSize: maxSize,
		Client:  &http.Client{Timeout: timeout},
	}
}

// Open reads a local file and declares its mime type from the extension,
// falling back to content sniffing.
func (h *Handler) Open(filePath string) (models.File, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return models.File{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return models.File{}, fmt.Errorf("failed to get file info: %w", err)
	}
	if info.IsDir() {
		return models.File{}, fmt.Errorf("%s is a directory", filePath)
	}
	if info.Size() > h.MaxSize {
		return models.File{}, fmt.Errorf("%w: %s is %d bytes (max %d)", ErrTooLarge, filePath, info.Size(), h.MaxSize)
	}

	content := make([]byte, info.Size())
	if _, err := io.ReadFull(file, content); err != nil {
		return models.File{}, fmt.Errorf("failed to read file: %w", err)
	}

	return models.File{
		Name: filepath.Base(filePath),
		Type: DetectType(filePath, content),
		Data: content,
	}, nil
}

// DetectType declares a mime type from the extension of name, or from
// the leading bytes of content when the extension is not recognised.
func DetectType(name string, content []byte) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := SupportedImageFormats[ext]; ok {
		return t
	}
	head := content
	if len(head) > 512 {
		head = head[:512]
	}
	return imaging.NormalizeType(http.DetectContentType(head))
}

// IsURL checks if the given string is an http(s) URL
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Download fetches a URL into memory
func (h *Handler) Download(ctx context.Context, rawURL string) (models.File, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return models.File{}, fmt.Errorf("failed to build request: %w", err)
	}

	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return models.File{}, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.File{}, fmt.Errorf("bad status: %s", resp.Status)
	}
	if resp.ContentLength > h.MaxSize {
		return models.File{}, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, resp.ContentLength, h.MaxSize)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, h.MaxSize+1))
	if err != nil {
		return models.File{}, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(content)) > h.MaxSize {
		return models.File{}, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, h.MaxSize)
	}

	name := "downloaded_file"
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "/" && base != "." {
			name = base
		}
	}

	fileType := ""
	if t, ok := SupportedImageFormats[strings.ToLower(path.Ext(name))]; ok {
		fileType = t
	} else if ct := resp.Header.Get("Content-Type"); strings.HasPrefix(ct, "image/") {
		fileType = imaging.NormalizeType(ct)
	} else {
		fileType = DetectType(name, content)
	}

	return models.File{Name: name, Type: fileType, Data: content}, nil
}

// OpenSource reads a local path, an http(s) URL or a data: URL
func (h *Handler) OpenSource(ctx context.Context, src string) (models.File, error) {
	switch {
	case imaging.IsDataURL(src):
		data, mimeType, err := imaging.ParseDataURL(src)
		if err != nil {
			return models.File{}, err
		}
		if int64(len(data)) > h.MaxSize {
			return models.File{}, fmt.Errorf("%w: data URL is %d bytes", ErrTooLarge, len(data))
		}
		return models.File{Name: "data-url", Type: mimeType, Data: data}, nil
	case IsURL(src):
		return h.Download(ctx, src)
	default:
		return h.Open(src)
	}
}

// IsImageFile checks if a file is an image based on extension
func IsImageFile(filePath string) bool {
	_, ok := SupportedImageFormats[strings.ToLower(filepath.Ext(filePath))]
	return ok
}

// GatherFiles collects the image files in a directory, sorted by path
func GatherFiles(dirPath string, recursive bool) ([]string, error) {
	info, err := os.Stat(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dirPath)
	}

	var files []string
	err = filepath.WalkDir(dirPath, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != dirPath && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if IsImageFile(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	sort.Strings(files)
	return files, nil
}

// OutputPath returns where the scrubbed copy of name is written: prefix
// joined to the base name, inside dir.
func OutputPath(dir, prefix, name string) string {
	return filepath.Join(dir, prefix+filepath.Base(name))
}

// SaveFile saves data to a file, creating its directory
func SaveFile(data []byte, filePath string) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	return nil
}
