// Package images normaliza y guarda las imágenes subidas de los produtos.
package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"produtos-api/internal/models"
	"produtos-api/internal/pkg/clock"
)

const (
	DefaultMaxBytes = 5 * 1024 * 1024
	Size            = 400
	JPEGQuality     = 85
)

var allowedMime = regexp.MustCompile(`/(jpg|jpeg|png|gif)$`)

// Config define dónde se escriben los archivos y con qué prefijo se publican
type Config struct {
	Dir        string
	PublicPath string
	MaxBytes   int64
}

type Processor struct {
	dir        string
	publicPath string
	maxBytes   int64
	clock      clock.Clock
}

// NewProcessor crea el directorio de uploads si no existe
func NewProcessor(cfg Config, clk clock.Clock) (*Processor, error) {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", cfg.Dir, err)
	}

	return &Processor{
		dir:        cfg.Dir,
		publicPath: "/" + strings.Trim(cfg.PublicPath, "/"),
		maxBytes:   cfg.MaxBytes,
		clock:      clk,
	}, nil
}

// Store valida, recorta a 400x400 (cover, centrado) y guarda la imagen como JPEG.
// Retorna la ruta pública del archivo.
func (p *Processor) Store(ctx context.Context, data []byte, mimeType string) (string, error) {
	if !allowedMime.MatchString(strings.ToLower(mimeType)) {
		return "", models.NewValidationError("image", "only jpg, jpeg, png and gif images are allowed")
	}
	if int64(len(data)) > p.maxBytes {
		return "", models.NewValidationError("image", fmt.Sprintf("image exceeds the %d bytes limit", p.maxBytes))
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", models.NewValidationError("image", "image could not be decoded")
	}
	thumb := imaging.Fill(img, Size, Size, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}

	name := p.filename()
	if err := os.WriteFile(filepath.Join(p.dir, name), buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write image %s: %w", name, err)
	}

	return path.Join(p.publicPath, name), nil
}

// Delete borra el archivo referenciado por storedPath. Nunca falla: un archivo
// inexistente solo genera un warning.
func (p *Processor) Delete(_ context.Context, storedPath string) {
	if storedPath == "" {
		return
	}

	file, ok := p.resolve(storedPath)
	if !ok {
		log.Printf("⚠️ image %q is outside %s, not deleting", storedPath, p.publicPath)
		return
	}

	if err := os.Remove(file); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Printf("⚠️ image %s already removed", file)
			return
		}
		log.Printf("⚠️ could not remove image %s: %v", file, err)
	}
}

// resolve traduce la ruta pública a una ruta dentro de dir
func (p *Processor) resolve(storedPath string) (string, bool) {
	rel, ok := strings.CutPrefix(storedPath, p.publicPath+"/")
	if !ok || rel == "" || rel != path.Base(rel) || rel == ".." {
		return "", false
	}
	return filepath.Join(p.dir, rel), true
}

func (p *Processor) filename() string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%d-%s.jpg", p.clock.Now().UnixMilli(), random)
}
