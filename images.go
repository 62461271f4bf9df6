package jobscope

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
)

const (
	ogImageWidth  = 1200
	jpegQuality   = 82
	maxUploadSize = 10 << 20 // 10MB
	maxPixels     = 40_000_000
	uploadsSubdir = "uploads"
)

// ErrImageTooLarge is returned for images whose declared dimensions exceed
// maxPixels. The header is checked before any pixel data is decoded.
var ErrImageTooLarge = errors.New("image dimensions too large")

// processImage decodes an upload, scales it down to ogImageWidth when wider,
// and re-encodes it as JPEG.
func processImage(src io.Reader) (image.Image, []byte, error) {
	var head bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(src, &head))
	if err != nil {
		return nil, nil, fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxPixels {
		return nil, nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(io.MultiReader(&head, src))
	if err != nil {
		return nil, nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > ogImageWidth {
		newH := h * ogImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, ogImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return img, buf.Bytes(), nil
}

func (a *App) uploadsDir() string {
	return filepath.Join(a.staticDir, uploadsSubdir)
}

// uniqueFilename picks name.jpg, or name-2.jpg, name-3.jpg... if taken.
func (a *App) uniqueFilename(original string) string {
	base := Slugify(strings.TrimSuffix(original, filepath.Ext(original)))
	if base == "" {
		base = "image"
	}
	candidate := base + ".jpg"
	for n := 2; ; n++ {
		if _, err := os.Stat(filepath.Join(a.uploadsDir(), candidate)); errors.Is(err, os.ErrNotExist) {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d.jpg", base, n)
	}
}

// listImages returns uploaded images, newest first.
func (a *App) listImages() ([]Image, error) {
	entries, err := os.ReadDir(a.uploadsDir())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var images []Image
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".jpg") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		img := Image{
			Filename:   e.Name(),
			URL:        "/public/" + uploadsSubdir + "/" + e.Name(),
			Size:       info.Size(),
			UploadedAt: info.ModTime().UTC(),
		}
		if f, err := os.Open(filepath.Join(a.uploadsDir(), e.Name())); err == nil {
			if cfg, _, err := image.DecodeConfig(f); err == nil {
				img.Width, img.Height = cfg.Width, cfg.Height
			}
			f.Close()
		}
		images = append(images, img)
	}
	sort.Slice(images, func(i, j int) bool {
		return images[i].UploadedAt.After(images[j].UploadedAt)
	})
	return images, nil
}

func (a *App) handleImageUpload(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}

	file, err := c.FormFile("image")
	if err != nil {
		return a.renderImages(c, http.StatusBadRequest, &Notice{Title: "Error", Detail: "No image file provided.", Error: true})
	}
	if file.Size > maxUploadSize {
		return a.renderImages(c, http.StatusBadRequest, &Notice{Title: "Error", Detail: "File too large (max 10MB).", Error: true})
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	_, data, err := processImage(src)
	if err != nil {
		return a.renderImages(c, http.StatusBadRequest, &Notice{Title: "Error", Detail: "Invalid image: " + err.Error(), Error: true})
	}

	if err := os.MkdirAll(a.uploadsDir(), 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}
	name := a.uniqueFilename(file.Filename)
	if err := os.WriteFile(filepath.Join(a.uploadsDir(), name), data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	a.Metrics.ImagesUploaded.Inc()
	a.Logger.InfoContext(c.Request().Context(), "image uploaded", slog.String("filename", name), slog.Int("bytes", len(data)))

	return a.renderImages(c, http.StatusOK, &Notice{Title: "Image Uploaded", Detail: "/public/" + uploadsSubdir + "/" + name})
}

func (a *App) handleImageDelete(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	name := filepath.Base(c.Param("filename"))
	if name == "." || name == "/" || !strings.HasSuffix(name, ".jpg") {
		return a.renderImages(c, http.StatusBadRequest, &Notice{Title: "Error", Detail: "Filename required.", Error: true})
	}
	if err := os.Remove(filepath.Join(a.uploadsDir(), name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete image: %w", err)
	}
	return a.renderImages(c, http.StatusOK, &Notice{Title: "Image Deleted", Detail: name})
}

func (a *App) handleImageList(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	return a.renderImages(c, http.StatusOK, nil)
}

func (a *App) renderImages(c echo.Context, code int, notice *Notice) error {
	images, err := a.listImages()
	if err != nil {
		return err
	}
	return RenderStatus(c, code, a.Views.AdminImages(ImagesData{
		PageData:  a.page(PageTitleMeta(a.Config, "Images")),
		Images:    images,
		CSRFToken: CsrfToken(c),
		Notice:    notice,
	}))
}
