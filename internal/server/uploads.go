package server

import (
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"os"
	"path"
	"path/filepath"
	"strings"

	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/webp" // register decoder
)

const postImageDir = "posts"

// imageExtensions maps decoder format names to stored file extensions.
var imageExtensions = map[string]string{
	"jpeg": ".jpg",
	"png":  ".png",
	"gif":  ".gif",
	"webp": ".webp",
	"bmp":  ".bmp",
}

func invalidImage(message string) error {
	return models.NewFieldValidationError(map[string]string{"image": message})
}

// saveImage stores the optional multipart "image" file under
// MEDIA_ROOT/posts/<uuid><ext> and returns its reference relative to
// MEDIA_ROOT. It returns "" when no file was sent.
func (s *Server) saveImage(c *fiber.Ctx) (string, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return "", nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return "", models.NewValidationError("Invalid multipart body")
	}
	files := form.File["image"]
	if len(files) == 0 || files[0].Size == 0 {
		return "", nil
	}
	fh := files[0]

	maxBytes := int64(s.config.ImageMaxUploadMB) * 1024 * 1024
	if fh.Size > maxBytes {
		return "", invalidImage(fmt.Sprintf("Image must be at most %d MB.", s.config.ImageMaxUploadMB))
	}
	if ct := fh.Header.Get(fiber.HeaderContentType); ct != "" && !strings.HasPrefix(ct, "image/") {
		return "", invalidImage("Upload a valid image.")
	}

	src, err := fh.Open()
	if err != nil {
		return "", invalidImage("Unable to read uploaded file.")
	}
	_, format, err := image.DecodeConfig(src)
	_ = src.Close()
	if err != nil {
		return "", invalidImage("Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}
	ext, ok := imageExtensions[format]
	if !ok {
		return "", invalidImage("Upload a valid image.")
	}
	if given := strings.ToLower(filepath.Ext(fh.Filename)); given == ".jpeg" || given == ext {
		ext = given
	}

	dir := filepath.Join(s.config.MediaRoot, postImageDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", models.NewInternalError(err)
	}
	name := uuid.NewString() + ext
	if err := c.SaveFile(fh, filepath.Join(dir, name)); err != nil {
		return "", models.NewInternalError(err)
	}
	return path.Join(postImageDir, name), nil
}

// discardImage removes a stored image whose post was not saved.
func (s *Server) discardImage(c *fiber.Ctx, ref string) {
	if ref == "" {
		return
	}
	if err := os.Remove(filepath.Join(s.config.MediaRoot, filepath.FromSlash(ref))); err != nil && !os.IsNotExist(err) {
		middleware.LoggerFromContext(c.UserContext()).Warn("failed to discard image",
			zap.String("image", ref), zap.Error(err))
	}
}
