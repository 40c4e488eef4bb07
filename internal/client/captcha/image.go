package captcha

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var ErrNotImage = errors.New("captcha payload is not an image")

// Image is a decoded CAPTCHA picture.
type Image struct {
	Data []byte
	MIME string
	Ext  string
}

// DecodeImage accepts either a data URL ("data:image/png;base64,...") or bare
// base64 and sniffs the actual content type of the decoded bytes.
func DecodeImage(s string) (Image, error) {
	payload := strings.TrimSpace(s)
	if strings.HasPrefix(payload, "data:") {
		header, data, ok := strings.Cut(payload, ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return Image{}, fmt.Errorf("unsupported data url header %q", header)
		}
		payload = data
	}
	if payload == "" {
		return Image{}, ErrNotImage
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("decode captcha image: %w", err)
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return Image{}, fmt.Errorf("%w: detected %s", ErrNotImage, mt.String())
	}
	return Image{Data: data, MIME: mt.String(), Ext: mt.Extension()}, nil
}

// WriteFile stores the image as dir/captcha-<name><ext> and returns the path.
func (i Image) WriteFile(dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	path := filepath.Join(dir, "captcha-"+filepath.Base(name)+i.Ext)
	if err := os.WriteFile(path, i.Data, 0o600); err != nil {
		return "", fmt.Errorf("write captcha image: %w", err)
	}
	return path, nil
}
