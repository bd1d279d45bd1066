package products

import (
	"bytes"
	"encoding/base64"
	"strings"

	"agriconnect/utils"

	"github.com/disintegration/imaging"
)

const (
	MaxImages      = 5
	maxImageSide   = 1200
	jpegQuality    = 85
	dataURLPrefix  = "data:image/jpeg;base64,"
	maxImageBase64 = 8 << 20
)

// NormalizeImages decodes each base64 image (raw or data URL), fixes EXIF
// orientation, fits it into 1200x1200 and re-encodes it as a JPEG data URL.
func NormalizeImages(images []string) ([]string, error) {
	if len(images) > MaxImages {
		return nil, utils.Invalid("A product can have at most %d images", MaxImages)
	}
	out := make([]string, 0, len(images))
	for i, raw := range images {
		img, err := normalizeImage(raw)
		if err != nil {
			return nil, utils.Invalid("Image %d is not a valid image", i+1)
		}
		out = append(out, img)
	}
	return out, nil
}

func normalizeImage(raw string) (string, error) {
	payload := strings.TrimSpace(raw)
	if strings.HasPrefix(payload, "data:") {
		if idx := strings.Index(payload, ","); idx >= 0 {
			payload = payload[idx+1:]
		}
	}
	if len(payload) > maxImageBase64 {
		return "", utils.Invalid("image too large")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", err
	}
	b := img.Bounds()
	if b.Dx() > maxImageSide || b.Dy() > maxImageSide {
		img = imaging.Fit(img, maxImageSide, maxImageSide, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", err
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
