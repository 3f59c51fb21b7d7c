// Package ai turns a food photo or a pair of cuisines into a structured recipe.
package ai

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

type Mode string

const (
	ModePhoto  Mode = "PHOTO_ANALYSIS"
	ModeFusion Mode = "FUSION_LAB"
)

const defaultMimeType = "image/png"

var ErrInvalidRequest = errors.New("invalid generation request")

type Request struct {
	Mode       Mode    `json:"mode"`
	Image      string  `json:"image,omitempty"` // base64 without the data: prefix
	MimeType   string  `json:"mimeType,omitempty"`
	Cuisine1   string  `json:"cuisine1,omitempty"`
	Cuisine2   string  `json:"cuisine2,omitempty"`
	Creativity float64 `json:"creativity,omitempty"`
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, msg)
}

// Validate checks the request before anything is sent to the model.
func (r Request) Validate() error {
	switch r.Mode {
	case ModePhoto:
		if r.Image == "" {
			return invalid("Image data is required")
		}
		if _, err := r.imageBytes(); err != nil {
			return invalid("Image data is not valid base64")
		}
		if mt := r.MimeType; mt != "" && !strings.HasPrefix(mt, "image/") {
			return invalid("Unsupported image type " + mt)
		}
	case ModeFusion:
		if strings.TrimSpace(r.Cuisine1) == "" || strings.TrimSpace(r.Cuisine2) == "" {
			return invalid("Both cuisines are required")
		}
		if r.Creativity < 1 || r.Creativity > 10 {
			return invalid("Creativity must be between 1 and 10")
		}
	default:
		return invalid("Invalid mode")
	}
	return nil
}

func (r Request) mimeType() string {
	if r.MimeType == "" {
		return defaultMimeType
	}
	return r.MimeType
}

// imageBytes decodes Image, tolerating a leading data URL header.
func (r Request) imageBytes() ([]byte, error) {
	data := r.Image
	if _, after, ok := strings.Cut(data, ";base64,"); ok && strings.HasPrefix(data, "data:") {
		data = after
	}
	return base64.StdEncoding.DecodeString(data)
}

// Temperature follows the mode: photos stay close to what is pictured,
// fusion scales with creativity.
func (r Request) Temperature() float32 {
	if r.Mode == ModeFusion {
		return float32(0.7 + r.Creativity/20)
	}
	return 0.4
}
