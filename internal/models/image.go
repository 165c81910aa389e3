package models

import (
	"encoding/base64"
	"fmt"
)

// Image is an uploaded picture exactly as the capture layer provided it.
// MIMEType is the declared type and is not checked against Data.
type Image struct {
	FileName string
	MIMEType string
	Data     []byte
}

// Empty reports whether the image carries no content.
func (img Image) Empty() bool {
	return len(img.Data) == 0
}

// InlineData is the transport form of an image: base64 payload plus MIME type.
type InlineData struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

// EncodeImage converts img into its transport form.
func EncodeImage(img Image) InlineData {
	return InlineData{
		Data:     base64.StdEncoding.EncodeToString(img.Data),
		MimeType: img.MIMEType,
	}
}

// Decode returns the original bytes of the payload.
func (d InlineData) Decode() ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(d.Data)
	if err != nil {
		return nil, fmt.Errorf("decode inline data (%s): %w", d.MimeType, err)
	}
	return b, nil
}
