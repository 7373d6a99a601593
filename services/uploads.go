package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Uploads is the upload collaborator. It pushes product images to Cloudinary
// and hands back the secure URL, which the catalog stores as an opaque
// imageRef. A nil *Uploads is valid and means uploads are disabled.
type Uploads struct {
	cld *cloudinary.Cloudinary
}

func NewUploads(cloudinaryURL string) (*Uploads, error) {
	if cloudinaryURL == "" {
		return nil, fmt.Errorf("cloudinary URL is required")
	}
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &Uploads{cld: cld}, nil
}

// UploadProductImage stores the file and returns its image ref.
func (u *Uploads) UploadProductImage(ctx context.Context, file multipart.File) (string, error) {
	if u == nil {
		return "", fmt.Errorf("image uploads are not configured")
	}

	publicID := fmt.Sprintf("products/%d", time.Now().UnixNano())
	result, err := u.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:     publicID,
		Folder:       "products",
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	ref := result.SecureURL
	if ref == "" {
		ref = forceHTTPS(result.URL)
	}
	return ref, nil
}

func forceHTTPS(url string) string {
	if strings.HasPrefix(url, "http://") {
		return "https://" + strings.TrimPrefix(url, "http://")
	}
	return url
}
