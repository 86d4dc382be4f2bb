// Package filemgr stores uploaded room photos and derives thumbnails.
package filemgr

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"homestay/utils"
)

const publicPrefix = "/static/roompic/"

var allowedExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

func uploadDir() string {
	if d := os.Getenv("UPLOAD_DIR"); d != "" {
		return d
	}
	return "./static/roompic"
}

// SaveRoomImage writes the uploaded file under a fresh name, renders a
// thumbnail next to it, and returns the public URL of the original.
func SaveRoomImage(file multipart.File, header *multipart.FileHeader, category string) (string, error) {
	ext := strings.ToLower(filepath.Ext(utils.SanitizeFilename(header.Filename)))
	if !allowedExts[ext] {
		return "", fmt.Errorf("unsupported image type %q", ext)
	}

	dir := uploadDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating upload dir: %w", err)
	}

	name := category + "_" + utils.GetUUID() + ext
	dst := filepath.Join(dir, name)

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("saving image: %w", err)
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("saving image: %w", err)
	}
	out.Close()

	if err := writeThumbnail(dst, filepath.Join(dir, "thumb_"+name)); err != nil {
		// thumbnails are a convenience; the upload itself already succeeded
		os.Remove(filepath.Join(dir, "thumb_"+name))
	}

	return publicPrefix + name, nil
}

func writeThumbnail(src, dst string) error {
	img, err := imaging.Open(src)
	if err != nil {
		return err
	}
	thumb := imaging.Fit(img, 480, 360, imaging.Lanczos)
	return imaging.Save(thumb, dst)
}

// RemoveRoomImage deletes a stored image plus its thumbnail, if the URL
// points into the local upload directory.
func RemoveRoomImage(url string) {
	if !strings.Contains(url, publicPrefix) {
		return
	}
	name := url[strings.LastIndex(url, "/")+1:]
	dir := uploadDir()
	os.Remove(filepath.Join(dir, name))
	os.Remove(filepath.Join(dir, "thumb_"+name))
}
