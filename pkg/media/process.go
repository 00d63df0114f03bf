package media

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const (
	// Telegram rejects photos above 10MB; larger images go out as documents.
	maxPhotoSize = 10 * 1024 * 1024
	sniffLen     = 512
)

// kindExts maps file extensions to the media kind they are sent as.
var kindExts = map[string]Kind{
	".jpg":  KindPhoto,
	".jpeg": KindPhoto,
	".png":  KindPhoto,
	".webp": KindSticker,
	".gif":  KindAnimation,
	".mp4":  KindVideo,
	".mov":  KindVideo,
	".mp3":  KindAudio,
	".m4a":  KindAudio,
	".flac": KindAudio,
	".ogg":  KindVoice,
	".oga":  KindVoice,
}

// DefaultExtension returns the file extension (without dot) assumed for a
// file uploaded under the given API field when it has no filename.
func DefaultExtension(field string) string {
	switch field {
	case "photo":
		return "jpg"
	case "voice":
		return "ogg"
	case "audio":
		return "mp3"
	case "animation", "video", "video_note":
		return "mp4"
	case "sticker":
		return "webp"
	default:
		return "dat"
	}
}

// DefaultFilename synthesizes a filename for a file found under field.
func DefaultFilename(field string) string {
	return field + "." + DefaultExtension(field)
}

// DetectKind decides how a file on disk should be sent. Known extensions win;
// otherwise the first 512 bytes are sniffed. Everything unrecognized is a
// document.
func DetectKind(path string) (Kind, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if kind, ok := kindExts[ext]; ok {
		if kind == KindPhoto && info.Size() > maxPhotoSize {
			return KindDocument, nil
		}
		return kind, nil
	}

	if kind, ok := kindFromMIME(mime.TypeByExtension(ext)); ok {
		return kind, nil
	}

	// No recognized extension, sniff content
	if kind, ok := kindFromMIME(sniff(path)); ok {
		if kind == KindPhoto && info.Size() > maxPhotoSize {
			return KindDocument, nil
		}
		return kind, nil
	}
	return KindDocument, nil
}

func kindFromMIME(mimeType string) (Kind, bool) {
	mimeType, _, _ = strings.Cut(mimeType, ";")
	switch {
	case mimeType == "image/jpeg" || mimeType == "image/png":
		return KindPhoto, true
	case mimeType == "image/gif":
		return KindAnimation, true
	case mimeType == "image/webp":
		return KindSticker, true
	case mimeType == "audio/ogg" || mimeType == "application/ogg":
		return KindVoice, true
	case strings.HasPrefix(mimeType, "audio/"):
		return KindAudio, true
	case strings.HasPrefix(mimeType, "video/"):
		return KindVideo, true
	}
	return "", false
}

// sniff reads the first bytes of path and returns the detected content type,
// or "" when the file cannot be read.
func sniff(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	buf := make([]byte, sniffLen)
	n, _ := f.Read(buf)
	if n == 0 {
		return ""
	}
	return http.DetectContentType(buf[:n])
}
