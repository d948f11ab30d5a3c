package access

import (
	"strings"

	"github.com/dmitrijs2005/thesisvault/internal/common"
)

var mimeTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".txt":  "text/plain",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".zip":  "application/zip",
	".rar":  "application/x-rar-compressed",
	".mp3":  "audio/mpeg",
	".mp4":  "video/mp4",
	".avi":  "video/x-msvideo",
	".bmp":  "image/bmp",
	".csv":  "text/csv",
	".rtf":  "application/rtf",
}

// ContentTypeFor maps a file extension (with or without the leading dot,
// any case) to the content type a write grant is bound to. Unknown and empty
// extensions map to application/octet-stream.
func ContentTypeFor(ext string) string {
	if ext == "" {
		return common.DefaultContentType
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if ct, ok := mimeTypes[strings.ToLower(ext)]; ok {
		return ct
	}
	return common.DefaultContentType
}
