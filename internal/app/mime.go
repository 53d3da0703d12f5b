package app

import (
	"log"
	"mime"
)

// Types served by the shop that minimal containers often lack in
// /etc/mime.types: product images and the order export downloads.
var shopMimeTypes = map[string]string{
	".css":  "text/css; charset=utf-8",
	".webp": "image/webp",
	".avif": "image/avif",
	".csv":  "text/csv; charset=utf-8",
	".pdf":  "application/pdf",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

func init() {
	for ext, typ := range shopMimeTypes {
		if mime.TypeByExtension(ext) != "" {
			continue
		}
		if err := mime.AddExtensionType(ext, typ); err != nil {
			log.Printf("app: register MIME type %s: %v", ext, err)
		}
	}
}
