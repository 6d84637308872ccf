package jobcache

import (
	"bytes"

	"github.com/disintegration/imaging"
	"github.com/montazreklam/jobs_backend/config"
	"github.com/montazreklam/jobs_backend/models"
)

const (
	maxCachedImageEdge = 1600
	cachedImageQuality = 80
)

// compressJobAttachments shrinks inline attachment payloads before they hit
// the cache. Payloads that do not decode as images, or that come out larger
// after recompression, are kept as-is.
func compressJobAttachments(job *models.Job) {
	for _, att := range job.Attachments {
		att.Data = compressAttachmentData(att.Data)
	}
}

func compressAttachmentData(data []byte) []byte {
	if len(data) == 0 || config.CacheCompressionDisabled() {
		return data
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}

	resized := imaging.Fit(img, maxCachedImageEdge, maxCachedImageEdge, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(cachedImageQuality)); err != nil {
		return data
	}
	if buf.Len() >= len(data) {
		return data
	}
	return buf.Bytes()
}
