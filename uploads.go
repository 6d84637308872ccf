package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/montazreklam/jobs_backend/config"
	"github.com/montazreklam/jobs_backend/models"
	"github.com/montazreklam/jobs_backend/utils"
	"github.com/sirupsen/logrus"
)

const maxUploadSizeBytes int64 = 10 * 1024 * 1024

var imageMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

var attachmentMimeTypes = map[string]bool{
	"application/pdf": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
	"image/jpeg": true,
	"image/png":  true,
}

type uploadResponse struct {
	FileName     string `json:"file_name"`
	Kind         string `json:"kind"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	ObjectKey    string `json:"object_key"`
}

func registerUploadRoutes(r *gin.Engine) {
	r.POST("/uploads", uploadAttachmentHandler())
}

// uploadAttachmentHandler stores a multipart file in GCS and, for images,
// uploads a 200px thumbnail next to it. The caller links the returned URLs to
// a job via the attachment endpoints.
func uploadAttachmentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		if _, ok := utils.GetUsernameFromContext(c.Request.Context()); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		if fileHeader.Size > maxUploadSizeBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file size exceeds 10MB limit"})
			return
		}

		kind := models.AttachmentKindFile
		if strings.EqualFold(c.PostForm("kind"), string(models.AttachmentKindEvidence)) {
			kind = models.AttachmentKindEvidence
		}

		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
			return
		}
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, maxUploadSizeBytes+1))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
			return
		}
		if int64(len(data)) > maxUploadSizeBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file size exceeds 10MB limit"})
			return
		}

		mimeType := fileHeader.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = http.DetectContentType(data)
		}
		if kind == models.AttachmentKindEvidence {
			if !imageMimeTypes[mimeType] {
				c.JSON(http.StatusBadRequest, gin.H{"error": "evidence must be a JPEG or PNG image"})
				return
			}
		} else if !attachmentMimeTypes[mimeType] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file type"})
			return
		}

		ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
		if ext == "" {
			ext = extensionFromMimeType(mimeType)
		}
		objectKey := path.Join("jobs", strings.ToLower(string(kind)), utils.GenerateUniqueFilename()+ext)
		ctx := c.Request.Context()
		if err := utils.UploadBytesToGCS(ctx, objectKey, data, mimeType); err != nil {
			config.LogError(logger, "uploads.go", "uploadAttachmentHandler", "upload failed", objectKey, err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "upload failed"})
			return
		}

		response := uploadResponse{
			FileName:  fileHeader.Filename,
			Kind:      string(kind),
			URL:       utils.BuildObjectAccessURL(objectKey),
			ObjectKey: objectKey,
		}

		if imageMimeTypes[mimeType] {
			thumbnailKey, err := uploadThumbnail(ctx, objectKey, data)
			if err != nil {
				// A missing thumbnail degrades the board view, it does not
				// block the upload.
				config.LogError(logger, "uploads.go", "uploadAttachmentHandler", "thumbnail failed", objectKey, err)
			} else {
				response.ThumbnailURL = utils.BuildObjectAccessURL(thumbnailKey)
			}
		}

		logger.WithFields(logrus.Fields{
			"object_key": objectKey,
			"mime_type":  mimeType,
			"size":       len(data),
		}).Info("[upload.complete]")

		c.JSON(http.StatusOK, gin.H{"data": response})
	}
}

func uploadThumbnail(ctx context.Context, objectKey string, data []byte) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	thumbnail := imaging.Resize(img, 200, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumbnail, imaging.JPEG); err != nil {
		return "", err
	}

	thumbnailKey := thumbnailObjectKey(objectKey)
	if err := utils.UploadBytesToGCS(ctx, thumbnailKey, buf.Bytes(), "image/jpeg"); err != nil {
		return "", err
	}
	return thumbnailKey, nil
}

func thumbnailObjectKey(objectKey string) string {
	dir := path.Dir(objectKey)
	filename := path.Base(objectKey)
	return path.Join(dir, "thumbnails", filename)
}

func extensionFromMimeType(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "application/pdf":
		return ".pdf"
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return ".docx"
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return ".xlsx"
	default:
		return ""
	}
}

// storageReleaser deletes attachment objects after their job is removed.
type storageReleaser struct{}

func newStorageReleaser() storageReleaser { return storageReleaser{} }

func (storageReleaser) Release(ctx context.Context, urls []string) error {
	logger := config.GetLogger()
	var firstErr error
	for _, rawURL := range urls {
		objectKey := utils.ExtractObjectKeyFromURL(rawURL)
		if objectKey == "" {
			continue
		}
		if err := utils.DeleteObjectFromGCS(ctx, objectKey); err != nil {
			config.LogError(logger, "uploads.go", "storageReleaser.Release", "delete failed", objectKey, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// completionNotifier publishes a completion notice to Pub/Sub; the mailer
// service turns it into an email to the customer.
type completionNotifier struct {
	topicID string
}

func newCompletionNotifier() completionNotifier {
	topicID := strings.TrimSpace(os.Getenv("JOB_NOTIFY_TOPIC"))
	if topicID == "" {
		topicID = "job-completed"
	}
	return completionNotifier{topicID: topicID}
}

func (n completionNotifier) NotifyCompleted(ctx context.Context, job *models.Job, recipientEmail string, notes string) error {
	client, err := config.GetClient(ctx)
	if err != nil {
		return err
	}

	payload := map[string]interface{}{
		"job_id":      job.ID,
		"friendly_id": job.FriendlyId,
		"title":       job.Title,
		"recipient":   recipientEmail,
		"notes":       notes,
		"completed_at": utils.DereferencePtr(job.CompletedAt, time.Now()).UTC().Format(time.RFC3339),
	}
	body, err := utils.MarshalToJSON(payload)
	if err != nil {
		return err
	}

	topic := client.Topic(n.topicID)
	defer topic.Stop()
	result := topic.Publish(ctx, &pubsub.Message{Data: []byte(body)})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish completion notice: %w", err)
	}
	return nil
}
