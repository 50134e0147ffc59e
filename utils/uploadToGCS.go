package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const XlsxMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// getGoogleClient initializes a Google Cloud Storage client
func getGoogleClient(ctx context.Context) (*storage.Client, error) {
	// Prefer ADC (Cloud Run service account / GOOGLE_APPLICATION_CREDENTIALS).
	if credJSON := os.Getenv("GCS_CREDENTIALS_JSON"); strings.TrimSpace(credJSON) != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	}
	return storage.NewClient(ctx)
}

// DetectUploadMimeType sniffs the content and resolves zip containers by
// extension, since xlsx files sniff as application/zip.
func DetectUploadMimeType(objectName string, data []byte) string {
	mimeType := http.DetectContentType(data)
	if mimeType == "application/zip" && strings.HasSuffix(strings.ToLower(objectName), ".xlsx") {
		return XlsxMimeType
	}
	return mimeType
}

// ArchiveUploadToGCS stores a private copy of an uploaded spreadsheet under
// imports/<shopsId>/. It returns the gs:// URI.
func ArchiveUploadToGCS(ctx context.Context, bucketName string, shopsId string, objectName string, data []byte) (string, error) {
	if bucketName == "" {
		return "", errors.New("upload bucket is required")
	}
	mimeType := DetectUploadMimeType(objectName, data)
	if mimeType != XlsxMimeType {
		return "", fmt.Errorf("unsupported file type: %s", mimeType)
	}

	client, err := getGoogleClient(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()

	objectPath := "imports/" + shopsId + "/" + objectName
	wc := client.Bucket(bucketName).Object(objectPath).NewWriter(ctx)
	wc.ContentType = mimeType
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return "", err
	}
	if err := wc.Close(); err != nil {
		return "", err
	}
	return "gs://" + bucketName + "/" + objectPath, nil
}
