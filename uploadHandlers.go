package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/inventory_backend/config"
	"github.com/mmdatafocus/inventory_backend/models"
	"github.com/mmdatafocus/inventory_backend/utils"
)

func statusResponse(c *gin.Context, funcName string, data interface{}, err error) {
	status := models.NewStatus(c.Request.Context(), "uploadHandlers.go", funcName, err)
	if err != nil {
		data = nil
	}
	c.JSON(status.Code, gin.H{"data": data, "status": status})
}

// uploadInventoryHandler imports the rows of a multipart xlsx upload. The raw
// workbook is archived to GCS when a bucket is configured.
func uploadInventoryHandler(settings *config.Settings) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, settings.MaxUploadSizeBytes)

		fh, err := c.FormFile("file")
		if err != nil {
			statusResponse(c, "UploadInventory", nil, utils.NewBadRequest("file is required"))
			return
		}
		if !strings.EqualFold(filepath.Ext(fh.Filename), ".xlsx") {
			statusResponse(c, "UploadInventory", nil, utils.NewBadRequest("only .xlsx files are accepted"))
			return
		}
		file, err := fh.Open()
		if err != nil {
			statusResponse(c, "UploadInventory", nil, utils.NewBadRequest("file is unreadable"))
			return
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			statusResponse(c, "UploadInventory", nil, utils.NewBadRequest("file is unreadable"))
			return
		}

		rows, err := models.ParseInventorySheet(ctx, bytes.NewReader(data))
		if err != nil {
			statusResponse(c, "UploadInventory", nil, err)
			return
		}

		input := &models.UploadInventoryInput{FileName: fh.Filename, UploadDatas: rows}
		if settings.UploadBucket != "" {
			shopsId, _ := utils.GetShopsIdFromContext(ctx)
			objectName := fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(fh.Filename))
			url, err := utils.ArchiveUploadToGCS(ctx, settings.UploadBucket, shopsId, objectName, data)
			if err != nil {
				config.LogWarn(config.GetLogger(), "uploadHandlers.go", "UploadInventory", "archive upload", err)
			} else {
				input.ArchiveUrl = url
			}
		}

		res, err := models.ImportInventories(ctx, input)
		statusResponse(c, "UploadInventory", res, err)
	}
}

// exportTrashHandler streams the caller's trash as a workbook.
func exportTrashHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := models.ExportTrashWorkbook(c.Request.Context())
		if err != nil {
			statusResponse(c, "ExportTrash", nil, err)
			return
		}
		defer f.Close()

		c.Header("Content-Type", utils.XlsxMimeType)
		c.Header("Content-Disposition", `attachment; filename="trash.xlsx"`)
		c.Status(http.StatusOK)
		if err := f.Write(c.Writer); err != nil {
			_ = c.Error(err)
		}
	}
}
