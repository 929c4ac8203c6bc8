package routes

import (
	"encoding/json"
	"net/http"
	"strings"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/readloom/readloom/internal/queue"
	"github.com/readloom/readloom/internal/server/middleware"
	"github.com/readloom/readloom/pkg/common"
	"github.com/readloom/readloom/pkg/logger"
)

// CreateRecordHandler queues one reading record for graph extraction. The
// record is not processed inline: the handler validates, publishes to the
// extract queue and answers 202.
func CreateRecordHandler(c echo.Context) error {
	type createRecordBody struct {
		RecordID     string   `json:"record_id" validate:"omitempty"`
		BookTitle    string   `json:"book_title" validate:"required"`
		Content      string   `json:"content" validate:"required"`
		UserKeywords []string `json:"user_keywords" validate:"omitempty"`
	}

	type createRecordResponse struct {
		Message  string `json:"message"`
		RecordID string `json:"record_id,omitempty"`
	}

	data := new(createRecordBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createRecordResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createRecordResponse{Message: "Invalid request body"})
	}

	data.BookTitle = strings.TrimSpace(data.BookTitle)
	if data.BookTitle == "" || strings.TrimSpace(data.Content) == "" {
		return c.JSON(http.StatusBadRequest, createRecordResponse{Message: "Invalid request body"})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, createRecordResponse{Message: "Unauthorized"})
	}

	recordID := strings.TrimSpace(data.RecordID)
	if recordID == "" {
		var err error
		recordID, err = gonanoid.New()
		if err != nil {
			logger.Error("Failed to generate record id", "err", err)
			return c.JSON(http.StatusInternalServerError, createRecordResponse{Message: "Internal server error"})
		}
	}

	record := common.RecordInput{
		RecordID:     recordID,
		UserID:       user.UserID,
		BookTitle:    data.BookTitle,
		Content:      data.Content,
		UserKeywords: data.UserKeywords,
	}

	payload, err := json.Marshal(record)
	if err != nil {
		logger.Error("Failed to marshal record message", "err", err)
		return c.JSON(http.StatusInternalServerError, createRecordResponse{Message: "Internal server error"})
	}

	ch := c.(*middleware.AppContext).App.Queue
	if err := queue.PublishFIFO(ch, queue.ExtractQueue, payload); err != nil {
		logger.Error("Failed to publish record message", "err", err)
		return c.JSON(http.StatusInternalServerError, createRecordResponse{Message: "Internal server error"})
	}

	return c.JSON(http.StatusAccepted, createRecordResponse{
		Message:  "Record queued for extraction",
		RecordID: recordID,
	})
}
