package api

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docqa/store"
	"docqa/types"
)

// Ingester builds the vector index for a document's extracted text and can
// discard it again when the rest of the upload fails. Satisfied by
// *qa.Service.
type Ingester interface {
	Ingest(ctx context.Context, docID, text string) (string, error)
	Discard(ctx context.Context, docID string) error
}

// TextExtractor converts a stored file into plain text.
type TextExtractor func(path string) (string, error)

type DocumentHandler struct {
	docs      store.DocumentStorer
	ingester  Ingester
	extract   TextExtractor
	uploadDir string
}

func NewDocumentHandler(docs store.DocumentStorer, ingester Ingester, extract TextExtractor, uploadDir string) *DocumentHandler {
	return &DocumentHandler{
		docs:      docs,
		ingester:  ingester,
		extract:   extract,
		uploadDir: uploadDir,
	}
}

// HandleUpload serves POST /api/documents/upload. It saves the uploaded PDF,
// extracts its text, builds the vector index and records the metadata row.
// On any failure after the save, the stored file is removed again.
func (h *DocumentHandler) HandleUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return ErrBadRequest()
	}

	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		return NewError(fiber.StatusBadRequest, "only PDF files are allowed")
	}

	docID := uuid.New()
	path := filepath.Join(h.uploadDir, docID.String()+"_"+filepath.Base(fileHeader.Filename))
	if err := c.SaveFile(fileHeader, path); err != nil {
		return fmt.Errorf("save upload: %w", err)
	}

	text, err := h.extract(path)
	if err != nil {
		os.Remove(path)
		return fmt.Errorf("error processing PDF: %w", err)
	}

	locator, err := h.ingester.Ingest(c.Context(), docID.String(), text)
	if err != nil {
		os.Remove(path)
		return err
	}

	chars := utf8.RuneCountInString(text)
	doc := types.Document{
		ID:              docID,
		Filename:        fileHeader.Filename,
		Filepath:        path,
		Chars:           chars,
		VectorStorePath: locator,
		UploadDate:      time.Now().UTC(),
	}
	if err := h.docs.SaveDocument(c.Context(), doc); err != nil {
		// Back out the whole upload: without the metadata row the index is
		// unreachable and would only accumulate as garbage.
		os.Remove(path)
		if derr := h.ingester.Discard(c.Context(), docID.String()); derr != nil {
			return fmt.Errorf("save document metadata: %w (discard index: %v)", err, derr)
		}
		return fmt.Errorf("save document metadata: %w", err)
	}

	return c.JSON(types.UploadResponse{
		Message:         "Document processed successfully",
		FileID:          docID.String(),
		CharsExtracted:  chars,
		VectorStorePath: locator,
	})
}

// HandleList serves GET /api/documents with skip/limit pagination.
func (h *DocumentHandler) HandleList(c *fiber.Ctx) error {
	skip := c.QueryInt("skip", 0)
	limit := c.QueryInt("limit", 10)

	docs, err := h.docs.ListDocuments(c.Context(), skip, limit)
	if err != nil {
		return err
	}
	if docs == nil {
		docs = []types.Document{}
	}
	return c.JSON(docs)
}

// HandleGet serves GET /api/documents/:id.
func (h *DocumentHandler) HandleGet(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrInvalidID()
	}

	doc, err := h.docs.GetDocumentByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrDocumentNotFound) {
			return ErrNotFound(id, "document")
		}
		return err
	}
	return c.JSON(doc)
}
