package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/xaenox/legal-assistant/internal/assistant"
	"github.com/xaenox/legal-assistant/internal/models"
	"github.com/xaenox/legal-assistant/internal/prompts"
	"github.com/xaenox/legal-assistant/internal/provider"
)

type chatRequest struct {
	Provider string `json:"provider"`
	Message  string `json:"message"`
	Context  string `json:"context"`
}

type chatResponse struct {
	Response string `json:"response"`
}

func (s *Server) chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if strings.TrimSpace(req.Context) == "" {
		return badRequest(c, "No context provided. Please upload a document first.")
	}

	adapter, err := s.deps.Providers.Lookup(req.Provider)
	if err != nil {
		return badRequest(c, "Invalid provider specified")
	}

	s.logger.Info("Chat request",
		zap.String("provider", req.Provider),
		zap.Int("context_length", len(req.Context)))

	response, err := adapter.Generate(c.Request().Context(), req.Message, req.Context)
	if err != nil {
		return s.fail(c, "Error generating response", err)
	}
	return c.JSON(http.StatusOK, chatResponse{Response: response})
}

type assistantChatRequest struct {
	Message string `json:"message"`
	Context string `json:"context"`
	FileID  string `json:"fileId"`
}

func (s *Server) assistantChat(c echo.Context) error {
	if s.deps.Assistant == nil {
		return notConfigured(c, "Assistant")
	}

	var req assistantChatRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	ctx := c.Request().Context()
	job := s.startJob(ctx, models.JobAssistantChat)

	response, err := s.deps.Assistant.GenerateResponse(ctx, req.Message, req.Context, models.FileRef(req.FileID))
	if err != nil {
		s.finishJob(ctx, job, 0, err)
		return s.fail(c, "Error generating response", err)
	}
	s.finishJob(ctx, job, 1, nil)

	return c.JSON(http.StatusOK, chatResponse{Response: assistant.CleanResponse(response)})
}

type fileResponse struct {
	FileID string `json:"fileId"`
}

// assistantUpload stores a file with the assistant backend so a later
// assistant chat can attach it by id.
func (s *Server) assistantUpload(c echo.Context) error {
	if s.deps.Uploader == nil {
		return notConfigured(c, "Assistant")
	}

	up, err := readUpload(c, s.review)
	if err != nil {
		return s.fail(c, "Error uploading file", err)
	}

	ref, err := s.deps.Uploader.UploadFile(c.Request().Context(), up.Name, up.Data)
	if err != nil {
		return s.fail(c, "Error uploading file", err)
	}
	return c.JSON(http.StatusOK, fileResponse{FileID: string(ref)})
}

type textResponse struct {
	Text         string `json:"text"`
	Pages        int    `json:"pages"`
	OriginalName string `json:"originalName"`
}

func (s *Server) chatUpload(c echo.Context) error {
	up, err := readUpload(c, s.analysis)
	if err != nil {
		return s.fail(c, "Error processing PDF", err)
	}

	text, err := s.deps.Extract(up.Kind, up.Data)
	if err != nil {
		return s.fail(c, "Error processing PDF", err)
	}

	s.logger.Info("Document text extracted",
		zap.String("name", up.Name),
		zap.Int("pages", text.Pages),
		zap.Int("length", len(text.Content)))

	return c.JSON(http.StatusOK, textResponse{
		Text:         text.Content,
		Pages:        text.Pages,
		OriginalName: up.Name,
	})
}

type personaKind int

const (
	personaSystem personaKind = iota
	personaClone
)

type personaRequest struct {
	Message  string `json:"message"`
	Provider string `json:"provider"`
}

// persona answers with a fixed assistant persona on top of a chat adapter.
func (s *Server) persona(kind personaKind) echo.HandlerFunc {
	text := prompts.SystemPersona
	if kind == personaClone {
		text = prompts.ClonePersona
	}

	return func(c echo.Context) error {
		var req personaRequest
		if err := c.Bind(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
		if strings.TrimSpace(req.Message) == "" {
			return badRequest(c, "Message is required")
		}

		name := req.Provider
		if name == "" {
			name = string(provider.Anthropic)
		}
		adapter, err := s.deps.Providers.Lookup(name)
		if err != nil {
			return badRequest(c, "Invalid provider specified")
		}

		response, err := provider.NewPersona(adapter, text).Generate(c.Request().Context(), req.Message, "")
		if err != nil {
			return s.fail(c, "Failed to execute command", err)
		}
		return c.JSON(http.StatusOK, chatResponse{Response: response})
	}
}
