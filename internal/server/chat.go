package server

import (
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/myta-ai/myta/internal/agent/core"
	"github.com/myta-ai/myta/internal/store"
)

// ChatHandler exposes the boss agent over HTTP: the full chat pipeline
// plus direct access to individual specialized agents.
type ChatHandler struct {
	Boss   *core.BossAgent
	Store  *store.Store
	Logger *log.Logger
}

func (h *ChatHandler) Register(api *echo.Group, authMW echo.MiddlewareFunc) {
	chat := api.Group("/agent")
	chat.Use(authMW)
	chat.POST("/chat", h.chat)
	chat.GET("/chat/history", h.history)

	agents := api.Group("/agents")
	agents.Use(authMW)
	agents.POST("/:agent_type/task", h.agentTask)
}

func (h *ChatHandler) chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}
	userID, _ := c.Get("user_id").(string)

	result := h.Boss.ProcessChatTurn(c.Request().Context(), core.ChatTurn{
		UserID:      userID,
		Message:     req.Message,
		UserContext: req.UserContext,
	})

	if h.Store != nil {
		if err := h.Store.SaveChatTurn(c.Request().Context(), userID, req.Message, result); err != nil {
			h.Logger.Printf("persisting chat turn %s failed: %v", result.RequestID, err)
		}
	}

	return c.JSON(http.StatusOK, ChatResponse{
		RequestID:    result.RequestID,
		Response:     result.Response,
		Intent:       string(result.Intent),
		AgentsUsed:   result.AgentsUsed,
		Cached:       result.Cached,
		DirectAnswer: result.DirectAnswer,
		ProcessingMS: result.ProcessingTime.Milliseconds(),
		TokensUsed:   result.TokensUsed,
	})
}

func (h *ChatHandler) history(c echo.Context) error {
	if h.Store == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "history requires persistence")
	}
	userID, _ := c.Get("user_id").(string)
	records, err := h.Store.GetChatHistory(c.Request().Context(), userID, 50)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, records)
}

func (h *ChatHandler) agentTask(c echo.Context) error {
	domain, ok := core.ParseQueryType(c.Param("agent_type"))
	if !ok || domain == core.QueryGeneral {
		return echo.NewHTTPError(http.StatusNotFound, "unknown agent type")
	}
	var req AgentTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}

	resp, err := h.Boss.ProcessAgentTask(c.Request().Context(), domain, req.Message, req.UserContext)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, resp)
}
