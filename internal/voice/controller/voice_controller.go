package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"mockinterview/internal/common/http/middleware"
	"mockinterview/internal/interview/model"
	"mockinterview/internal/voice/service"
	pkgerrors "mockinterview/pkg/errors"
	"mockinterview/pkg/utils/logger"
	"mockinterview/pkg/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = pongWait * 9 / 10
	maxFrameBytes = 64 << 10
)

// Voice is the slice of the voice service the HTTP layer needs.
type Voice interface {
	Process(ctx context.Context, userID int64, in service.ProcessInput) (*service.ProcessResult, error)
	QuestionText(ctx context.Context, userID, questionID int64) (*model.Question, error)
	Chat(ctx context.Context, message string) service.ChatResult
}

// VoiceController handles voice interview endpoints.
type VoiceController struct {
	voice    Voice
	upgrader websocket.Upgrader
}

// NewVoiceController creates a new VoiceController. Origin checks are left to
// the CORS middleware.
func NewVoiceController(voice Voice) *VoiceController {
	return &VoiceController{
		voice: voice,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

type ProcessRequest struct {
	QuestionID   int64  `json:"questionId"`
	QuestionText string `json:"questionText"`
	UserAnswer   string `json:"userAnswer"`
}

type ProcessResponse struct {
	Success      bool   `json:"success"`
	AnswerID     int64  `json:"answerId"`
	FeedbackText string `json:"feedbackText"`
	Score        int    `json:"score"`
	Message      string `json:"message"`
}

type QuestionTextResponse struct {
	Success      bool   `json:"success"`
	QuestionID   int64  `json:"questionId"`
	QuestionText string `json:"questionText"`
}

type ChatRequest struct {
	Message     string `json:"message"`
	InterviewID string `json:"interviewId,omitempty"`
}

type ChatResponse struct {
	Success         bool   `json:"success"`
	Reply           string `json:"reply"`
	OpenAIAvailable bool   `json:"openAIAvailable"`
}

// Process grades a transcribed answer.
func (h *VoiceController) Process(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}
	res, err := h.voice.Process(c.Request.Context(), userID, service.ProcessInput{
		QuestionID:   req.QuestionID,
		QuestionText: req.QuestionText,
		UserAnswer:   req.UserAnswer,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, ProcessResponse{
		Success:      true,
		AnswerID:     res.AnswerID,
		FeedbackText: res.FeedbackText,
		Score:        res.Score,
		Message:      "Answer processed successfully",
	})
}

// QuestionText returns a question for browser text-to-speech.
func (h *VoiceController) QuestionText(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}
	questionID, err := strconv.ParseInt(c.Param("questionId"), 10, 64)
	if err != nil || questionID <= 0 {
		response.Error(c, pkgerrors.New(pkgerrors.InvalidParams).WithMessage("invalid questionId"))
		return
	}
	q, err := h.voice.QuestionText(c.Request.Context(), userID, questionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, QuestionTextResponse{Success: true, QuestionID: q.ID, QuestionText: q.QuestionText})
}

// Chat answers one message. It never fails on the model's account.
func (h *VoiceController) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}
	response.Success(c, toChatResponse(h.voice.Chat(c.Request.Context(), req.Message)))
}

// Stream upgrades to a websocket and answers every {message} frame with a chat reply.
func (h *VoiceController) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(c.Request.Context(), "websocket upgrade failed", zap.Error(err))
		return
	}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxFrameBytes)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go keepAlive(ctx, conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn(ctx, "websocket read failed", zap.Error(err))
			}
			return
		}
		var req ChatRequest
		if err := json.Unmarshal(data, &req); err != nil {
			req.Message = ""
		}
		reply := toChatResponse(h.voice.Chat(ctx, req.Message))
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(reply); err != nil {
			logger.Warn(ctx, "websocket write failed", zap.Error(err))
			return
		}
	}
}

func keepAlive(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func toChatResponse(r service.ChatResult) ChatResponse {
	return ChatResponse{Success: true, Reply: r.Reply, OpenAIAvailable: r.OpenAIAvailable}
}
