package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/thoughtcode/tca-backend/internal/model"
	"github.com/thoughtcode/tca-backend/internal/response"
	"github.com/thoughtcode/tca-backend/internal/service"
	"github.com/thoughtcode/tca-backend/internal/validator"
)

const (
	headerEnrichmentStatus  = "X-Enrichment-Status"
	headerEnrichmentMissing = "X-Enrichment-Missing"
)

// QuestionHandler handles question management endpoints.
type QuestionHandler struct {
	questionService *service.QuestionService
	log             zerolog.Logger
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService, log zerolog.Logger) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
		log:             log.With().Str("component", "question_handler").Logger(),
	}
}

// CreateQuestion godoc
// POST /api/v1/questions
// Stores a new question; absent fields are persisted as NULL.
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var req model.CreateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidPayload, fields)
		return
	}

	if err := h.questionService.Create(c.Request.Context(), req.ToQuestion()); err != nil {
		h.requestLog(c).Error().Err(err).Msg("create question failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Empty(c, http.StatusOK)
}

// UpdateQuestion godoc
// PUT|PATCH /api/v1/questions/:id
// Updates where the question was asked.
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req model.UpdateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.questionService.UpdateWhereAsked(c.Request.Context(), id, req.WhereAsked); err != nil {
		h.requestLog(c).Error().Err(err).Int64("id", id).Msg("update question failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Empty(c, http.StatusOK)
}

// DeleteQuestion godoc
// DELETE /api/v1/questions/:id
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.questionService.Delete(c.Request.Context(), id); err != nil {
		h.requestLog(c).Error().Err(err).Int64("id", id).Msg("delete question failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Empty(c, http.StatusOK)
}

// GetQuestion godoc
// GET /api/v1/questions/:id
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	question, err := h.questionService.Get(c.Request.Context(), id)
	if errors.Is(err, service.ErrQuestionNotFound) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	if err != nil {
		h.requestLog(c).Error().Err(err).Int64("id", id).Msg("get question failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	c.JSON(http.StatusOK, question)
}

// ListQuestions godoc
// GET /api/v1/questions
// Lists all questions ordered by where-asked, merged with enrichment.
// Enrichment outcome is reported in X-Enrichment-Status / X-Enrichment-Missing.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	list, err := h.questionService.List(c.Request.Context())
	if err != nil {
		h.requestLog(c).Error().Err(err).Msg("list questions failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	questions := list.Questions
	if questions == nil {
		questions = []model.ListedQuestion{}
	}

	c.Header(headerEnrichmentStatus, string(list.Status))
	c.Header(headerEnrichmentMissing, strconv.Itoa(list.Missing))
	c.JSON(http.StatusOK, questions)
}

// parseID reads the :id path parameter as an integer, answering 400 otherwise.
func (h *QuestionHandler) parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

func (h *QuestionHandler) requestLog(c *gin.Context) *zerolog.Logger {
	l := h.log.With().Str("request_id", response.RequestID(c)).Logger()
	return &l
}
