// Package verify реализует HTTP-обработчик входа по токену доступа Pi.
//
// Токен проверяется на платформе, после чего пользователь создаётся
// или обновляется его имя. В ответе возвращается сохранённый документ пользователя.
package verify

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/pi-premium/internal/http/response"
	"github.com/magabrotheeeer/pi-premium/internal/lib/sl"
	"github.com/magabrotheeeer/pi-premium/internal/models"
	"github.com/magabrotheeeer/pi-premium/internal/services/auth"
)

// ClientUser данные пользователя, переданные клиентским SDK.
type ClientUser struct {
	UID      string `json:"uid"`
	Username string `json:"username"`
}

// Request входные данные для проверки токена.
type Request struct {
	AccessToken string     `json:"accessToken" validate:"required"`
	User        ClientUser `json:"user"`
}

// Response ответ с сохранённым пользователем.
type Response struct {
	response.Response
	User *models.User `json:"user"`
}

// Service описывает бизнес-логику входа.
type Service interface {
	Verify(ctx context.Context, accessToken, clientUID, clientUsername string) (*models.User, error)
}

// Handler обрабатывает HTTP-запросы на проверку токена.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Вход по токену Pi
// @Description Проверяет токен доступа на платформе Pi, создаёт пользователя или обновляет его имя.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Токен доступа и данные пользователя из SDK"
// @Success 200 {object} Response
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Токен не подтверждён"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/verify [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.verify"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.JSON(w, r, http.StatusBadRequest, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		response.JSON(w, r, http.StatusUnprocessableEntity, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	user, err := h.service.Verify(r.Context(), req.AccessToken, req.User.UID, req.User.Username)
	if errors.Is(err, auth.ErrInvalidToken) {
		log.Warn("access token rejected", sl.Err(err))
		response.JSON(w, r, http.StatusUnauthorized, response.Error("Invalid access token"))
		return
	}
	if err != nil {
		log.Error("failed to verify user", sl.Err(err))
		response.JSON(w, r, http.StatusInternalServerError, response.Error("internal error"))
		return
	}

	log.Info("user verified", slog.String("pi_uid", user.PiUID))
	response.JSON(w, r, http.StatusOK, Response{
		Response: response.OK(),
		User:     user,
	})
}
