// Package info реализует HTTP-обработчик получения информации о пользователе.
package info

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/pi-premium/internal/http/response"
	"github.com/magabrotheeeer/pi-premium/internal/lib/sl"
	"github.com/magabrotheeeer/pi-premium/internal/models"
)

// Response ответ с пользователем и оставшимися днями премиума.
type Response struct {
	response.Response
	User *models.UserInfo `json:"user"`
}

// Service описывает чтение информации о пользователе.
type Service interface {
	Info(ctx context.Context, piUID string) (*models.UserInfo, error)
}

// Handler обрабатывает запросы информации о пользователе.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Информация о пользователе
// @Description Возвращает пользователя и число полных дней премиума, оставшихся на текущий момент.
// @Tags Users
// @Produce  json
// @Param pi_uid path string true "Идентификатор пользователя Pi"
// @Success 200 {object} Response
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /user/{pi_uid} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.info"

	piUID := chi.URLParam(r, "pi_uid")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("pi_uid", piUID),
	)

	info, err := h.service.Info(r.Context(), piUID)
	if errors.Is(err, models.ErrUserNotFound) {
		log.Info("user not found")
		response.JSON(w, r, http.StatusNotFound, response.Error("User not found"))
		return
	}
	if err != nil {
		log.Error("failed to get user", sl.Err(err))
		response.JSON(w, r, http.StatusInternalServerError, response.Error("internal error"))
		return
	}

	response.JSON(w, r, http.StatusOK, Response{
		Response: response.OK(),
		User:     info,
	})
}
