// Package approve реализует HTTP-обработчик подтверждения платежа сервером.
package approve

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/pi-premium/internal/http/response"
	"github.com/magabrotheeeer/pi-premium/internal/lib/sl"
)

// Request входные данные для подтверждения.
type Request struct {
	PaymentID string `json:"paymentId" validate:"required"`
}

// Service описывает подтверждение платежа.
type Service interface {
	Approve(ctx context.Context, paymentID string) error
}

// Handler обрабатывает запросы на подтверждение платежа.
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
// @Summary Подтверждение платежа
// @Description Подтверждает платёж на платформе Pi. Локальное состояние не меняется.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body Request true "Идентификатор платежа"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Платформа отклонила подтверждение"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /payments/approve [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.approve"

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

	if err := h.service.Approve(r.Context(), req.PaymentID); err != nil {
		log.Error("approval failed", slog.String("payment_id", req.PaymentID), sl.Err(err))
		response.JSON(w, r, http.StatusBadRequest, response.Error("Approval failed"))
		return
	}

	log.Info("payment approved", slog.String("payment_id", req.PaymentID))
	response.JSON(w, r, http.StatusOK, response.OK())
}
