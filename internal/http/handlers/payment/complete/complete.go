// Package complete реализует HTTP-обработчик завершения платежа.
//
// Платёж завершается на платформе Pi, затем по его деталям плательщику
// продлевается премиум. В ответе возвращается новый срок действия.
package complete

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/pi-premium/internal/http/response"
	"github.com/magabrotheeeer/pi-premium/internal/lib/sl"
	"github.com/magabrotheeeer/pi-premium/internal/paymentprovider"
	"github.com/magabrotheeeer/pi-premium/internal/services/payment"
)

// Request входные данные для завершения платежа.
type Request struct {
	PaymentID string `json:"paymentId" validate:"required"`
	TxID      string `json:"txid" validate:"required"`
}

// Response ответ с новым сроком премиума.
type Response struct {
	response.Response
	NewExpiry time.Time `json:"new_expiry"`
}

// Service описывает завершение платежа.
type Service interface {
	Complete(ctx context.Context, paymentID, txid string) (*payment.CompleteResult, error)
}

// Handler обрабатывает запросы на завершение платежа.
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
// @Summary Завершение платежа
// @Description Завершает платёж на платформе Pi и продлевает премиум плательщика. Платёж от 2 Pi добавляет 30 дней.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body Request true "Идентификатор платежа и транзакции"
// @Success 200 {object} Response
// @Failure 400 {object} response.ErrorResponse "Платформа отклонила завершение или платёж без плательщика"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /payments/complete [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.complete"

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

	log = log.With(slog.String("payment_id", req.PaymentID))
	res, err := h.service.Complete(r.Context(), req.PaymentID, req.TxID)
	if err != nil {
		status, msg := errorResponse(err)
		log.Error("completion failed", sl.Err(err))
		response.JSON(w, r, status, response.Error(msg))
		return
	}

	log.Info("payment completed", slog.String("pi_uid", res.PiUID), slog.Bool("duplicate", res.Duplicate))
	response.JSON(w, r, http.StatusOK, Response{
		Response:  response.OK(),
		NewExpiry: res.NewExpiry,
	})
}

func errorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, paymentprovider.ErrCompletionFailed):
		return http.StatusBadRequest, "Completion failed"
	case errors.Is(err, paymentprovider.ErrFetchFailed):
		return http.StatusBadRequest, "Cannot fetch payment details"
	case errors.Is(err, payment.ErrUserNotIdentified):
		return http.StatusBadRequest, "User not identified"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
