package payment

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"tourbook/infras/otel"
	bookingService "tourbook/internal/domains/booking/service"
	"tourbook/internal/domains/payment/service"
	"tourbook/shared/constant"
	"tourbook/transport/http/response"
)

const requestParamCode = "code"

type Handler struct {
	service        service.Payment
	bookingService bookingService.Booking
	otel           otel.Otel
}

func New(service service.Payment, bookingService bookingService.Booking, otel otel.Otel) Handler {
	return Handler{
		service:        service,
		bookingService: bookingService,
		otel:           otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/payments", func(routerGroup chi.Router) {
		routerGroup.Get("/return", handler.HandleReturn)
		routerGroup.Get("/{code}/url", handler.GetPaymentURL)
	})
}

// HandleReturn processes the gateway redirect after a payment attempt.
// On a verified successful payment the matching booking is confirmed and
// its ticket issued; a failed payment leaves the booking pending so the
// user can retry before the hold expires.
// @Summary Handle payment gateway return
// @Description Verify the gateway redirect signature and confirm the booking on success.
// @Tags Payment
// @Accept json
// @Produce json
// @Success 200 {object} response.Data[dto.BookingResponse] "Booking confirmed"
// @Failure 400 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/payments/return [get]
func (handler *Handler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".HandleReturn")
	defer scope.End()

	result, err := handler.service.HandleReturn(ctx, r.URL.Query())
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to handle payment return")

		response.WithError(w, err)

		return
	}

	if !result.Success {
		scope.AddEvent("Payment failed for booking " + result.BookingID)

		response.WithJSON(w, http.StatusOK, result)

		return
	}

	booking, err := handler.bookingService.Confirm(ctx, result.BookingID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("booking_id", result.BookingID).Msg("failed to confirm booking after payment")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Booking confirmed after successful payment " + result.PaymentCode)

	response.WithJSON(w, http.StatusOK, booking)
}

// GetPaymentURL builds the gateway redirect URL for a pending payment.
// @Summary Get a payment URL
// @Description Build the gateway redirect URL for a pending payment code.
// @Tags Payment
// @Accept json
// @Produce json
// @Param code path string true "Payment Code"
// @Success 200 {object} response.Data[string] "Payment URL"
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/payments/{code}/url [get]
// @Security BearerAuth
func (handler *Handler) GetPaymentURL(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetPaymentURL")
	defer scope.End()

	code := chi.URLParam(r, requestParamCode)

	url, err := handler.service.PaymentURL(ctx, code)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to build payment URL")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Payment URL built successfully")

	response.WithJSON(w, http.StatusOK, url)
}
