package promotion

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"tourbook/infras/otel"
	"tourbook/internal/domains/promotion/model"
	"tourbook/internal/domains/promotion/model/dto"
	"tourbook/internal/domains/promotion/service"
	"tourbook/shared"
	"tourbook/shared/constant"
	gDto "tourbook/shared/dto"
	"tourbook/shared/validator"
	"tourbook/transport/http/response"
)

type Handler struct {
	service service.Promotion
	otel    otel.Otel
}

func New(service service.Promotion, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/promotions", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreatePromotion)
		routerGroup.Get("/", handler.GetPromotions)
		routerGroup.Post("/validate", handler.ValidatePromotion)
		routerGroup.Delete("/{id}", handler.DeletePromotion)
	})
}

// CreatePromotion handles the creation of a new promotion.
// @Summary Create a new promotion
// @Description Create a new promotion code with its discount rules.
// @Tags Promotion
// @Accept json
// @Produce json
// @Param request body dto.CreatePromotionRequest true "Create Promotion Request"
// @Success 201 {object} response.Message "Promotion created successfully"
// @Failure 400 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/promotions [post]
// @Security BearerAuth
func (handler *Handler) CreatePromotion(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreatePromotion")
	defer scope.End()

	req := dto.CreatePromotionRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Create(ctx, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create promotion")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Promotion created successfully by user " + user)

	response.WithMessage(w, http.StatusCreated, "Promotion created successfully")
}

// GetPromotions retrieves all promotions based on query parameters.
// @Summary Get all promotions
// @Description Retrieve all promotions with optional filtering and pagination.
// @Tags Promotion
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param active query boolean false "Filter by active status"
// @Success 200 {object} response.Data[dto.GetPromotionsResponse] "List of promotions"
// @Failure 500 {object} response.Error
// @Router /v1/promotions [get]
// @Security BearerAuth
func (handler *Handler) GetPromotions(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetPromotions")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	filterGroup := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters:  []any{},
	}

	if active := r.URL.Query().Get(model.FieldActive); active != "" {
		if v := shared.ConvertStringToBool(active); v != nil {
			filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
				Field:    model.FieldActive,
				Operator: gDto.FilterOperatorEq,
				Value:    *v,
				Table:    model.TableName,
			})
		}
	}

	promotions, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get promotions")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Promotions retrieved successfully")

	response.WithJSON(w, http.StatusOK, promotions)
}

// ValidatePromotion checks a promotion code against a booking total.
// @Summary Validate a promotion code
// @Description Check a promotion code and preview the discount for a total.
// @Tags Promotion
// @Accept json
// @Produce json
// @Param request body dto.ValidatePromotionRequest true "Validate Promotion Request"
// @Success 200 {object} response.Data[dto.ValidatePromotionResponse] "Promotion validated"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/promotions/validate [post]
// @Security BearerAuth
func (handler *Handler) ValidatePromotion(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ValidatePromotion")
	defer scope.End()

	req := dto.ValidatePromotionRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	res, err := handler.service.Validate(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate promotion")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Promotion validated successfully")

	response.WithJSON(w, http.StatusOK, res)
}

// DeletePromotion deletes a promotion by its ID.
// @Summary Delete a promotion by ID
// @Description Delete a promotion using its unique identifier.
// @Tags Promotion
// @Accept json
// @Produce json
// @Param id path string true "Promotion ID"
// @Success 200 {object} response.Message "Promotion deleted successfully"
// @Failure 404 {object} response.Error
// @Router /v1/promotions/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeletePromotion(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeletePromotion")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	if err := handler.service.Delete(ctx, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete promotion")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Promotion deleted successfully by user " + user)

	response.WithMessage(w, http.StatusOK, "Promotion deleted successfully")
}
