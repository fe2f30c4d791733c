package tour

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"tourbook/infras/otel"
	reviewService "tourbook/internal/domains/review/service"
	"tourbook/internal/domains/tour/model"
	"tourbook/internal/domains/tour/model/dto"
	"tourbook/internal/domains/tour/service"
	"tourbook/shared"
	"tourbook/shared/constant"
	gDto "tourbook/shared/dto"
	"tourbook/shared/validator"
	"tourbook/transport/http/response"
)

type Handler struct {
	service       service.Tour
	reviewService reviewService.Review
	otel          otel.Otel
}

func New(service service.Tour, reviewService reviewService.Review, otel otel.Otel) Handler {
	return Handler{
		service:       service,
		reviewService: reviewService,
		otel:          otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/tours", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateTour)
		routerGroup.Get("/", handler.GetTours)
		routerGroup.Get("/{id}", handler.GetTourByID)
		routerGroup.Put("/{id}", handler.UpdateTour)
		routerGroup.Delete("/{id}", handler.DeleteTour)
		routerGroup.Post("/{id}/image", handler.UploadTourImage)
		routerGroup.Get("/{id}/reviews", handler.GetTourReviews)
	})
}

// CreateTour handles the creation of a new tour.
// @Summary Create a new tour
// @Description Create a new tour package with an optional cover image.
// @Tags Tour
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} response.Message "Tour created successfully"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/tours [post]
// @Security BearerAuth
func (handler *Handler) CreateTour(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateTour")
	defer scope.End()

	if err := request.ParseMultipartForm(constant.RequestMaxMemory); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to parse multipart form")
		response.WithError(writer, err)

		return
	}

	req := dto.CreateTourRequest{
		Name:        request.FormValue("name"),
		Description: request.FormValue("description"),
		Destination: request.FormValue("destination"),
	}

	if priceStr := request.FormValue("price"); priceStr != "" {
		if p, err := strconv.ParseFloat(priceStr, 64); err == nil {
			req.Price = p
		}
	}

	if durationStr := request.FormValue("duration_days"); durationStr != "" {
		if d, err := strconv.Atoi(durationStr); err == nil {
			req.DurationDays = d
		}
	}

	if slotsStr := request.FormValue("total_slots"); slotsStr != "" {
		if s, err := strconv.Atoi(slotsStr); err == nil {
			req.TotalSlots = s
		}
	}

	if activeStr := request.FormValue("active"); activeStr != "" {
		req.Active = shared.ConvertStringToBool(activeStr)
	}

	file, fileHeader, err := request.FormFile(constant.FormFile)
	if err == nil {
		req.Image = fileHeader
		req.ImageFile = file

		defer file.Close()
	}

	if err := validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request")

		response.WithError(writer, err)

		return
	}

	if err := handler.service.Create(ctx, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create tour")

		response.WithError(writer, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Tour created successfully by user " + user)

	response.WithMessage(writer, http.StatusCreated, "Tour created successfully")
}

// GetTours retrieves all tours based on query parameters.
// @Summary Get all tours
// @Description Retrieve all tours with optional filtering and pagination.
// @Tags Tour
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param destination query string false "Filter by destination"
// @Param active query boolean false "Filter by active status"
// @Success 200 {object} response.Data[dto.GetToursResponse] "List of tours"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/tours [get]
func (handler *Handler) GetTours(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetTours")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	destination := r.URL.Query().Get(model.FieldDestination)
	active := r.URL.Query().Get(model.FieldActive)

	filterGroup := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters:  []any{},
	}

	if destination != "" {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldDestination,
			Operator: gDto.FilterOperatorLike,
			Value:    destination,
			Table:    model.TableName,
		})
	}

	if active != "" {
		if v := shared.ConvertStringToBool(active); v != nil {
			filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
				Field:    model.FieldActive,
				Operator: gDto.FilterOperatorEq,
				Value:    *v,
				Table:    model.TableName,
			})
		}
	}

	tours, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get tours")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Tours retrieved successfully")

	response.WithJSON(w, http.StatusOK, tours)
}

// GetTourByID retrieves a tour by its ID.
// @Summary Get a tour by ID
// @Description Retrieve a tour by its unique identifier.
// @Tags Tour
// @Accept json
// @Produce json
// @Param id path string true "Tour ID"
// @Success 200 {object} response.Data[dto.TourResponse] "Tour details"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/tours/{id} [get]
func (handler *Handler) GetTourByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetTourByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	tour, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get tour by ID")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Tour retrieved successfully")

	response.WithJSON(w, http.StatusOK, tour)
}

// UpdateTour updates an existing tour by its ID.
// @Summary Update a tour by ID
// @Description Update the details of an existing tour.
// @Tags Tour
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Tour ID"
// @Success 200 {object} response.Message "Tour updated successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/tours/{id} [put]
// @Security BearerAuth
func (handler *Handler) UpdateTour(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateTour")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	if err := r.ParseMultipartForm(constant.RequestMaxMemory); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to parse multipart form")
		response.WithError(w, err)

		return
	}

	req := dto.UpdateTourRequest{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Destination: r.FormValue("destination"),
	}

	if priceStr := r.FormValue("price"); priceStr != "" {
		if p, err := strconv.ParseFloat(priceStr, 64); err == nil {
			req.Price = &p
		}
	}

	if durationStr := r.FormValue("duration_days"); durationStr != "" {
		if d, err := strconv.Atoi(durationStr); err == nil {
			req.DurationDays = &d
		}
	}

	if slotsStr := r.FormValue("total_slots"); slotsStr != "" {
		if s, err := strconv.Atoi(slotsStr); err == nil {
			req.TotalSlots = &s
		}
	}

	if activeStr := r.FormValue("active"); activeStr != "" {
		req.Active = shared.ConvertStringToBool(activeStr)
	}

	file, fileHeader, err := r.FormFile(constant.FormFile)
	if err == nil {
		req.Image = fileHeader
		req.ImageFile = file

		defer file.Close()
	}

	if err := validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Update(ctx, req, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update tour")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Tour updated successfully by user " + user)

	response.WithMessage(w, http.StatusOK, "Tour updated successfully")
}

// DeleteTour deletes a tour by its ID.
// @Summary Delete a tour by ID
// @Description Soft delete a tour using its unique identifier.
// @Tags Tour
// @Accept json
// @Produce json
// @Param id path string true "Tour ID"
// @Success 200 {object} response.Message "Tour deleted successfully"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/tours/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteTour(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteTour")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	if err := handler.service.Delete(ctx, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete tour")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Tour deleted successfully by user " + user)

	response.WithMessage(w, http.StatusOK, "Tour deleted successfully")
}

// UploadTourImage replaces the cover image of an existing tour.
// @Summary Upload a tour image
// @Description Upload or replace the cover image of a tour.
// @Tags Tour
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Tour ID"
// @Success 200 {object} response.Message "Tour image uploaded successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/tours/{id}/image [post]
// @Security BearerAuth
func (handler *Handler) UploadTourImage(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UploadTourImage")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	if err := r.ParseMultipartForm(constant.RequestMaxMemory); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to parse multipart form")
		response.WithError(w, err)

		return
	}

	req := dto.UpdateTourRequest{}

	file, fileHeader, err := r.FormFile(constant.FormFile)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("missing image file")

		response.WithError(w, err)

		return
	}

	req.Image = fileHeader
	req.ImageFile = file

	defer file.Close()

	if err := validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Update(ctx, req, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to upload tour image")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Tour image uploaded successfully")

	response.WithMessage(w, http.StatusOK, "Tour image uploaded successfully")
}

// GetTourReviews retrieves the reviews of a tour.
// @Summary Get tour reviews
// @Description Retrieve reviews for a tour with pagination.
// @Tags Tour
// @Accept json
// @Produce json
// @Param id path string true "Tour ID"
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Success 200 {object} response.Data[reviewDto.GetReviewsResponse] "List of reviews"
// @Failure 500 {object} response.Error
// @Router /v1/tours/{id}/reviews [get]
func (handler *Handler) GetTourReviews(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetTourReviews")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	reviews, err := handler.reviewService.GetAllByTour(ctx, id, queryParams)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get tour reviews")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Tour reviews retrieved successfully")

	response.WithJSON(w, http.StatusOK, reviews)
}
