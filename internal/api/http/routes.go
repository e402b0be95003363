package httpapi

import (
	"context"
	"errors"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/caffind/caffind/internal/chat"
	"github.com/caffind/caffind/internal/geo"
	"github.com/caffind/caffind/internal/geocode"
	"github.com/caffind/caffind/internal/identity"
	"github.com/caffind/caffind/internal/poi"
	"github.com/caffind/caffind/internal/refresh"
	"github.com/caffind/caffind/internal/route"
	"github.com/caffind/caffind/internal/store"
	"github.com/caffind/caffind/internal/translate"
	"github.com/caffind/caffind/internal/weather"
)

var validate = validator.New()

// ErrorHandler is the app-wide error response: every fiber.Error and panic
// recovery lands here and comes back as the same JSON envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// Directions is the routing dependency the handlers call.
type Directions interface {
	Directions(ctx context.Context, from, to geo.Coordinate, profile route.Profile) (route.Route, error)
}

// Translator is the translation dependency the handlers call.
type Translator interface {
	Translate(ctx context.Context, text, target, source string) (translate.Result, error)
}

// IdentityProvider is the external auth dependency the handlers call.
type IdentityProvider interface {
	SignIn(ctx context.Context, email, password string) (identity.Account, error)
	SignUp(ctx context.Context, email, password string) (identity.Account, error)
	SocialSignIn(ctx context.Context, provider identity.SocialProvider, accessToken string) (identity.Account, error)
	DeleteAccount(ctx context.Context, idToken string) error
}

// Deps bundles everything the HTTP layer needs.
type Deps struct {
	Orchestrator *refresh.Orchestrator
	Shops        refresh.POIFetcher
	Weather      refresh.WeatherFetcher
	Geocoder     geocode.Provider
	Router       Directions
	Translator   Translator
	Chat         chat.Sender
	Identity     IdentityProvider
	Sessions     *identity.Registry
	Store        *store.MemoryStore

	GeocodeTimeout time.Duration
}

type handlers struct {
	Deps

	convMu        sync.Mutex
	conversations map[string]*chat.Conversation
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	h := &handlers{
		Deps:          deps,
		conversations: make(map[string]*chat.Conversation),
	}

	v1 := app.Group("/api/v1")

	v1.Post("/refresh", h.postRefresh)
	v1.Get("/state", h.getState)
	v1.Get("/cafes", h.getCafes)
	v1.Get("/weather/current", h.getCurrentWeather)
	v1.Get("/weather/history", h.getWeatherHistory)
	v1.Get("/geocode", h.getGeocode)
	v1.Get("/route", h.getRoute)
	v1.Post("/translate", h.postTranslate)

	auth := v1.Group("/auth")
	auth.Post("/login", h.postLogin)
	auth.Post("/signup", h.postSignup)
	auth.Post("/social", h.postSocialLogin)
	auth.Post("/logout", h.postLogout)
	auth.Delete("/account", h.deleteAccount)

	v1.Post("/chat", requireSession(deps.Sessions), h.postChat)
	v1.Get("/chat", requireSession(deps.Sessions), h.getChat)
}

// coordinateQuery holds lat/lon query parameters.
type coordinateQuery struct {
	Lat float64
	Lon float64
}

func (q coordinateQuery) toCoordinate() geo.Coordinate {
	return geo.Coordinate{Lat: q.Lat, Lon: q.Lon}
}

func parseCoordinateQuery(c *fiber.Ctx, latKey, lonKey string) (coordinateQuery, error) {
	var q coordinateQuery

	lat, err := strconv.ParseFloat(c.Query(latKey), 64)
	if err != nil {
		return q, errors.New(latKey + " must be a number")
	}
	lon, err := strconv.ParseFloat(c.Query(lonKey), 64)
	if err != nil {
		return q, errors.New(lonKey + " must be a number")
	}

	q.Lat = lat
	q.Lon = lon
	if err := q.toCoordinate().Validate(); err != nil {
		return q, err
	}
	return q, nil
}

type refreshRequest struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

func (h *handlers) postRefresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	coord := geo.Coordinate{Lat: req.Lat, Lon: req.Lon}
	if err := coord.Validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	gen := h.Orchestrator.Refresh(coord)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"generation": gen,
	})
}

func (h *handlers) getState(c *fiber.Ctx) error {
	return c.JSON(h.Orchestrator.State())
}

func (h *handlers) getCafes(c *fiber.Ctx) error {
	q, err := parseCoordinateQuery(c, "lat", "lon")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	shops, err := h.Shops.Search(c.Context(), q.toCoordinate())
	if err != nil {
		// POI failures degrade to an empty list with a generic message.
		log.Printf("shop search failed for %s: %v", q.toCoordinate(), err)
		return c.JSON(fiber.Map{
			"shops":   []poi.Shop{},
			"message": "Coffee shops are currently unavailable.",
		})
	}

	return c.JSON(fiber.Map{"shops": shops})
}

func (h *handlers) getCurrentWeather(c *fiber.Ctx) error {
	q, err := parseCoordinateQuery(c, "lat", "lon")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	snap, err := h.Weather.Current(c.Context(), q.toCoordinate())
	if err != nil {
		if errors.Is(err, weather.ErrMissingAPIKey) {
			return fiber.NewError(fiber.StatusServiceUnavailable, "Weather service is not configured.")
		}
		log.Printf("weather fetch failed for %s: %v", q.toCoordinate(), err)
		return fiber.NewError(fiber.StatusBadGateway, "Weather is currently unavailable.")
	}

	return c.JSON(snap)
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Coordinate coordinateQuery
	From       time.Time `validate:"required"`
	To         time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	q, err := parseCoordinateQuery(c, "lat", "lon")
	if err != nil {
		return err
	}
	h.Coordinate = q

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

func (h *handlers) getWeatherHistory(c *fiber.Ctx) error {
	var req historyQuery
	if err := req.bind(c); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	coord := req.Coordinate.toCoordinate()
	snapshots, err := h.Store.GetRange(coord, req.From, req.To)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "no history for requested range")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch history")
	}

	return c.JSON(fiber.Map{
		"coordinate": coord,
		"from":       req.From,
		"to":         req.To,
		"snapshots":  snapshots,
	})
}

func (h *handlers) getGeocode(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return fiber.NewError(fiber.StatusBadRequest, "q query parameter is required")
	}

	ctx, cancel := context.WithTimeout(c.Context(), h.GeocodeTimeout)
	defer cancel()

	coord, err := h.Geocoder.Search(ctx, query)
	if err != nil {
		if errors.Is(err, geocode.ErrNoResults) {
			return fiber.NewError(fiber.StatusNotFound, "no matching location")
		}
		log.Printf("geocoding failed for %q: %v", query, err)
		return fiber.NewError(fiber.StatusBadGateway, "Address lookup is currently unavailable.")
	}

	return c.JSON(coord)
}

func (h *handlers) getRoute(c *fiber.Ctx) error {
	from, err := parseCoordinateQuery(c, "fromLat", "fromLon")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	to, err := parseCoordinateQuery(c, "toLat", "toLon")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	profile := route.Profile(c.Query("profile", string(route.ProfileWalking)))
	if !profile.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "profile must be walking or driving")
	}

	r, err := h.Router.Directions(c.Context(), from.toCoordinate(), to.toCoordinate(), profile)
	if err != nil {
		if errors.Is(err, route.ErrNoRoute) {
			return fiber.NewError(fiber.StatusNotFound, "no route found")
		}
		log.Printf("routing failed %s -> %s: %v", from.toCoordinate(), to.toCoordinate(), err)
		return fiber.NewError(fiber.StatusBadGateway, "Directions are currently unavailable.")
	}

	h.Orchestrator.SetRoute(r)
	return c.JSON(r)
}

type translateRequest struct {
	Text   string `json:"text"`
	Target string `json:"target" validate:"omitempty,min=2,max=5"`
	Source string `json:"source" validate:"omitempty,min=2,max=5"`
}

func (h *handlers) postTranslate(c *fiber.Ctx) error {
	var req translateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	result, err := h.Translator.Translate(c.Context(), req.Text, req.Target, req.Source)
	if err != nil {
		if errors.Is(err, translate.ErrEmptyText) {
			return fiber.NewError(fiber.StatusBadRequest, "nothing to translate")
		}
		// The previous successful translation stays in state untouched.
		log.Printf("translation failed: %v", err)
		return fiber.NewError(fiber.StatusBadGateway, "Translation is currently unavailable.")
	}

	h.Orchestrator.StoreTranslation(result)
	return c.JSON(result)
}

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func (h *handlers) postLogin(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	account, err := h.Identity.SignIn(c.Context(), req.Email, req.Password)
	if err != nil {
		return authError(c, err)
	}
	return h.establishSession(c, account)
}

func (h *handlers) postSignup(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	account, err := h.Identity.SignUp(c.Context(), req.Email, req.Password)
	if err != nil {
		return authError(c, err)
	}
	return h.establishSession(c, account)
}

type socialLoginRequest struct {
	Provider    string `json:"provider" validate:"required"`
	AccessToken string `json:"accessToken" validate:"required"`
}

func (h *handlers) postSocialLogin(c *fiber.Ctx) error {
	var req socialLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	provider := identity.SocialProvider(req.Provider)
	if !provider.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "unsupported sign-in provider")
	}

	account, err := h.Identity.SocialSignIn(c.Context(), provider, req.AccessToken)
	if err != nil {
		return authError(c, err)
	}
	return h.establishSession(c, account)
}

func (h *handlers) establishSession(c *fiber.Ctx, account identity.Account) error {
	token, user, err := h.Sessions.Establish(account)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to establish session")
	}
	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

func (h *handlers) postLogout(c *fiber.Ctx) error {
	token := bearerToken(c)
	if token == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
	}
	if err := h.Sessions.End(token); err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid session")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) deleteAccount(c *fiber.Ctx) error {
	token := bearerToken(c)
	if token == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
	}

	providerToken, err := h.Sessions.ProviderToken(token)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid session")
	}

	if err := h.Identity.DeleteAccount(c.Context(), providerToken); err != nil {
		return authError(c, err)
	}

	// The provider account is gone; the local session follows.
	if err := h.Sessions.End(token); err != nil {
		log.Printf("ending session after account deletion failed: %v", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// authError maps an identity provider failure through the fixed message table
// and surfaces it inline without closing the session flow.
func authError(c *fiber.Ctx, err error) error {
	log.Printf("identity provider call failed: %v", err)
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error":   true,
		"message": identity.UserMessage(err),
	})
}

type chatRequest struct {
	Message string `json:"message" validate:"required"`
}

func (h *handlers) postChat(c *fiber.Ctx) error {
	user := c.Locals("user").(identity.User)

	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	conv := h.conversation(user.UID)
	reply, err := conv.Send(c.Context(), h.Chat, user.Email, req.Message)
	if err != nil {
		// The conversation history is untouched on failure.
		log.Printf("chat send failed for %s: %v", user.UID, err)
		return fiber.NewError(fiber.StatusBadGateway, "Chat is currently unavailable.")
	}

	return c.JSON(reply)
}

func (h *handlers) getChat(c *fiber.Ctx) error {
	user := c.Locals("user").(identity.User)
	conv := h.conversation(user.UID)
	return c.JSON(fiber.Map{"messages": conv.Messages()})
}

func (h *handlers) conversation(uid string) *chat.Conversation {
	h.convMu.Lock()
	defer h.convMu.Unlock()

	conv, ok := h.conversations[uid]
	if !ok {
		conv = &chat.Conversation{}
		h.conversations[uid] = conv
	}
	return conv
}

// requireSession guards chat endpoints behind a valid bearer session.
func requireSession(sessions *identity.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		user, err := sessions.Lookup(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid session")
		}

		c.Locals("user", user)
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	const prefix = "Bearer "
	header := c.Get(fiber.HeaderAuthorization)
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
