package emulator

import (
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"
)

// errorBody is the JSON error shape of the FeatherVault API.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// setSecretBody is the request body for PUT /v1/secrets/:name.
type setSecretBody struct {
	Value       string            `json:"value"`
	ContentType string            `json:"content_type,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
	Enabled     *bool             `json:"enabled,omitempty"`
	NotBefore   *time.Time        `json:"not_before,omitempty"`
	ExpiresOn   *time.Time        `json:"expires_on,omitempty"`
}

// listResponse is the response body for GET /v1/secrets.
type listResponse struct {
	Items []listItem `json:"items"`
}

// listItem is a SecretRecord without its value.
type listItem struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	ContentType string            `json:"content_type,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
	Attributes  SecretAttributes  `json:"attributes"`
}

// healthBody is the response body for GET /health.
type healthBody struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// Handlers serves the FeatherVault HTTP API against a Store.
type Handlers struct {
	store   Store
	log     *logrus.Entry
	started time.Time
}

// NewHandlers creates the request handlers for the given store.
func NewHandlers(store Store, log *logrus.Entry) *Handlers {
	return &Handlers{
		store:   store,
		log:     log,
		started: time.Now(),
	}
}

// SetSecret handles PUT /v1/secrets/:name.
func (h *Handlers) SetSecret(c *fiber.Ctx) error {
	name, ok := secretName(c)
	if !ok {
		return nil
	}

	var body setSecretBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
	}

	if body.NotBefore != nil && body.ExpiresOn != nil && !body.ExpiresOn.After(*body.NotBefore) {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{
			Error: "expires_on must be after not_before",
			Code:  "INVALID_REQUEST",
		})
	}

	record, err := h.store.SetSecret(c.Context(), name, SetSecretInput{
		Value:       body.Value,
		ContentType: body.ContentType,
		Tags:        body.Tags,
		Enabled:     body.Enabled,
		NotBefore:   body.NotBefore,
		ExpiresOn:   body.ExpiresOn,
	})
	recordOperation("set", err)
	if err != nil {
		return h.storeError(c, err)
	}

	h.log.WithFields(logrus.Fields{
		"secret":  name,
		"version": record.Version,
	}).Debug("secret stored")

	return c.JSON(record)
}

// GetSecret handles GET /v1/secrets/:name.
func (h *Handlers) GetSecret(c *fiber.Ctx) error {
	name, ok := secretName(c)
	if !ok {
		return nil
	}

	record, err := h.store.GetSecret(c.Context(), name, c.Query("version"))
	recordOperation("get", err)
	if err != nil {
		return h.storeError(c, err)
	}

	return c.JSON(record)
}

// DeleteSecret handles DELETE /v1/secrets/:name.
func (h *Handlers) DeleteSecret(c *fiber.Ctx) error {
	name, ok := secretName(c)
	if !ok {
		return nil
	}

	err := h.store.DeleteSecret(c.Context(), name)
	recordOperation("delete", err)
	if err != nil {
		return h.storeError(c, err)
	}

	h.log.WithField("secret", name).Debug("secret deleted")

	return c.SendStatus(fiber.StatusNoContent)
}

// ListSecrets handles GET /v1/secrets.
func (h *Handlers) ListSecrets(c *fiber.Ctx) error {
	max := 0
	if raw := c.Query("max_results"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(errorBody{
				Error: "max_results must be a non-negative integer",
				Code:  "INVALID_REQUEST",
			})
		}
		max = parsed
	}

	records, err := h.store.ListSecrets(c.Context(), max)
	recordOperation("list", err)
	if err != nil {
		return h.storeError(c, err)
	}

	items := make([]listItem, 0, len(records))
	for _, record := range records {
		items = append(items, listItem{
			Name:        record.Name,
			Version:     record.Version,
			ContentType: record.ContentType,
			Tags:        record.Tags,
			Attributes:  record.Attributes,
		})
	}

	return c.JSON(listResponse{Items: items})
}

// Health handles GET /health.
func (h *Handlers) Health(c *fiber.Ctx) error {
	status := "healthy"
	code := fiber.StatusOK
	if err := h.store.Ping(c.Context()); err != nil {
		status = "unhealthy"
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(healthBody{
		Status:  status,
		Service: "featherd",
		Version: "1.0.0",
		Uptime:  time.Since(h.started).Round(time.Second).String(),
	})
}

// secretName extracts and decodes the :name path parameter. Clients
// percent-encode names, so "prod%2Fdb" arrives here as "prod/db".
// On failure the 400 response is written and ok is false.
//
// The param is backed by fasthttp's reusable request buffer, which is
// overwritten once the handler returns; the name is copied because the
// store keeps it past the request.
func secretName(c *fiber.Ctx) (name string, ok bool) {
	raw := c.Params("name")
	if raw == "" {
		_ = c.Status(fiber.StatusBadRequest).JSON(errorBody{
			Error: "secret name must not be empty",
			Code:  "INVALID_REQUEST",
		})
		return "", false
	}
	name, err := url.PathUnescape(utils.CopyString(raw))
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(errorBody{
			Error: "secret name is not valid percent-encoding",
			Code:  "INVALID_REQUEST",
		})
		return "", false
	}
	return name, true
}

func (h *Handlers) storeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrSecretNotFound):
		return c.Status(fiber.StatusNotFound).JSON(errorBody{
			Error: "secret not found",
			Code:  "SECRET_NOT_FOUND",
		})
	case errors.Is(err, ErrSecretDisabled):
		return c.Status(fiber.StatusForbidden).JSON(errorBody{
			Error: "secret is disabled",
			Code:  "SECRET_DISABLED",
		})
	default:
		h.log.WithError(err).Error("store operation failed")
		return c.Status(fiber.StatusInternalServerError).JSON(errorBody{
			Error: "internal error",
			Code:  "INTERNAL_ERROR",
		})
	}
}
