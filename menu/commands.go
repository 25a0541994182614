package menu

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/khankhulgun/maplayers/maplayer"
	"github.com/khankhulgun/maplayers/models"
)

// Commands is the layer command surface the menu drives.
type Commands interface {
	State() (maplayer.State, error)
	SelectBaseStyle(style models.BaseStyle) error
	SetOverlayVisibility(id string, visible bool) error
	ToggleAllOverlays() error
}

// Local drives a controller in the same process.
type Local struct {
	*maplayer.Controller
}

func (l Local) State() (maplayer.State, error) {
	return l.Controller.State(), nil
}

// Client drives a running server through its layers API.
type Client struct {
	// BaseURL is the server root, e.g. http://localhost:8080.
	BaseURL string
	Timeout time.Duration
}

var _ Commands = (*Client)(nil)

const apiPrefix = "/mapserver/api/layers"

func NewClient(baseURL string) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), Timeout: 5 * time.Second}
}

// APIError is a rejected command as reported by the server.
type APIError struct {
	Code    int
	Message string
	Err     string
}

func (e *APIError) Error() string {
	if e.Err == "" {
		return fmt.Sprintf("%d %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%d %s: %s", e.Code, e.Message, e.Err)
}

// Retryable reports whether the command was dropped because the map was busy.
func (e *APIError) Retryable() bool {
	return e.Code == fiber.StatusConflict || e.Code == fiber.StatusServiceUnavailable
}

func (c *Client) do(agent *fiber.Agent, out any) error {
	agent.Timeout(c.Timeout)
	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if code >= fiber.StatusBadRequest {
		var res struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		_ = json.Unmarshal(body, &res)
		return &APIError{Code: code, Message: res.Message, Err: res.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) url(path string) string {
	return c.BaseURL + apiPrefix + path
}

func (c *Client) State() (maplayer.State, error) {
	var state maplayer.State
	err := c.do(fiber.Get(c.url("/state")), &state)
	return state, err
}

func (c *Client) SelectBaseStyle(style models.BaseStyle) error {
	return c.do(fiber.Put(c.url("/base-style")).JSON(fiber.Map{"style": style}), nil)
}

func (c *Client) SetOverlayVisibility(id string, visible bool) error {
	path := "/overlays/" + url.PathEscape(id) + "/visibility"
	return c.do(fiber.Put(c.url(path)).JSON(fiber.Map{"visible": visible}), nil)
}

func (c *Client) ToggleAllOverlays() error {
	return c.do(fiber.Post(c.url("/overlays/toggle")), nil)
}
