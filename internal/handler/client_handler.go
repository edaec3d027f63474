package handler

import (
	"context"
	"net/http"

	"sales-service/internal/model"
	"sales-service/internal/service"

	"github.com/labstack/echo/v4"
)

const clientNotFound = "Client not found."

// ClientService is what ClientHandler needs from the client registry
type ClientService interface {
	List(ctx context.Context) ([]model.Client, error)
	Sales(ctx context.Context, id uint) ([]model.Sale, error)
	SalesByPeriod(ctx context.Context, id uint, year, month string) ([]model.Sale, error)
	Create(ctx context.Context, in service.CreateClientInput) (*model.Client, error)
	Update(ctx context.Context, id uint, in service.UpdateClientInput) (*model.Client, error)
	Delete(ctx context.Context, id uint) error
}

type ClientHandler struct {
	clients ClientService
}

func NewClientHandler(clients ClientService) *ClientHandler {
	return &ClientHandler{clients: clients}
}

func (h *ClientHandler) List(c echo.Context) error {
	clients, err := h.clients.List(c.Request().Context())
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Clients retrieved successfully.", clients)
}

func (h *ClientHandler) Sales(c echo.Context) error {
	id, err := pathID(c, clientNotFound)
	if err != nil {
		return err
	}
	sales, err := h.clients.Sales(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Sales retrieved successfully.", sales)
}

func (h *ClientHandler) SalesByPeriod(c echo.Context) error {
	id, err := pathID(c, clientNotFound)
	if err != nil {
		return err
	}
	sales, err := h.clients.SalesByPeriod(c.Request().Context(), id, c.Param("year"), c.Param("month"))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Sales retrieved successfully.", sales)
}

func (h *ClientHandler) Create(c echo.Context) error {
	var in service.CreateClientInput
	if err := bind(c, &in); err != nil {
		return err
	}
	client, err := h.clients.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, "Client created successfully.", client)
}

func (h *ClientHandler) Update(c echo.Context) error {
	id, err := pathID(c, clientNotFound)
	if err != nil {
		return err
	}
	var in service.UpdateClientInput
	if err := bind(c, &in); err != nil {
		return err
	}
	client, err := h.clients.Update(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, "Client updated successfully.", client)
}

func (h *ClientHandler) Delete(c echo.Context) error {
	id, err := pathID(c, clientNotFound)
	if err != nil {
		return err
	}
	if err := h.clients.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
