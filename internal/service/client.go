package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"sales-service/internal/apperror"
	"sales-service/internal/model"
	"sales-service/internal/repository"
	"sales-service/pkg/logger"
	"sales-service/prometheus"

	"go.uber.org/zap"
)

const (
	clientNotFound = "Client not found."
	invalidPeriod  = "Invalid month or year provided."
	cpfTaken       = "The cpf has already been taken."
)

// AddressInput is a complete address
type AddressInput struct {
	Street        string  `json:"street" validate:"required,max=255"`
	Number        string  `json:"number" validate:"required,max=10"`
	Complement    *string `json:"complement" validate:"omitempty,max=255"`
	Neighbourhood string  `json:"neighbourhood" validate:"required,max=255"`
	City          string  `json:"city" validate:"required,max=255"`
	State         string  `json:"state" validate:"required,len=2,alpha"`
	PostalCode    string  `json:"postal_code" validate:"required,max=10"`
}

// AddressPatch carries the address fields present in an update
type AddressPatch struct {
	Street        *string `json:"street" validate:"omitnil,min=1,max=255"`
	Number        *string `json:"number" validate:"omitnil,min=1,max=10"`
	Complement    *string `json:"complement" validate:"omitnil,max=255"`
	Neighbourhood *string `json:"neighbourhood" validate:"omitnil,min=1,max=255"`
	City          *string `json:"city" validate:"omitnil,min=1,max=255"`
	State         *string `json:"state" validate:"omitnil,len=2,alpha"`
	PostalCode    *string `json:"postal_code" validate:"omitnil,min=1,max=10"`
}

// CreateClientInput is the payload of POST /clients
type CreateClientInput struct {
	Name    string        `json:"name" validate:"required,max=255"`
	CPF     string        `json:"cpf" validate:"required,len=11"`
	Email   string        `json:"email" validate:"required,email,max=255"`
	Phone   string        `json:"phone" validate:"required,max=20"`
	Address *AddressInput `json:"address" validate:"required"`
}

// UpdateClientInput is the payload of PUT /clients/:id; nil fields are left unchanged
type UpdateClientInput struct {
	Name    *string       `json:"name" validate:"omitnil,min=1,max=255"`
	CPF     *string       `json:"cpf" validate:"omitnil,len=11"`
	Email   *string       `json:"email" validate:"omitnil,email,max=255"`
	Phone   *string       `json:"phone" validate:"omitnil,min=1,max=20"`
	Address *AddressPatch `json:"address"`
}

// ClientService manages clients and reads their sales
type ClientService struct {
	clients repository.ClientRepository
}

func NewClientService(clients repository.ClientRepository) *ClientService {
	return &ClientService{clients: clients}
}

func (s *ClientService) List(ctx context.Context) ([]model.Client, error) {
	clients, err := s.clients.List(ctx)
	if err != nil {
		return nil, apperror.Internal("Failed to retrieve clients.", err)
	}
	return clients, nil
}

// Sales returns every sale of the client, newest first
func (s *ClientService) Sales(ctx context.Context, id uint) ([]model.Sale, error) {
	if err := s.mustExist(ctx, id); err != nil {
		return nil, err
	}
	sales, err := s.clients.ListSales(ctx, id, nil)
	if err != nil {
		return nil, apperror.Internal("Failed to retrieve sales.", err)
	}
	return sales, nil
}

// SalesByPeriod returns the client's sales made in the given month.
// year and month come straight from the URL and are checked before the client.
func (s *ClientService) SalesByPeriod(ctx context.Context, id uint, year, month string) ([]model.Sale, error) {
	y, errY := strconv.Atoi(year)
	m, errM := strconv.Atoi(month)
	if errY != nil || errM != nil || y < 1900 || y > 9999 || m < 1 || m > 12 {
		return nil, apperror.BusinessRule(invalidPeriod)
	}

	if err := s.mustExist(ctx, id); err != nil {
		return nil, err
	}
	period := repository.MonthPeriod(y, m)
	sales, err := s.clients.ListSales(ctx, id, &period)
	if err != nil {
		return nil, apperror.Internal("Failed to retrieve sales.", err)
	}
	return sales, nil
}

func (s *ClientService) Create(ctx context.Context, in CreateClientInput) (*model.Client, error) {
	log := logger.FromContext(ctx)

	if err := s.checkUnique(ctx, &in.CPF, &in.Email, 0); err != nil {
		return nil, err
	}

	client := &model.Client{
		Name:  in.Name,
		CPF:   in.CPF,
		Email: in.Email,
		Phone: in.Phone,
	}
	if in.Address != nil {
		client.Address = &model.Address{
			Street:        in.Address.Street,
			Number:        in.Address.Number,
			Complement:    in.Address.Complement,
			Neighbourhood: in.Address.Neighbourhood,
			City:          in.Address.City,
			State:         in.Address.State,
			PostalCode:    in.Address.PostalCode,
		}
	}

	if err := s.clients.Create(ctx, client); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, s.duplicate(ctx, &in.CPF, &in.Email, 0)
		}
		return nil, apperror.Internal("Failed to create client.", err)
	}

	prometheus.RecordClientOperation("create")
	log.Info("Client created", zap.Uint("client_id", client.ID), zap.String("cpf", client.CPF))
	return client, nil
}

func (s *ClientService) Update(ctx context.Context, id uint, in UpdateClientInput) (*model.Client, error) {
	log := logger.FromContext(ctx)

	if err := s.mustExist(ctx, id); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, in.CPF, in.Email, id); err != nil {
		return nil, err
	}

	client, err := s.clients.Update(ctx, id, func(c *model.Client) (repository.ClientChanges, error) {
		changes := repository.ClientChanges{Client: in.apply(c)}
		if in.Address == nil {
			return changes, nil
		}
		if c.Address == nil {
			if err := missingAddressFields(in.Address); err != nil {
				return changes, err
			}
			c.Address = &model.Address{ClientID: c.ID}
		}
		changes.Address = applyAddress(c.Address, in.Address)
		return changes, nil
	})
	if err != nil {
		var appErr *apperror.Error
		switch {
		case errors.As(err, &appErr):
			return nil, appErr
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperror.NotFound(clientNotFound)
		case errors.Is(err, repository.ErrDuplicateKey):
			return nil, s.duplicate(ctx, in.CPF, in.Email, id)
		}
		return nil, apperror.Internal("Failed to update client.", err)
	}

	prometheus.RecordClientOperation("update")
	log.Info("Client updated", zap.Uint("client_id", client.ID))
	return client, nil
}

// apply copies the present fields onto c and returns the columns that changed
func (in UpdateClientInput) apply(c *model.Client) map[string]interface{} {
	cols := map[string]interface{}{}
	if in.Name != nil {
		c.Name = *in.Name
		cols["name"] = c.Name
	}
	if in.CPF != nil {
		c.CPF = *in.CPF
		cols["cpf"] = c.CPF
	}
	if in.Email != nil {
		c.Email = *in.Email
		cols["email"] = c.Email
	}
	if in.Phone != nil {
		c.Phone = *in.Phone
		cols["phone"] = c.Phone
	}
	return cols
}

// Delete removes the client along with its address and sales
func (s *ClientService) Delete(ctx context.Context, id uint) error {
	if err := s.clients.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound(clientNotFound)
		}
		return apperror.Internal("Failed to delete client.", err)
	}

	prometheus.RecordClientOperation("delete")
	logger.FromContext(ctx).Info("Client deleted", zap.Uint("client_id", id))
	return nil
}

func (s *ClientService) mustExist(ctx context.Context, id uint) error {
	exists, err := s.clients.Exists(ctx, id)
	if err != nil {
		return apperror.Internal("Failed to retrieve client.", err)
	}
	if !exists {
		return apperror.NotFound(clientNotFound)
	}
	return nil
}

// checkUnique reports taken cpf/email values; nil values are not checked
func (s *ClientService) checkUnique(ctx context.Context, cpf, email *string, exclude uint) error {
	var errs []*apperror.Error

	if cpf != nil {
		taken, err := s.clients.CPFExists(ctx, *cpf, exclude)
		if err != nil {
			return apperror.Internal("Failed to validate client.", err)
		}
		if taken {
			errs = append(errs, apperror.FieldError("cpf", cpfTaken))
		}
	}
	if email != nil {
		taken, err := s.clients.EmailExists(ctx, *email, exclude)
		if err != nil {
			return apperror.Internal("Failed to validate client.", err)
		}
		if taken {
			errs = append(errs, apperror.FieldError("email", emailTaken))
		}
	}

	if merged := apperror.Merge(errs...); merged != nil {
		return merged
	}
	return nil
}

// duplicate explains a unique index violation that slipped past checkUnique.
// When the conflicting row is gone again both fields are reported.
func (s *ClientService) duplicate(ctx context.Context, cpf, email *string, exclude uint) error {
	if err := s.checkUnique(ctx, cpf, email, exclude); err != nil {
		return err
	}
	var errs []*apperror.Error
	if cpf != nil {
		errs = append(errs, apperror.FieldError("cpf", cpfTaken))
	}
	if email != nil {
		errs = append(errs, apperror.FieldError("email", emailTaken))
	}
	if merged := apperror.Merge(errs...); merged != nil {
		return merged
	}
	return apperror.Internal("Failed to save client.", repository.ErrDuplicateKey)
}

// missingAddressFields checks a patch that has to create the address from scratch
func missingAddressFields(p *AddressPatch) error {
	required := []struct {
		field string
		value *string
	}{
		{"street", p.Street},
		{"number", p.Number},
		{"neighbourhood", p.Neighbourhood},
		{"city", p.City},
		{"state", p.State},
		{"postal_code", p.PostalCode},
	}

	fields := map[string][]string{}
	for _, r := range required {
		if r.value == nil {
			key := "address." + r.field
			fields[key] = []string{"The " + strings.ReplaceAll(key, "_", " ") + " field is required."}
		}
	}
	if len(fields) > 0 {
		return apperror.Validation(fields)
	}
	return nil
}

// applyAddress copies the present fields onto a and returns the columns that changed
func applyAddress(a *model.Address, p *AddressPatch) map[string]interface{} {
	cols := map[string]interface{}{}
	if p.Street != nil {
		a.Street = *p.Street
		cols["street"] = a.Street
	}
	if p.Number != nil {
		a.Number = *p.Number
		cols["number"] = a.Number
	}
	if p.Complement != nil {
		a.Complement = p.Complement
		cols["complement"] = *p.Complement
	}
	if p.Neighbourhood != nil {
		a.Neighbourhood = *p.Neighbourhood
		cols["neighbourhood"] = a.Neighbourhood
	}
	if p.City != nil {
		a.City = *p.City
		cols["city"] = a.City
	}
	if p.State != nil {
		a.State = *p.State
		cols["state"] = a.State
	}
	if p.PostalCode != nil {
		a.PostalCode = *p.PostalCode
		cols["postal_code"] = a.PostalCode
	}
	return cols
}
