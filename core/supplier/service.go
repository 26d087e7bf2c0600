package supplier

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/Bernah2o/altavista/core"
)

var (
	// errors
	ErrNotFound       = errors.New("supplier not found")
	ErrSupplierExists = errors.New("a supplier with this tax ID already exists")
)

type (
	Repository interface {
		CheckUniqueness(ctx context.Context, taxID string, excludedSuppliers ...Supplier) error
		CreateSupplier(ctx context.Context, sup Supplier) (Supplier, error)
		// QuerySuppliers applies AND operation on available QueryFilter fields.
		QuerySuppliers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Supplier, error)
		GetSupplier(ctx context.Context, id string) (Supplier, error)
		UpdateSupplier(ctx context.Context, sup Supplier) (Supplier, error)
		DeleteSuppliersByID(ctx context.Context, ids []string) (int, error)
	}

	Service struct {
		conf *core.Config
		repo Repository
	}
)

func NewService(conf *core.Config, repo Repository) *Service {
	return &Service{conf: conf, repo: repo}
}

func (svc *Service) checkUniqueness(taxID string, exclSuppliers ...Supplier) error {
	if err := svc.repo.CheckUniqueness(context.Background(), taxID, exclSuppliers...); err != nil {
		if err == ErrSupplierExists {
			return core.NewValidationError(err, core.FieldError{Field: "tax_id", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ns NewSupplier) (Supplier, error) {
	now := time.Now().UTC()
	sup := Supplier{
		Name:         ns.Name,
		Kind:         ns.Kind,
		TaxID:        ns.TaxID,
		Address:      ns.Address,
		Phone:        ns.Phone,
		Email:        ns.Email,
		ContactName:  ns.ContactName,
		ContactPhone: ns.ContactPhone,
		Offering:     ns.Offering,
		Status:       StatusActive,
		Notes:        ns.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateSupplier(context.Background(), sup)
}

func (svc *Service) Query(filter *QueryFilter, ordering []core.DBOrdering) ([]Supplier, error) {
	return svc.repo.QuerySuppliers(context.Background(), filter, ordering)
}

func (svc *Service) GetByID(id string) (Supplier, error) {
	return svc.repo.GetSupplier(context.Background(), id)
}

func (svc *Service) Update(id string, us UpdateSupplier) (Supplier, error) {
	sup, err := svc.GetByID(id)
	if err != nil {
		return Supplier{}, err
	}
	if us.Name != "" {
		sup.Name = us.Name
	}
	if us.Kind != "" {
		sup.Kind = us.Kind
	}
	if us.Address != "" {
		sup.Address = us.Address
	}
	if us.Phone.Valid {
		sup.Phone = us.Phone
	}
	if us.Email.Valid {
		sup.Email = us.Email
	}
	if us.ContactName != "" {
		sup.ContactName = us.ContactName
	}
	if us.ContactPhone.Valid {
		sup.ContactPhone = us.ContactPhone
	}
	if us.Offering != "" {
		sup.Offering = us.Offering
	}
	if us.Status != "" {
		sup.Status = us.Status
	}
	if us.Notes != "" {
		sup.Notes = us.Notes
	}
	sup.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSupplier(context.Background(), sup)
}

func (svc *Service) Delete(ids ...string) error {
	_, err := svc.repo.DeleteSuppliersByID(context.Background(), ids)
	return err
}
