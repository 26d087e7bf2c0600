package supplier_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/Bernah2o/altavista/core"
	"github.com/Bernah2o/altavista/core/supplier"
	inmemdb "github.com/Bernah2o/altavista/storage/database/inmem"
)

var conf = &core.Config{AppName: "Altavista", TestMode: true}

func setup(t *testing.T) *supplier.Service {
	t.Helper()
	return supplier.NewService(conf, inmemdb.NewSupplierRepository(inmemdb.NewDB()))
}

func createSupplier(t *testing.T, svc *supplier.Service, name, kind, taxID string) supplier.Supplier {
	t.Helper()
	sup, err := svc.Create(supplier.NewSupplier{
		Name:  name,
		Kind:  kind,
		TaxID: taxID,
	})
	require.NoError(t, err)
	return sup
}

func TestSupplierLifecycle(t *testing.T) {
	svc := setup(t)

	sup := createSupplier(t, svc, "Aseo Total", supplier.KindServices, "900123456-7")
	assert.Equal(t, supplier.StatusActive, sup.Status)
	assert.True(t, sup.Active())

	got, err := svc.GetByID(sup.ID)
	require.NoError(t, err)
	assert.Equal(t, sup.ID, got.ID)

	got, err = svc.Update(sup.ID, supplier.UpdateSupplier{
		Status:       supplier.StatusBlocked,
		ContactName:  "Pedro Diaz",
		ContactPhone: null.StringFrom("3109876543"),
	})
	require.NoError(t, err)
	assert.Equal(t, supplier.StatusBlocked, got.Status)
	assert.False(t, got.Active())
	assert.Equal(t, "Pedro Diaz", got.ContactName)

	require.NoError(t, svc.Delete(sup.ID))
	_, err = svc.GetByID(sup.ID)
	assert.Equal(t, supplier.ErrNotFound, err)
}

func TestSupplierQuery(t *testing.T) {
	svc := setup(t)
	aseo := createSupplier(t, svc, "Aseo Total", supplier.KindServices, "900123456-7")
	ferreteria := createSupplier(t, svc, "Ferreteria Central", supplier.KindProducts, "830654321-1")

	_, err := svc.Update(ferreteria.ID, supplier.UpdateSupplier{Status: supplier.StatusInactive})
	require.NoError(t, err)

	sups, err := svc.Query(&supplier.QueryFilter{Kind: supplier.KindServices}, nil)
	require.NoError(t, err)
	require.Len(t, sups, 1)
	assert.Equal(t, aseo.ID, sups[0].ID)

	sups, err = svc.Query(&supplier.QueryFilter{Status: supplier.StatusInactive}, nil)
	require.NoError(t, err)
	require.Len(t, sups, 1)
	assert.Equal(t, ferreteria.ID, sups[0].ID)

	sups, err = svc.Query(&supplier.QueryFilter{Search: "830654321"}, nil)
	require.NoError(t, err)
	require.Len(t, sups, 1)
	assert.Equal(t, ferreteria.ID, sups[0].ID)

	sups, err = svc.Query(nil, nil)
	require.NoError(t, err)
	require.Len(t, sups, 2)
	assert.Equal(t, "Aseo Total", sups[0].Name, "sorted by name")
}

func TestNewSupplierValidation(t *testing.T) {
	svc := setup(t)
	validate, _ := core.NewValidator()

	ns := supplier.NewSupplier{
		Name:  "Aseo Total",
		Kind:  supplier.KindServices,
		TaxID: "900.123.456", // dots are not allowed
	}
	assert.Error(t, ns.Validate(validate, svc))

	ns.TaxID = "900123456-7"
	require.NoError(t, ns.Validate(validate, svc))
	_, err := svc.Create(ns)
	require.NoError(t, err)

	// duplicate tax ID
	dup := ns
	dup.Name = "Aseo Total SAS"
	var vErr *core.ValidationError
	require.ErrorAs(t, dup.Validate(validate, svc), &vErr)

	// unknown kind
	bad := ns
	bad.TaxID = "800111222-3"
	bad.Kind = "loans"
	assert.Error(t, bad.Validate(validate, svc))
}
