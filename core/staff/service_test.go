package staff_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/Bernah2o/altavista/core"
	"github.com/Bernah2o/altavista/core/staff"
	inmemdb "github.com/Bernah2o/altavista/storage/database/inmem"
)

var conf = &core.Config{AppName: "Altavista", TestMode: true}

func setup(t *testing.T) *staff.Service {
	t.Helper()
	return staff.NewService(conf, inmemdb.NewStaffRepository(inmemdb.NewDB()))
}

func createEmployee(t *testing.T, svc *staff.Service, first, last, nid, position string) staff.Employee {
	t.Helper()
	emp, err := svc.Create(staff.NewEmployee{
		FirstName:  first,
		LastName:   last,
		NationalID: nid,
		Position:   position,
		HiredOn:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Salary:     decimal.NewFromInt(1800000),
	})
	require.NoError(t, err)
	return emp
}

func TestEmployeeLifecycle(t *testing.T) {
	svc := setup(t)

	emp := createEmployee(t, svc, "Carlos", "Gomez", "1030507090", staff.PositionSecurity)
	assert.True(t, emp.Active)
	assert.Equal(t, "Carlos Gomez", emp.FullName())

	got, err := svc.GetByID(emp.ID)
	require.NoError(t, err)
	assert.Equal(t, emp.ID, got.ID)

	got, err = svc.Update(emp.ID, staff.UpdateEmployee{
		Position: staff.PositionMaintenance,
		Phone:    null.StringFrom("3001234567"),
	})
	require.NoError(t, err)
	assert.Equal(t, staff.PositionMaintenance, got.Position)
	assert.Equal(t, null.StringFrom("3001234567"), got.Phone)

	// leaving deactivates the employee
	left := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	got, err = svc.Update(emp.ID, staff.UpdateEmployee{LeftOn: null.TimeFrom(left)})
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.Equal(t, left, got.LeftOn.Time)

	require.NoError(t, svc.Delete(emp.ID))
	_, err = svc.GetByID(emp.ID)
	assert.Equal(t, staff.ErrNotFound, err)
}

func TestEmployeeQuery(t *testing.T) {
	svc := setup(t)
	carlos := createEmployee(t, svc, "Carlos", "Gomez", "1030507090", staff.PositionSecurity)
	ana := createEmployee(t, svc, "Ana", "Ruiz", "2040608010", staff.PositionCleaning)

	inactive := false
	_, err := svc.Update(ana.ID, staff.UpdateEmployee{Active: &inactive})
	require.NoError(t, err)

	emps, err := svc.Query(&staff.QueryFilter{Position: staff.PositionSecurity}, nil)
	require.NoError(t, err)
	require.Len(t, emps, 1)
	assert.Equal(t, carlos.ID, emps[0].ID)

	active := true
	emps, err = svc.Query(&staff.QueryFilter{Active: &active}, nil)
	require.NoError(t, err)
	require.Len(t, emps, 1)
	assert.Equal(t, carlos.ID, emps[0].ID)

	emps, err = svc.Query(&staff.QueryFilter{Search: "ruiz"}, nil)
	require.NoError(t, err)
	require.Len(t, emps, 1)
	assert.Equal(t, ana.ID, emps[0].ID)

	emps, err = svc.Query(nil, nil)
	require.NoError(t, err)
	require.Len(t, emps, 2)
	assert.Equal(t, "Gomez", emps[0].LastName, "sorted by last name")
}

func TestNewEmployeeValidation(t *testing.T) {
	svc := setup(t)
	validate, _ := core.NewValidator()

	ne := staff.NewEmployee{
		FirstName:  "Ana",
		LastName:   "Ruiz",
		NationalID: "52.864.197", // dots are not allowed
		Position:   staff.PositionCleaning,
		HiredOn:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	assert.Error(t, ne.Validate(validate, svc))

	ne.NationalID = "52864197"
	require.NoError(t, ne.Validate(validate, svc))
	_, err := svc.Create(ne)
	require.NoError(t, err)

	// duplicate national ID
	dup := ne
	var vErr *core.ValidationError
	require.ErrorAs(t, dup.Validate(validate, svc), &vErr)

	// negative salary
	neg := ne
	neg.NationalID = "1112223334"
	neg.Salary = decimal.NewFromInt(-1)
	require.ErrorAs(t, neg.Validate(validate, svc), &vErr)

	// bad shift time
	shift := ne
	shift.NationalID = "1112223334"
	shift.ShiftStart = "26:00"
	assert.Error(t, shift.Validate(validate, svc))
}
