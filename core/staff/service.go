package staff

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/Bernah2o/altavista/core"
)

var (
	// errors
	ErrNotFound       = errors.New("employee not found")
	ErrEmployeeExists = errors.New("an employee with this national ID already exists")
)

type (
	Repository interface {
		CheckUniqueness(ctx context.Context, nationalID string, excludedEmployees ...Employee) error
		CreateEmployee(ctx context.Context, emp Employee) (Employee, error)
		// QueryEmployees applies AND operation on available QueryFilter fields.
		QueryEmployees(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Employee, error)
		GetEmployee(ctx context.Context, id string) (Employee, error)
		UpdateEmployee(ctx context.Context, emp Employee) (Employee, error)
		DeleteEmployeesByID(ctx context.Context, ids []string) (int, error)
	}

	Service struct {
		conf *core.Config
		repo Repository
	}
)

func NewService(conf *core.Config, repo Repository) *Service {
	return &Service{conf: conf, repo: repo}
}

func (svc *Service) checkUniqueness(nationalID string, exclEmployees ...Employee) error {
	if err := svc.repo.CheckUniqueness(context.Background(), nationalID, exclEmployees...); err != nil {
		if err == ErrEmployeeExists {
			return core.NewValidationError(err, core.FieldError{Field: "national_id", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ne NewEmployee) (Employee, error) {
	now := time.Now().UTC()
	emp := Employee{
		FirstName:  ne.FirstName,
		LastName:   ne.LastName,
		NationalID: ne.NationalID,
		Position:   ne.Position,
		HiredOn:    ne.HiredOn,
		Salary:     ne.Salary,
		Phone:      ne.Phone,
		Email:      ne.Email,
		Address:    ne.Address,
		Active:     true,
		UserID:     ne.UserID,
		ShiftStart: ne.ShiftStart,
		ShiftEnd:   ne.ShiftEnd,
		WorkDays:   ne.WorkDays,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return svc.repo.CreateEmployee(context.Background(), emp)
}

func (svc *Service) Query(filter *QueryFilter, ordering []core.DBOrdering) ([]Employee, error) {
	return svc.repo.QueryEmployees(context.Background(), filter, ordering)
}

func (svc *Service) GetByID(id string) (Employee, error) {
	return svc.repo.GetEmployee(context.Background(), id)
}

func (svc *Service) Update(id string, ue UpdateEmployee) (Employee, error) {
	emp, err := svc.GetByID(id)
	if err != nil {
		return Employee{}, err
	}
	if ue.FirstName != "" {
		emp.FirstName = ue.FirstName
	}
	if ue.LastName != "" {
		emp.LastName = ue.LastName
	}
	if ue.Position != "" {
		emp.Position = ue.Position
	}
	if ue.LeftOn.Valid {
		emp.LeftOn = ue.LeftOn
		emp.Active = false
	}
	if ue.Salary != nil {
		emp.Salary = *ue.Salary
	}
	if ue.Phone.Valid {
		emp.Phone = ue.Phone
	}
	if ue.Email.Valid {
		emp.Email = ue.Email
	}
	if ue.Address != "" {
		emp.Address = ue.Address
	}
	if ue.Active != nil {
		emp.Active = *ue.Active
	}
	if ue.UserID.Valid {
		emp.UserID = ue.UserID
	}
	if ue.ShiftStart != "" {
		emp.ShiftStart = ue.ShiftStart
	}
	if ue.ShiftEnd != "" {
		emp.ShiftEnd = ue.ShiftEnd
	}
	if ue.WorkDays != "" {
		emp.WorkDays = ue.WorkDays
	}
	emp.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateEmployee(context.Background(), emp)
}

func (svc *Service) Delete(ids ...string) error {
	_, err := svc.repo.DeleteEmployeesByID(context.Background(), ids)
	return err
}
