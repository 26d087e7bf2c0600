package property

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/Bernah2o/altavista/core"
)

var (
	// errors
	ErrHomeNotFound    = errors.New("home not found")
	ErrOwnerNotFound   = errors.New("owner not found")
	ErrHomeExists      = errors.New("a home with this block and number already exists")
	ErrOwnerExists     = errors.New("an owner with this national ID already exists")
	ErrAlreadyAssigned = errors.New("owner already assigned to this home")
)

type (
	Repository interface {
		CheckHomeUniqueness(ctx context.Context, block, number string) error
		CreateHome(ctx context.Context, hm Home) (Home, error)
		// QueryHomes applies AND operation on available HomeFilter fields.
		QueryHomes(ctx context.Context, filter *HomeFilter, ordering []core.DBOrdering) ([]Home, error)
		GetHome(ctx context.Context, filter HomeGetFilter) (Home, error)
		UpdateHome(ctx context.Context, hm Home) (Home, error)
		DeleteHomesByID(ctx context.Context, ids []string) (int, error)

		CheckOwnerUniqueness(ctx context.Context, nationalID string, excludedOwners ...Owner) error
		CreateOwner(ctx context.Context, own Owner) (Owner, error)
		QueryOwners(ctx context.Context, filter *OwnerFilter, ordering []core.DBOrdering) ([]Owner, error)
		GetOwner(ctx context.Context, filter OwnerGetFilter) (Owner, error)
		UpdateOwner(ctx context.Context, own Owner) (Owner, error)
		DeleteOwnersByID(ctx context.Context, ids []string) (int, error)

		CreateHomeOwner(ctx context.Context, rel HomeOwner) (HomeOwner, error)
		// QueryHomeOwners returns the occupancy records of a home, newest first.
		QueryHomeOwners(ctx context.Context, homeID string, activeOnly bool) ([]HomeOwner, error)
		// QueryOwnerHomes returns the homes an owner is currently related to.
		QueryOwnerHomes(ctx context.Context, ownerID string) ([]Home, error)
		EndHomeOwner(ctx context.Context, homeID, ownerID string, endDate time.Time) error
	}

	Service struct {
		conf *core.Config
		repo Repository
	}
)

// HomeGetFilter selects a single home; the first non-empty field wins.
type HomeGetFilter struct {
	ID     string
	Block  string // combined with Number
	Number string
}

// OwnerGetFilter selects a single owner; the first non-empty field wins.
type OwnerGetFilter struct {
	ID         string
	NationalID string
	UserID     string
}

func NewService(conf *core.Config, repo Repository) *Service {
	return &Service{conf: conf, repo: repo}
}

func (svc *Service) checkHomeUniqueness(block, number string) error {
	if err := svc.repo.CheckHomeUniqueness(context.Background(), block, number); err != nil {
		if err == ErrHomeExists {
			return core.NewValidationError(err, core.FieldError{Field: "number", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) checkOwnerUniqueness(nationalID string, exclOwners ...Owner) error {
	if err := svc.repo.CheckOwnerUniqueness(context.Background(), nationalID, exclOwners...); err != nil {
		if err == ErrOwnerExists {
			return core.NewValidationError(err, core.FieldError{Field: "national_id", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) CreateHome(nh NewHome) (Home, error) {
	now := time.Now().UTC()
	hm := Home{
		Block:                nh.Block,
		Number:               nh.Number,
		AreaM2:               nh.AreaM2,
		BuiltAreaM2:          nh.BuiltAreaM2,
		OwnershipCoefficient: nh.OwnershipCoefficient,
		HasExtension:         nh.HasExtension,
		DeliveredOn:          nh.DeliveredOn,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if nh.Inhabited != nil {
		hm.Inhabited = *nh.Inhabited
	}
	return svc.repo.CreateHome(context.Background(), hm)
}

func (svc *Service) QueryHomes(filter *HomeFilter, ordering []core.DBOrdering) ([]Home, error) {
	return svc.repo.QueryHomes(context.Background(), filter, ordering)
}

func (svc *Service) GetHomeByID(id string) (Home, error) {
	return svc.repo.GetHome(context.Background(), HomeGetFilter{ID: id})
}

func (svc *Service) GetHomeByBlockNumber(block, number string) (Home, error) {
	return svc.repo.GetHome(context.Background(), HomeGetFilter{
		Block:  core.CleanString(block),
		Number: core.CleanString(number),
	})
}

func (svc *Service) UpdateHome(id string, uh UpdateHome) (Home, error) {
	hm, err := svc.GetHomeByID(id)
	if err != nil {
		return Home{}, err
	}
	if uh.AreaM2 != nil {
		hm.AreaM2 = *uh.AreaM2
	}
	if uh.BuiltAreaM2 != nil {
		hm.BuiltAreaM2 = *uh.BuiltAreaM2
	}
	if uh.OwnershipCoefficient != nil {
		hm.OwnershipCoefficient = *uh.OwnershipCoefficient
	}
	if uh.Inhabited != nil {
		hm.Inhabited = *uh.Inhabited
	}
	if uh.HasExtension != nil {
		hm.HasExtension = *uh.HasExtension
	}
	if uh.DeliveredOn.Valid {
		hm.DeliveredOn = uh.DeliveredOn
	}
	hm.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateHome(context.Background(), hm)
}

func (svc *Service) DeleteHomes(ids ...string) error {
	_, err := svc.repo.DeleteHomesByID(context.Background(), ids)
	return err
}

func (svc *Service) CreateOwner(no NewOwner) (Owner, error) {
	own := Owner{
		FirstName:    no.FirstName,
		LastName:     no.LastName,
		NationalID:   no.NationalID,
		Phone:        no.Phone,
		Email:        no.Email,
		UserID:       no.UserID,
		RegisteredOn: time.Now().UTC(),
	}
	return svc.repo.CreateOwner(context.Background(), own)
}

func (svc *Service) QueryOwners(filter *OwnerFilter, ordering []core.DBOrdering) ([]Owner, error) {
	return svc.repo.QueryOwners(context.Background(), filter, ordering)
}

func (svc *Service) GetOwnerByID(id string) (Owner, error) {
	return svc.repo.GetOwner(context.Background(), OwnerGetFilter{ID: id})
}

func (svc *Service) GetOwnerByNationalID(nid string) (Owner, error) {
	return svc.repo.GetOwner(context.Background(), OwnerGetFilter{NationalID: core.CleanString(nid)})
}

func (svc *Service) GetOwnerByUserID(userID string) (Owner, error) {
	return svc.repo.GetOwner(context.Background(), OwnerGetFilter{UserID: userID})
}

func (svc *Service) UpdateOwner(id string, uo UpdateOwner) (Owner, error) {
	own, err := svc.GetOwnerByID(id)
	if err != nil {
		return Owner{}, err
	}
	own.FirstName = uo.FirstName
	own.LastName = uo.LastName
	if uo.Phone.Valid {
		own.Phone = uo.Phone
	}
	if uo.Email.Valid {
		own.Email = uo.Email
	}
	if uo.UserID.Valid {
		own.UserID = uo.UserID
	}
	return svc.repo.UpdateOwner(context.Background(), own)
}

func (svc *Service) DeleteOwners(ids ...string) error {
	_, err := svc.repo.DeleteOwnersByID(context.Background(), ids)
	return err
}

// Assign relates an owner to a home. An owner can only hold one open
// relation per home at a time.
func (svc *Service) Assign(homeID string, ao AssignOwner) (HomeOwner, error) {
	ctx := context.Background()

	if _, err := svc.GetHomeByID(homeID); err != nil {
		return HomeOwner{}, err
	}
	if _, err := svc.GetOwnerByID(ao.OwnerID); err != nil {
		return HomeOwner{}, err
	}

	active, err := svc.repo.QueryHomeOwners(ctx, homeID, true /* activeOnly */)
	if err != nil {
		return HomeOwner{}, err
	}
	for _, rel := range active {
		if rel.OwnerID == ao.OwnerID {
			return HomeOwner{}, core.NewValidationError(ErrAlreadyAssigned)
		}
	}

	now := time.Now().UTC()
	rel := HomeOwner{
		OwnerID:   ao.OwnerID,
		HomeID:    homeID,
		StartDate: ao.StartDate,
		Notes:     ao.Notes,
		IsOwner:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if ao.IsOwner != nil {
		rel.IsOwner = *ao.IsOwner
	}
	rel, err = svc.repo.CreateHomeOwner(ctx, rel)
	if errors.Cause(err) == ErrAlreadyAssigned { // lost the race against a concurrent assignment
		return HomeOwner{}, core.NewValidationError(ErrAlreadyAssigned)
	}
	return rel, err
}

// Release closes the open relation between an owner and a home.
func (svc *Service) Release(homeID, ownerID string, endDate time.Time) error {
	if endDate.IsZero() {
		endDate = time.Now().UTC()
	}
	return svc.repo.EndHomeOwner(context.Background(), homeID, ownerID, endDate)
}

func (svc *Service) QueryHomeOwners(homeID string, activeOnly bool) ([]HomeOwner, error) {
	return svc.repo.QueryHomeOwners(context.Background(), homeID, activeOnly)
}

func (svc *Service) QueryOwnerHomes(ownerID string) ([]Home, error) {
	return svc.repo.QueryOwnerHomes(context.Background(), ownerID)
}
