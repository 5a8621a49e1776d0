package fees

import (
	"homestay-registration-backend/db/models"
	"homestay-registration-backend/utils/apperrors"

	"github.com/shopspring/decimal"
)

// RoomClass is one room type: how many rooms, beds in each and the nightly rate.
type RoomClass struct {
	Rooms       int              `json:"rooms"`
	BedsPerRoom int              `json:"beds_per_room"`
	Rate        *decimal.Decimal `json:"rate"`
}

// RoomConfiguration is the declared room set of a property.
type RoomConfiguration struct {
	Single            RoomClass `json:"single"`
	Double            RoomClass `json:"double"`
	FamilySuite       RoomClass `json:"family_suite"`
	AttachedWashrooms int       `json:"attached_washrooms"`
}

// RoomRules bounds a room configuration.
type RoomRules struct {
	MinRoomRate decimal.Decimal `json:"min_room_rate"`
	MaxRooms    int             `json:"max_rooms"`
	MaxBeds     int             `json:"max_beds"`
}

func DefaultRoomRules() RoomRules {
	return RoomRules{
		MinRoomRate: decimal.NewFromInt(100),
		MaxRooms:    6,
		MaxBeds:     12,
	}
}

type namedClass struct {
	label string
	class RoomClass
}

func (rc RoomConfiguration) classes() []namedClass {
	return []namedClass{
		{"Single bed room", rc.Single},
		{"Double bed room", rc.Double},
		{"Family suite", rc.FamilySuite},
	}
}

// Totals derives total rooms and beds. These are never taken from input.
func (rc RoomConfiguration) Totals() (rooms, beds int) {
	for _, nc := range rc.classes() {
		rooms += nc.class.Rooms
		beds += nc.class.Rooms * nc.class.BedsPerRoom
	}
	return rooms, beds
}

// HighestRate is the highest nightly rate across populated room classes.
func (rc RoomConfiguration) HighestRate() decimal.Decimal {
	highest := decimal.Zero
	for _, nc := range rc.classes() {
		if nc.class.Rooms > 0 && nc.class.Rate != nil && nc.class.Rate.GreaterThan(highest) {
			highest = *nc.class.Rate
		}
	}
	return highest.Round(2)
}

// ValidateCounts rejects negative room, bed and washroom counts. It holds
// for incomplete drafts too.
func ValidateCounts(rc RoomConfiguration) error {
	for _, nc := range rc.classes() {
		if nc.class.Rooms < 0 {
			return apperrors.Validation("invalid_room_count", "%s count cannot be negative", nc.label)
		}
		if nc.class.BedsPerRoom < 0 {
			return apperrors.Validation("invalid_beds_per_room", "%s beds per room cannot be negative", nc.label)
		}
	}
	if rc.AttachedWashrooms < 0 {
		return apperrors.Validation("invalid_washrooms", "Attached washrooms cannot be negative")
	}
	return nil
}

// Declared reports whether any room class has rooms.
func (rc RoomConfiguration) Declared() bool {
	for _, nc := range rc.classes() {
		if nc.class.Rooms != 0 {
			return true
		}
	}
	return false
}

// ValidateRooms enforces the room, bed, washroom and rate rules.
func ValidateRooms(rc RoomConfiguration, rules RoomRules) error {
	if err := ValidateCounts(rc); err != nil {
		return err
	}

	totalRooms, totalBeds := rc.Totals()
	if totalRooms == 0 {
		return apperrors.Validation("no_rooms", "At least one room must be configured")
	}
	if rules.MaxRooms > 0 && totalRooms > rules.MaxRooms {
		return apperrors.Validation("too_many_rooms",
			"A homestay may register at most %d rooms; %d configured", rules.MaxRooms, totalRooms)
	}

	for _, nc := range rc.classes() {
		if nc.class.Rooms == 0 {
			continue
		}
		if nc.class.BedsPerRoom < 1 {
			return apperrors.Validation("invalid_beds_per_room",
				"%ss must have at least one bed per room", nc.label)
		}
		if nc.class.Rate == nil || nc.class.Rate.LessThan(rules.MinRoomRate) {
			return apperrors.Validation("room_rate_below_minimum",
				"%s rate must be at least %s when %ss are configured",
				nc.label, rupees(rules.MinRoomRate), lowerFirst(nc.label))
		}
	}

	if rules.MaxBeds > 0 && totalBeds > rules.MaxBeds {
		return apperrors.Validation("too_many_beds",
			"A homestay may register at most %d beds; %d configured", rules.MaxBeds, totalBeds)
	}
	if rc.AttachedWashrooms < totalRooms {
		return apperrors.Validation("insufficient_washrooms",
			"Attached washrooms (%d) must be at least the total number of rooms (%d)", rc.AttachedWashrooms, totalRooms)
	}
	return nil
}

// RoomsOf reads the room configuration persisted on an application.
func RoomsOf(app *models.Application) RoomConfiguration {
	return RoomConfiguration{
		Single:            RoomClass{Rooms: app.SingleBedRooms, BedsPerRoom: app.SingleBedBeds, Rate: app.SingleBedRoomRate},
		Double:            RoomClass{Rooms: app.DoubleBedRooms, BedsPerRoom: app.DoubleBedBeds, Rate: app.DoubleBedRoomRate},
		FamilySuite:       RoomClass{Rooms: app.FamilySuites, BedsPerRoom: app.FamilySuiteBeds, Rate: app.FamilySuiteRate},
		AttachedWashrooms: app.AttachedWashrooms,
	}
}

// ApplyRooms writes rc onto app together with its derived totals.
func ApplyRooms(app *models.Application, rc RoomConfiguration) {
	app.SingleBedRooms, app.SingleBedBeds, app.SingleBedRoomRate = rc.Single.Rooms, rc.Single.BedsPerRoom, roundPtr(rc.Single.Rate)
	app.DoubleBedRooms, app.DoubleBedBeds, app.DoubleBedRoomRate = rc.Double.Rooms, rc.Double.BedsPerRoom, roundPtr(rc.Double.Rate)
	app.FamilySuites, app.FamilySuiteBeds, app.FamilySuiteRate = rc.FamilySuite.Rooms, rc.FamilySuite.BedsPerRoom, roundPtr(rc.FamilySuite.Rate)
	app.AttachedWashrooms = rc.AttachedWashrooms
	app.TotalRooms, app.TotalBeds = rc.Totals()
	app.HighestRoomRate = rc.HighestRate()
}

func roundPtr(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	r := d.Round(2)
	return &r
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}
