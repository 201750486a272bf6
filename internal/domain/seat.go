package domain

type (
	CarID  uint64
	SeatID uint64
)

type Car struct {
	ID   CarID  `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:64;not null" json:"name"`

	Seats []Seat `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Seat is an assignable slot within a car. (CarID, Number) is unique and
// UserID is only set while Occupied.
type Seat struct {
	ID       SeatID  `gorm:"primaryKey" json:"id"`
	CarID    CarID   `gorm:"not null;uniqueIndex:idx_seat_car_number" json:"carId"`
	Number   uint32  `gorm:"not null;uniqueIndex:idx_seat_car_number" json:"number"`
	Occupied bool    `gorm:"not null;default:false" json:"occupied"`
	UserID   *UserID `gorm:"index" json:"userId,omitempty"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`
}

func NewSeat(car CarID, number uint32) (*Seat, error) {
	if number == 0 {
		return nil, ErrInvalidSeat
	}
	return &Seat{CarID: car, Number: number}, nil
}

func (s *Seat) OccupiedBy(uid UserID) bool {
	return s.Occupied && s.UserID != nil && *s.UserID == uid
}
