package model

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Role — тип учётной записи.
type Role string

const (
	RoleClient   Role = "client"
	RoleProvider Role = "provider"
)

func (r Role) Valid() bool {
	return r == RoleClient || r == RoleProvider
}

type Gender string

const (
	GenderMale        Gender = "M"
	GenderFemale      Gender = "F"
	GenderTrans       Gender = "T"
	GenderNonBinary   Gender = "N"
	GenderOther       Gender = "O"
	GenderUndisclosed Gender = "P"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderTrans, GenderNonBinary, GenderOther, GenderUndisclosed:
		return true
	}
	return false
}

// ErrRoleConflict — попытка завести профиль, не совпадающий с ролью аккаунта.
var ErrRoleConflict = errors.New("account already has a profile of another role")

// accounts
type Account struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Email        string          `gorm:"type:varchar(255);not null;uniqueIndex"`
	FullName     string          `gorm:"type:varchar(255);not null"`
	BirthDate    *datatypes.Date `gorm:"type:date"`
	Gender       Gender          `gorm:"type:varchar(1)"`
	NationalID   string          `gorm:"type:varchar(11)"` // CPF без пунктуации
	Role         Role            `gorm:"type:varchar(16);not null;index"`
	PasswordHash string          `gorm:"type:varchar(255)"`

	SoftDelete

	CreatedAt time.Time
	UpdatedAt time.Time

	ClientProfile   *ClientProfile   `gorm:"foreignKey:AccountID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	ProviderProfile *ProviderProfile `gorm:"foreignKey:AccountID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (a *Account) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// ShortName — первое слово имени, либо email.
func (a *Account) ShortName() string {
	if fields := strings.Fields(a.FullName); len(fields) > 0 {
		return fields[0]
	}
	return a.Email
}

// Age в полных годах на момент now; 0, если дата рождения неизвестна.
func (a *Account) Age(now time.Time) int {
	if a.BirthDate == nil {
		return 0
	}
	born := time.Time(*a.BirthDate)
	age := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// ProfileKind — дискриминатор профиля аккаунта.
type ProfileKind int

const (
	ProfileNone ProfileKind = iota
	ProfileClient
	ProfileProvider
)

// Profile — тегированное объединение ClientProfile | ProviderProfile | None.
type Profile struct {
	Kind     ProfileKind
	Client   *ClientProfile
	Provider *ProviderProfile
}

// Profile возвращает профиль по роли. Ветка заполнена, только если профиль загружен (Preload).
func (a *Account) Profile() Profile {
	switch a.Role {
	case RoleClient:
		return Profile{Kind: ProfileClient, Client: a.ClientProfile}
	case RoleProvider:
		return Profile{Kind: ProfileProvider, Provider: a.ProviderProfile}
	default:
		return Profile{Kind: ProfileNone}
	}
}

// ValidateProfileKind проверяет, что аккаунту можно завести профиль вида kind.
func (a *Account) ValidateProfileKind(kind ProfileKind) error {
	if a.Profile().Kind != kind {
		return ErrRoleConflict
	}
	return nil
}
