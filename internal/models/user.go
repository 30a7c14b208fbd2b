// Package models defines the User aggregate and the documents embedded in it.
package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"social/internal/validation"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt cost used when hashing passwords.
var PasswordCost = 12

const maxAboutLength = 280

// User is the aggregate root. Media, posts and conversations are embedded and
// saved together with the user.
type User struct {
	ID                 primitive.ObjectID `bson:"_id" json:"_id"`
	Version            int64              `bson:"version" json:"-"`
	Name               string             `bson:"name" json:"name"`
	Email              string             `bson:"email" json:"email"`
	Password           string             `bson:"password" json:"-"`
	PasswordModifiedAt int64              `bson:"passwordModifiedAt" json:"-"`
	Activated          bool               `bson:"activated" json:"activated"`
	Image              string             `bson:"image" json:"image"`
	About              string             `bson:"about" json:"about"`
	Media              Media              `bson:"media" json:"media"`
	Posts              Posts              `bson:"posts" json:"posts"`
	Conversations      Conversations      `bson:"conversations" json:"conversations"`
	Watchlist          []string           `bson:"watchlist" json:"watchlist"`
}

// UserPatch holds the optional fields of a profile update.
type UserPatch struct {
	Name          *string
	Email         *string
	Password      *string
	PasswordAgain *string
	Image         *string
	About         *string
	Watchlist     *[]string
}

// NewUser validates the signup fields and returns an unsaved user with a
// hashed password.
func NewUser(name, email, password, passwordAgain string) (*User, error) {
	u := &User{
		ID:            NewID(),
		Media:         Media{},
		Posts:         Posts{},
		Conversations: Conversations{},
		Watchlist:     []string{},
	}
	if err := u.setName(name); err != nil {
		return nil, err
	}
	if err := u.setEmail(email); err != nil {
		return nil, err
	}
	if err := u.SetPassword(password, passwordAgain); err != nil {
		return nil, err
	}
	return u, nil
}

// IDHex returns the user id as it appears in routes and tokens.
func (u *User) IDHex() string {
	return u.ID.Hex()
}

// Init replaces nil collections loaded from older documents with empty ones.
func (u *User) Init() {
	u.Media = orEmpty(u.Media)
	u.Posts = orEmpty(u.Posts)
	u.Conversations = orEmpty(u.Conversations)
	u.Watchlist = orEmpty(u.Watchlist)
}

// NormalizeEmail trims and lowercases an address the way it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) setName(name string) error {
	name = strings.TrimSpace(name)
	if err := validation.ValidateName(name); err != nil {
		return NewValueError(err.Error())
	}
	u.Name = name
	return nil
}

func (u *User) setEmail(email string) error {
	email = NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return NewValueError(err.Error())
	}
	u.Email = email
	return nil
}

// SetPassword checks that both entries match, hashes the password and marks
// the change time so older tokens stop validating.
func (u *User) SetPassword(password, passwordAgain string) error {
	if password != passwordAgain {
		return NewValueError("Passwords don't match!")
	}
	if err := validation.ValidatePassword(password); err != nil {
		return NewValueError(err.Error())
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return NewInternalError(err)
	}
	u.Password = string(hash)
	u.PasswordModifiedAt = time.Now().Unix()
	return nil
}

func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// Apply validates and applies every set field of p. Nothing is modified when
// any field is invalid.
func (u *User) Apply(p UserPatch) error {
	next := *u
	if p.Name != nil {
		if err := next.setName(*p.Name); err != nil {
			return err
		}
	}
	if p.Email != nil {
		if err := next.setEmail(*p.Email); err != nil {
			return err
		}
	}
	if p.Password != nil {
		if p.PasswordAgain == nil {
			return NewFieldError("passwordAgain")
		}
		if err := next.SetPassword(*p.Password, *p.PasswordAgain); err != nil {
			return err
		}
	}
	if p.Image != nil {
		next.Image = strings.TrimSpace(*p.Image)
	}
	if p.About != nil {
		about := strings.TrimSpace(*p.About)
		if utf8.RuneCountInString(about) > maxAboutLength {
			return NewValueError("'about' cannot exceed 280 characters")
		}
		next.About = about
	}
	if p.Watchlist != nil {
		next.Watchlist = orEmpty(*p.Watchlist)
	}
	*u = next
	return nil
}
