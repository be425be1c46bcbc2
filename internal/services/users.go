package services

import (
	"net/mail"
	"strconv"
	"strings"
	"time"

	"codeloom/internal/models"
	"codeloom/internal/utils"

	"github.com/juju/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserService owns user identity records and their stats rollup.
type UserService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db, now: func() time.Time { return time.Now().UTC() }}
}

type RegisterInput struct {
	Email       string `json:"email"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

// ProfileUpdate lists the fields a user may change on their own profile.
// Nil means "leave as is".
type ProfileUpdate struct {
	DisplayName       *string `json:"displayName"`
	Bio               *string `json:"bio"`
	Website           *string `json:"website"`
	Github            *string `json:"github"`
	Linkedin          *string `json:"linkedin"`
	Avatar            *string `json:"avatar"`
	PreferredLanguage *string `json:"preferredLanguage"`
	Theme             *string `json:"theme"`
}

// ExternalIdentity is what an external auth provider tells us about a user.
type ExternalIdentity struct {
	UID         string
	Email       string
	DisplayName string
	Avatar      string
}

func (s *UserService) Register(in RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return nil, invalidf("invalid email %q", in.Email)
	}
	if len(in.Password) < 6 {
		return nil, invalidf("password must be at least 6 characters")
	}

	username := strings.TrimSpace(in.Username)
	if username == "" {
		username = strings.Split(email, "@")[0]
	}
	if n := len([]rune(username)); n < 3 || n > 30 {
		return nil, invalidf("username must be 3 to 30 characters")
	}
	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		displayName = username
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, errors.Trace(err)
	}

	user := &models.User{
		Email:       email,
		Username:    username,
		DisplayName: displayName,
		Password:    &hash,
	}
	if err := s.create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// create inserts the user and its stats row together.
func (s *UserService) create(user *models.User) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&models.User{}).
			Where("email = ? OR username = ?", user.Email, user.Username).
			Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return errors.AlreadyExistsf("user with email %q or username %q", user.Email, user.Username)
		}

		if err := tx.Create(user).Error; err != nil {
			return err
		}

		now := s.now()
		stats := models.UserStats{
			UserID:         user.ID,
			ActiveDays:     1,
			WeeklyActivity: datatypes.JSONSlice[int](utils.NewWeeklyActivity(now)),
			LastActiveAt:   now,
		}
		return tx.Create(&stats).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errors.AlreadyExistsf("user with email %q or username %q", user.Email, user.Username)
	}
	return errors.Trace(err)
}

// Authenticate checks an email/password pair against the stored bcrypt hash.
func (s *UserService) Authenticate(email, password string) (*models.User, error) {
	var user models.User
	err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Unauthorizedf("invalid credentials")
		}
		return nil, errors.Trace(err)
	}
	if !user.HasPassword() || !utils.CheckPasswordHash(password, *user.Password) {
		return nil, errors.Unauthorizedf("invalid credentials")
	}
	return &user, nil
}

// UpsertExternal finds the user by external uid, then by email (linking the
// uid), and otherwise creates a password-less account.
func (s *UserService) UpsertExternal(id ExternalIdentity) (*models.User, error) {
	if id.UID == "" || id.Email == "" {
		return nil, invalidf("external identity needs uid and email")
	}
	email := strings.ToLower(id.Email)

	var user models.User
	err := s.db.Where("external_uid = ?", id.UID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Trace(err)
	}

	err = s.db.Where("email = ?", email).First(&user).Error
	if err == nil {
		uid := id.UID
		if err := s.db.Model(&user).Update("external_uid", uid).Error; err != nil {
			return nil, errors.Trace(err)
		}
		user.ExternalUID = &uid
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Trace(err)
	}

	uid := id.UID
	username, err := s.freeUsername(strings.Split(email, "@")[0])
	if err != nil {
		return nil, err
	}
	displayName := id.DisplayName
	if displayName == "" {
		displayName = username
	}
	user = models.User{
		Email:       email,
		Username:    username,
		DisplayName: displayName,
		Avatar:      id.Avatar,
		ExternalUID: &uid,
	}
	if err := s.create(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// freeUsername appends a counter until the name is unused.
func (s *UserService) freeUsername(base string) (string, error) {
	base = strings.ReplaceAll(utils.Slugify(base), "-", "")
	if len(base) < 3 {
		base += "user"
	}
	if len(base) > 24 {
		base = base[:24]
	}
	candidate := base
	for i := 2; i < 1000; i++ {
		var n int64
		if err := s.db.Model(&models.User{}).Where("username = ?", candidate).Count(&n).Error; err != nil {
			return "", errors.Annotate(err, "checking username")
		}
		if n == 0 {
			return candidate, nil
		}
		candidate = base + strconv.Itoa(i)
	}
	return candidate, nil
}

func (s *UserService) Get(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, notFound(err, "user %d", id)
	}
	return &user, nil
}

// UsersByIDs returns the users in id order; unknown ids are skipped.
func (s *UserService) UsersByIDs(ids []uint) ([]models.User, error) {
	users := []models.User{}
	if len(ids) == 0 {
		return users, nil
	}
	if err := s.db.Where("id IN ?", ids).Order("id ASC").Find(&users).Error; err != nil {
		return nil, errors.Trace(err)
	}
	return users, nil
}

// List returns every user. Callers must restrict this to admins.
func (s *UserService) List() ([]models.User, error) {
	users := []models.User{}
	if err := s.db.Order("id ASC").Find(&users).Error; err != nil {
		return nil, errors.Trace(err)
	}
	return users, nil
}

func (s *UserService) Update(id uint, in ProfileUpdate) (*models.User, error) {
	updates := map[string]any{}
	set := func(column string, v *string, max int) error {
		if v == nil {
			return nil
		}
		value := strings.TrimSpace(*v)
		if len([]rune(value)) > max {
			return invalidf("%s longer than %d characters", column, max)
		}
		updates[column] = value
		return nil
	}
	for _, f := range []struct {
		column string
		value  *string
		max    int
	}{
		{"display_name", in.DisplayName, 80},
		{"bio", in.Bio, 500},
		{"website", in.Website, 255},
		{"github", in.Github, 255},
		{"linkedin", in.Linkedin, 255},
		{"avatar", in.Avatar, 1024},
		{"preferred_language", in.PreferredLanguage, 8},
		{"theme", in.Theme, 16},
	} {
		if err := set(f.column, f.value, f.max); err != nil {
			return nil, err
		}
	}
	if v, ok := updates["display_name"]; ok && v == "" {
		return nil, invalidf("displayName cannot be empty")
	}

	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return user, nil
	}
	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return nil, errors.Trace(err)
	}
	return s.Get(id)
}

func (s *UserService) SetStatus(id uint, status models.PresenceStatus) (*models.User, error) {
	if !status.Valid() {
		return nil, invalidf("unknown status %q", status)
	}
	res := s.db.Model(&models.User{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return nil, errors.Trace(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, errors.NotFoundf("user %d", id)
	}
	return s.Get(id)
}

func (s *UserService) GetStats(userID uint) (*models.UserStats, error) {
	var stats models.UserStats
	if err := s.db.Where("user_id = ?", userID).First(&stats).Error; err != nil {
		return nil, notFound(err, "stats for user %d", userID)
	}
	return &stats, nil
}
