package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type BasicInfo struct {
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	Bio      string `json:"bio,omitempty"`
}

func (b BasicInfo) Value() (driver.Value, error) { return json.Marshal(b) }
func (b *BasicInfo) Scan(src interface{}) error  { return scanJSON(src, b) }

type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year,omitempty"`
	Grade       string `json:"grade,omitempty"`
}

type EducationList []Education

func (l EducationList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}
func (l *EducationList) Scan(src interface{}) error { return scanJSON(src, l) }

type Experience struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Duration    string `json:"duration,omitempty"`
	Description string `json:"description,omitempty"`
}

type ExperienceList []Experience

func (l ExperienceList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}
func (l *ExperienceList) Scan(src interface{}) error { return scanJSON(src, l) }

type Skill struct {
	Name  string `json:"name"`
	Level string `json:"level,omitempty"` // Beginner/Intermediate/Advanced/Expert
}

type SkillList []Skill

func (l SkillList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}
func (l *SkillList) Scan(src interface{}) error { return scanJSON(src, l) }

// Profile holds a candidate's professional background. One per user,
// created empty at registration and filled manually or from CV parsing.
type Profile struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	UserID       uuid.UUID      `json:"user_id" db:"user_id"`
	BasicInfo    BasicInfo      `json:"basic_info" db:"basic_info"`
	Education    EducationList  `json:"education" db:"education"`
	Experience   ExperienceList `json:"experience" db:"experience"`
	Skills       SkillList      `json:"skills" db:"skills"`
	CVFileName   string         `json:"cv_file_name,omitempty" db:"cv_file_name"`
	CVText       string         `json:"-" db:"cv_text"`
	CVUploadedAt *time.Time     `json:"cv_uploaded_at,omitempty" db:"cv_uploaded_at"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

type UpdateProfileRequest struct {
	BasicInfo  *BasicInfo     `json:"basic_info"`
	Education  EducationList  `json:"education"`
	Experience ExperienceList `json:"experience"`
	Skills     SkillList      `json:"skills"`
}

type UploadCVRequest struct {
	FileName string `json:"file_name" binding:"required"`
	Text     string `json:"text" binding:"required"`
}
