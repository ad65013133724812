package models

import "time"

// DateLayout is the calendar-date format used by due_date form fields.
const DateLayout = "2006-01-02"

type Task struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `gorm:"type:date" json:"due_date,omitempty"`
	Completed   bool       `gorm:"not null;default:false" json:"completed"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	User        *User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	//nil means the "no project" group
	ProjectID *uint     `gorm:"index" json:"project_id,omitempty"`
	Project   *Project  `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DueDateValue formats the due date for form inputs, empty when unset.
func (t Task) DueDateValue() string {
	if t.DueDate == nil {
		return ""
	}
	return t.DueDate.Format(DateLayout)
}

// InProject reports whether the task belongs to project id.
func (t Task) InProject(id uint) bool {
	return t.ProjectID != nil && *t.ProjectID == id
}
