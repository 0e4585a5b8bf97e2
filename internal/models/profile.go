package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/yoockh/floorscreen/internal/qualification"
	"gorm.io/datatypes"
)

type CandidateStatus string

const (
	CandidatePending CandidateStatus = "pending"
	CandidatePassed  CandidateStatus = "passed"
	CandidateFailed  CandidateStatus = "failed"
)

func (s CandidateStatus) Valid() bool {
	switch s {
	case CandidatePending, CandidatePassed, CandidateFailed:
		return true
	}
	return false
}

// Candidate is the installer applicant row reviewed on the dashboard.
type Candidate struct {
	ID        string  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email     string  `gorm:"column:email;type:text;uniqueIndex" json:"email"`
	FirstName string  `gorm:"column:first_name;type:text" json:"first_name"`
	LastName  string  `gorm:"column:last_name;type:text" json:"last_name"`
	Phone     *string `gorm:"column:phone;type:text" json:"phone,omitempty"`

	Status         CandidateStatus `gorm:"column:status;type:text;index;default:pending" json:"status"`
	OverallScore   *int            `gorm:"column:overall_score;type:integer" json:"overall_score,omitempty"`
	PassFailReason *string         `gorm:"column:pass_fail_reason;type:text" json:"pass_fail_reason,omitempty"`

	YearsOfExperience *int           `gorm:"column:years_of_experience;type:integer;index" json:"years_of_experience,omitempty"`
	FlooringSkills    pq.StringArray `gorm:"column:flooring_skills;type:text[]" json:"flooring_skills"`

	HasOwnCrew  *bool `gorm:"column:has_own_crew" json:"has_own_crew,omitempty"`
	CrewSize    *int  `gorm:"column:crew_size;type:integer" json:"crew_size,omitempty"`
	HasOwnTools *bool `gorm:"column:has_own_tools" json:"has_own_tools,omitempty"`

	HasInsurance               *bool `gorm:"column:has_insurance" json:"has_insurance,omitempty"`
	HasGeneralLiability        *bool `gorm:"column:has_general_liability" json:"has_general_liability,omitempty"`
	HasCommercialAutoLiability *bool `gorm:"column:has_commercial_auto_liability" json:"has_commercial_auto_liability,omitempty"`
	HasWorkersComp             *bool `gorm:"column:has_workers_comp" json:"has_workers_comp,omitempty"`
	HasWorkersCompExemption    *bool `gorm:"column:has_workers_comp_exemption" json:"has_workers_comp_exemption,omitempty"`

	HasLicense         *bool `gorm:"column:has_license" json:"has_license,omitempty"`
	HasBusinessLicense *bool `gorm:"column:has_business_license" json:"has_business_license,omitempty"`
	IsSunbizRegistered *bool `gorm:"column:is_sunbiz_registered" json:"is_sunbiz_registered,omitempty"`
	IsSunbizActive     *bool `gorm:"column:is_sunbiz_active" json:"is_sunbiz_active,omitempty"`

	CanPassBackgroundCheck *bool   `gorm:"column:can_pass_background_check" json:"can_pass_background_check,omitempty"`
	BackgroundCheckDetails *string `gorm:"column:background_check_details;type:text" json:"background_check_details,omitempty"`

	MondayToFridayAvailability *string `gorm:"column:monday_to_friday_availability;type:text" json:"monday_to_friday_availability,omitempty"`
	SaturdayAvailability       *string `gorm:"column:saturday_availability;type:text" json:"saturday_availability,omitempty"`

	OpenToTravel    *bool          `gorm:"column:open_to_travel" json:"open_to_travel,omitempty"`
	TravelLocations pq.StringArray `gorm:"column:travel_locations;type:text[]" json:"travel_locations"`

	ExtractedData datatypes.JSON `gorm:"column:extracted_data;type:jsonb" json:"extracted_data,omitempty"`
	Notes         *string        `gorm:"column:notes;type:text" json:"notes,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Candidate) TableName() string { return "installers" }

// ApplyRecord copies the qualification fields onto the row. Contact fields
// are only filled when the row does not have them yet.
func (c *Candidate) ApplyRecord(r qualification.Record) {
	if c.Phone == nil && r.Phone != nil {
		c.Phone = r.Phone
	}
	if c.FirstName == "" && r.FirstName != nil {
		c.FirstName = *r.FirstName
	}
	if c.LastName == "" && r.LastName != nil {
		c.LastName = *r.LastName
	}

	c.YearsOfExperience = r.YearsOfExperience
	c.FlooringSkills = pq.StringArray(r.Skills())
	c.HasOwnCrew = r.HasOwnCrew
	c.CrewSize = r.CrewSize
	c.HasOwnTools = r.HasOwnTools
	c.HasInsurance = r.HasInsurance
	c.HasGeneralLiability = r.HasGeneralLiability
	c.HasCommercialAutoLiability = r.HasCommercialAutoLiability
	c.HasWorkersComp = r.HasWorkersComp
	c.HasWorkersCompExemption = r.HasWorkersCompExemption
	c.HasLicense = r.HasLicense
	c.HasBusinessLicense = r.HasBusinessLicense
	c.IsSunbizRegistered = r.IsSunbizRegistered
	c.IsSunbizActive = r.IsSunbizActive
	c.CanPassBackgroundCheck = r.CanPassBackgroundCheck
	c.BackgroundCheckDetails = r.BackgroundCheckDetails
	c.MondayToFridayAvailability = r.MondayToFridayAvailability
	c.SaturdayAvailability = r.SaturdayAvailability
	c.OpenToTravel = r.OpenToTravel
	c.TravelLocations = pq.StringArray(r.TravelLocations)
	if c.Notes == nil && r.AdditionalNotes != nil {
		c.Notes = r.AdditionalNotes
	}
}

// ApplyResult stores the scoring decision.
func (c *Candidate) ApplyResult(res qualification.Result) {
	score := res.Score
	reason := res.Reason
	c.OverallScore = &score
	c.PassFailReason = &reason
	if res.Passed {
		c.Status = CandidatePassed
	} else {
		c.Status = CandidateFailed
	}
}

func (c *Candidate) FullName() string {
	switch {
	case c.FirstName != "" && c.LastName != "":
		return c.FirstName + " " + c.LastName
	case c.FirstName != "":
		return c.FirstName
	default:
		return c.LastName
	}
}
