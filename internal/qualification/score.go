package qualification

const PassingScore = 50

const (
	ReasonExperience   = "Minimum 1 year of experience required"
	ReasonInsurance    = "Insurance is required (General Liability, Commercial Auto, or Worker's Comp)"
	ReasonQualified    = "Meets all minimum requirements"
	ReasonInsufficient = "Does not meet minimum qualification score"
)

type Result struct {
	Score  int    `json:"score" bson:"score"`
	Passed bool   `json:"passed" bson:"passed"`
	Reason string `json:"reason" bson:"reason"`
}

// Breakdown holds the weighted sub-scores before clamping.
type Breakdown struct {
	Experience   int `json:"experience"`
	Crew         int `json:"crew"`
	Tools        int `json:"tools"`
	Insurance    int `json:"insurance"`
	Registration int `json:"registration"`
	License      int `json:"license"`
	Skills       int `json:"skills"`
}

func (b Breakdown) Total() int {
	return b.Experience + b.Crew + b.Tools + b.Insurance + b.Registration + b.License + b.Skills
}

// Score is total and deterministic: absent fields contribute nothing.
func Score(r Record) Result {
	total := Weigh(r).Total()
	if total > 100 {
		total = 100
	}
	if total < 0 {
		total = 0
	}

	res := Result{Score: total}
	switch {
	case r.YearsOfExperience == nil || *r.YearsOfExperience < 1:
		res.Reason = ReasonExperience
	case !r.HasAnyInsurance():
		res.Reason = ReasonInsurance
	case total >= PassingScore:
		res.Passed = true
		res.Reason = ReasonQualified
	default:
		res.Reason = ReasonInsufficient
	}
	return res
}

func Weigh(r Record) Breakdown {
	var b Breakdown

	b.Experience = ExperiencePoints(r.YearsOfExperience)

	if isTrue(r.HasOwnCrew) {
		b.Crew = 7
		if r.CrewSize != nil && *r.CrewSize >= 3 {
			b.Crew += 3
		}
	}
	if isTrue(r.HasOwnTools) {
		b.Tools = 10
	}
	if r.HasAnyInsurance() {
		b.Insurance = 20
	}
	if isTrue(r.HasBusinessLicense) {
		b.Registration += 8
	}
	if isTrue(r.IsSunbizRegistered) {
		b.Registration += 7
	}
	if isTrue(r.HasLicense) {
		b.License = 10
	}
	if b.Skills = len(r.Skills()) * 2; b.Skills > 10 {
		b.Skills = 10
	}
	return b
}

// ExperiencePoints scores years of experience. A present value below one
// year still earns the minimum band.
func ExperiencePoints(years *int) int {
	if years == nil {
		return 0
	}
	switch y := *years; {
	case y >= 10:
		return 25
	case y >= 5:
		return 20
	case y >= 3:
		return 15
	case y >= 1:
		return 10
	default:
		return 5
	}
}
