package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/floorscreen/internal/interview"
	"github.com/yoockh/floorscreen/internal/providers/llm"
	"github.com/yoockh/floorscreen/internal/qualification"
)

// TranscriptExtractor turns a finished transcript into a qualification record.
// An error means the collaborator could not be reached; unusable output
// yields an empty record instead.
type TranscriptExtractor interface {
	Extract(ctx context.Context, transcript []interview.Turn) (qualification.Record, error)
}

const extractorSystem = `You extract structured data from a flooring installer prescreening interview.
Return one JSON object containing only fields that the candidate actually mentioned.

Interpret yes/no answers generously: "yes", "yeah", "sure", "I do", "I have", "correct",
"that's right" mean true; "no", "nope", "I don't", "not yet", "negative" mean false.
Leave a field out when the answer is ambiguous.

Fields:
firstName, lastName, email, phone (strings)
yearsOfExperience (number)
flooringSkills (string array, e.g. ["Carpet", "LVP", "Tile"])
hasOwnCrew (boolean), crewSize (number), hasOwnTools (boolean), toolsDescription (string)
hasInsurance, hasGeneralLiability, hasCommercialAutoLiability, hasWorkersComp, hasWorkersCompExemption (booleans), insuranceType (string)
isSunbizRegistered, isSunbizActive, hasBusinessLicense, hasLicense (booleans), licenseInfo (string)
canPassBackgroundCheck (boolean), backgroundCheckDetails (string)
mondayToFridayAvailability, saturdayAvailability (strings)
openToTravel (boolean), travelLocations (string array)
additionalNotes (string)

If any of General Liability, Commercial Auto or Worker's Comp is true, also set hasInsurance to true.`

type Extractor struct {
	llm llm.Provider
	log *logrus.Logger
}

func NewExtractor(p llm.Provider, log *logrus.Logger) *Extractor {
	if log == nil {
		log = logrus.New()
	}
	return &Extractor{llm: p, log: log}
}

func (e *Extractor) Extract(ctx context.Context, transcript []interview.Turn) (qualification.Record, error) {
	raw, err := llm.Collect(ctx, e.llm, llm.Request{
		System:      extractorSystem,
		Prompt:      "Extract structured data from this interview transcript:\n\n" + FormatTranscript(transcript),
		JSON:        true,
		Temperature: 0.1,
	})
	if err != nil {
		return qualification.Record{}, err
	}

	rec, ignored, err := qualification.DecodeJSON([]byte(stripCodeFence(raw)))
	if err != nil {
		e.log.WithError(err).Warn("extractor returned malformed json; using empty record")
		return qualification.Record{}, nil
	}
	if len(ignored) > 0 {
		e.log.WithField("fields", ignored).Debug("extractor returned unknown fields")
	}
	return rec, nil
}

// FormatTranscript renders question/answer pairs. Each candidate turn is
// paired with the interviewer line that preceded it.
func FormatTranscript(turns []interview.Turn) string {
	var b strings.Builder
	var lastQuestion string
	for _, t := range turns {
		if t.Role == interview.RoleInterviewer {
			lastQuestion = t.Text
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("Q: ")
		b.WriteString(lastQuestion)
		b.WriteString("\nA: ")
		b.WriteString(t.Text)
	}
	return b.String()
}
