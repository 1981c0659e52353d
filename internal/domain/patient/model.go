// Package patient is the local patient directory. The external registry is
// the system of record: rows here mirror registry documents and are refreshed
// by sync, while clinical packages hang their records off the local id.
package patient

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Patient struct {
	ID              uuid.UUID
	DisplayName     string
	GivenName       string
	FamilyName      string
	Gender          string
	BirthDate       *time.Time
	AddressLine     string
	City            string
	Phone           string
	Identifier      string
	RawRegistryData json.RawMessage
	SyncedAt        *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Summary is the wire shape of a directory entry. It mirrors the registry
// document layout so clients read local and registry-fetched patients the
// same way.
type Summary struct {
	UUID        string              `json:"uuid"`
	Display     string              `json:"display"`
	Identifiers []SummaryIdentifier `json:"identifiers"`
	Person      SummaryPerson       `json:"person"`
}

type SummaryIdentifier struct {
	Identifier string `json:"identifier"`
}

type SummaryPerson struct {
	Display       string        `json:"display"`
	Gender        string        `json:"gender,omitempty"`
	BirthDate     string        `json:"birthdate,omitempty"`
	PreferredName PreferredName `json:"preferredName"`
}

type PreferredName struct {
	GivenName  string `json:"givenName,omitempty"`
	FamilyName string `json:"familyName,omitempty"`
}

// rawDocument is the subset of the stored registry document used when
// summarizing.
type rawDocument struct {
	Display     string `json:"display"`
	Identifiers []struct {
		Identifier string `json:"identifier"`
	} `json:"identifiers"`
	Person struct {
		Display       string `json:"display"`
		Gender        string `json:"gender"`
		BirthDate     string `json:"birthdate"`
		PreferredName struct {
			GivenName  string `json:"givenName"`
			FamilyName string `json:"familyName"`
		} `json:"preferredName"`
	} `json:"person"`
}

// Summary renders the directory entry, preferring the stored registry
// document and falling back to local columns where the document is missing
// a field.
func (p *Patient) Summary() Summary {
	s := Summary{UUID: p.ID.String()}

	var doc rawDocument
	hasDoc := len(p.RawRegistryData) > 0 && json.Unmarshal(p.RawRegistryData, &doc) == nil

	if hasDoc {
		s.Display = doc.Display
		for _, ident := range doc.Identifiers {
			if ident.Identifier != "" {
				s.Identifiers = append(s.Identifiers, SummaryIdentifier{Identifier: ident.Identifier})
			}
		}
		s.Person = SummaryPerson{
			Display:   doc.Person.Display,
			Gender:    doc.Person.Gender,
			BirthDate: doc.Person.BirthDate,
			PreferredName: PreferredName{
				GivenName:  doc.Person.PreferredName.GivenName,
				FamilyName: doc.Person.PreferredName.FamilyName,
			},
		}
		if s.Person.Display == "" {
			s.Person.Display = strings.TrimSpace(doc.Person.PreferredName.GivenName + " " + doc.Person.PreferredName.FamilyName)
		}
	}

	if s.Display == "" {
		s.Display = p.DisplayName
	}
	if s.Display == "" {
		s.Display = strings.TrimSpace(p.GivenName + " " + p.FamilyName)
	}
	if s.Display == "" && p.Identifier != "" {
		s.Display = "ID: " + p.Identifier
	}
	if len(s.Identifiers) == 0 && p.Identifier != "" {
		s.Identifiers = append(s.Identifiers, SummaryIdentifier{Identifier: p.Identifier})
	}
	if s.Person.Display == "" {
		s.Person.Display = strings.TrimSpace(p.GivenName + " " + p.FamilyName)
	}
	if s.Person.Gender == "" {
		s.Person.Gender = p.Gender
	}
	if s.Person.BirthDate == "" && p.BirthDate != nil {
		s.Person.BirthDate = p.BirthDate.Format("2006-01-02")
	}
	if s.Person.PreferredName.GivenName == "" {
		s.Person.PreferredName.GivenName = p.GivenName
	}
	if s.Person.PreferredName.FamilyName == "" {
		s.Person.PreferredName.FamilyName = p.FamilyName
	}
	return s
}

// ListResult is the directory listing payload. SyncErrorDetail is set when
// the listing succeeded but a preceding registry sync did not.
type ListResult struct {
	Results         []Summary `json:"results"`
	TotalCount      int       `json:"totalCount"`
	SyncErrorDetail string    `json:"sync_error_detail,omitempty"`
}

// RegisterInput is a new patient registration. The patient is created in the
// registry first; the registry's answer is what gets stored locally.
type RegisterInput struct {
	GivenName   string `json:"givenName"`
	FamilyName  string `json:"familyName"`
	Gender      string `json:"gender"`
	BirthDate   string `json:"birthdate"`
	Identifier  string `json:"identifier"`
	AddressLine string `json:"address1"`
	City        string `json:"cityVillage"`
	Phone       string `json:"phoneNumber"`
}

// parseBirthDate accepts the registry's timestamp format as well as a bare
// date.
func parseBirthDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000-0700", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	if len(s) >= 10 {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return &t
		}
	}
	return nil
}
